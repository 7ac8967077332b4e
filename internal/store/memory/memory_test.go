package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/store"
	"workshop/internal/store/storetest"
)

func TestBackend(t *testing.T) {
	s := New()
	defer s.Close()
	storetest.Run(t, s)
}

func TestClosedStore(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	_, err := s.List(context.Background(), "employees")
	assert.True(t, errors.Is(err, store.ErrClosed))
	assert.True(t, errors.Is(s.Put(context.Background(), "employees", store.Document{ID: "1"}), store.ErrClosed))
	assert.True(t, errors.Is(s.Ping(context.Background()), store.ErrClosed))
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "employees", store.Document{ID: "1", Data: []byte(`{"a":1}`)}))

	docs, err := s.List(ctx, "employees")
	require.NoError(t, err)
	docs[0].Data[2] = 'b'

	doc, err := s.Get(ctx, "employees", "1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(doc.Data))
}

type item struct {
	Name string `json:"name"`
}

func TestCollectionWatch(t *testing.T) {
	s := New()
	defer s.Close()
	items := store.NewCollection[item](s, "items")
	require.NoError(t, items.Put(context.Background(), "1", item{Name: "first"}))

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := items.Watch(ctx)
	require.NoError(t, err)

	initial := <-updates
	require.Len(t, initial, 1)
	assert.Equal(t, "first", initial[0].Name)

	require.NoError(t, items.Put(context.Background(), "2", item{Name: "second"}))
	select {
	case got := <-updates:
		require.Len(t, got, 2)
		assert.Equal(t, "second", got[1].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no update after put")
	}

	cancel()
	for range updates {
	}
}

func TestCollectionGetMissing(t *testing.T) {
	s := New()
	defer s.Close()
	items := store.NewCollection[item](s, "items")

	_, err := items.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
