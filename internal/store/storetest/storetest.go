// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/store"
)

// Run exercises backend against a fresh collection name per subtest.
func Run(t *testing.T, backend store.Backend) {
	t.Helper()
	prefix := fmt.Sprintf("t%d", time.Now().UnixNano())

	t.Run("put get list", func(t *testing.T) {
		ctx := context.Background()
		name := prefix + "_docs"
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "b", Data: []byte(`{"n":1}`)}))
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "a", Data: []byte(`{"n":2}`)}))

		doc, err := backend.Get(ctx, name, "a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":2}`, string(doc.Data))
		assert.False(t, doc.CreatedAt.IsZero())

		docs, err := backend.List(ctx, name)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, "a", docs[1].ID)
	})

	t.Run("replace keeps created at", func(t *testing.T) {
		ctx := context.Background()
		name := prefix + "_replace"
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "x", Data: []byte(`{"v":"old"}`)}))
		before, err := backend.Get(ctx, name, "x")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "x", Data: []byte(`{"v":"new"}`)}))
		after, err := backend.Get(ctx, name, "x")
		require.NoError(t, err)

		assert.JSONEq(t, `{"v":"new"}`, string(after.Data))
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

		docs, err := backend.List(ctx, name)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("missing records", func(t *testing.T) {
		ctx := context.Background()
		name := prefix + "_missing"
		_, err := backend.Get(ctx, name, "nope")
		assert.True(t, errors.Is(err, store.ErrNotFound))
		assert.True(t, errors.Is(backend.Delete(ctx, name, "nope"), store.ErrNotFound))

		docs, err := backend.List(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		name := prefix + "_delete"
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "1", Data: []byte(`{}`)}))
		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "2", Data: []byte(`{}`)}))
		require.NoError(t, backend.Delete(ctx, name, "1"))

		docs, err := backend.List(ctx, name)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "2", docs[0].ID)
	})

	t.Run("subscribe", func(t *testing.T) {
		ctx := context.Background()
		name := prefix + "_signals"
		signals, cancel := backend.Subscribe(name)
		defer cancel()

		require.NoError(t, backend.Put(ctx, name, store.Document{ID: "1", Data: []byte(`{}`)}))
		select {
		case <-signals:
		case <-time.After(5 * time.Second):
			t.Fatal("no change signal after put")
		}
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, backend.Ping(context.Background()))
	})
}
