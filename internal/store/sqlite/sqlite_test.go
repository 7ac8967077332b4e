package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workshop/internal/store"
	"workshop/internal/store/storetest"
)

func newStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := New(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestBackend(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "data", "workshop.db"))
	defer s.Close()
	storetest.Run(t, s)
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workshop.db")
	ctx := context.Background()

	s := newStore(t, path)
	require.NoError(t, s.Put(ctx, store.CollectionEmployees, store.Document{ID: "e1", Data: []byte(`{"name":"Ali"}`)}))
	require.NoError(t, s.Close())

	reopened := newStore(t, path)
	defer reopened.Close()
	doc, err := reopened.Get(ctx, store.CollectionEmployees, "e1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ali"}`, string(doc.Data))
}
