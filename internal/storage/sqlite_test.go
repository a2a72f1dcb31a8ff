//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neuralnet.db"))
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "neuralnet.db")

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	snapshot := fixtureNetwork(t)
	require.NoError(t, store.SaveNetwork(ctx, snapshot))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	loaded, ok, err := reopened.GetNetwork(ctx, snapshot.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, loaded)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neuralnet.db"))
	_, _, err := store.GetNetwork(context.Background(), "n")
	require.Error(t, err)

	require.Error(t, NewSQLiteStore("").Init(context.Background()))
}
