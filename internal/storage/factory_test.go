package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, CloseIfSupported(store))
}

func TestNewStoreDefaultKind(t *testing.T) {
	store, err := NewStore(DefaultStoreKind(), t.TempDir()+"/runs.db")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, CloseIfSupported(store))
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore("unknown", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}
