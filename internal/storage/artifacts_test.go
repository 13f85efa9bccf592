package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactStoreLifecycle(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	// Fresh store: nothing exists.
	assert.False(t, store.Exists())
	version, err := store.CurrentVersion()
	require.NoError(t, err)
	assert.Empty(t, version)
	_, err = store.ModTime()
	assert.Error(t, err)

	// First commit promotes immediately.
	require.NoError(t, store.Commit("v1", []byte("model-one")))
	assert.True(t, store.Exists())
	version, err = store.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1", version)

	data, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("model-one"), data)

	_, err = store.ModTime()
	assert.NoError(t, err)

	// Second commit swaps the pointer; v1 is retained.
	require.NoError(t, store.Commit("v2", []byte("model-two")))
	data, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("model-two"), data)

	// Rollback is a pointer reset to the retained version.
	require.NoError(t, store.Restore("v1"))
	data, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, []byte("model-one"), data)
}

func TestArtifactStoreRestoreMissingVersion(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Commit("v1", []byte("model")))
	err = store.Restore("never-committed")
	assert.Error(t, err)

	// Pointer untouched after the failed restore.
	version, err := store.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, "v1", version)
}

func TestArtifactStoreInvalidVersions(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	for _, version := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, store.Commit(version, []byte("x")), "version %q", version)
	}
}

func TestNewArtifactStoreRequiresDir(t *testing.T) {
	_, err := NewArtifactStore("")
	assert.Error(t, err)
}
