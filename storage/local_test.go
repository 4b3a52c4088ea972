package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageArchiveAndRetrieve(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)
	ctx := context.Background()

	docID := "2011/CXII torveny"
	require.NoError(t, store.ArchiveRevision(ctx, docID, "original content"))

	// The legal identifier is sanitized into a directory name
	entries, err := os.ReadDir(filepath.Join(base, "2011_CXII_torveny"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	storagePath := filepath.Join("2011_CXII_torveny", entries[0].Name())
	reader, err := store.Retrieve(ctx, storagePath)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "original content", string(content))
}

func TestLocalStorageKeepsEveryRevision(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.ArchiveRevision(ctx, "law-1", "first"))
	require.NoError(t, store.ArchiveRevision(ctx, "law-1", "second"))

	entries, err := os.ReadDir(filepath.Join(base, "law-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLocalStorageDelete(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.ArchiveRevision(ctx, "law-1", "content"))

	entries, err := os.ReadDir(filepath.Join(base, "law-1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	storagePath := filepath.Join("law-1", entries[0].Name())

	require.NoError(t, store.Delete(ctx, storagePath))
	_, err = store.Retrieve(ctx, storagePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision not found")

	// Deleting an already-removed revision is not an error
	assert.NoError(t, store.Delete(ctx, storagePath))
}

func TestRevisionPathSanitization(t *testing.T) {
	path := revisionPath(`13/2001 (V. 9.) KoM\rendelet`)
	assert.True(t, strings.HasPrefix(path, "13_2001_(V._9.)_KoM_rendelet/"))
	assert.True(t, strings.HasSuffix(path, ".txt"))

	// Two revisions of the same document never collide
	assert.NotEqual(t, revisionPath("law-1"), revisionPath("law-1"))
}
