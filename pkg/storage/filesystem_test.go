package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("archives/org-1/INC-2025-0001.pdf", []byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "archives/org-1/INC-2025-0001.pdf", rel)

	data, err := store.Read(rel)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF"), data)

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Read(rel)
	require.Error(t, err)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("x"))
	require.Error(t, err)
	_, err = store.Read("/etc/passwd")
	require.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	_, err = store.Save("guardian/old.pdf", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("guardian/new.pdf", []byte("new"))
	require.NoError(t, err)
	_, err = store.Save("archives/kept.pdf", []byte("kept"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "guardian", "old.pdf"), past, past))
	require.NoError(t, os.Chtimes(filepath.Join(base, "archives", "kept.pdf"), past, past))

	deleted, err := store.CleanupOlderThan("guardian", 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"guardian/old.pdf"}, deleted)

	_, err = store.Read("archives/kept.pdf")
	require.NoError(t, err)
}
