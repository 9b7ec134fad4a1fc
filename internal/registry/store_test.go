package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nope", "tracked_files.json"))
	entries, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreSaveOverwrites(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "tracked_files.json"))

	// Repeated saves must fully replace the previous contents, not append
	// and not fail because the file already exists.
	require.NoError(t, s.Save([]Entry{{Path: "/a", RemoteID: "1"}, {Path: "/b", RemoteID: "2"}}))
	require.NoError(t, s.Save([]Entry{{Path: "/b", RemoteID: "2"}}))
	require.NoError(t, s.Save(nil))
	require.NoError(t, s.Save([]Entry{{Path: "/c", RemoteID: "3"}}))

	entries, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Path: "/c", RemoteID: "3"}}, entries)
}

func TestStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "tracked_files.json")
	s := NewStore(path)

	require.NoError(t, s.Save([]Entry{{Path: "/a", RemoteID: "1"}}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracked_files.json")
	require.NoError(t, os.WriteFile(path, []byte("]["), 0o644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "tracked_files.json"))
	require.NoError(t, s.Save([]Entry{{Path: "/a", RemoteID: "1"}}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
