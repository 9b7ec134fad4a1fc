package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cameron-williams/rgdrive/internal/utils"
)

// Entry is the durable form of one binding. Watch handles are process-local
// and deliberately excluded.
type Entry struct {
	Path     string `json:"path"`
	RemoteID string `json:"remote_id"`
}

// Store persists the registry as a JSON list at a fixed path. Every save
// rewrites the whole file: removed entries must disappear, so the store is a
// snapshot, not an append log.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the stored entries. A missing file is an empty registry, not an
// error.
func (s *Store) Load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("registry read %q: %w", s.path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("registry parse %q: %w", s.path, err)
	}
	return entries, nil
}

// Save replaces the stored entries. It writes to a temp file in the same
// directory and renames over the destination, so a save after the first one
// succeeds exactly like the first and a crash mid-write never corrupts the
// previous snapshot.
func (s *Store) Save(entries []Entry) error {
	if err := utils.EnsureParent(s.path); err != nil {
		return err
	}

	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tracked-*.tmp")
	if err != nil {
		return fmt.Errorf("registry temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("registry write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("registry close: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("registry rename: %w", err)
	}
	return nil
}
