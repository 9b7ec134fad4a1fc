// Package registry tracks which local paths are bound to which remote ids
// and keeps that set durable across daemon restarts. Watch handles are
// rebuilt from the stored pairs at load time; they never survive a restart.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cameron-williams/rgdrive/internal/watch"
)

// TrackedPath is one local-file-to-remote-id binding plus the live watch
// handle for it. Handle is zero until the path is registered with a running
// watcher.
type TrackedPath struct {
	Path     string
	RemoteID string
	Handle   watch.Handle
}

// Registry is the daemon's single authority on tracked paths. It is shared
// between the command dispatcher and the watch loop, so every method takes
// the one internal lock for the duration of its critical section and nothing
// more. No method calls back into another locking method.
type Registry struct {
	mu      sync.Mutex
	entries []TrackedPath
	watcher *watch.Watcher
	store   *Store
}

func New(store *Store, watcher *watch.Watcher) *Registry {
	return &Registry{
		store:   store,
		watcher: watcher,
	}
}

// Load reads the durable store and re-registers a watch for every stored
// pair. Entries whose watch registration fails are logged and dropped; a
// missing or corrupt store starts the daemon with an empty registry rather
// than failing it.
func (r *Registry) Load() {
	entries, err := r.store.Load()
	if err != nil {
		slog.Warn("registry load failed, starting empty", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		h, err := r.watcher.Add(e.Path)
		if err != nil {
			slog.Error("registry watch re-register failed, dropping entry", "path", e.Path, "error", err)
			continue
		}
		slog.Info("registry tracking", "path", e.Path, "remote_id", e.RemoteID)
		r.entries = append(r.entries, TrackedPath{Path: e.Path, RemoteID: e.RemoteID, Handle: h})
	}
}

// Add starts tracking path against remoteID. Adding an already-tracked path
// is a cheap no-op success and does not register a second watch.
func (r *Registry) Add(path, remoteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Path == path {
			return nil
		}
	}

	h, err := r.watcher.Add(path)
	if err != nil {
		return fmt.Errorf("registry add %q: %w", path, err)
	}

	r.entries = append(r.entries, TrackedPath{Path: path, RemoteID: remoteID, Handle: h})
	r.persistLocked()
	return nil
}

// Remove stops tracking every entry for path and releases its watches.
// Removing an untracked path is not an error. Returns how many entries were
// dropped.
func (r *Registry) Remove(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	removed := 0
	for _, e := range r.entries {
		if e.Path == path {
			if e.Handle != 0 {
				r.watcher.Remove(e.Handle)
			}
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept

	if removed > 0 {
		r.persistLocked()
	}
	return removed
}

// Resolve maps a fired watch handle back to its tracked path by linear scan.
// Registries stay small; O(n) is fine here.
func (r *Registry) Resolve(h watch.Handle) (TrackedPath, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Handle == h {
			return e, true
		}
	}
	return TrackedPath{}, false
}

// List returns a snapshot of the stored pairs.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pairsLocked()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// persistLocked writes the current set to the durable store. A failed write
// is logged and the in-memory set stays authoritative until the next
// successful one; it never fails the operation that triggered it.
func (r *Registry) persistLocked() {
	if err := r.store.Save(r.pairsLocked()); err != nil {
		slog.Error("registry persist failed", "path", r.store.Path(), "error", err)
	}
}

func (r *Registry) pairsLocked() []Entry {
	pairs := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		pairs = append(pairs, Entry{Path: e.Path, RemoteID: e.RemoteID})
	}
	return pairs
}
