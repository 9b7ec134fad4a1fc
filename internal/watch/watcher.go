// Package watch wraps OS file-change notifications behind per-path
// watchpoints with opaque handles. Handles are process-local and do not
// survive a restart; callers re-register their paths at startup.
package watch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rjeczalik/notify"
)

const eventBufferSize = 64

// Handle identifies one registered watchpoint. Zero is never a valid handle.
type Handle int64

type Op uint8

const (
	// OpWrite fires when the watched file's content changes.
	OpWrite Op = iota
	// OpRemove fires when the watched file itself is deleted.
	OpRemove
	// OpRename fires when the watched file itself is moved away.
	OpRename
)

func (o Op) String() string {
	switch o {
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return fmt.Sprintf("???(%d)", uint8(o))
	}
}

// Event is one fired change, tagged with the handle it fired for.
type Event struct {
	Handle Handle
	Path   string
	Op     Op
}

type point struct {
	path string
	ch   chan notify.EventInfo
}

// Watcher owns a set of watchpoints and buffers their fired events until the
// next Drain. Bursts of write events for one handle collapse into a single
// pending event, so a file rewritten in many syscalls triggers one update.
type Watcher struct {
	mu           sync.Mutex
	seq          Handle
	points       map[Handle]*point
	pending      []Event
	pendingWrite map[Handle]int
	wg           sync.WaitGroup
	closed       bool
}

func New() *Watcher {
	return &Watcher{
		points:       make(map[Handle]*point),
		pendingWrite: make(map[Handle]int),
	}
}

// Add registers a watchpoint for write, remove-self and rename-self events on
// path and returns its handle.
func (w *Watcher) Add(path string) (Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, fmt.Errorf("watch: watcher closed")
	}

	ch := make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(path, ch, notify.Write, notify.Remove, notify.Rename); err != nil {
		return 0, fmt.Errorf("watch %q: %w", path, err)
	}

	w.seq++
	h := w.seq
	w.points[h] = &point{path: path, ch: ch}

	w.wg.Add(1)
	go w.forward(h, path, ch)

	return h, nil
}

// Remove releases the watchpoint for h. Unknown handles are a no-op.
func (w *Watcher) Remove(h Handle) {
	w.mu.Lock()
	p, ok := w.points[h]
	if ok {
		delete(w.points, h)
	}
	w.mu.Unlock()

	if !ok {
		return
	}

	// Stop guarantees no further sends on the channel, after which closing
	// it lets the forwarder exit.
	notify.Stop(p.ch)
	close(p.ch)
}

// Drain returns every event fired since the previous call and clears the
// buffer.
func (w *Watcher) Drain() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.pending
	w.pending = nil
	w.pendingWrite = make(map[Handle]int)
	return out
}

// Close releases all watchpoints and waits for the forwarders to finish.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	points := w.points
	w.points = make(map[Handle]*point)
	w.mu.Unlock()

	for _, p := range points {
		notify.Stop(p.ch)
		close(p.ch)
	}
	w.wg.Wait()
}

func (w *Watcher) forward(h Handle, path string, ch chan notify.EventInfo) {
	defer w.wg.Done()

	for ei := range ch {
		var op Op
		switch ei.Event() {
		case notify.Write:
			op = OpWrite
		case notify.Remove:
			op = OpRemove
		case notify.Rename:
			op = OpRename
		default:
			continue
		}
		w.record(Event{Handle: h, Path: path, Op: op})
	}
}

func (w *Watcher) record(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.Op == OpWrite {
		// Inotify fires a burst of write events while a file is being
		// written; keep only one per handle per drain window.
		if i, ok := w.pendingWrite[ev.Handle]; ok {
			w.pending[i] = ev
			return
		}
	}

	if len(w.pending) >= 4096 {
		slog.Warn("watch buffer full, dropping event", "path", ev.Path, "op", ev.Op)
		return
	}
	if ev.Op == OpWrite {
		w.pendingWrite[ev.Handle] = len(w.pending)
	}
	w.pending = append(w.pending, ev)
}
