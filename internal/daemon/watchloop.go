package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/cameron-williams/rgdrive/internal/watch"
)

// watchLoop sweeps fired watch events on a fixed interval and pushes write
// events to the remote store. Polling trades a little latency for a loop
// that cannot busy-wait, and delivery is at-most-once per detected change:
// a failed update stays tracked and the next change retries it.
func (d *Daemon) watchLoop(ctx context.Context) error {
	slog.Debug("watch loop started", "interval", d.cfg.PollInterval)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, ev := range d.watcher.Drain() {
				d.handleEvent(ctx, ev)
			}
		}
	}
}

func (d *Daemon) handleEvent(ctx context.Context, ev watch.Event) {
	tracked, ok := d.registry.Resolve(ev.Handle)
	if !ok {
		// Raced removal: the watch fired after an unsync released it.
		slog.Warn("event for unknown watch handle", "handle", ev.Handle, "path", ev.Path)
		return
	}

	switch ev.Op {
	case watch.OpWrite:
		if err := d.drive.Update(ctx, tracked.Path, tracked.RemoteID); err != nil {
			slog.Error("remote update failed", "path", tracked.Path, "remote_id", tracked.RemoteID, "error", err)
			return
		}
		slog.Info("remote update", "path", tracked.Path, "remote_id", tracked.RemoteID)

	case watch.OpRemove, watch.OpRename:
		// The inode is gone but cleanup stays with an explicit unsync:
		// auto-removal would race editors that rename-then-recreate on save.
		slog.Info("tracked file moved or deleted, awaiting explicit unsync", "path", tracked.Path, "op", ev.Op)
	}
}
