package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/cameron-williams/rgdrive/internal/utils"
	"github.com/cameron-williams/rgdrive/internal/wire"
	"github.com/dustin/go-humanize"
)

// handleConn runs one connection through decode, execute, reply. Every
// failure in here is scoped to this connection: logged, never propagated to
// the accept loop or the watch loop.
func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	frame, err := wire.ReadFrame(conn, d.cfg.IOTimeout)
	if err != nil {
		slog.Error("conn read", "error", err)
		return
	}

	cmd, err := wire.UnmarshalCommand(frame)
	if err != nil {
		slog.Error("conn decode", "error", err)
		return
	}

	// Unix sockets deliver occasional empty frames; those decode to CmdNone
	// and are dropped without noise.
	if cmd.Type == wire.CmdNone {
		return
	}

	slog.Debug("command received", "type", cmd.Type)
	result, shutdown := d.dispatch(ctx, cmd)

	if cmd.Type.ExpectsReply() && result != nil {
		data, err := wire.MarshalResult(result)
		if err != nil {
			slog.Error("conn encode result", "error", err)
		} else if err := wire.WriteFrame(conn, data, d.cfg.IOTimeout); err != nil {
			slog.Error("conn write result", "error", err)
		}
	}

	if shutdown {
		slog.Info("quit command received, stopping daemon")
		d.Stop()
	}
}

// dispatch executes one command. The second return value asks the daemon to
// stop after the reply has been written.
func (d *Daemon) dispatch(ctx context.Context, cmd *wire.Command) (*wire.Result, bool) {
	switch cmd.Type {
	case wire.CmdMessage:
		if m, ok := cmd.Data.(wire.Message); ok {
			slog.Info("message from client", "text", m.Text)
		}
		return nil, false

	case wire.CmdPing:
		return wire.Ok("pong"), false

	case wire.CmdPush:
		p, ok := cmd.Data.(wire.Push)
		if !ok {
			return wire.Err("malformed push payload"), false
		}
		return d.handlePush(ctx, p), false

	case wire.CmdPull:
		p, ok := cmd.Data.(wire.Pull)
		if !ok {
			return wire.Err("malformed pull payload"), false
		}
		return d.handlePull(ctx, p), false

	case wire.CmdSync:
		s, ok := cmd.Data.(wire.Sync)
		if !ok {
			return wire.Err("malformed sync payload"), false
		}
		if err := d.registry.Add(s.Path, s.RemoteID); err != nil {
			slog.Error("manual sync failed", "path", s.Path, "error", err)
			return wire.Err("failed to add sync for %s -> %s: %v", s.Path, s.RemoteID, err), false
		}
		slog.Info("manual sync added", "path", s.Path, "remote_id", s.RemoteID)
		return wire.Ok("manual sync added for %s -> %s", s.Path, s.RemoteID), false

	case wire.CmdUnsync:
		u, ok := cmd.Data.(wire.Unsync)
		if !ok {
			return wire.Err("malformed unsync payload"), false
		}
		if n := d.registry.Remove(u.Path); n == 0 {
			return wire.Ok("no active sync for %s", u.Path), false
		}
		slog.Info("sync removed", "path", u.Path)
		return wire.Ok("removed sync for %s", u.Path), false

	case wire.CmdQuit:
		return wire.Ok("daemon stopped"), true

	default:
		slog.Warn("unhandled command", "type", cmd.Type)
		return wire.Err("unhandled command: %s", cmd.Type), false
	}
}

// handlePush uploads a file, or every regular file under a directory, and
// tracks each uploaded path.
func (d *Daemon) handlePush(ctx context.Context, p wire.Push) *wire.Result {
	info, err := os.Stat(p.Path)
	if err != nil {
		return wire.Err("cannot push %s: path does not exist", p.Path)
	}

	if info.IsDir() {
		return d.pushDir(ctx, p.Path)
	}
	return d.pushFile(ctx, p.Path, info.Size())
}

func (d *Daemon) pushFile(ctx context.Context, path string, size int64) *wire.Result {
	id, err := d.drive.Upload(ctx, path)
	if err != nil {
		slog.Error("upload failed", "path", path, "error", err)
		return wire.Err("failed to upload %s: %v", path, err)
	}
	slog.Info("uploaded", "path", path, "remote_id", id, "size", humanize.Bytes(uint64(size)))

	if err := d.registry.Add(path, id); err != nil {
		slog.Error("track after upload failed", "path", path, "error", err)
		return wire.Err("uploaded %s as %s but failed to sync it: %v", path, id, err)
	}
	return wire.Ok("uploaded and synced %s -> %s", path, id)
}

func (d *Daemon) pushDir(ctx context.Context, dir string) *wire.Result {
	var success, fail int

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			fail++
			slog.Error("push walk", "path", path, "error", err)
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		id, err := d.drive.Upload(ctx, path)
		if err != nil {
			slog.Error("upload failed", "path", path, "error", err)
			fail++
			return nil
		}
		if err := d.registry.Add(path, id); err != nil {
			slog.Error("track after upload failed", "path", path, "error", err)
			fail++
			return nil
		}
		slog.Info("uploaded", "path", path, "remote_id", id)
		success++
		return nil
	})
	if err != nil {
		return wire.Err("failed to walk %s: %v", dir, err)
	}

	msg := "directory upload status: %d successes, %d fails"
	if fail > 0 {
		return wire.Err(msg, success, fail)
	}
	return wire.Ok(msg, success, fail)
}

// handlePull validates the destination, downloads and tracks the result. An
// invalid destination never reaches the drive client.
func (d *Daemon) handlePull(ctx context.Context, p wire.Pull) *wire.Result {
	if utils.FileExists(p.Dest) {
		if !p.Overwrite {
			return wire.Err("destination %s exists but no overwrite flag specified, rerun with --overwrite to replace it", p.Dest)
		}
	} else if filepath.Ext(p.Dest) == "" && !utils.DirExists(p.Dest) {
		return wire.Err("destination %s doesn't exist", p.Dest)
	}

	local, err := d.drive.Download(ctx, p.RemoteID, p.Dest)
	if err != nil {
		slog.Error("download failed", "remote_id", p.RemoteID, "error", err)
		return wire.Err("error downloading %s: %v", p.RemoteID, err)
	}
	slog.Info("downloaded", "remote_id", p.RemoteID, "path", local)

	if err := d.registry.Add(local, p.RemoteID); err != nil {
		slog.Error("track after download failed", "path", local, "error", err)
		return wire.Err("pulled %s to %s but failed to sync it: %v", p.RemoteID, local, err)
	}
	return wire.Ok("pulled %s to %s", p.RemoteID, local)
}
