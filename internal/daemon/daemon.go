// Package daemon is the rgdrived core: it owns the tracked-path registry,
// listens on the local command socket, and runs the watch loop that pushes
// local changes to the remote store.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/cameron-williams/rgdrive/internal/config"
	"github.com/cameron-williams/rgdrive/internal/drive"
	"github.com/cameron-williams/rgdrive/internal/registry"
	"github.com/cameron-williams/rgdrive/internal/watch"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
)

type Daemon struct {
	cfg      *config.Config
	drive    drive.Client
	watcher  *watch.Watcher
	registry *registry.Registry

	mu       sync.Mutex
	shutdown context.CancelFunc
}

func New(cfg *config.Config, driveClient drive.Client) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	watcher := watch.New()
	return &Daemon{
		cfg:      cfg,
		drive:    driveClient,
		watcher:  watcher,
		registry: registry.New(registry.NewStore(cfg.RegistryPath), watcher),
	}, nil
}

// Run blocks until the context is canceled or a Quit command arrives. Two
// execution contexts live for the daemon's lifetime: the sequential accept
// loop and the watch loop. Both share the registry and the drive client.
func (d *Daemon) Run(ctx context.Context) error {
	lock := flock.New(d.cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("daemon lock %q: %w", d.cfg.LockPath, err)
	}
	if !locked {
		return fmt.Errorf("another daemon instance holds %q", d.cfg.LockPath)
	}
	defer lock.Unlock()

	// A stale socket file from a dead daemon would block the bind.
	if err := os.Remove(d.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("daemon remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", d.cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("daemon listen %q: %w", d.cfg.SocketPath, err)
	}
	defer os.Remove(d.cfg.SocketPath)

	// Rebuild watches from the last saved registry; handles never survive a
	// restart.
	d.registry.Load()
	slog.Info("daemon initialized", "socket", d.cfg.SocketPath, "tracked", d.registry.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.shutdown = cancel
	d.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return d.watchLoop(egCtx)
	})

	eg.Go(func() error {
		return d.acceptLoop(egCtx, listener)
	})

	eg.Go(func() error {
		<-egCtx.Done()
		listener.Close()
		d.watcher.Close()
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("daemon stopped")
	return nil
}

// Stop asks a running daemon to wind down. Used by the Quit command.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.shutdown
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// acceptLoop handles one connection at a time. Volume on this socket is a
// human typing commands; serial handling keeps command execution free of
// per-connection races and a slow client only delays the next command.
func (d *Daemon) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fmt.Errorf("daemon accept: %w", err)
		}
		d.handleConn(ctx, conn)
	}
}
