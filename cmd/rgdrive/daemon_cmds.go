package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cameron-williams/rgdrive/internal/wire"
	"github.com/spf13/cobra"
)

const statusLogLines = 10

func init() {
	rootCmd.AddCommand(newStartCmd(), newStopCmd(), newStatusCmd())
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := daemonClient(cmd)
			if err != nil {
				return err
			}

			if client.Alive() {
				fmt.Println("daemon already running")
				return nil
			}

			if os.Getenv("RGDRIVE_TOKEN") == "" {
				return errors.New("$RGDRIVE_TOKEN is not set")
			}

			bin, err := daemonBinPath()
			if err != nil {
				return err
			}

			logFile, err := os.OpenFile(cfg.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open daemon log: %w", err)
			}
			defer logFile.Close()

			daemon := exec.Command(bin,
				"--config", cfg.Path,
				"--socket", cfg.SocketPath,
				"--registry", cfg.RegistryPath,
			)
			daemon.Dir = "/"
			daemon.Stdin = nil
			daemon.Stdout = logFile
			daemon.Stderr = logFile
			daemon.Env = os.Environ()
			// Detach into its own session so it survives this shell.
			daemon.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

			if err := daemon.Start(); err != nil {
				return fmt.Errorf("spawn %s: %w", bin, err)
			}
			if err := daemon.Process.Release(); err != nil {
				return err
			}

			// Give the daemon a moment to bind the socket.
			for i := 0; i < 20; i++ {
				if client.Alive() {
					fmt.Printf("Daemon started. %s\n", green("OK"))
					return nil
				}
				time.Sleep(100 * time.Millisecond)
			}
			return fmt.Errorf("daemon did not come up, check %s", cfg.LogFilePath)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := daemonClient(cmd)
			if err != nil {
				return err
			}

			if !client.Alive() {
				fmt.Println("Daemon already stopped.")
				return nil
			}

			res, err := client.Call(wire.NewQuit())
			if err != nil {
				return fmt.Errorf("stopping daemon: %w", err)
			}
			return printResult(res)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and recent log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := daemonClient(cmd)
			if err != nil {
				return err
			}

			if client.Alive() {
				fmt.Printf("Daemon status: %s\n", green("Running"))
			} else {
				fmt.Printf("Daemon status: %s\n", red("Not Running"))
			}

			lines, err := tailFile(cfg.LogFilePath, statusLogLines)
			if err != nil {
				if os.IsNotExist(err) {
					// Daemon has simply never run.
					return nil
				}
				return err
			}
			if len(lines) > 0 {
				fmt.Println(cyan("Recent log:"))
				for _, l := range lines {
					fmt.Println(l)
				}
			}
			return nil
		},
	}
}

// daemonBinPath locates rgdrived next to the current executable.
func daemonBinPath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	bin := filepath.Join(filepath.Dir(self), "rgdrived")
	if _, err := os.Stat(bin); err != nil {
		return "", fmt.Errorf("rgdrived binary not found at %s", bin)
	}
	return bin, nil
}

func tailFile(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	return lines, nil
}
