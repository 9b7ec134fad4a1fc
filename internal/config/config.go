package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cameron-williams/rgdrive/internal/utils"
)

var (
	home, _ = os.UserHomeDir()

	DefaultConfigDir    = filepath.Join(home, ".config", "rgdrive")
	DefaultConfigPath   = filepath.Join(DefaultConfigDir, "config.json")
	DefaultRegistryPath = filepath.Join(DefaultConfigDir, "tracked_files.json")
	DefaultSocketPath   = filepath.Join(os.TempDir(), "rgdrive.sock")
	DefaultLockPath     = filepath.Join(os.TempDir(), "rgdrive.lock")
	DefaultLogFilePath  = filepath.Join(os.TempDir(), "rgdrived.log")
	DefaultDriveURL     = "https://drive.camwilliams.ca"
)

const (
	// DefaultPollInterval is the delay between watch event sweeps. Latency is
	// traded for not busy-waiting on the notification channel.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultIOTimeout bounds reads and writes on the command socket so a
	// stalled peer cannot wedge the daemon or the client.
	DefaultIOTimeout = 15 * time.Second
)

// Config carries every runtime path and knob the daemon and CLI need. All of it
// is passed into constructors explicitly so multiple instances can coexist in
// tests.
type Config struct {
	SocketPath   string        `json:"socket_path"`
	RegistryPath string        `json:"registry_path"`
	LockPath     string        `json:"lock_path"`
	LogFilePath  string        `json:"log_file_path"`
	DriveURL     string        `json:"drive_url"`
	DriveToken   string        `json:"-"`
	PollInterval time.Duration `json:"-"`
	IOTimeout    time.Duration `json:"-"`
	Path         string        `json:"-"`
}

// Default returns a config populated with the standard user paths.
func Default() *Config {
	return &Config{
		SocketPath:   DefaultSocketPath,
		RegistryPath: DefaultRegistryPath,
		LockPath:     DefaultLockPath,
		LogFilePath:  DefaultLogFilePath,
		DriveURL:     DefaultDriveURL,
		PollInterval: DefaultPollInterval,
		IOTimeout:    DefaultIOTimeout,
	}
}

func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return errors.New("socket path is required")
	}
	if c.RegistryPath == "" {
		return errors.New("registry path is required")
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = DefaultIOTimeout
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Load reads a config file and fills in defaults for anything it omits.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config read %q: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parse %q: %w", path, err)
	}

	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
