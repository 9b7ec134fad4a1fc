// rgdrived is the background daemon that powers rgdrive syncing. It listens
// for CLI commands on a local unix socket and mirrors tracked files to the
// remote drive when they change.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cameron-williams/rgdrive/internal/config"
	"github.com/cameron-williams/rgdrive/internal/daemon"
	"github.com/cameron-williams/rgdrive/internal/drive"
	"github.com/cameron-williams/rgdrive/internal/utils"
	"github.com/cameron-williams/rgdrive/internal/version"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:     "rgdrived",
	Short:   "rgdrive background sync daemon",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := setupLogging(cfg.LogFilePath); err != nil {
			return err
		}
		slog.Info("rgdrived", "version", version.Version, "revision", version.Revision)

		if cfg.DriveToken == "" {
			return errors.New("drive token is not set, set RGDRIVE_TOKEN or drive_token in the config")
		}

		driveClient, err := drive.NewAPI(cfg.DriveURL, cfg.DriveToken)
		if err != nil {
			return err
		}

		d, err := daemon.New(cfg, driveClient)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		if err := d.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("daemon run", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("config", "c", config.DefaultConfigPath, "rgdrive config file")
	rootCmd.Flags().String("socket", "", "unix socket path to listen on")
	rootCmd.Flags().String("registry", "", "tracked files registry path")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// Credentials may come from a .env next to the working directory.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RGDRIVE")
	v.AutomaticEnv()
	v.BindPFlag("socket", cmd.Flags().Lookup("socket"))
	v.BindPFlag("registry", cmd.Flags().Lookup("registry"))

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if s := v.GetString("socket"); s != "" {
		cfg.SocketPath = s
	}
	if r := v.GetString("registry"); r != "" {
		cfg.RegistryPath = r
	}
	if u := v.GetString("url"); u != "" {
		cfg.DriveURL = u
	}
	if t := v.GetString("token"); t != "" {
		cfg.DriveToken = t
	}

	return cfg, cfg.Validate()
}

func setupLogging(logFile string) error {
	if err := utils.EnsureParent(logFile); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	stderrHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	slog.SetDefault(slog.New(utils.NewMultiLogHandler(stderrHandler, fileHandler)))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
