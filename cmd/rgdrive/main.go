// rgdrive is the CLI that drives the rgdrived daemon: start/stop/status plus
// push/pull/sync/unsync/list/msg/ping commands sent over the local socket.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/cameron-williams/rgdrive/internal/config"
	"github.com/cameron-williams/rgdrive/internal/version"
	"github.com/cameron-williams/rgdrive/internal/wire"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errExit marks a command whose failure was already printed as a daemon
// result; main only sets the exit code for it.
var errExit = errors.New("command failed")

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
	blue  = color.New(color.FgHiBlue).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "rgdrive",
	Short:         "Mirror local files to your drive in the background",
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "rgdrive config file")
	rootCmd.PersistentFlags().String("socket", "", "daemon socket path")
}

// cliConfig resolves the effective config for a command: file, then
// RGDRIVE_* env, then flags.
func cliConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RGDRIVE")
	v.AutomaticEnv()
	v.BindPFlag("socket", cmd.Flags().Lookup("socket"))

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if s := v.GetString("socket"); s != "" {
		cfg.SocketPath = s
	}
	if cfg.Path == "" {
		cfg.Path = configPath
	}
	return cfg, nil
}

func daemonClient(cmd *cobra.Command) (*wire.Client, *config.Config, error) {
	cfg, err := cliConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return wire.NewClient(cfg.SocketPath, cfg.IOTimeout), cfg, nil
}

// printResult renders a daemon result and maps Err to a non-zero exit.
func printResult(res *wire.Result) error {
	if res.IsOk() {
		color.New(color.FgHiGreen).Println(res.Message)
		return nil
	}
	color.New(color.FgHiRed).Println(res.Message)
	return errExit
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if err != errExit {
			color.New(color.FgHiRed, color.Bold).Fprintln(os.Stderr, "rgdrive:", err)
		}
		os.Exit(1)
	}
}
