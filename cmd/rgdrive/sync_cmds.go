package main

import (
	"fmt"
	"path/filepath"

	"github.com/cameron-williams/rgdrive/internal/utils"
	"github.com/cameron-williams/rgdrive/internal/wire"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		newPushCmd(),
		newPullCmd(),
		newSyncCmd(),
		newUnsyncCmd(),
		newMsgCmd(),
		newPingCmd(),
	)
}

// callDaemon requires a live daemon, sends the command and renders the
// result.
func callDaemon(cmd *cobra.Command, c *wire.Command) error {
	client, _, err := daemonClient(cmd)
	if err != nil {
		return err
	}
	if !client.Alive() {
		return fmt.Errorf("daemon is not active, start it with `rgdrive start`")
	}

	res, err := client.Call(c)
	if err != nil {
		return err
	}
	return printResult(res)
}

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push /path/to/file",
		Short: "Upload a file or directory to the drive and keep it synced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := utils.ResolvePath(args[0])
			if err != nil {
				return err
			}
			if !utils.FileExists(path) && !utils.DirExists(path) {
				return fmt.Errorf("%s doesn't exist, check your path and try again", path)
			}
			return callDaemon(cmd, wire.NewPush(path))
		},
	}
}

func newPullCmd() *cobra.Command {
	var overwrite bool

	pullCmd := &cobra.Command{
		Use:   "pull <remote-id> /path/to/dest",
		Short: "Download a drive file to a local path and keep it synced",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remoteID := args[0]
			dest, err := utils.ResolvePath(args[1])
			if err != nil {
				return err
			}

			// Mirror the daemon's destination rule so obvious mistakes fail
			// before dialing.
			if utils.FileExists(dest) && !overwrite {
				return fmt.Errorf("destination %s exists, rerun with --overwrite to replace it", dest)
			}
			if !utils.FileExists(dest) && filepath.Ext(dest) == "" && !utils.DirExists(dest) {
				return fmt.Errorf("destination %s doesn't exist", dest)
			}

			return callDaemon(cmd, wire.NewPull(remoteID, dest, overwrite))
		},
	}

	pullCmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite the destination file if it already exists")
	return pullCmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync /path/to/file <remote-id>",
		Short: "Manually bind an existing local file to a drive id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := utils.ResolvePath(args[0])
			if err != nil {
				return err
			}
			if !utils.FileExists(path) {
				return fmt.Errorf("%s doesn't exist, check your path and try again", path)
			}
			return callDaemon(cmd, wire.NewSync(path, args[1]))
		},
	}
}

func newUnsyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsync /path/to/file",
		Short: "Remove any syncs for a local path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := utils.ResolvePath(args[0])
			if err != nil {
				return err
			}
			return callDaemon(cmd, wire.NewUnsync(path))
		},
	}
}

func newMsgCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "msg <text>",
		Short:  "Write a message into the daemon log",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := daemonClient(cmd)
			if err != nil {
				return err
			}
			return client.Send(wire.NewMessage(args[0]))
		},
	}
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers on its socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return callDaemon(cmd, wire.NewPing())
		},
	}
}
