package main

import (
	"fmt"
	"os"

	"github.com/cameron-williams/rgdrive/internal/registry"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

// list reads the tracked-file registry straight off disk, so it works whether
// or not the daemon is up.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tracked path and its drive id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliConfig(cmd)
			if err != nil {
				return err
			}

			entries, err := registry.NewStore(cfg.RegistryPath).Load()
			if err != nil {
				return fmt.Errorf("read tracked files: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No tracked files.")
				return nil
			}

			fmt.Printf("Tracked files (%d):\n", len(entries))
			for _, e := range entries {
				size := "missing"
				if info, err := os.Stat(e.Path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Printf("  %s -> %s (%s)\n", cyan(e.Path), blue(e.RemoteID), size)
			}
			return nil
		},
	}
}
