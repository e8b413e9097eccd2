/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/source"
	"github.com/ssargent/wpilogviewer/pkg/storage"
)

func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Export a decoded log to the snapshot database",
		Long: `Load a whole log and store every incarnation and value as a new run in the
snapshot database. Each run gets a KSUID, so runs list in export order.

Examples:
  wpilog export match.wpilog
  wpilog export --dir ./snapshots match.wpilog.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := settingsFrom(cmd)
			if err != nil {
				return err
			}

			store, err := openStorage(cmd, rt)
			if err != nil {
				return err
			}
			defer store.Close()

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			idx, summary, err := index.Load(cmd.Context(), in, loadOptions(rt, nil))
			in.Close()
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			name := args[0]
			if name == source.Stdin {
				name = "stdin"
			}
			info, err := store.ExportRun(idx, summary, name)
			if err != nil {
				return fmt.Errorf("failed to export run: %w", err)
			}

			cmd.Printf("Exported run %s: %d incarnations, %d values\n", info.ID, info.Incarnations, info.Values)
			return nil
		},
	}

	exportCmd.Flags().String("dir", "", "Snapshot database directory (default from config)")
	return exportCmd
}

// openStorage opens the snapshot database named by --dir or the config.
func openStorage(cmd *cobra.Command, rt *settings) (*storage.Storage, error) {
	if container == nil {
		return nil, fmt.Errorf("dependency container not initialized")
	}

	dir := rt.config.Export.Dir
	if cmd.Flags().Changed("dir") {
		dir, _ = cmd.Flags().GetString("dir")
	}

	store, err := container.GetStorageOpener()(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database %s: %w", dir, err)
	}
	rt.logger.Debug("opened snapshot database", "dir", dir)
	return store, nil
}
