/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/storage"
)

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List exported runs",
		Long: `List, inspect and delete the runs stored in the snapshot database.

Examples:
  wpilog runs
  wpilog runs show 2ZqGAGkUAMJ4S1nWcUoZyFvRkqD
  wpilog runs values 2ZqGAGkUAMJ4S1nWcUoZyFvRkqD 1 100
  wpilog runs delete 2ZqGAGkUAMJ4S1nWcUoZyFvRkqD`,
		Args: cobra.NoArgs,
		RunE: withStorage(func(cmd *cobra.Command, store *storage.Storage, _ []string) error {
			runs, err := store.Runs()
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			return outputRuns(cmd, runs)
		}),
	}
	runsCmd.PersistentFlags().String("dir", "", "Snapshot database directory (default from config)")
	runsCmd.PersistentFlags().StringP("format", "f", "table", "Output format: table or json")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its incarnations",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(func(cmd *cobra.Command, store *storage.Storage, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			info, entries, err := store.ReadRun(id)
			if err != nil {
				return err
			}
			return outputRun(cmd, info, entries)
		}),
	}

	valuesCmd := &cobra.Command{
		Use:   "values <run-id> <channel-id> <start>",
		Short: "Print the stored values of one incarnation",
		Args:  cobra.ExactArgs(3),
		RunE: withStorage(func(cmd *cobra.Command, store *storage.Storage, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			channel, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid channel id %q", args[1])
			}
			start, err := parseTimestamp(args[2])
			if err != nil {
				return err
			}
			records, err := store.ReadValues(id, uint32(channel), start)
			if err != nil {
				return err
			}
			return outputRecords(cmd, records)
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(func(cmd *cobra.Command, store *storage.Storage, args []string) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			if _, _, err := store.ReadRun(id); err != nil {
				return err
			}
			if err := store.DeleteRun(id); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}
			cmd.Printf("Deleted run %s\n", id)
			return nil
		}),
	}

	runsCmd.AddCommand(showCmd, valuesCmd, deleteCmd)
	return runsCmd
}

func withStorage(fn func(cmd *cobra.Command, store *storage.Storage, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := settingsFrom(cmd)
		if err != nil {
			return err
		}
		store, err := openStorage(cmd, rt)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}
