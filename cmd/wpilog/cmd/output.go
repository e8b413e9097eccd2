/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/storage"
)

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format == "json"
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputRuns displays exported runs
func outputRuns(cmd *cobra.Command, runs []storage.RunInfo) error {
	if jsonOutput(cmd) {
		if runs == nil {
			runs = []storage.RunInfo{}
		}
		return outputJSON(cmd, runs)
	}

	if len(runs) == 0 {
		cmd.Println("No runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tSOURCE\tVERSION\tINCARNATIONS\tVALUES\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Source, r.Version, r.Incarnations, r.Values, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// outputRun displays a single run with its incarnations
func outputRun(cmd *cobra.Command, info storage.RunInfo, entries []storage.EntrySummary) error {
	if jsonOutput(cmd) {
		return outputJSON(cmd, struct {
			Run     storage.RunInfo        `json:"run"`
			Entries []storage.EntrySummary `json:"entries"`
		}{info, entries})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID:\t%s\n", info.ID)
	fmt.Fprintf(w, "Source:\t%s\n", info.Source)
	fmt.Fprintf(w, "Version:\t%s\n", info.Version)
	if info.ExtraHeader != "" {
		fmt.Fprintf(w, "Extra header:\t%s\n", info.ExtraHeader)
	}
	fmt.Fprintf(w, "Bytes:\t%d\n", info.Bytes)
	fmt.Fprintf(w, "Digest:\t%s\n", info.Digest)
	fmt.Fprintf(w, "Created:\t%s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CHANNEL\tNAME\tTYPE\tSTART\tEND\tVALUES")
	for _, e := range entries {
		end := "open"
		if e.End != nil {
			end = fmt.Sprint(*e.End)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%d\n", e.ID, e.Name, e.Type, e.Start, end, e.Records)
	}
	return nil
}

// outputRecords displays stored values
func outputRecords(cmd *cobra.Command, records []storage.StoredRecord) error {
	if jsonOutput(cmd) {
		if records == nil {
			records = []storage.StoredRecord{}
		}
		return outputJSON(cmd, records)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "TIMESTAMP\tKIND\tVALUE")
	for _, r := range records {
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Timestamp, r.Kind, raw)
	}
	return nil
}
