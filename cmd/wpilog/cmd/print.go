/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/printer"
	"github.com/ssargent/wpilogviewer/pkg/wpilog"
)

func newPrintCmd() *cobra.Command {
	printCmd := &cobra.Command{
		Use:   "print <file|->",
		Short: "Print every record of a log",
		Long: `Decode a log and print one line per record as it is read.

Examples:
  wpilog print match.wpilog
  wpilog print --topic /drive/speed --no-control match.wpilog
  cat match.wpilog | wpilog print -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := settingsFrom(cmd)
			if err != nil {
				return err
			}

			opts := printer.Options{
				Topic:      rt.config.Print.Topic,
				Control:    rt.config.Print.Control,
				Values:     rt.config.Print.Values,
				UTF8Policy: rt.policy,
				Logger:     rt.logger,
			}
			flags := cmd.Flags()
			if flags.Changed("topic") {
				opts.Topic, _ = flags.GetString("topic")
			}
			if flags.Changed("control") {
				opts.Control, _ = flags.GetBool("control")
			}
			if noControl, _ := flags.GetBool("no-control"); noControl {
				opts.Control = false
			}
			if flags.Changed("values") {
				opts.Values, _ = flags.GetBool("values")
			}
			if noValues, _ := flags.GetBool("no-values"); noValues {
				opts.Values = false
			}

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			p := printer.New(cmd.OutOrStdout(), opts)
			if _, err := wpilog.Process(cmd.Context(), in, p, wpilog.LogReaderConfig{
				UTF8Policy: rt.policy,
				BufferSize: rt.config.Decode.BufferSize,
				Logger:     rt.logger,
			}); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}
			return p.Done()
		},
	}

	printCmd.Flags().String("topic", "", "Only print values of the channel with this name")
	printCmd.Flags().Bool("control", true, "Print start, finish and set-metadata records")
	printCmd.Flags().Bool("no-control", false, "Do not print control records")
	printCmd.Flags().Bool("values", true, "Print value records")
	printCmd.Flags().Bool("no-values", false, "Do not print value records")
	return printCmd
}
