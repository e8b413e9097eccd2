/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/query"
	"github.com/ssargent/wpilogviewer/pkg/source"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

const shellHelp = `Commands:
  list [t]            list every incarnation, or those live at t
  show <id> [t]       describe the incarnation of id live at t (default: latest)
  values <id> [t]     print the values of the incarnation of id live at t (default: latest)
  where <id> <cond> [t]
                      print the values matching a condition such as >=1.5
  stats <id> [t]      summarise the numeric values of the incarnation
  help                show this help
  quit                leave the shell`

func newShellCmd() *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "shell <file|->",
		Short: "Load a log and inspect it interactively",
		Long: `Load a whole log into an index, list every channel incarnation and then
read inspection commands from standard input.

When the log itself is read from standard input the shell only lists the
incarnations.

Examples:
  wpilog shell match.wpilog
  wpilog shell --no-interactive match.wpilog.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := settingsFrom(cmd)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Loading input...")
			idx, _, err := index.Load(cmd.Context(), in, loadOptions(rt, nil))
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			sh := &shell{index: idx, engine: query.NewSimpleEngine(), out: out}
			sh.list(nil)

			noInteractive, _ := cmd.Flags().GetBool("no-interactive")
			if noInteractive || args[0] == source.Stdin {
				return nil
			}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	shellCmd.Flags().Bool("no-interactive", false, "Only list the incarnations and exit")
	return shellCmd
}

func loadOptions(rt *settings, recorder index.Recorder) index.LoadOptions {
	opts := index.LoadOptions{
		Options: index.Options{
			Logger:           rt.logger,
			Recorder:         recorder,
			UTF8Policy:       rt.policy,
			ProgressInterval: rt.config.Decode.ProgressInterval,
		},
		BufferSize: rt.config.Decode.BufferSize,
	}
	if rt.tracer != nil {
		opts.TracerProvider = rt.tracer
	}
	return opts
}

type shell struct {
	index  *index.Index
	engine query.Engine
	out    io.Writer
}

// run reads commands line by line until quit or end of input.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "list", "ls":
			err = s.list(fields[1:])
		case "show":
			err = s.show(fields[1:])
		case "values":
			err = s.values(fields[1:])
		case "where":
			err = s.where(ctx, fields[1:])
		case "stats":
			err = s.stats(ctx, fields[1:])
		case "help", "?":
			fmt.Fprintln(s.out, shellHelp)
		case "quit", "exit":
			return nil
		default:
			err = fmt.Errorf("unknown command %q, try help", fields[0])
		}
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

func (s *shell) list(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: list [t]")
	}

	entries := s.index.Entries()
	if len(args) == 1 {
		t, err := parseTimestamp(args[0])
		if err != nil {
			return err
		}
		entries = s.index.ActiveAt(t)
	}

	fmt.Fprintf(s.out, "Listing %d entries:\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(s.out, "Id: %d, timestamp: %d, entry name: %s\n", e.ID, e.Start, e.Name)
	}
	return nil
}

// resolve finds the incarnation named by <id> [t].
func (s *shell) resolve(args []string, usage string) (*index.Entry, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", args[0])
	}

	var t uint64
	if len(args) == 2 {
		if t, err = parseTimestamp(args[1]); err != nil {
			return nil, err
		}
	} else {
		starts := s.index.StartTimestamps(uint32(id))
		if len(starts) == 0 {
			return nil, fmt.Errorf("no entry with id %d", id)
		}
		t = starts[len(starts)-1]
	}

	e, ok := s.index.EntryAt(uint32(id), t)
	if !ok {
		return nil, fmt.Errorf("no entry with id %d live at %d", id, t)
	}
	return e, nil
}

func (s *shell) show(args []string) error {
	e, err := s.resolve(args, "show <id> [t]")
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Id: %d\nName: %s\nType: %s\nStart: %d\n", e.ID, e.Name, e.Type, e.Start)
	if end, ok := e.End(); ok {
		fmt.Fprintf(s.out, "End: %d\n", end)
	} else {
		fmt.Fprintln(s.out, "End: open")
	}
	fmt.Fprintf(s.out, "Values: %d\n", e.RecordCount())
	fmt.Fprintln(s.out, "Metadata:")
	for _, m := range e.Metadata() {
		fmt.Fprintf(s.out, "  %d: %q\n", m.Timestamp, m.Metadata)
	}
	return nil
}

func (s *shell) values(args []string) error {
	e, err := s.resolve(args, "values <id> [t]")
	if err != nil {
		return err
	}

	records := e.Records()
	fmt.Fprintf(s.out, "%d values for %s (type %s):\n", len(records), e.Name, e.Type)
	for _, r := range records {
		fmt.Fprintf(s.out, "  %d: %s\n", r.Timestamp, value.Format(r.Value))
	}
	return nil
}

func (s *shell) where(ctx context.Context, args []string) error {
	const usage = "where <id> <cond> [t]"
	if len(args) < 2 {
		return fmt.Errorf("usage: %s", usage)
	}
	cond, err := query.ParseCondition(args[1])
	if err != nil {
		return err
	}
	e, err := s.resolve(append([]string{args[0]}, args[2:]...), usage)
	if err != nil {
		return err
	}

	it, err := s.engine.Execute(ctx, e, query.Query{To: math.MaxUint64, Condition: &cond})
	if err != nil {
		return err
	}
	records, err := query.Collect(it)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%d of %d values for %s match %s%g:\n", len(records), e.RecordCount(), e.Name, cond.Operator, cond.Value)
	for _, r := range records {
		fmt.Fprintf(s.out, "  %d: %s\n", r.Timestamp, value.Format(r.Value))
	}
	return nil
}

func (s *shell) stats(ctx context.Context, args []string) error {
	e, err := s.resolve(args, "stats <id> [t]")
	if err != nil {
		return err
	}

	st, err := s.engine.Stats(ctx, e, query.Query{To: math.MaxUint64})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Stats for %s: count %d, skipped %d\n", e.Name, st.Count, st.Skipped)
	if st.Count > 0 {
		fmt.Fprintf(s.out, "  min %g, max %g, mean %g\n  first %d, last %d\n", st.Min, st.Max, st.Mean, st.First, st.Last)
	}
	return nil
}

func parseTimestamp(s string) (uint64, error) {
	t, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
