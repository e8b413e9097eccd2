/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/config"
	"github.com/ssargent/wpilogviewer/pkg/di"
	"github.com/ssargent/wpilogviewer/pkg/logging"
	"github.com/ssargent/wpilogviewer/pkg/source"
	"github.com/ssargent/wpilogviewer/pkg/tracing"
)

var container *di.Container

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

// SetContainer injects the dependency container used by the commands.
func SetContainer(c *di.Container) {
	container = c
}

type settingsKey struct{}

// settings is the resolved configuration shared by every subcommand.
type settings struct {
	config     *config.Config
	configPath string
	logger     logging.Logger
	policy     codec.UTF8Policy
	tracer     *tracing.Provider // nil unless --trace is set
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "wpilog",
		Version: version,
		Short:   "wpilog - WPILOG data log viewer",
		Long: `wpilog decodes WPILOG telemetry files written by robot data loggers.

It can print every record as it is decoded, load a log into a queryable
index for interactive inspection, serve that index over HTTP, or export it
to a snapshot database. Inputs may be gzip, zstd, lz4 or s2 compressed; use
"-" to read from standard input.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), settingsKey{}, rt))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := settingsFrom(cmd)
			if err != nil || rt.tracer == nil {
				return nil
			}
			return rt.tracer.Close(cmd.Context())
		},
	}

	root.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	root.PersistentFlags().StringP("verbosity", "v", "", "Log verbosity: silent, quiet, normal or verbose")
	root.PersistentFlags().String("utf8", "", "Invalid UTF-8 handling: lenient or strict")
	root.PersistentFlags().Bool("trace", false, "Write OpenTelemetry spans for log loading to stderr")

	root.AddCommand(newPrintCmd(), newShellCmd(), newServeCmd(), newExportCmd(), newRunsCmd(), newConfigCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// resolveSettings loads the config file, if any, and applies flag overrides.
func resolveSettings(cmd *cobra.Command) (*settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if explicit || config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("verbosity") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("verbosity")
	}
	if cmd.Flags().Changed("utf8") {
		cfg.Decode.UTF8, _ = cmd.Flags().GetString("utf8")
	}

	verbosity, err := cfg.Verbosity()
	if err != nil {
		return nil, fmt.Errorf("invalid verbosity: %w", err)
	}
	policy, err := cfg.UTF8Policy()
	if err != nil {
		return nil, fmt.Errorf("invalid utf8 policy: %w", err)
	}

	rt := &settings{
		config:     cfg,
		configPath: configPath,
		logger:     logging.New(cmd.ErrOrStderr(), verbosity),
		policy:     policy,
	}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		rt.tracer, err = tracing.New(cmd.ErrOrStderr(), cmd.Root().Version)
		if err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func settingsFrom(cmd *cobra.Command) (*settings, error) {
	rt, ok := cmd.Context().Value(settingsKey{}).(*settings)
	if !ok {
		return nil, fmt.Errorf("settings not found in context")
	}
	return rt, nil
}

// openInput opens a log file, or stdin for "-", undoing any compression.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	r, c, err := source.Open(path, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	if rt, err := settingsFrom(cmd); err == nil && c != source.None {
		rt.logger.Debug("detected compressed input", "path", path, "compression", c.String())
	}
	return r, nil
}
