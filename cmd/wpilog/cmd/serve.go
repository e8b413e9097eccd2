/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/api"
	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve <file|->",
		Short: "Load a log and serve it over HTTP",
		Long: `Load a whole log into an index and start the REST API server.

The API answers channel and value queries at arbitrary timestamps and
exposes prometheus metrics at /metrics. When an API key is configured every
/api route requires it in the X-API-Key header.

Examples:
  wpilog serve match.wpilog
  wpilog serve --port 9000 --api-key=mysecretkey match.wpilog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			if container == nil {
				return fmt.Errorf("dependency container not initialized")
			}

			cfg := rt.config.Server
			flags := cmd.Flags()
			if flags.Changed("bind") {
				cfg.Bind, _ = flags.GetString("bind")
			}
			if flags.Changed("port") {
				cfg.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("api-key") {
				cfg.APIKey, _ = flags.GetString("api-key")
			}
			if flags.Changed("allowed-origin") {
				cfg.AllowedOrigins, _ = flags.GetStringSlice("allowed-origin")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			decodeMetrics := metrics.NewDecodeMetrics(reg)

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			idx, summary, err := index.Load(cmd.Context(), in, loadOptions(rt, decodeMetrics))
			in.Close()
			decodeMetrics.RecordLoad(summary.Bytes, err)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			starter := container.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, idx, summary, api.ServerConfig{
				Bind:           cfg.Bind,
				Port:           cfg.Port,
				APIKey:         cfg.APIKey,
				AllowedOrigins: cfg.AllowedOrigins,
			}, reg, rt.logger)
		},
	}

	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key required by /api routes (empty disables authentication)")
	serveCmd.Flags().StringSlice("allowed-origin", nil, "CORS allowed origins")
	return serveCmd
}
