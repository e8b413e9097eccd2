/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/wpilogviewer/pkg/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding the defaults for every command.

Examples:
  wpilog config init
  wpilog config init --api-key --config ./wpilog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			withAPIKey, _ := cmd.Flags().GetBool("api-key")
			force, _ := cmd.Flags().GetBool("force")

			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}
			if config.ConfigExists(configPath) && !force {
				return fmt.Errorf("config already exists at %s, use --force to overwrite", configPath)
			}

			cfg, err := config.BootstrapConfig(configPath, withAPIKey)
			if err != nil {
				return err
			}

			cmd.Printf("✅ Configuration created at %s\n", configPath)
			if cfg.Server.APIKey != "" {
				cmd.Printf("API key: %s\n", cfg.Server.APIKey)
			}
			return nil
		},
	}
	initCmd.Flags().Bool("api-key", false, "Generate an API key for the HTTP server")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			cmd.Printf("# %s\n", rt.configPath)
			return config.Write(cmd.OutOrStdout(), rt.config)
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
