package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/instget/instget/internal/config"
	"github.com/instget/instget/internal/logger"
)

// attachConfigCommand attaches a `config` subcommand that prints the
// effective merged configuration as YAML without touching the network.
func attachConfigCommand(root *cobra.Command) {
	var configPath string

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective merged configuration.",
		Long:  "Resolve the built-in defaults, the shared configuration file and the per-user file, validate the merged result and print it as YAML. No workspace is created and no network access is performed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Resolve(ctx, configPath)
			if err != nil {
				logger.ErrorKV(ctx, "Configuration is invalid", "error", err)
				return err
			}

			out, err := cfg.YAML()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}

	configCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the shared configuration file")

	root.AddCommand(configCmd)
}
