package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hablago/pkg/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate the default config file and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath(cmd)
		if err := config.GenerateDefault(path); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file generated: %s\n", path)
		return nil
	},
}
