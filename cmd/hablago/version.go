package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hablago/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "hablago", version.Version)
	},
}
