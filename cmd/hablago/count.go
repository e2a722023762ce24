package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Increment the visitor counter and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		peek, _ := cmd.Flags().GetBool("peek")

		a, err := bootstrap(configPath(cmd), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		visits, err := a.counter(ctx)
		if err != nil {
			return err
		}

		var n int64
		if peek {
			n, err = visits.Current(ctx)
		} else {
			n, err = visits.Increment(ctx)
		}
		if err != nil {
			return fmt.Errorf("visitor counter: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	countCmd.Flags().Bool("peek", false, "Print the current value without incrementing")
}
