package main

import (
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
)

var (
	statsHeader = lipgloss.NewStyle().Bold(true)
	statsGood   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	statsPoor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recently completed quiz sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := bootstrap(configPath(cmd), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.store.RecentResults(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to read results: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No completed sessions yet.")
			return nil
		}

		fmt.Fprintln(out, statsHeader.Render(fmt.Sprintf("%-16s  %-4s  %6s  %7s  %9s  %8s", "FINISHED", "FROM", "WORDS", "CORRECT", "INCORRECT", "ACCURACY")))
		for _, r := range results {
			acc := fmt.Sprintf("%7d%%", r.Accuracy)
			if r.Accuracy >= 80 {
				acc = statsGood.Render(acc)
			} else if r.Accuracy < 50 {
				acc = statsPoor.Render(acc)
			}
			fmt.Fprintf(out, "%-16s  %-4s  %6d  %7d  %9d  %s\n",
				r.FinishedAt.Local().Format("2006-01-02 15:04"), r.Source, r.Total, r.Correct, r.Incorrect, acc)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("limit", 20, "Number of sessions to show")
}
