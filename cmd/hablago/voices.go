package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List voices for the configured locale",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(configPath(cmd), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		pron := a.pronouncer(ctx, nil)
		voices, err := pron.Voices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list voices: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(voices) == 0 {
			fmt.Fprintln(out, "No voices available.")
			return nil
		}
		current := pron.Voice()
		for _, v := range voices {
			marker := " "
			if v.ID == current {
				marker = "*"
			}
			kind := "standard"
			if v.IsNeural {
				kind = "neural"
			}
			fmt.Fprintf(out, "%s %-40s %-8s %-8s %s\n", marker, v.ID, v.Language, kind, v.Name)
		}
		return nil
	},
}
