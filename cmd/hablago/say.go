package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hablago/pkg/audio"
)

var sayCmd = &cobra.Command{
	Use:   "say <text>",
	Short: "Pronounce a Spanish word or phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(configPath(cmd), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		pron := a.pronouncer(ctx, audio.New())
		if rate, _ := cmd.Flags().GetFloat64("rate"); rate > 0 {
			pron.SetRate(ctx, rate)
		}
		if voice, _ := cmd.Flags().GetString("voice"); voice != "" {
			pron.SetVoice(ctx, voice)
		}

		text := strings.Join(args, " ")
		if err := pron.SpeakSync(ctx, text); err != nil {
			return fmt.Errorf("failed to pronounce %q: %w", text, err)
		}
		return nil
	},
}

func init() {
	sayCmd.Flags().Float64("rate", 0, "Speech rate (0.1 to 10, persisted)")
	sayCmd.Flags().String("voice", "", "Voice ID (persisted)")
}
