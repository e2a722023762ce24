package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hablago/internal/tui"
	"hablago/pkg/audio"
	"hablago/pkg/quiz"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the quiz in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		autoSpeak, _ := cmd.Flags().GetBool("speak")
		mute, _ := cmd.Flags().GetBool("mute")

		// The full-screen UI owns stdout; logs go to file only.
		a, err := bootstrap(configPath(cmd), io.Discard)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		entries, err := a.loadVocabulary(ctx)
		if err != nil {
			return fmt.Errorf("failed to load vocabulary %s: %w", a.cfg.Vocabulary.Path, err)
		}

		opts := tui.Options{
			Entries:   entries,
			Delays:    a.delays(ctx),
			AutoSpeak: autoSpeak && !mute,
			OnComplete: func(s quiz.Session) {
				a.saveResultAsync("", "tui", s)
			},
		}
		if !mute {
			pron := a.pronouncer(ctx, audio.New())
			defer pron.Wait()
			defer pron.Cancel()
			opts.Speaker = pron
		}
		return tui.Run(opts)
	},
}

func init() {
	playCmd.Flags().Bool("speak", false, "Pronounce every new word automatically")
	playCmd.Flags().Bool("mute", false, "Disable pronunciation")
}
