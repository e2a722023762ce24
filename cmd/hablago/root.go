package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/hablago.yaml"

var rootCmd = &cobra.Command{
	Use:   "hablago",
	Short: "Spanish vocabulary flashcards",
	Long:  "HablaGo quizzes Chinese translations of Spanish words, counts visitors and pronounces words aloud.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), configPath(cmd))
	},
	SilenceUsage: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional dotenv file with engine credentials")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagString reads a local, persistent or inherited flag.
func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func configPath(cmd *cobra.Command) string {
	p := flagString(cmd, "config")
	if p == "" {
		return defaultConfigPath
	}
	return p
}

// loadEnvFile exports the dotenv file without overriding the real environment.
// A missing file is not an error.
func loadEnvFile(cmd *cobra.Command) error {
	path := flagString(cmd, "env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
