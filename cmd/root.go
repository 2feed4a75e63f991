// Package cmd holds the CLI surface: run the live controller, enumerate
// MIDI devices, and play a MIDI file through the lights.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordandm999/christmas-piano/config"
)

var (
	flagDebug  bool
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "christmas-piano",
	Short: "Drive relay-switched lights from a MIDI piano",
	Long: `christmas-piano maps live note events from a MIDI keyboard onto an
8-channel relay board so the lights follow the playing.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(flagDebug)
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging (adds source location)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.config/christmas-piano/config.json)")
}

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	slog.SetDefault(slog.New(h))
}

func loadConfig() (*config.Config, error) {
	return config.Load(flagConfig)
}
