package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jordandm999/christmas-piano/lights"
)

var playCmd = &cobra.Command{
	Use:   "play <file.mid>",
	Short: "Play a standard MIDI file through the lights",
	Long: `play previews a light show without a keyboard: note events from the
file are fed through the same decode/map/track pipeline the live controller
uses, in playback time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return playFile(args[0])
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "log channel transitions instead of driving the relay board")
}

// timedMessage is one raw note message scheduled at an offset from the
// start of playback.
type timedMessage struct {
	at  time.Duration
	raw lights.RawMessage
}

// loadNoteEvents flattens every track's note events into one absolute-time
// sequence. Non-note messages never make it out of the file reader; the
// decoder would drop them anyway.
func loadNoteEvents(path string) (msgs []timedMessage, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, statErr
	}
	// the smf reader panics on some malformed files
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		at := time.Duration(te.AbsMicroSeconds) * time.Microsecond
		var ch, key, vel uint8
		switch {
		case te.Message.GetNoteStart(&ch, &key, &vel):
			msgs = append(msgs, timedMessage{at, lights.RawMessage{Status: 0x90 | ch&0x0F, Data1: key, Data2: vel}})
		case te.Message.GetNoteEnd(&ch, &key):
			msgs = append(msgs, timedMessage{at, lights.RawMessage{Status: 0x80 | ch&0x0F, Data1: key}})
		}
	})

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].at < msgs[j].at })
	return msgs, nil
}

func playFile(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmap, err := cfg.BuildChannelMap()
	if err != nil {
		return err
	}
	msgs, err := loadNoteEvents(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(msgs) == 0 {
		return fmt.Errorf("%s contains no note events", path)
	}

	sink, err := buildSink(cfg, flagDryRun, cmap.Channels())
	if err != nil {
		return err
	}
	ctrl := lights.NewController(cmap, sink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("playing", "file", path, "events", len(msgs),
		"duration", msgs[len(msgs)-1].at.Round(time.Second))

	start := time.Now()
playback:
	for _, m := range msgs {
		if wait := m.at - time.Since(start); wait > 0 {
			select {
			case <-ctx.Done():
				break playback
			case <-time.After(wait):
			}
		} else if ctx.Err() != nil {
			break playback
		}
		if err := ctrl.Feed(m.raw); err != nil {
			slog.Warn("lights: output write failed", "err", err)
		}
	}

	err = ctrl.Shutdown()
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	return err
}
