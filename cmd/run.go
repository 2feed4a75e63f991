package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jordandm999/christmas-piano/config"
	"github.com/jordandm999/christmas-piano/lights"
	"github.com/jordandm999/christmas-piano/midiin"
	"github.com/jordandm999/christmas-piano/relay"
	"github.com/jordandm999/christmas-piano/web"
)

var flagDryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live piano-to-lights controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runController()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "log channel transitions instead of driving the relay board")
}

// shutdownPipeline drains the controller in order: Shutdown stops accepting
// input and forces every channel off, then the input transport is released,
// then the board. Racing push deliveries are dropped by the controller's
// closed flag from the first step on.
func shutdownPipeline(ctrl *lights.Controller, releaseInput func(), out lights.Sink) error {
	err := ctrl.Shutdown()
	releaseInput()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// buildSink opens the configured output: the serial relay board, or the
// console sink for dry runs.
func buildSink(cfg *config.Config, dryRun bool, channels int) (lights.Sink, error) {
	if dryRun {
		return relay.ConsoleSink{}, nil
	}
	return relay.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, channels, cfg.Serial.ActiveLow)
}

func runController() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cmap, err := cfg.BuildChannelMap()
	if err != nil {
		return err
	}

	sink, err := buildSink(cfg, flagDryRun, cmap.Channels())
	if err != nil {
		return err
	}

	// When the HTTP endpoint is on, tee writes through a state recorder so
	// /status can report per-channel state without the core mirroring it.
	out := sink
	var state *web.StateSink
	if cfg.HTTPAddr != "" {
		state = web.NewStateSink(sink, cmap.Channels())
		out = state
	}

	ctrl := lights.NewController(cmap, out)
	if err := ctrl.PanicRelease(); err != nil { // start from a known-dark state
		slog.Warn("lights: initial all-off failed", "err", err)
	}

	feed := func(m lights.RawMessage) {
		if err := ctrl.Feed(m); err != nil {
			// recoverable: tracked state stays consistent, a later event
			// on the channel re-attempts the write
			slog.Warn("lights: output write failed", "err", err)
		}
	}

	// Poll mode interposes a queue: the transport callback only buffers,
	// one cooperative loop drains. Push mode feeds straight through.
	deliver := midiin.Handler(feed)
	var queue *midiin.Queue
	if cfg.Input.Mode == config.ModePoll {
		queue = &midiin.Queue{}
		deliver = queue.Push
	}

	watcher, err := midiin.NewWatcher(midiin.Config{
		Preferred: cfg.Input.Preferred,
		Excluded:  cfg.Input.Excluded,
	}, deliver, func() {
		if err := ctrl.PanicRelease(); err != nil {
			slog.Warn("lights: panic release failed", "err", err)
		}
	})
	if err != nil {
		_ = ctrl.Shutdown()
		_ = out.Close()
		return err
	}

	watcher.Tick()
	if _, ok := watcher.Connected(); !ok && !cfg.Input.Wait {
		// force channels off and release everything before failing
		_ = shutdownPipeline(ctrl, watcher.Close, out)
		return fmt.Errorf("no MIDI input device available")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if queue != nil {
		interval := time.Duration(cfg.Input.PollIntervalMS) * time.Millisecond
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		go midiin.PollLoop(ctx, queue, interval, feed)
	}

	if cfg.HTTPAddr != "" {
		go web.Serve(cfg.HTTPAddr, func() web.Status {
			name, connected := watcher.Connected()
			return web.Status{
				Device:    name,
				Connected: connected,
				Channels:  state.Snapshot(),
				HeldNotes: ctrl.HeldCount(),
			}
		})
	}

	slog.Info("controller running",
		"mode", cfg.Input.Mode,
		"strategy", cfg.Mapping.Strategy,
		"channels", cmap.Channels(),
		"dry_run", flagDryRun,
	)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return shutdownPipeline(ctrl, watcher.Close, out)
		case <-ticker.C:
			watcher.Tick()
		}
	}
}
