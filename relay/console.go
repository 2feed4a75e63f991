package relay

import "log/slog"

// ConsoleSink logs channel transitions instead of driving hardware. Used
// for dry runs and as the fallback when no serial device is configured.
type ConsoleSink struct{}

func (ConsoleSink) Set(channel int, energized bool) error {
	state := "OFF"
	if energized {
		state = "ON"
	}
	slog.Info("relay: set", "channel", channel, "state", state)
	return nil
}

func (ConsoleSink) Close() error { return nil }
