// Package config loads and saves the controller configuration from a JSON
// file under the user's config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jordandm999/christmas-piano/lights"
)

// InputMode selects how raw messages reach the core.
type InputMode string

const (
	// ModePush delivers each message on the transport goroutine as it
	// arrives.
	ModePush InputMode = "push"
	// ModePoll buffers messages and drains them from one cooperative loop
	// on a fixed interval.
	ModePoll InputMode = "poll"
)

// InputConfig selects the MIDI input device and delivery model.
type InputConfig struct {
	Mode InputMode `json:"mode,omitempty"`
	// PollIntervalMS is the drain interval for ModePoll.
	PollIntervalMS int `json:"pollIntervalMs,omitempty"`
	// Preferred: device names matching any of these substrings are
	// connected first.
	Preferred []string `json:"preferred,omitempty"`
	// Excluded: virtual/system ports that are never auto-connected.
	Excluded []string `json:"excluded,omitempty"`
	// Wait keeps the controller running and rescanning when no device is
	// present at startup. When false, a missing device is fatal.
	Wait bool `json:"wait"`
}

// MappingConfig names the note-to-channel partition strategy.
type MappingConfig struct {
	// Strategy is one of "octave", "balanced", "equal", "white", "ranges".
	Strategy string `json:"strategy,omitempty"`
	Channels int    `json:"channels,omitempty"`
	// Ranges supplies the explicit partition for the "ranges" strategy.
	Ranges []lights.Range `json:"ranges,omitempty"`
}

// SerialConfig locates the relay board.
type SerialConfig struct {
	Device    string `json:"device,omitempty"`
	Baud      int    `json:"baud,omitempty"`
	ActiveLow bool   `json:"activeLow"`
}

// Config is the main configuration structure.
type Config struct {
	Input   InputConfig   `json:"input"`
	Mapping MappingConfig `json:"mapping"`
	Serial  SerialConfig  `json:"serial"`
	// HTTPAddr enables the diagnostics endpoint when non-empty,
	// e.g. ":8080".
	HTTPAddr string `json:"httpAddr,omitempty"`
}

// Default returns a config with sensible defaults: octave mapping on 8
// channels, push delivery, the original keyboard's name patterns, and an
// active-low board on the first ACM serial port.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Mode:           ModePush,
			PollIntervalMS: 5,
			Preferred:      []string{"Casio", "CTK"},
			Excluded:       []string{"Midi Through", "Through Port", "Dummy"},
			Wait:           true,
		},
		Mapping: MappingConfig{
			Strategy: "octave",
			Channels: lights.DefaultChannels,
		},
		Serial: SerialConfig{
			Device:    "/dev/ttyACM0",
			Baud:      115200,
			ActiveLow: true,
		},
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "christmas-piano"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from path, or from the default location when path
// is empty. A missing file yields defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, or to the default location when path is
// empty, creating the directory as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		path = filepath.Join(dir, "config.json")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildChannelMap resolves the mapping section to a validated ChannelMap.
// Partition violations surface here, at construction time.
func (c *Config) BuildChannelMap() (*lights.ChannelMap, error) {
	m, err := lights.MapForStrategy(c.Mapping.Strategy, c.Mapping.Channels, c.Mapping.Ranges)
	if err != nil {
		return nil, fmt.Errorf("mapping config: %w", err)
	}
	return m, nil
}
