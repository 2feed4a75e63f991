// Package midiin supplies the note-message input side of the pipeline: a
// hot-plug watcher over rtmidi that delivers raw messages either directly on
// the transport goroutine (push) or through a drain-and-sleep queue (poll).
package midiin

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/jordandm999/christmas-piano/lights"
)

// Handler consumes one raw message. Under push delivery it runs on the
// transport goroutine; the consumer is responsible for its own locking.
type Handler func(lights.RawMessage)

// Config selects which input port the watcher connects to.
type Config struct {
	// Preferred: ports matching any of these substrings (case-insensitive)
	// are picked first. With no match the watcher only auto-connects when
	// exactly one eligible port exists.
	Preferred []string
	// Excluded: virtual/system ports that are never auto-connected.
	Excluded []string

	RescanInterval time.Duration
}

const defaultRescanInterval = time.Second

// Watcher monitors available MIDI inputs and maintains a connection to the
// preferred device. It handles hot-plug (new device appears) and hot-unplug
// (device disappears) transparently.
//
// handler is called for every incoming message while a device is connected.
// onDisconnect is called (from a goroutine) when the active device is lost;
// callers should use it to force all output channels off immediately.
type Watcher struct {
	mu           sync.Mutex
	cfg          Config
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	handler      Handler
	onDisconnect func()
}

// NewWatcher creates a watcher and initialises the underlying rtmidi driver.
// Call Close() when done.
func NewWatcher(cfg Config, handler Handler, onDisconnect func()) (*Watcher, error) {
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = defaultRescanInterval
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Watcher{
		cfg:          cfg,
		drv:          drv,
		handler:      handler,
		onDisconnect: onDisconnect,
	}, nil
}

// Close shuts down the active MIDI connection and the rtmidi driver.
// Safe to call more than once.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.drv == nil {
		return
	}
	w.closeConn()
	w.drv.Close()
	w.drv = nil
}

// Connected reports the currently connected port name, if any.
func (w *Watcher) Connected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName, w.connected
}

// Tick should be called on a regular interval (e.g. every second) from the
// main loop. It scans for devices, auto-connects to a preferred one, and
// detects disappearances.
func (w *Watcher) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.drv == nil {
		return
	}
	now := time.Now()
	if !w.lastRescanAt.IsZero() && now.Sub(w.lastRescanAt) < w.cfg.RescanInterval {
		return
	}
	w.lastRescanAt = now

	inputs := w.listInputs()

	if w.connected {
		// Verify the selected device is still present.
		for _, n := range inputs {
			if n == w.selectedName {
				return
			}
		}
		slog.Warn("midi: device disappeared", "device", w.selectedName)
		w.closeConn()
		w.lastRescanAt = time.Time{} // rescan immediately next tick
		if w.onDisconnect != nil {
			go w.onDisconnect()
		}
		return
	}

	if len(inputs) == 0 {
		return
	}
	cand, ok := w.pickPreferred(inputs)
	if !ok {
		return
	}
	if err := w.openByName(cand); err != nil {
		slog.Error("midi: connect failed", "device", cand, "err", err)
	}
}

func (w *Watcher) listInputs() []string {
	ins, err := w.drv.Ins()
	if err != nil {
		slog.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		if matchesAny(name, w.cfg.Excluded) {
			slog.Debug("midi: input excluded", "device", name)
			continue
		}
		names = append(names, name)
	}
	slog.Debug("midi: inputs found", "count", len(names), "devices", strings.Join(names, ", "))
	return names
}

func (w *Watcher) pickPreferred(inputs []string) (string, bool) {
	for _, pat := range w.cfg.Preferred {
		for _, name := range inputs {
			if containsCI(name, pat) {
				return name, true
			}
		}
	}
	if len(inputs) == 1 {
		return inputs[0], true
	}
	return "", false
}

func (w *Watcher) closeConn() {
	if w.stopFn != nil {
		w.stopFn()
		w.stopFn = nil
	}
	if w.inPort != nil {
		_ = w.inPort.Close()
		w.inPort = nil
	}
	w.connected = false
	w.selectedName = ""
}

func (w *Watcher) openByName(name string) error {
	ins, err := w.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		// Every message goes through; the decoder drops non-note traffic.
		w.handler(rawFromBytes(msg.Bytes()))
	}, midi.HandleError(func(listenErr error) {
		slog.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not call closeConn from within the listener goroutine, so
		// we dispatch to a new goroutine and re-acquire the mutex.
		go func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.connected && w.selectedName == name {
				w.closeConn()
				w.lastRescanAt = time.Time{} // trigger immediate rescan
				if w.onDisconnect != nil {
					go w.onDisconnect()
				}
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	w.inPort = found
	w.stopFn = stop
	w.connected = true
	w.selectedName = name
	slog.Info("midi: connected", "device", name)
	return nil
}

// Inputs enumerates every MIDI input port currently visible to the rtmidi
// driver, without opening any of them.
func Inputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

func rawFromBytes(b []byte) lights.RawMessage {
	var m lights.RawMessage
	if len(b) > 0 {
		m.Status = b[0]
	}
	if len(b) > 1 {
		m.Data1 = b[1]
	}
	if len(b) > 2 {
		m.Data2 = b[2]
	}
	return m
}

func matchesAny(name string, patterns []string) bool {
	for _, pat := range patterns {
		if containsCI(name, pat) {
			return true
		}
	}
	return false
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
