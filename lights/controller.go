package lights

import (
	"fmt"
	"log/slog"
	"sync"
)

// Controller wires decoder, tracker and sink into one owned pipeline.
//
// Feed may be called from a transport goroutine (push delivery) while
// Shutdown runs on the main goroutine, so every state mutation and the
// shutdown drain share one mutex. Multiple independent controllers can
// coexist; nothing here is process-global.
type Controller struct {
	mu      sync.Mutex
	tracker *Tracker
	sink    Sink
	closed  bool
}

func NewController(cmap *ChannelMap, sink Sink) *Controller {
	return &Controller{
		tracker: NewTracker(cmap),
		sink:    sink,
	}
}

// Channels returns the number of output channels the controller drives.
func (c *Controller) Channels() int { return c.tracker.cmap.Channels() }

// Feed decodes one raw message, applies it to the tracker and synchronously
// pushes the resulting transition (if any) to the sink, in delivery order.
// Messages arriving after Shutdown are dropped.
//
// A sink write failure is returned to the caller but leaves the tracked
// note state consistent: the event was applied, and a later event on the
// same channel re-asserts the hardware state.
func (c *Controller) Feed(m RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	ev, ok := Decode(m)
	if !ok {
		return nil
	}
	tr, ok := c.tracker.Apply(ev)
	if !ok {
		slog.Debug("lights: event ignored", "kind", ev.Kind, "note", ev.Note)
		return nil
	}
	slog.Debug("lights: transition",
		"kind", ev.Kind, "note", ev.Note, "velocity", ev.Velocity,
		"channel", tr.Channel, "energized", tr.Energized,
	)
	if err := c.sink.Set(tr.Channel, tr.Energized); err != nil {
		return fmt.Errorf("set channel %d: %w", tr.Channel, err)
	}
	return nil
}

// HeldCount reports how many notes are currently held.
func (c *Controller) HeldCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.HeldCount()
}

// PanicRelease forces every channel off and forgets all held notes, but
// keeps the controller accepting input. Used at startup (known-dark state)
// and when the input device disappears mid-performance.
func (c *Controller) PanicRelease() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.allOffLocked()
}

// Shutdown stops accepting input, forces every channel off regardless of
// the held-note set, and empties it. Safe to call concurrently with an
// in-flight Feed and idempotent: the second call is a no-op.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.allOffLocked()
}

func (c *Controller) allOffLocked() error {
	var firstErr error
	for ch := 0; ch < c.tracker.cmap.Channels(); ch++ {
		if err := c.sink.Set(ch, false); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("set channel %d: %w", ch, err)
		}
	}
	c.tracker.Clear()
	return firstErr
}
