package lights

// Transition is one derived output change: energize or de-energize a channel.
type Transition struct {
	Channel   int
	Energized bool
}

// Tracker owns the set of currently-held notes and derives channel
// transitions from decoded note events. It is not safe for concurrent use;
// Controller serializes access for push-delivered transports.
type Tracker struct {
	cmap *ChannelMap
	held map[uint8]bool
}

func NewTracker(cmap *ChannelMap) *Tracker {
	return &Tracker{cmap: cmap, held: make(map[uint8]bool)}
}

// Apply folds one event into the held-note set and reports the resulting
// transition, if any.
//
// A Note On with velocity > 0 for a mapped note always energizes its
// channel, even when the note is already held (a key re-struck before full
// release re-asserts the same state). A Note Off — or a zero-velocity Note
// On, which is a release alias even when it reaches the tracker undecoded —
// de-energizes the channel whenever the note was held, regardless of
// sibling notes on the same channel still being down: the tracker mirrors
// events one-to-one, last writer wins. Releases of unheld notes and events
// for unmapped notes do nothing, which makes repeated or out-of-order
// releases idempotent.
func (t *Tracker) Apply(ev NoteEvent) (Transition, bool) {
	ch, ok := t.cmap.ChannelOf(ev.Note)
	if !ok {
		return Transition{}, false
	}
	if ev.Kind == NoteOn && ev.Velocity > 0 {
		t.held[ev.Note] = true
		return Transition{Channel: ch, Energized: true}, true
	}
	if !t.held[ev.Note] {
		return Transition{}, false
	}
	delete(t.held, ev.Note)
	return Transition{Channel: ch, Energized: false}, true
}

// HeldCount reports how many notes are currently considered held.
func (t *Tracker) HeldCount() int { return len(t.held) }

// Clear empties the held-note set (used for panic release and shutdown).
func (t *Tracker) Clear() {
	t.held = make(map[uint8]bool)
}
