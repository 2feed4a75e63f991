package lights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOctaveTracker(t *testing.T) *Tracker {
	t.Helper()
	m, err := NewChannelMap(DefaultChannels, OctaveRanges())
	require.NoError(t, err)
	return NewTracker(m)
}

func TestApplyOnThenOff(t *testing.T) {
	tr := newOctaveTracker(t)

	got, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 64})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 3, Energized: true}, got)
	assert.Equal(t, 1, tr.HeldCount())

	got, ok = tr.Apply(NoteEvent{Kind: NoteOff, Note: 60})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 3, Energized: false}, got)
	assert.Equal(t, 0, tr.HeldCount())
}

func TestApplyRetriggerReassertsOn(t *testing.T) {
	tr := newOctaveTracker(t)

	_, _ = tr.Apply(NoteEvent{Kind: NoteOn, Note: 40, Velocity: 80})
	got, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: 40, Velocity: 50})
	assert.True(t, ok, "re-struck key must re-emit on")
	assert.True(t, got.Energized)
	assert.Equal(t, 1, tr.HeldCount())
}

// A zero-velocity Note On that reaches the tracker without going through
// Decode must still act as a release, never as a press.
func TestApplyZeroVelocityNoteOnActsAsNoteOff(t *testing.T) {
	tr := newOctaveTracker(t)

	_, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 0})
	assert.False(t, ok, "release of an unheld note must not emit")
	assert.Equal(t, 0, tr.HeldCount())

	tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 64})
	got, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 0})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 3, Energized: false}, got)
	assert.Equal(t, 0, tr.HeldCount())
}

func TestApplyNoteOffWhenNotHeldIsNoop(t *testing.T) {
	tr := newOctaveTracker(t)

	_, ok := tr.Apply(NoteEvent{Kind: NoteOff, Note: 60})
	assert.False(t, ok)
	assert.Equal(t, 0, tr.HeldCount())

	// duplicate release after a real one is equally silent
	tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 1})
	tr.Apply(NoteEvent{Kind: NoteOff, Note: 60})
	_, ok = tr.Apply(NoteEvent{Kind: NoteOff, Note: 60})
	assert.False(t, ok)
}

func TestApplyUnmappedNoteNeverEmits(t *testing.T) {
	tr := newOctaveTracker(t)

	for _, n := range []uint8{0, 20, 109, 127} {
		_, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: n, Velocity: 100})
		assert.False(t, ok, "note %d", n)
		_, ok = tr.Apply(NoteEvent{Kind: NoteOff, Note: n})
		assert.False(t, ok, "note %d", n)
	}
	assert.Equal(t, 0, tr.HeldCount())
}

// Two notes on the same channel: releasing either one turns the channel off
// even while the other is still held. The tracker mirrors events directly
// rather than reference-counting channel membership.
func TestApplySharedChannelLastWriterWins(t *testing.T) {
	tr := newOctaveTracker(t)

	got, ok := tr.Apply(NoteEvent{Kind: NoteOn, Note: 21, Velocity: 100})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 0, Energized: true}, got)

	got, ok = tr.Apply(NoteEvent{Kind: NoteOn, Note: 34, Velocity: 90})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 0, Energized: true}, got)

	got, ok = tr.Apply(NoteEvent{Kind: NoteOff, Note: 21})
	assert.True(t, ok)
	assert.Equal(t, Transition{Channel: 0, Energized: false}, got, "off even though note 34 is still held")
	assert.Equal(t, 1, tr.HeldCount())
}

func TestClearEmptiesHeldSet(t *testing.T) {
	tr := newOctaveTracker(t)
	tr.Apply(NoteEvent{Kind: NoteOn, Note: 21, Velocity: 1})
	tr.Apply(NoteEvent{Kind: NoteOn, Note: 60, Velocity: 1})
	tr.Clear()
	assert.Equal(t, 0, tr.HeldCount())

	_, ok := tr.Apply(NoteEvent{Kind: NoteOff, Note: 21})
	assert.False(t, ok)
}
