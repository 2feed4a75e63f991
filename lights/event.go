package lights

// RawMessage is a raw 3-byte MIDI channel message as delivered by the
// transport. Messages shorter than 3 bytes arrive zero-padded.
type RawMessage struct {
	Status byte
	Data1  byte
	Data2  byte
}

// EventKind distinguishes the two note event types the pipeline acts on.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
)

func (k EventKind) String() string {
	if k == NoteOn {
		return "note-on"
	}
	return "note-off"
}

// NoteEvent is a decoded note message. Velocity is meaningful only for
// NoteOn events.
type NoteEvent struct {
	Kind     EventKind
	Note     uint8
	Velocity uint8
}

// Decode classifies a raw message. A Note On with velocity 0 is normalized
// to a Note Off per the MIDI spec. Every other status (control change,
// pitch bend, sustain pedal, ...) is dropped: ok is false and no error
// exists for this decoder — any byte triplet is classifiable or ignorable.
func Decode(m RawMessage) (NoteEvent, bool) {
	switch m.Status & 0xF0 {
	case 0x80:
		return NoteEvent{Kind: NoteOff, Note: m.Data1}, true
	case 0x90:
		if m.Data2 == 0 {
			// zero-velocity Note On is a Note Off alias
			return NoteEvent{Kind: NoteOff, Note: m.Data1}, true
		}
		return NoteEvent{Kind: NoteOn, Note: m.Data1, Velocity: m.Data2}, true
	}
	return NoteEvent{}, false
}
