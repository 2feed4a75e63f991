package lights

import "fmt"

const (
	// DefaultChannels is the number of outputs on a standard relay board.
	DefaultChannels = 8

	// LowestNote / HighestNote bound the 88-key span: A0(21) to C8(108).
	LowestNote  = 21
	HighestNote = 108
)

// Range is an inclusive span of MIDI note numbers assigned to one channel.
type Range struct {
	Low  uint8 `json:"low"`
	High uint8 `json:"high"`
}

// ChannelMap is an immutable partition of the playable note range into
// output channels, queried in O(1) via a per-note lookup table.
type ChannelMap struct {
	channels int
	table    [128]int8 // -1 = unmapped
}

// NewChannelMap builds a map from an ordered list of ranges, one per channel
// index. Construction fails if the entry count does not match the channel
// count, any range is inverted or outside the key span, ranges overlap, or a
// note in the span is left uncovered. These are configuration errors, never
// runtime conditions.
func NewChannelMap(channels int, ranges []Range) (*ChannelMap, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if len(ranges) != channels {
		return nil, fmt.Errorf("got %d ranges for %d channels", len(ranges), channels)
	}

	m := &ChannelMap{channels: channels}
	for i := range m.table {
		m.table[i] = -1
	}

	for ch, r := range ranges {
		if r.Low > r.High {
			return nil, fmt.Errorf("channel %d: inverted range %d-%d", ch, r.Low, r.High)
		}
		if r.Low < LowestNote || r.High > HighestNote {
			return nil, fmt.Errorf("channel %d: range %d-%d outside key span %d-%d",
				ch, r.Low, r.High, LowestNote, HighestNote)
		}
		for n := r.Low; n <= r.High; n++ {
			if m.table[n] != -1 {
				return nil, fmt.Errorf("note %d claimed by both channel %d and channel %d",
					n, m.table[n], ch)
			}
			m.table[n] = int8(ch)
		}
	}

	for n := LowestNote; n <= HighestNote; n++ {
		if m.table[n] == -1 {
			return nil, fmt.Errorf("note %d not covered by any range", n)
		}
	}
	return m, nil
}

// ChannelOf returns the output channel for a note, or false for notes
// outside the mapped span.
func (m *ChannelMap) ChannelOf(note uint8) (int, bool) {
	if int(note) >= len(m.table) {
		return 0, false
	}
	ch := m.table[note]
	if ch < 0 {
		return 0, false
	}
	return int(ch), true
}

// Channels returns the number of output channels in the partition.
func (m *ChannelMap) Channels() int { return m.channels }

// OctaveRanges is the default 8-channel layout: roughly one octave per
// channel across the 88 keys.
//
//	channel 0: A0-A#1 (21-34)    channel 4: C5-B5 (72-83)
//	channel 1: B1-B2  (35-47)    channel 5: C6-B6 (84-95)
//	channel 2: C3-B3  (48-59)    channel 6: C7-B7 (96-107)
//	channel 3: C4-B4  (60-71)    channel 7: C8    (108)
func OctaveRanges() []Range {
	return []Range{
		{21, 34}, {35, 47}, {48, 59}, {60, 71},
		{72, 83}, {84, 95}, {96, 107}, {108, 108},
	}
}

// BalancedRanges weights the middle of the keyboard: wide bass and treble
// groups on the outer channels, six keys per channel around middle C where
// most playing happens.
func BalancedRanges() []Range {
	return []Range{
		{21, 47}, {48, 53}, {54, 59}, {60, 65},
		{66, 71}, {72, 77}, {78, 83}, {84, 108},
	}
}

// EqualRanges splits the span into equal-size groups, with the last channel
// absorbing the remainder. For 8 channels that is exactly 11 keys each.
func EqualRanges(channels int) []Range {
	span := HighestNote - LowestNote + 1
	per := span / channels
	ranges := make([]Range, channels)
	for ch := 0; ch < channels; ch++ {
		low := LowestNote + ch*per
		high := low + per - 1
		if ch == channels-1 {
			high = HighestNote
		}
		ranges[ch] = Range{uint8(low), uint8(high)}
	}
	return ranges
}

// whiteKeyChannel maps a pitch class (note mod 12) to a channel: the seven
// white keys C..B get channels 0..6, every black key lands on channel 7.
var whiteKeyChannel = map[int]int8{
	0: 0, 2: 1, 4: 2, 5: 3, 7: 4, 9: 5, 11: 6,
}

// WhiteKeyMap builds the pattern-based 8-channel split: one channel per
// white-key pitch class plus one shared channel for all black keys. It is
// not expressible as contiguous ranges but still covers every key in the
// span exactly once.
func WhiteKeyMap() *ChannelMap {
	m := &ChannelMap{channels: DefaultChannels}
	for i := range m.table {
		m.table[i] = -1
	}
	for n := LowestNote; n <= HighestNote; n++ {
		if ch, ok := whiteKeyChannel[n%12]; ok {
			m.table[n] = ch
		} else {
			m.table[n] = 7
		}
	}
	return m
}

// MapForStrategy resolves a named partition strategy to a ChannelMap.
// custom is consulted only by the "ranges" strategy. The "octave",
// "balanced" and "white" layouts are fixed at 8 channels; configuring any
// other count with them is a construction error.
func MapForStrategy(strategy string, channels int, custom []Range) (*ChannelMap, error) {
	if channels == 0 {
		channels = DefaultChannels
	}
	switch strategy {
	case "", "octave", "balanced", "white":
		if channels != DefaultChannels {
			return nil, fmt.Errorf("strategy %q is fixed at %d channels, got %d",
				strategy, DefaultChannels, channels)
		}
	}
	switch strategy {
	case "", "octave":
		return NewChannelMap(DefaultChannels, OctaveRanges())
	case "balanced":
		return NewChannelMap(DefaultChannels, BalancedRanges())
	case "equal":
		return NewChannelMap(channels, EqualRanges(channels))
	case "white":
		return WhiteKeyMap(), nil
	case "ranges":
		if len(custom) == 0 {
			return nil, fmt.Errorf("strategy %q requires explicit ranges", strategy)
		}
		return NewChannelMap(channels, custom)
	}
	return nil, fmt.Errorf("unknown mapping strategy %q", strategy)
}
