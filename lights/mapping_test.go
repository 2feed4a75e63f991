package lights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPartition checks the core invariant: every note in the key span maps
// to exactly one channel in range, and nothing outside the span maps at all.
func assertPartition(t *testing.T, m *ChannelMap) {
	t.Helper()
	for n := LowestNote; n <= HighestNote; n++ {
		ch, ok := m.ChannelOf(uint8(n))
		assert.True(t, ok, "note %d must be mapped", n)
		assert.GreaterOrEqual(t, ch, 0)
		assert.Less(t, ch, m.Channels())
	}
	for _, n := range []uint8{0, 10, 20, 109, 120, 127} {
		_, ok := m.ChannelOf(n)
		assert.False(t, ok, "note %d must be unmapped", n)
	}
}

func TestOctaveStrategyIsValidPartition(t *testing.T) {
	m, err := NewChannelMap(DefaultChannels, OctaveRanges())
	require.NoError(t, err)
	assertPartition(t, m)

	ch, ok := m.ChannelOf(60) // middle C
	assert.True(t, ok)
	assert.Equal(t, 3, ch)
	ch, ok = m.ChannelOf(108)
	assert.True(t, ok)
	assert.Equal(t, 7, ch)
}

func TestBalancedStrategyIsValidPartition(t *testing.T) {
	m, err := NewChannelMap(DefaultChannels, BalancedRanges())
	require.NoError(t, err)
	assertPartition(t, m)

	ch, _ := m.ChannelOf(21)
	assert.Equal(t, 0, ch)
	ch, _ = m.ChannelOf(62)
	assert.Equal(t, 3, ch)
}

func TestEqualStrategyIsValidPartition(t *testing.T) {
	m, err := NewChannelMap(DefaultChannels, EqualRanges(DefaultChannels))
	require.NoError(t, err)
	assertPartition(t, m)

	// 88 keys over 8 channels is exactly 11 per channel.
	ch, _ := m.ChannelOf(21)
	assert.Equal(t, 0, ch)
	ch, _ = m.ChannelOf(31)
	assert.Equal(t, 0, ch)
	ch, _ = m.ChannelOf(32)
	assert.Equal(t, 1, ch)
	ch, _ = m.ChannelOf(108)
	assert.Equal(t, 7, ch)
}

func TestWhiteKeyStrategyIsValidPartition(t *testing.T) {
	m := WhiteKeyMap()
	assertPartition(t, m)

	ch, _ := m.ChannelOf(60) // C
	assert.Equal(t, 0, ch)
	ch, _ = m.ChannelOf(71) // B
	assert.Equal(t, 6, ch)
	ch, _ = m.ChannelOf(61) // C# -> shared black-key channel
	assert.Equal(t, 7, ch)
}

func TestNewChannelMapRejectsOverlap(t *testing.T) {
	ranges := OctaveRanges()
	ranges[1].Low = 30 // overlaps channel 0's 21-34
	_, err := NewChannelMap(DefaultChannels, ranges)
	assert.Error(t, err)
}

func TestNewChannelMapRejectsGap(t *testing.T) {
	ranges := OctaveRanges()
	ranges[2].Low = 50 // leaves 48-49 uncovered
	_, err := NewChannelMap(DefaultChannels, ranges)
	assert.Error(t, err)
}

func TestNewChannelMapRejectsWrongEntryCount(t *testing.T) {
	_, err := NewChannelMap(DefaultChannels, OctaveRanges()[:7])
	assert.Error(t, err)
}

func TestNewChannelMapRejectsOutOfSpanRange(t *testing.T) {
	ranges := OctaveRanges()
	ranges[0].Low = 10
	_, err := NewChannelMap(DefaultChannels, ranges)
	assert.Error(t, err)

	ranges = OctaveRanges()
	ranges[7].High = 120
	_, err = NewChannelMap(DefaultChannels, ranges)
	assert.Error(t, err)
}

func TestNewChannelMapRejectsInvertedRange(t *testing.T) {
	ranges := OctaveRanges()
	ranges[0] = Range{34, 21}
	_, err := NewChannelMap(DefaultChannels, ranges)
	assert.Error(t, err)
}

func TestMapForStrategy(t *testing.T) {
	for _, name := range []string{"", "octave", "balanced", "equal", "white"} {
		m, err := MapForStrategy(name, 0, nil)
		require.NoError(t, err, "strategy %q", name)
		assertPartition(t, m)
	}

	_, err := MapForStrategy("disco", 0, nil)
	assert.Error(t, err)

	// the fixed 8-channel layouts reject any other configured count
	for _, name := range []string{"octave", "balanced", "white"} {
		_, err = MapForStrategy(name, 4, nil)
		assert.Error(t, err, "strategy %q with 4 channels must fail", name)
		m, err := MapForStrategy(name, DefaultChannels, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultChannels, m.Channels())
	}

	_, err = MapForStrategy("ranges", 0, nil)
	assert.Error(t, err)

	m, err := MapForStrategy("ranges", 2, []Range{{21, 64}, {65, 108}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Channels())
	ch, ok := m.ChannelOf(65)
	assert.True(t, ok)
	assert.Equal(t, 1, ch)
}
