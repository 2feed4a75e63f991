package cmd

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordandm999/christmas-piano/lights"
)

// logSink appends every call to a shared event log so ordering across the
// sink and the input release can be asserted.
type logSink struct {
	log *[]string
}

func (s logSink) Set(channel int, energized bool) error {
	*s.log = append(*s.log, fmt.Sprintf("set %d %v", channel, energized))
	return nil
}

func (s logSink) Close() error {
	*s.log = append(*s.log, "sink close")
	return nil
}

// The drain must run in order: every channel forced off first, then the
// input transport released, then the board.
func TestShutdownPipelineOrder(t *testing.T) {
	var log []string
	sink := logSink{&log}

	m, err := lights.NewChannelMap(lights.DefaultChannels, lights.OctaveRanges())
	require.NoError(t, err)
	ctrl := lights.NewController(m, sink)
	require.NoError(t, ctrl.Feed(lights.RawMessage{Status: 0x90, Data1: 60, Data2: 64}))

	release := func() { log = append(log, "release input") }
	require.NoError(t, shutdownPipeline(ctrl, release, sink))

	// one note-on emission, then the full all-off drain
	require.Len(t, log, 1+lights.DefaultChannels+2)
	for ch := 0; ch < lights.DefaultChannels; ch++ {
		assert.Equal(t, fmt.Sprintf("set %d false", ch), log[1+ch])
	}
	assert.Equal(t, "release input", log[len(log)-2])
	assert.Equal(t, "sink close", log[len(log)-1])
	assert.Equal(t, 0, ctrl.HeldCount())
}
