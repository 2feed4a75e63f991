// Package relay implements the output side of the pipeline: sinks that
// apply channel states to a serial-attached relay board or to the console.
package relay

const (
	// MaxChannels is the widest board the one-byte mask frame can drive.
	MaxChannels = 8

	CmdSetChannels = 0x20
	SOF0           = 0xAA
	SOF1           = 0x55
)

// Frame is a full-state snapshot of all relay channels sent to the board in
// one transfer. Bit N of Mask energizes channel N.
type Frame struct {
	Mask byte
	Seq  byte
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][mask][seq][CKS]
//
// LEN counts CMD plus payload; CKS is the XOR of LEN, CMD and payload.
func (f Frame) Encode() []byte {
	payload := []byte{f.Mask, f.Seq}

	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := length ^ CmdSetChannels
	for _, b := range payload {
		cks ^= b
	}

	out := []byte{SOF0, SOF1, length, CmdSetChannels}
	out = append(out, payload...)
	out = append(out, cks)
	return out
}

// wireMask converts a logical energized mask to the electrical level mask.
// Most relay boards are active-low: a cleared bit actuates the relay, so
// the whole used-channel window is inverted.
func wireMask(mask byte, activeLow bool, channels int) byte {
	if !activeLow {
		return mask
	}
	window := byte(1<<channels - 1)
	return ^mask & window
}
