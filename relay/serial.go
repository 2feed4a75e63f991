package relay

import (
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"
)

// SerialSink drives a relay board behind a serial-attached microcontroller.
// It keeps a shadow mask of the last state written per channel so every Set
// can send a full-state frame; that mask is a transport detail, the tracker
// upstream never reads it back.
type SerialSink struct {
	mu        sync.Mutex
	port      serial.Port
	channels  int
	activeLow bool
	mask      byte
	seq       byte
}

// OpenSerial opens the named serial device at the given baud rate and sends
// an initial all-off frame so the board starts dark.
func OpenSerial(device string, baud int, channels int, activeLow bool) (*SerialSink, error) {
	if channels <= 0 || channels > MaxChannels {
		return nil, fmt.Errorf("serial sink supports 1-%d channels, got %d", MaxChannels, channels)
	}
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	slog.Info("serial: port opened", "device", device, "baud", baud, "active_low", activeLow)

	s := &SerialSink{port: p, channels: channels, activeLow: activeLow}
	if err := s.writeFrame(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// Set updates one channel bit in the shadow mask and writes the resulting
// full-state frame. A write error leaves the mask updated; the next Set
// re-sends the complete state anyway.
func (s *SerialSink) Set(channel int, energized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channel < 0 || channel >= s.channels {
		return fmt.Errorf("channel %d out of range 0-%d", channel, s.channels-1)
	}
	if energized {
		s.mask |= 1 << channel
	} else {
		s.mask &^= 1 << channel
	}
	return s.writeFrame()
}

// Close forces all channels off and releases the port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	s.mask = 0
	if err := s.writeFrame(); err != nil {
		slog.Warn("serial: all-off frame on close failed", "err", err)
	}
	slog.Info("serial: closing port")
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *SerialSink) writeFrame() error {
	if s.port == nil {
		return fmt.Errorf("port closed")
	}
	f := Frame{Mask: wireMask(s.mask, s.activeLow, s.channels), Seq: s.seq}
	s.seq++
	n, err := s.port.Write(f.Encode())
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	slog.Debug("serial: frame sent", "bytes", n, "seq", f.Seq, "mask", fmt.Sprintf("%08b", f.Mask))
	return nil
}
