package lights

// Sink applies a channel's boolean state to hardware. Implementations own
// electrical details like pin polarity; the core only emits transitions and
// never reads hardware state back.
type Sink interface {
	// Set energizes or de-energizes one output channel. A failed Set is
	// recoverable: the caller's tracked state stays authoritative and a
	// later event on the same channel re-attempts the write naturally.
	Set(channel int, energized bool) error

	Close() error
}
