package midiin

import (
	"context"
	"sync"
	"time"

	"github.com/jordandm999/christmas-piano/lights"
)

// Queue buffers raw messages pushed by the transport callback so a single
// cooperative loop can drain them strictly in arrival order. It is the
// polling counterpart to direct push delivery: the same handler code runs
// either way, only the thread of control differs.
type Queue struct {
	mu  sync.Mutex
	buf []lights.RawMessage
}

// Push appends one message. Safe to call from the transport goroutine.
func (q *Queue) Push(m lights.RawMessage) {
	q.mu.Lock()
	q.buf = append(q.buf, m)
	q.mu.Unlock()
}

// Drain returns all buffered messages in arrival order and empties the
// queue. Returns nil when nothing is pending.
func (q *Queue) Drain() []lights.RawMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return nil
	}
	out := q.buf
	q.buf = nil
	return out
}

// Len reports how many messages are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// PollLoop drains q on a fixed interval and feeds each batch to h, one
// message at a time, until ctx is cancelled. This is the single logical
// thread of control of the polling model; h needs no locking of its own
// against other PollLoop deliveries.
func PollLoop(ctx context.Context, q *Queue, interval time.Duration, h Handler) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range q.Drain() {
				h(m)
			}
		}
	}
}
