package executor

import "sync"

// tailBuffer is an io.Writer that retains only the last limit bytes
// written, so a noisy hook cannot grow memory without bound.
type tailBuffer struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(p) >= b.limit {
		b.buf = append(b.buf[:0], p[len(p)-b.limit:]...)
		b.truncated = true
		return len(p), nil
	}

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		excess := len(b.buf) - b.limit
		b.buf = append(b.buf[:0], b.buf[excess:]...)
		b.truncated = true
	}
	return len(p), nil
}

// String returns the retained tail.
func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// Truncated reports whether any output was discarded.
func (b *tailBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
