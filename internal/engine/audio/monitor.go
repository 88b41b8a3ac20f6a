// Package audio captures input samples and measures their level.
package audio

import (
	"errors"
	"sync"
)

// MaxMagnitude is the largest representable absolute int16 sample value.
// -32768 is counted as 32767 so the level never exceeds 100.
const MaxMagnitude = 32767

// ErrAlreadyResized is returned by Monitor.Resize after the first resize.
var ErrAlreadyResized = errors.New("monitor capacity already revised")

// Sink receives batches of mono samples from a capture source.
// OnSamples runs on the capture goroutine and must not block.
type Sink interface {
	OnSamples(batch []int16)
}

// Monitor keeps the most recent samples in a ring buffer and reports their level.
// OnSamples and Level may be called from different goroutines.
type Monitor struct {
	mu      sync.Mutex
	buf     []int16
	cursor  int
	resized bool
}

// NewMonitor creates a monitor holding capacity samples (at least 1).
func NewMonitor(capacity int) *Monitor {
	if capacity < 1 {
		capacity = 1
	}
	return &Monitor{buf: make([]int16, capacity)}
}

// OnSamples writes the batch at the cursor, wrapping at capacity.
func (m *Monitor) OnSamples(batch []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.buf)
	for _, s := range batch {
		m.buf[m.cursor] = s
		m.cursor++
		if m.cursor == n {
			m.cursor = 0
		}
	}
}

// Level returns the mean absolute sample magnitude of the whole buffer as a
// percentage of MaxMagnitude, in [0, 100].
func (m *Monitor) Level() float64 {
	m.mu.Lock()
	var sum int64
	for _, s := range m.buf {
		sum += magnitude(s)
	}
	n := len(m.buf)
	m.mu.Unlock()

	mean := float64(sum) / float64(n)
	return mean / MaxMagnitude * 100
}

// Resize replaces the buffer with an empty one of the given capacity.
// Only one resize is allowed per monitor; it is meant for adopting the batch
// size a backend negotiated at open time.
func (m *Monitor) Resize(capacity int) error {
	if capacity < 1 {
		capacity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resized {
		return ErrAlreadyResized
	}
	m.resized = true
	m.buf = make([]int16, capacity)
	m.cursor = 0
	return nil
}

// Capacity returns the ring buffer size in samples.
func (m *Monitor) Capacity() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buf)
}

// Snapshot copies the buffer, oldest sample first.
func (m *Monitor) Snapshot() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]int16, 0, len(m.buf))
	out = append(out, m.buf[m.cursor:]...)
	out = append(out, m.buf[:m.cursor]...)
	return out
}

func magnitude(s int16) int64 {
	if s < 0 {
		if s == -32768 {
			return MaxMagnitude
		}
		return int64(-s)
	}
	return int64(s)
}
