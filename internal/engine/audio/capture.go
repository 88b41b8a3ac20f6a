package audio

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/logger"
)

// Capture errors.
var (
	ErrBackend    = errors.New("audio backend error")
	ErrNotOpen    = errors.New("capture source not open")
	ErrRunning    = errors.New("capture source already running")
	ErrBadSpec    = errors.New("invalid capture spec")
	ErrNoDecoder  = errors.New("no decoder for audio file")
	ErrEmptyAudio = errors.New("audio file has no samples")
)

// Default capture parameters.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	DefaultSamples    = 1024

	// MaxBatchSamples is the largest batch an SDL audio spec can hold.
	MaxBatchSamples = math.MaxUint16
)

// CaptureSpec describes the stream a source delivers.
// Samples is the batch size in sample frames.
type CaptureSpec struct {
	SampleRate int
	Channels   int
	Samples    int
}

// DefaultSpec returns a mono 44.1 kHz spec with 1024-sample batches.
func DefaultSpec() CaptureSpec {
	return CaptureSpec{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Samples:    DefaultSamples,
	}
}

// Validate checks that all fields are usable.
func (s CaptureSpec) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrBadSpec, s.SampleRate)
	}
	if s.Channels != 1 {
		return fmt.Errorf("%w: only mono capture is supported, got %d channels", ErrBadSpec, s.Channels)
	}
	if s.Samples <= 0 || s.Samples > MaxBatchSamples {
		return fmt.Errorf("%w: batch size %d", ErrBadSpec, s.Samples)
	}
	return nil
}

// CaptureSource produces sample batches on its own goroutine.
type CaptureSource interface {
	// Open negotiates the stream and returns the spec the backend accepted.
	Open(want CaptureSpec) (CaptureSpec, error)
	// Resume starts delivering batches to sink until ctx is done or Stop is called.
	Resume(ctx context.Context, sink Sink) error
	// Stop halts delivery and waits for the capture goroutine to exit.
	// A batch in flight may be cut short. Safe to call more than once.
	Stop() error
}

type tee []Sink

func (t tee) OnSamples(batch []int16) {
	for _, s := range t {
		s.OnSamples(batch)
	}
}

// Tee returns a sink that forwards every batch to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// ConfigureMonitor adopts the negotiated batch size when it differs from the
// requested one. The monitor's single resize is spent on this.
func ConfigureMonitor(m *Monitor, requested, negotiated CaptureSpec) error {
	if negotiated.Samples == requested.Samples || negotiated.Samples <= 0 {
		return nil
	}
	logger.Info("capture batch size renegotiated",
		zap.Int("requested", requested.Samples),
		zap.Int("negotiated", negotiated.Samples),
	)
	if err := m.Resize(negotiated.Samples); err != nil {
		return fmt.Errorf("resizing level monitor: %w", err)
	}
	return nil
}
