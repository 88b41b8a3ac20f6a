package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/logger"
)

// SDLCapture records from an SDL2 capture device.
// The device is opened without a callback; a goroutine dequeues whatever SDL
// has buffered and hands it to the sink.
type SDLCapture struct {
	device string // empty selects the system default

	mu      sync.Mutex
	dev     sdl.AudioDeviceID
	spec    CaptureSpec
	opened  bool
	cancel  context.CancelFunc
	done    chan struct{}
	dropped int
}

// NewSDLCapture creates a capture source for the named device.
func NewSDLCapture(device string) *SDLCapture {
	return &SDLCapture{device: device}
}

// Open initializes the SDL audio subsystem and opens the capture device.
func (c *SDLCapture) Open(want CaptureSpec) (CaptureSpec, error) {
	if err := want.Validate(); err != nil {
		return CaptureSpec{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return c.spec, nil
	}

	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return CaptureSpec{}, fmt.Errorf("%w: SDL audio init: %v", ErrBackend, err)
	}

	desired := sdl.AudioSpec{
		Freq:     int32(want.SampleRate),
		Format:   sdl.AUDIO_S16SYS,
		Channels: uint8(want.Channels),
		Samples:  uint16(want.Samples),
	}
	var obtained sdl.AudioSpec

	dev, err := sdl.OpenAudioDevice(c.device, true, &desired, &obtained, sdl.AUDIO_ALLOW_FREQUENCY_CHANGE)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return CaptureSpec{}, fmt.Errorf("%w: opening capture device %q: %v", ErrBackend, c.device, err)
	}

	c.dev = dev
	c.opened = true
	c.spec = CaptureSpec{
		SampleRate: int(obtained.Freq),
		Channels:   int(obtained.Channels),
		Samples:    int(obtained.Samples),
	}

	logger.Info("capture device opened",
		zap.String("device", c.device),
		zap.Int("sample_rate", c.spec.SampleRate),
		zap.Int("channels", c.spec.Channels),
		zap.Int("samples", c.spec.Samples),
	)
	return c.spec, nil
}

// Resume unpauses the device and starts the dequeue goroutine.
func (c *SDLCapture) Resume(ctx context.Context, sink Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return ErrNotOpen
	}
	if c.done != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	sdl.PauseAudioDevice(c.dev, false)
	go c.pump(ctx, sink, c.dev, c.spec, c.done)
	return nil
}

// pump polls at half the batch period so SDL's queue never grows unbounded.
func (c *SDLCapture) pump(ctx context.Context, sink Sink, dev sdl.AudioDeviceID, spec CaptureSpec, done chan struct{}) {
	defer close(done)

	period := time.Duration(spec.Samples) * time.Second / time.Duration(spec.SampleRate) / 2
	if period < time.Millisecond {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	raw := make([]byte, spec.Samples*spec.Channels*2)
	batch := make([]int16, spec.Samples*spec.Channels)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			n, err := sdl.DequeueAudio(dev, raw)
			if err != nil {
				c.mu.Lock()
				c.dropped++
				c.mu.Unlock()
				logger.Debug("dequeue failed", zap.Error(err))
				break
			}
			if n < 2 {
				break
			}
			count := decodeS16(raw[:n], batch)
			sink.OnSamples(batch[:count])
			if ctx.Err() != nil || n < len(raw) {
				break
			}
		}
	}
}

// Stop pauses the device and waits for the pump to exit. The device stays open
// until Close.
func (c *SDLCapture) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	if c.opened {
		sdl.PauseAudioDevice(c.dev, true)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Close stops capture and releases the device.
func (c *SDLCapture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		sdl.CloseAudioDevice(c.dev)
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		c.opened = false
		logger.Info("capture device closed", zap.Int("dequeue_errors", c.dropped))
	}
	return nil
}

// decodeS16 converts native-endian 16-bit PCM into dst and returns the count.
func decodeS16(raw []byte, dst []int16) int {
	n := len(raw) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.NativeEndian.Uint16(raw[i*2:]))
	}
	return n
}
