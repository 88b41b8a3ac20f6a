package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/logger"
)

// FileCapture replays a decoded audio file as if it were live input.
// Batches are paced in real time on a goroutine, like a capture device.
type FileCapture struct {
	path string
	loop bool

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	source   beep.Streamer // streamer after resampling and looping
	spec     CaptureSpec
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewFileCapture creates a source for a WAV, MP3 or Ogg Vorbis file.
func NewFileCapture(path string, loop bool) *FileCapture {
	return &FileCapture{path: path, loop: loop}
}

// Open decodes the file header and prepares resampling to want.SampleRate.
// The negotiated spec always equals want.
func (c *FileCapture) Open(want CaptureSpec) (CaptureSpec, error) {
	if err := want.Validate(); err != nil {
		return CaptureSpec{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamer != nil {
		return c.spec, nil
	}

	streamer, format, err := decodeFile(c.path)
	if err != nil {
		return CaptureSpec{}, err
	}
	if streamer.Len() == 0 {
		streamer.Close()
		return CaptureSpec{}, fmt.Errorf("%w: %s", ErrEmptyAudio, c.path)
	}

	target := beep.SampleRate(want.SampleRate)
	var resampled beep.Streamer = streamer
	if format.SampleRate != target {
		resampled = beep.Resample(4, format.SampleRate, target, streamer)
	}

	c.streamer = streamer
	c.source = &loopStreamer{streamer: streamer, resampled: resampled, loop: c.loop}
	c.spec = want

	logger.Info("audio file opened",
		zap.String("path", c.path),
		zap.Int("file_rate", int(format.SampleRate)),
		zap.Int("file_channels", format.NumChannels),
		zap.Int("rate", want.SampleRate),
		zap.Bool("loop", c.loop),
	)
	return c.spec, nil
}

func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".ogg", ".oga":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrNoDecoder, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		streamer, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: decoding %s: %v", ErrBackend, path, err)
	}
	return streamer, format, nil
}

// Resume starts the pacing goroutine.
func (c *FileCapture) Resume(ctx context.Context, sink Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamer == nil {
		return ErrNotOpen
	}
	if c.done != nil {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go pace(ctx, c.source, sink, c.spec, c.done)
	return nil
}

func pace(ctx context.Context, src beep.Streamer, sink Sink, spec CaptureSpec, done chan struct{}) {
	defer close(done)

	period := time.Duration(spec.Samples) * time.Second / time.Duration(spec.SampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	frames := make([][2]float64, spec.Samples)
	batch := make([]int16, spec.Samples)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, ok := src.Stream(frames)
		if n > 0 {
			sink.OnSamples(downmix(frames[:n], batch))
		}
		if !ok {
			logger.Debug("audio file exhausted")
			return
		}
	}
}

// downmix averages stereo frames into int16 mono samples.
func downmix(frames [][2]float64, dst []int16) []int16 {
	dst = dst[:len(frames)]
	for i, f := range frames {
		v := (f[0] + f[1]) / 2
		v = math.Max(-1, math.Min(1, v))
		dst[i] = int16(math.Round(v * MaxMagnitude))
	}
	return dst
}

// Stop halts the pacing goroutine and waits for it.
func (c *FileCapture) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Close stops playback and closes the decoder.
func (c *FileCapture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamer == nil {
		return nil
	}
	err := c.streamer.Close()
	c.streamer = nil
	c.source = nil
	return err
}

// loopStreamer rewinds the decoder when the resampled stream runs dry.
type loopStreamer struct {
	streamer  beep.StreamSeekCloser
	resampled beep.Streamer
	loop      bool
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	rewound := false
	for filled < len(samples) {
		n, ok := l.resampled.Stream(samples[filled:])
		filled += n
		if n > 0 {
			rewound = false
		}
		if ok {
			continue
		}
		// A decoder that yields nothing right after a rewind is broken.
		if !l.loop || rewound || l.streamer.Len() == 0 {
			return filled, filled > 0
		}
		if err := l.streamer.Seek(0); err != nil {
			return filled, filled > 0
		}
		rewound = true
	}
	return filled, true
}

func (l *loopStreamer) Err() error {
	return l.streamer.Err()
}
