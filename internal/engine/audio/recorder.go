package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/logger"
)

// recorderQueue is the number of batches buffered between the capture
// goroutine and the file writer.
const recorderQueue = 64

// Recorder writes captured batches to a 16-bit mono WAV file.
// OnSamples copies the batch and never waits on disk; when the writer falls
// behind, batches are dropped and counted.
type Recorder struct {
	path    string
	file    *os.File
	enc     *wav.Encoder
	queue   chan []int16
	done    chan struct{}
	err     error
	dropped atomic.Int64
	written atomic.Int64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewRecorder creates the WAV file and starts the writer goroutine.
func NewRecorder(path string, sampleRate int) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating recording dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}

	r := &Recorder{
		path:  path,
		file:  f,
		enc:   wav.NewEncoder(f, sampleRate, 16, 1, 1), // 1 = PCM
		queue: make(chan []int16, recorderQueue),
		done:  make(chan struct{}),
	}
	go r.run(sampleRate)
	return r, nil
}

// OnSamples queues a copy of the batch for writing.
func (r *Recorder) OnSamples(batch []int16) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	cp := make([]int16, len(batch))
	copy(cp, batch)
	select {
	case r.queue <- cp:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run(sampleRate int) {
	defer close(r.done)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	for batch := range r.queue {
		if r.err != nil {
			continue
		}
		buf.Data = buf.Data[:0]
		for _, s := range batch {
			buf.Data = append(buf.Data, int(s))
		}
		if err := r.enc.Write(buf); err != nil {
			r.err = fmt.Errorf("writing %s: %w", r.path, err)
			logger.Error("recording failed", zap.Error(err))
			continue
		}
		r.written.Add(int64(len(batch)))
	}
}

// Dropped returns how many batches were discarded because the writer lagged.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Written returns how many samples reached the encoder.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Close drains pending batches, finalizes the WAV header and closes the file.
func (r *Recorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		<-r.done

		err = r.err
		if cerr := r.enc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("finalizing %s: %w", r.path, cerr)
		}
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		logger.Info("recording closed",
			zap.String("path", r.path),
			zap.Int64("samples", r.written.Load()),
			zap.Int64("dropped_batches", r.dropped.Load()),
		)
	})
	return err
}
