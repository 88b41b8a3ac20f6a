// Package animation steps a sprite atlas through its frames once per tick.
package animation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrInternalConsistency marks a frame index that escaped the atlas bounds.
var ErrInternalConsistency = errors.New("animation index out of atlas bounds")

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown animation mode")

// Mode selects how the frame index moves at the ends of the atlas.
type Mode int

const (
	// ModeWrap cycles 0..N-1 and starts over.
	ModeWrap Mode = iota
	// ModePingPong sweeps 0..N-1 then back down to 0.
	ModePingPong
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeWrap:
		return "wrap"
	case ModePingPong:
		return "pingpong"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a config name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wrap", "loop":
		return ModeWrap, nil
	case "pingpong", "ping-pong", "palindrome":
		return ModePingPong, nil
	default:
		return ModeWrap, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// State is the mutable part of the animation.
type State struct {
	Index   int
	Forward bool
}

// Initial returns the state every animation starts in.
func Initial() State {
	return State{Index: 0, Forward: true}
}

// ConsistencyError reports a computed index the atlas cannot serve.
// Animator panics with it; it is a bug, not an input error.
type ConsistencyError struct {
	Index int
	Len   int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: index %d, atlas length %d", ErrInternalConsistency, e.Index, e.Len)
}

func (e *ConsistencyError) Unwrap() error {
	return ErrInternalConsistency
}

// Step returns the state following s for an atlas of n frames.
// n must be at least 1. Step does not clamp an index above n-1.
func Step(s State, n int, mode Mode) State {
	if mode == ModeWrap {
		return State{Index: (s.Index + 1) % n, Forward: true}
	}

	if n == 1 {
		return Initial()
	}

	next := s.Index + 1
	if !s.Forward {
		next = s.Index - 1
	}
	// Saturate only at 0: the index is signed, so stepping back from 0
	// yields -1. An index past n-1 is left for the atlas lookup to reject.
	if next < 0 {
		next = 0
	}

	forward := s.Forward
	if next == n-1 {
		forward = false
	}
	if next == 0 {
		forward = true
	}
	return State{Index: next, Forward: forward}
}

// Animator owns the animation state for one atlas.
type Animator struct {
	atlas *formats.Atlas
	mode  Mode
	state State
	rect  formats.Rect
}

// New creates an animator positioned on frame 0.
// The atlas must hold at least one frame (formats.LoadAtlas guarantees it).
func New(atlas *formats.Atlas, mode Mode) *Animator {
	a := &Animator{
		atlas: atlas,
		mode:  mode,
	}
	a.Reset()
	return a
}

// Advance moves to the next frame and refreshes the current sprite rectangle.
// It panics with a *ConsistencyError if the index leaves the atlas.
func (a *Animator) Advance() {
	n := a.atlas.Len()
	if n < 1 {
		panic(&ConsistencyError{Index: a.state.Index, Len: n})
	}
	a.state = Step(a.state, n, a.mode)
	a.rect = a.lookup(a.state.Index)
}

// Reset returns to frame 0, moving forward.
func (a *Animator) Reset() {
	a.state = Initial()
	a.rect = a.lookup(a.state.Index)
}

// SetMode switches the traversal mode, keeping the current frame.
func (a *Animator) SetMode(mode Mode) {
	a.mode = mode
	a.state.Forward = true
	if mode == ModePingPong && a.state.Index == a.atlas.Len()-1 && a.atlas.Len() > 1 {
		a.state.Forward = false
	}
}

// Mode returns the traversal mode.
func (a *Animator) Mode() Mode {
	return a.mode
}

// State returns the current index and direction.
func (a *Animator) State() State {
	return a.state
}

// Rect returns the source rectangle of the current frame.
func (a *Animator) Rect() formats.Rect {
	return a.rect
}

// Len returns the number of frames being animated.
func (a *Animator) Len() int {
	return a.atlas.Len()
}

func (a *Animator) lookup(i int) formats.Rect {
	frame, ok := a.atlas.Frame(i)
	if !ok {
		panic(&ConsistencyError{Index: i, Len: a.atlas.Len()})
	}
	return frame.Region
}
