// Package input turns window-system events into the few events the
// animation loop reacts to.
package input

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
)

// Key is a keyboard key, independent of the windowing backend.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyQ
	KeyM // Toggle animation mode
	KeyD // Toggle debug logging
	KeyR // Reset animation
	KeyS // Screenshot
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
}

// Source delivers the events that arrived since the last Poll.
type Source interface {
	Poll() []Event
}

// None is a Source that never reports events, for runs without a window.
type None struct{}

// Poll returns nil.
func (None) Poll() []Event { return nil }

// Script replays a fixed schedule of events, one slice per Poll call.
type Script struct {
	Steps [][]Event
	polls int
}

// Poll returns the next scheduled batch, or nil once the script is done.
func (s *Script) Poll() []Event {
	if s.polls >= len(s.Steps) {
		return nil
	}
	events := s.Steps[s.polls]
	s.polls++
	return events
}
