package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

var sdlKeys = map[sdl.Scancode]Key{
	sdl.SCANCODE_ESCAPE: KeyEscape,
	sdl.SCANCODE_Q:      KeyQ,
	sdl.SCANCODE_M:      KeyM,
	sdl.SCANCODE_D:      KeyD,
	sdl.SCANCODE_R:      KeyR,
	sdl.SCANCODE_S:      KeyS,
}

// SDL polls the SDL event queue. Must be used on the thread that
// created the window.
type SDL struct {
	events []Event
}

// NewSDL creates an SDL event source.
func NewSDL() *SDL {
	return &SDL{events: make([]Event, 0, 16)}
}

// Poll drains pending SDL events. The returned slice is reused by the
// next call.
func (i *SDL) Poll() []Event {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			i.events = append(i.events, Event{
				Type: EventKeyDown,
				Key:  keyFromScancode(e.Keysym.Scancode),
			})
		}
	}

	return i.events
}

func keyFromScancode(sc sdl.Scancode) Key {
	if k, ok := sdlKeys[sc]; ok {
		return k
	}
	return KeyUnknown
}
