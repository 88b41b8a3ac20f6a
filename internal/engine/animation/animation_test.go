package animation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Faultbox/shrimpy/pkg/formats"
)

func stripAtlas(t *testing.T, n int) *formats.Atlas {
	t.Helper()
	atlas, err := formats.StripAtlas(formats.Rect{W: 10, H: 20}, n)
	if err != nil {
		t.Fatalf("failed to build atlas: %v", err)
	}
	return atlas
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		want    Mode
		wantErr bool
	}{
		{"wrap", ModeWrap, false},
		{"WRAP", ModeWrap, false},
		{"pingpong", ModePingPong, false},
		{" ping-pong ", ModePingPong, false},
		{"bounce", ModeWrap, true},
		{"", ModeWrap, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWrapMode_IndexIsTicksModN(t *testing.T) {
	for _, n := range []int{1, 2, 3, 18} {
		a := New(stripAtlas(t, n), ModeWrap)
		for tick := 1; tick <= 3*n+1; tick++ {
			a.Advance()
			if got := a.State().Index; got != tick%n {
				t.Fatalf("n=%d tick=%d: index = %d, want %d", n, tick, got, tick%n)
			}
			if !a.State().Forward {
				t.Fatalf("n=%d tick=%d: wrap mode must stay forward", n, tick)
			}
		}
	}
}

func TestPingPong_RoundTrip(t *testing.T) {
	for _, n := range []int{2, 3, 5, 18} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			a := New(stripAtlas(t, n), ModePingPong)
			period := 2 * (n - 1)

			for tick := 1; tick <= period; tick++ {
				a.Advance()
				s := a.State()
				if s.Index < 0 || s.Index > n-1 {
					t.Fatalf("tick %d: index %d out of [0,%d]", tick, s.Index, n-1)
				}
				if tick < period && s == Initial() {
					t.Fatalf("tick %d: returned to start before a full round trip", tick)
				}
			}

			if got := a.State(); got != Initial() {
				t.Errorf("after %d ticks state = %+v, want %+v", period, got, Initial())
			}
		})
	}
}

func TestPingPong_Sweep(t *testing.T) {
	a := New(stripAtlas(t, 4), ModePingPong)
	want := []int{1, 2, 3, 2, 1, 0, 1, 2, 3, 2}
	for i, w := range want {
		a.Advance()
		if got := a.State().Index; got != w {
			t.Fatalf("tick %d: index = %d, want %d", i+1, got, w)
		}
	}
}

func TestPingPong_EighteenFrames(t *testing.T) {
	a := New(stripAtlas(t, 18), ModePingPong)

	returns := 0
	for tick := 1; tick <= 34; tick++ {
		a.Advance()
		if a.State() == Initial() {
			returns++
			if tick != 34 {
				t.Errorf("returned to frame 0 at tick %d, want 34", tick)
			}
		}
	}
	if returns != 1 {
		t.Errorf("returned to start %d times in 34 ticks, want 1", returns)
	}
}

func TestPingPong_SingleFrame(t *testing.T) {
	a := New(stripAtlas(t, 1), ModePingPong)
	for i := 0; i < 5; i++ {
		a.Advance()
		if got := a.State(); got != Initial() {
			t.Fatalf("tick %d: state = %+v, want %+v", i+1, got, Initial())
		}
	}
}

func TestStep_BackwardFromZeroSaturates(t *testing.T) {
	// Not reachable through Advance, but Step must never produce a negative index.
	got := Step(State{Index: 0, Forward: false}, 5, ModePingPong)
	if got.Index != 0 || !got.Forward {
		t.Errorf("Step from (0, backward) = %+v, want (0, forward)", got)
	}
}

func TestAdvance_UpdatesRect(t *testing.T) {
	a := New(stripAtlas(t, 3), ModeWrap)
	if got := a.Rect(); got != (formats.Rect{X: 0, W: 10, H: 20}) {
		t.Errorf("initial rect = %+v", got)
	}
	a.Advance()
	if got := a.Rect(); got != (formats.Rect{X: 10, W: 10, H: 20}) {
		t.Errorf("rect after one tick = %+v", got)
	}
}

func TestSetMode(t *testing.T) {
	a := New(stripAtlas(t, 3), ModeWrap)
	a.Advance()
	a.Advance() // index 2, the last frame

	a.SetMode(ModePingPong)
	if a.Mode() != ModePingPong {
		t.Fatalf("mode = %v, want pingpong", a.Mode())
	}
	a.Advance()
	if got := a.State().Index; got != 1 {
		t.Errorf("after switching on the last frame, index = %d, want 1", got)
	}

	a.SetMode(ModeWrap)
	a.Advance()
	if got := a.State(); got != (State{Index: 2, Forward: true}) {
		t.Errorf("after switching back to wrap, state = %+v", got)
	}
}

func expectConsistencyPanic(t *testing.T, advance func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for out-of-range index")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInternalConsistency) {
			t.Errorf("panic value = %v, want ErrInternalConsistency", r)
		}
		var ce *ConsistencyError
		if !errors.As(err, &ce) {
			t.Errorf("panic value %T is not a *ConsistencyError", r)
		}
	}()
	advance()
}

func TestAdvance_PanicsOnShrunkAtlas(t *testing.T) {
	t.Run("pingpong", func(t *testing.T) {
		atlas := stripAtlas(t, 5)
		a := New(atlas, ModePingPong)
		for i := 0; i < 3; i++ {
			a.Advance()
		}

		// Simulate a bug: the atlas loses frames behind the animator's back.
		atlas.Frames = atlas.Frames[:2]
		expectConsistencyPanic(t, a.Advance)
	})

	t.Run("wrap", func(t *testing.T) {
		atlas := stripAtlas(t, 3)
		a := New(atlas, ModeWrap)
		a.Advance()

		atlas.Frames = atlas.Frames[:0]
		expectConsistencyPanic(t, a.Advance)
	})
}

func TestStep_DoesNotClampPastLastFrame(t *testing.T) {
	got := Step(State{Index: 3, Forward: true}, 2, ModePingPong)
	if got.Index != 4 {
		t.Errorf("Step past the last frame = %+v, want index 4 left for the lookup to reject", got)
	}
}
