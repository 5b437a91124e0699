package marquee

import (
	"reflect"
	"testing"
	"time"
)

// manualTimer lets tests fire the long-press timer deterministically.
type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *manualTimer) fire() {
	if !t.stopped {
		t.fn()
	}
}

type emission struct {
	ids       []string
	additive  bool
	committed bool
	toggle    bool
}

// harness wires a Machine to synthetic geometry and records everything it
// emits.
type harness struct {
	machine   *Machine
	items     []Item
	emissions []emission
	focused   []string
	captured  []int
	released  []int
	timer     *manualTimer
}

func newHarness(items []Item) *harness {
	h := &harness{items: items}
	h.machine = NewMachine(Options{
		Provider: ItemsFunc(func() []Item { return h.items }),
		Callbacks: Callbacks{
			OnSelectionChange: func(ids []string, additive, committed, toggle bool) {
				h.emissions = append(h.emissions, emission{ids: ids, additive: additive, committed: committed, toggle: toggle})
			},
			OnFocusChange:  func(id string) { h.focused = append(h.focused, id) },
			CapturePointer: func(id int) error { h.captured = append(h.captured, id); return nil },
			ReleasePointer: func(id int) error { h.released = append(h.released, id); return nil },
		},
		NewTimer: func(d time.Duration, fn func()) Timer {
			h.timer = &manualTimer{fn: fn}
			return h.timer
		},
	})
	return h
}

func mouse(x, y float64) PointerEvent {
	return PointerEvent{Point: Point{X: x, Y: y}, PointerID: 1, Kind: KindMouse}
}

func touch(x, y float64) PointerEvent {
	return PointerEvent{Point: Point{X: x, Y: y}, PointerID: 7, Kind: KindTouch}
}

func TestDownOnItemStaysIdle(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 0, 0, 32, 32)})

	h.machine.PointerDown(mouse(16, 16))

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle, got %v", h.machine.State())
	}
	if len(h.captured) != 0 {
		t.Fatal("pointer must not be captured when the down lands on an item")
	}
}

func TestDownOnEmptyEntersPendingDrag(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 100, 100, 132, 132)})

	h.machine.PointerDown(mouse(10, 10))

	if h.machine.State() != StatePendingDrag {
		t.Fatalf("expected pending drag, got %v", h.machine.State())
	}
	if !reflect.DeepEqual(h.captured, []int{1}) {
		t.Fatalf("expected pointer 1 captured, got %v", h.captured)
	}
}

func TestSubThresholdMoveDoesNotActivate(t *testing.T) {
	h := newHarness(nil)
	h.machine.PointerDown(mouse(10, 10))

	h.machine.PointerMove(mouse(12, 12)) // displacement < 4

	if h.machine.State() != StatePendingDrag {
		t.Fatalf("expected pending drag, got %v", h.machine.State())
	}
	if len(h.emissions) != 0 {
		t.Fatalf("no emissions expected before activation, got %v", h.emissions)
	}
}

func TestThresholdMoveActivatesMarquee(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 0, 0, 40, 40)})
	h.machine.PointerDown(mouse(60, 20))

	// Crosses the threshold to a point below the icon: the rectangle reaches
	// into the icon but the pointer itself stays on empty desktop.
	h.machine.PointerMove(mouse(30, 45))

	if h.machine.State() != StateMarqueeActive {
		t.Fatalf("expected marquee active, got %v", h.machine.State())
	}
	if len(h.emissions) != 1 || h.emissions[0].committed {
		t.Fatalf("expected a single live emission, got %v", h.emissions)
	}
	if !reflect.DeepEqual(h.emissions[0].ids, []string{"icon-1"}) {
		t.Fatalf("expected icon-1 selected, got %v", h.emissions[0].ids)
	}
	if rect, ok := h.machine.MarqueeRect(); !ok || rect != RectFromPoints(Point{X: 60, Y: 20}, Point{X: 30, Y: 45}) {
		t.Fatalf("unexpected marquee rect %+v (ok=%v)", rect, ok)
	}
}

func TestThresholdMoveOntoItemCancels(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 0, 0, 40, 40)})
	h.machine.PointerDown(mouse(50, 50))

	// Crosses the threshold but lands inside icon-1: the gesture belongs to
	// the item now.
	h.machine.PointerMove(mouse(30, 30))

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle after cancel, got %v", h.machine.State())
	}
	if len(h.emissions) != 0 {
		t.Fatalf("cancel must not emit, got %v", h.emissions)
	}
	if !reflect.DeepEqual(h.released, []int{1}) {
		t.Fatalf("expected pointer released, got %v", h.released)
	}
}

func TestCommitEmitsAndFocusesTopmost(t *testing.T) {
	h := newHarness([]Item{
		box("below", 0, 0, 40, 40),
		box("above", 10, 10, 50, 50),
	})
	h.machine.PointerDown(mouse(100, 5))
	h.machine.PointerMove(mouse(30, 60))
	h.machine.PointerUp(mouse(30, 60))

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle after commit, got %v", h.machine.State())
	}
	last := h.emissions[len(h.emissions)-1]
	if !last.committed {
		t.Fatalf("final emission should be the commit, got %+v", last)
	}
	if !reflect.DeepEqual(last.ids, []string{"below", "above"}) {
		t.Fatalf("unexpected commit ids %v", last.ids)
	}
	if !reflect.DeepEqual(h.focused, []string{"above"}) {
		t.Fatalf("expected focus on topmost item, got %v", h.focused)
	}
	if !reflect.DeepEqual(h.released, []int{1}) {
		t.Fatalf("expected pointer released on commit, got %v", h.released)
	}
}

func TestEscapeCancelsWithoutCommit(t *testing.T) {
	h := newHarness(nil)
	h.machine.PointerDown(mouse(100, 100))
	h.machine.PointerMove(mouse(5, 5))

	h.machine.KeyDown("Escape")

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle after escape, got %v", h.machine.State())
	}
	for _, e := range h.emissions {
		if e.committed {
			t.Fatalf("escape must not commit, got %v", h.emissions)
		}
	}
	if _, ok := h.machine.MarqueeRect(); ok {
		t.Fatal("marquee rect should be gone after cancel")
	}
}

func TestPointerCancelAbortsGesture(t *testing.T) {
	h := newHarness(nil)
	h.machine.PointerDown(mouse(100, 100))
	h.machine.PointerMove(mouse(5, 5))

	h.machine.PointerCancel(mouse(5, 5))

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle after pointer cancel, got %v", h.machine.State())
	}
	if !reflect.DeepEqual(h.released, []int{1}) {
		t.Fatalf("expected pointer released, got %v", h.released)
	}
}

func TestTouchLongPressPromotesToMarquee(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 110, 110, 130, 130)})

	h.machine.PointerDown(touch(100, 100))
	if h.machine.State() != StateLongPressPending {
		t.Fatalf("expected long-press pending, got %v", h.machine.State())
	}

	h.timer.fire()
	if h.machine.State() != StateMarqueeActive {
		t.Fatalf("expected marquee after long press, got %v", h.machine.State())
	}

	h.machine.PointerMove(touch(120, 120))
	h.machine.PointerUp(touch(120, 120))

	last := h.emissions[len(h.emissions)-1]
	if !last.committed || !reflect.DeepEqual(last.ids, []string{"icon-1"}) {
		t.Fatalf("unexpected commit %+v", last)
	}
}

func TestTouchTapBeforeTimerIsNotASelection(t *testing.T) {
	h := newHarness(nil)

	h.machine.PointerDown(touch(100, 100))
	h.machine.PointerUp(touch(100, 100))

	if h.machine.State() != StateIdle {
		t.Fatalf("expected idle after tap, got %v", h.machine.State())
	}
	if !h.timer.stopped {
		t.Fatal("long-press timer should have been stopped")
	}
	if len(h.emissions) != 0 {
		t.Fatalf("tap must not emit, got %v", h.emissions)
	}
}

func TestTouchScrollCancelsLongPress(t *testing.T) {
	h := newHarness(nil)

	h.machine.PointerDown(touch(100, 100))
	h.machine.PointerMove(touch(100, 130))

	if h.machine.State() != StateIdle {
		t.Fatalf("a moving touch is a scroll, expected idle, got %v", h.machine.State())
	}
}

func TestModifiersFlowThrough(t *testing.T) {
	h := newHarness(nil)
	h.machine.PointerDown(mouse(100, 100))

	ev := mouse(5, 5)
	ev.Shift = true
	ev.Ctrl = true
	h.machine.PointerMove(ev)
	h.machine.PointerUp(ev)

	last := h.emissions[len(h.emissions)-1]
	if !last.additive || !last.toggle {
		t.Fatalf("modifiers should compose, got %+v", last)
	}
}

func TestSecondPointerIgnoredWhileActive(t *testing.T) {
	h := newHarness(nil)
	h.machine.PointerDown(mouse(100, 100))
	h.machine.PointerMove(mouse(5, 5))

	other := PointerEvent{Point: Point{X: 200, Y: 200}, PointerID: 2, Kind: KindMouse}
	h.machine.PointerDown(other)
	h.machine.PointerUp(other)

	if h.machine.State() != StateMarqueeActive {
		t.Fatalf("foreign pointer must not disturb the gesture, got %v", h.machine.State())
	}
}

func TestFrameSchedulerCoalescesMoves(t *testing.T) {
	var pending []func()
	h := newHarness(nil)
	h.machine.opts.Schedule = func(fn func()) { pending = append(pending, fn) }

	h.machine.PointerDown(mouse(100, 100))
	h.machine.PointerMove(mouse(5, 5)) // activation recomputes synchronously
	before := len(h.emissions)

	h.machine.PointerMove(mouse(6, 6))
	h.machine.PointerMove(mouse(7, 7))
	h.machine.PointerMove(mouse(8, 8))

	if len(pending) != 1 {
		t.Fatalf("expected one scheduled recompute, got %d", len(pending))
	}
	pending[0]()
	if len(h.emissions) != before+1 {
		t.Fatalf("expected exactly one coalesced emission, got %d", len(h.emissions)-before)
	}
}

func TestGeometryRequeriedEveryRecompute(t *testing.T) {
	h := newHarness([]Item{box("icon-1", 0, 0, 40, 40)})
	h.machine.PointerDown(mouse(100, 5))
	h.machine.PointerMove(mouse(30, 60))

	// Layout shifts mid-drag: the item moves out from under the rectangle.
	h.items = []Item{box("icon-1", 500, 500, 540, 540)}
	h.machine.PointerUp(mouse(30, 60))

	last := h.emissions[len(h.emissions)-1]
	if !last.committed || last.ids != nil {
		t.Fatalf("expected empty committed selection after layout shift, got %+v", last)
	}
	if len(h.focused) != 0 {
		t.Fatalf("empty commit must not change focus, got %v", h.focused)
	}
}
