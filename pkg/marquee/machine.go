// Package marquee implements the desktop's box-selection gesture engine: a
// pointer-driven state machine that turns raw pointer and keyboard events into
// a live selection rectangle and the set of item ids it covers. The engine is
// UI-agnostic; the host injects item geometry, hit testing, and timers, and
// receives selection updates through callbacks. It holds no selection state of
// its own: consumers apply the reported id sets against a selection snapshot
// they captured at gesture start.
package marquee

import (
	"time"
)

// State is the current gesture state of the machine.
type State int

const (
	// StateIdle means no gesture is in progress.
	StateIdle State = iota
	// StatePendingDrag means the pointer is down on empty desktop but has not
	// yet moved past the drag threshold.
	StatePendingDrag
	// StateMarqueeActive means the selection rectangle is live.
	StateMarqueeActive
	// StateLongPressPending means a touch is down and the long-press timer is
	// running; firing promotes the touch to a marquee.
	StateLongPressPending
)

// PointerKind distinguishes the logical input stream of an event.
type PointerKind int

const (
	KindMouse PointerKind = iota
	KindTouch
	KindPen
)

// PointerEvent is one raw pointer event forwarded by the host.
type PointerEvent struct {
	Point     Point
	PointerID int
	Kind      PointerKind
	Shift     bool // extend-selection modifier
	Ctrl      bool // item-wise toggle modifier (ctrl or cmd)
}

// Callbacks is the full callback set the machine is constructed with. A change
// of callbacks between gestures is safe; changing them mid-gesture is not
// supported.
type Callbacks struct {
	// OnSelectionChange fires on every rectangle update while the marquee is
	// active (committed=false) and once more on commit (committed=true).
	// additive mirrors the shift modifier, toggle mirrors ctrl/cmd; the two
	// compose, they are not exclusive.
	OnSelectionChange func(ids []string, additive, committed, toggle bool)
	// OnFocusChange fires with the topmost intersecting id when a commit
	// yields a non-empty selection.
	OnFocusChange func(id string)
	// CapturePointer and ReleasePointer let the host acquire/release pointer
	// capture. Errors are swallowed: capture bookkeeping is best-effort.
	CapturePointer func(pointerID int) error
	ReleasePointer func(pointerID int) error
}

// HitTester answers whether a point lands on something that owns its own
// click handling. A pointer-down over an item or chrome never starts a
// gesture, and dragging onto an item before the threshold cancels one.
type HitTester interface {
	// OverItem reports whether p is over a selectable item.
	OverItem(p Point) bool
	// OverChrome reports whether p is over a window, dialog, or persistent
	// chrome region such as the taskbar.
	OverChrome(p Point) bool
}

// Timer is the handle of a pending long-press timer.
type Timer interface {
	Stop() bool
}

// TimerFactory creates a one-shot timer. Tests inject manual timers; the
// default uses time.AfterFunc.
type TimerFactory func(d time.Duration, fn func()) Timer

// FrameScheduler coalesces rapid pointer moves: the machine schedules at most
// one pending recompute at a time and the host runs it on its next frame. The
// default scheduler runs the function immediately.
type FrameScheduler func(fn func())

// Logger abstracts logging so hosts can plug in logrus or anything else.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

const (
	// DefaultDragThreshold is the displacement (px) past which a pending drag
	// becomes a live marquee.
	DefaultDragThreshold = 4
	// DefaultLongPressDelay promotes a held touch to a marquee.
	DefaultLongPressDelay = 350 * time.Millisecond
)

// Options configures a Machine.
type Options struct {
	Provider       GeometryProvider
	Hits           HitTester // nil: items from Provider, no chrome
	Callbacks      Callbacks
	DragThreshold  float64       // <= 0: DefaultDragThreshold
	LongPressDelay time.Duration // <= 0: DefaultLongPressDelay
	Schedule       FrameScheduler
	NewTimer       TimerFactory
	Log            Logger
}

// gesture is the transient value object for one pointer interaction. It is
// created on pointer-down over empty desktop and destroyed when the machine
// returns to idle.
type gesture struct {
	anchor    Point
	current   Point
	pointerID int
	kind      PointerKind
	shift     bool
	ctrl      bool
	captured  bool
}

// Machine owns the gesture state. All methods must be called from the host's
// single event-dispatch thread; the machine does no locking of its own.
type Machine struct {
	opts Options
	log  Logger

	state        State
	g            gesture
	pressTimer   Timer
	framePending bool
	rect         Rect
}

// NewMachine builds a Machine, filling in defaults for anything Options left
// unset.
func NewMachine(opts Options) *Machine {
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = DefaultDragThreshold
	}
	if opts.LongPressDelay <= 0 {
		opts.LongPressDelay = DefaultLongPressDelay
	}
	if opts.Schedule == nil {
		opts.Schedule = func(fn func()) { fn() }
	}
	if opts.NewTimer == nil {
		opts.NewTimer = func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Machine{opts: opts, log: log, state: StateIdle}
}

// State returns the current gesture state.
func (m *Machine) State() State { return m.state }

// MarqueeRect returns the live selection rectangle. ok is false unless the
// marquee is active.
func (m *Machine) MarqueeRect() (Rect, bool) {
	if m.state != StateMarqueeActive {
		return Rect{}, false
	}
	return m.rect, true
}

// PointerDown feeds a pointer-down event. Downs that land on an item or on
// chrome are left untouched so the target's own click handling applies; downs
// during an in-progress gesture are ignored (single concurrent gesture).
func (m *Machine) PointerDown(ev PointerEvent) {
	if m.state != StateIdle {
		return
	}
	if m.overItem(ev.Point) || m.overChrome(ev.Point) {
		return
	}

	m.g = gesture{
		anchor:    ev.Point,
		current:   ev.Point,
		pointerID: ev.PointerID,
		kind:      ev.Kind,
		shift:     ev.Shift,
		ctrl:      ev.Ctrl,
	}
	m.capture(ev.PointerID)

	if ev.Kind == KindTouch {
		m.state = StateLongPressPending
		m.pressTimer = m.opts.NewTimer(m.opts.LongPressDelay, m.longPressFired)
		m.log.Debugf("marquee: long-press pending (pointer %d)", ev.PointerID)
		return
	}
	m.state = StatePendingDrag
	m.log.Debugf("marquee: pending drag (pointer %d)", ev.PointerID)
}

// PointerMove feeds a pointer-move event.
func (m *Machine) PointerMove(ev PointerEvent) {
	if m.state == StateIdle || ev.PointerID != m.g.pointerID {
		return
	}
	m.g.current = ev.Point
	m.g.shift = ev.Shift
	m.g.ctrl = ev.Ctrl

	switch m.state {
	case StatePendingDrag, StateLongPressPending:
		if !m.pastThreshold() {
			return
		}
		// A threshold-crossing move that lands on an item belongs to that
		// item (drag), not to a marquee. Same for a moving touch, which is a
		// scroll rather than a held press.
		if m.state == StateLongPressPending || m.overItem(ev.Point) {
			m.cancel()
			return
		}
		m.enterMarquee()

	case StateMarqueeActive:
		if m.framePending {
			return
		}
		m.framePending = true
		m.opts.Schedule(func() {
			m.framePending = false
			if m.state == StateMarqueeActive {
				m.recompute(false)
			}
		})
	}
}

// PointerUp feeds a pointer-up event. In the marquee it commits the selection;
// earlier it resolves the gesture as a plain click or tap.
func (m *Machine) PointerUp(ev PointerEvent) {
	if m.state == StateIdle || ev.PointerID != m.g.pointerID {
		return
	}

	switch m.state {
	case StatePendingDrag, StateLongPressPending:
		// Click/tap on empty desktop: not ours to handle.
		m.cancel()

	case StateMarqueeActive:
		m.g.current = ev.Point
		m.g.shift = ev.Shift
		m.g.ctrl = ev.Ctrl
		ids := m.recompute(true)
		if len(ids) > 0 && m.opts.Callbacks.OnFocusChange != nil {
			m.opts.Callbacks.OnFocusChange(ids[len(ids)-1])
		}
		m.reset()
	}
}

// PointerCancel feeds a pointer-cancel (lost capture) event. The gesture is
// aborted without a commit.
func (m *Machine) PointerCancel(ev PointerEvent) {
	if m.state == StateIdle || ev.PointerID != m.g.pointerID {
		return
	}
	m.cancel()
}

// KeyDown feeds a key event. Escape aborts an in-progress gesture.
func (m *Machine) KeyDown(key string) {
	if key == "Escape" && m.state != StateIdle {
		m.cancel()
	}
}

// Cancel synchronously aborts any in-progress gesture, releasing the captured
// pointer and pending timer. Safe to call in any state.
func (m *Machine) Cancel() {
	if m.state != StateIdle {
		m.cancel()
	}
}

func (m *Machine) longPressFired() {
	if m.state != StateLongPressPending {
		return
	}
	m.pressTimer = nil
	m.log.Debugf("marquee: long-press fired (pointer %d)", m.g.pointerID)
	m.enterMarquee()
}

func (m *Machine) enterMarquee() {
	m.state = StateMarqueeActive
	m.recompute(false)
}

// recompute rebuilds the rectangle from the gesture's anchor and current
// points, re-queries item geometry (layout may have shifted mid-drag), and
// emits the intersecting id set.
func (m *Machine) recompute(committed bool) []string {
	m.rect = RectFromPoints(m.g.anchor, m.g.current)

	var items []Item
	if m.opts.Provider != nil {
		items = m.opts.Provider.Items()
	}
	ids := Intersecting(m.rect, items)

	if m.opts.Callbacks.OnSelectionChange != nil {
		m.opts.Callbacks.OnSelectionChange(ids, m.g.shift, committed, m.g.ctrl)
	}
	return ids
}

func (m *Machine) pastThreshold() bool {
	dx := m.g.current.X - m.g.anchor.X
	dy := m.g.current.Y - m.g.anchor.Y
	t := m.opts.DragThreshold
	return dx*dx+dy*dy > t*t
}

func (m *Machine) overItem(p Point) bool {
	if m.opts.Hits != nil {
		return m.opts.Hits.OverItem(p)
	}
	if m.opts.Provider == nil {
		return false
	}
	for _, it := range m.opts.Provider.Items() {
		if it.ID != "" && it.Rect.Contains(p) {
			return true
		}
	}
	return false
}

func (m *Machine) overChrome(p Point) bool {
	if m.opts.Hits != nil {
		return m.opts.Hits.OverChrome(p)
	}
	return false
}

func (m *Machine) capture(pointerID int) {
	if m.opts.Callbacks.CapturePointer == nil {
		return
	}
	if err := m.opts.Callbacks.CapturePointer(pointerID); err == nil {
		m.g.captured = true
	}
}

// cancel aborts the gesture without emitting a commit.
func (m *Machine) cancel() {
	m.log.Debugf("marquee: gesture cancelled (pointer %d)", m.g.pointerID)
	m.reset()
}

// reset returns to idle, releasing the timer and captured pointer.
// Release failures are swallowed: cleanup is best-effort.
func (m *Machine) reset() {
	if m.pressTimer != nil {
		m.pressTimer.Stop()
		m.pressTimer = nil
	}
	if m.g.captured && m.opts.Callbacks.ReleasePointer != nil {
		_ = m.opts.Callbacks.ReleasePointer(m.g.pointerID)
	}
	m.state = StateIdle
	m.g = gesture{}
	m.rect = Rect{}
	m.framePending = false
}
