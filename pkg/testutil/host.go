// Package testutil provides common testing utilities and fakes.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/R3E-Network/admin_console/internal/navigation"
)

// FakeScroller records scroll positions.
type FakeScroller struct {
	X, Y      float64
	Calls     int
	Behaviors []navigation.ScrollBehavior
}

// NewFakeScroller creates a scroller positioned at (x, y).
func NewFakeScroller(x, y float64) *FakeScroller {
	return &FakeScroller{X: x, Y: y}
}

func (s *FakeScroller) ScrollTo(x, y float64, behavior navigation.ScrollBehavior) {
	s.X, s.Y = x, y
	s.Calls++
	s.Behaviors = append(s.Behaviors, behavior)
}

type fakeTimer struct {
	at  time.Duration
	seq int
	fn  func()
}

// FakeHost is a deterministic navigation.Host. Frames and time only advance
// when the test says so.
type FakeHost struct {
	mu sync.Mutex

	frames   []func()
	timers   []fakeTimer
	now      time.Duration
	seq      int
	handlers map[int]func()
	nextID   int

	// Container is the designated scroll container; nil means the page has none.
	Container *FakeScroller
	// Window is the viewport scroller.
	Window *FakeScroller
	// Refreshes counts Refresh calls.
	Refreshes int

	// TransitionSupported makes the host a working navigation.Transitioner.
	TransitionSupported bool
	// Transitions counts updates run inside a view transition.
	Transitions int
}

// NewFakeHost creates a host with a viewport at the origin and no container.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		handlers: make(map[int]func()),
		Window:   NewFakeScroller(0, 0),
	}
}

func (h *FakeHost) RequestFrame(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, fn)
}

// Frame runs the callbacks queued before it started. Callbacks requested
// while it runs wait for the next Frame.
func (h *FakeHost) Frame() int {
	h.mu.Lock()
	queued := h.frames
	h.frames = nil
	h.mu.Unlock()

	for _, fn := range queued {
		fn()
	}
	return len(queued)
}

// PendingFrames returns how many callbacks wait for the next frame.
func (h *FakeHost) PendingFrames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func (h *FakeHost) AfterFunc(d time.Duration, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.timers = append(h.timers, fakeTimer{at: h.now + d, seq: h.seq, fn: fn})
}

// Advance moves the clock forward by d, firing due timers in order.
func (h *FakeHost) Advance(d time.Duration) {
	h.mu.Lock()
	target := h.now + d
	h.mu.Unlock()

	for {
		h.mu.Lock()
		sort.Slice(h.timers, func(i, j int) bool {
			if h.timers[i].at == h.timers[j].at {
				return h.timers[i].seq < h.timers[j].seq
			}
			return h.timers[i].at < h.timers[j].at
		})
		if len(h.timers) == 0 || h.timers[0].at > target {
			h.now = target
			h.mu.Unlock()
			return
		}
		next := h.timers[0]
		h.timers = h.timers[1:]
		h.now = next.at
		h.mu.Unlock()

		next.fn()
	}
}

// PendingTimers returns how many timers have not fired.
func (h *FakeHost) PendingTimers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

func (h *FakeHost) OnHistoryChange(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

// PopState simulates a back/forward navigation.
func (h *FakeHost) PopState() {
	h.mu.Lock()
	handlers := make([]func(), 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Subscribers returns the number of active history handlers.
func (h *FakeHost) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

func (h *FakeHost) ScrollContainer() (navigation.Scroller, bool) {
	if h.Container == nil {
		return nil, false
	}
	return h.Container, true
}

func (h *FakeHost) Viewport() navigation.Scroller {
	return h.Window
}

func (h *FakeHost) Refresh() {
	h.Refreshes++
}

func (h *FakeHost) StartViewTransition(update func()) bool {
	if !h.TransitionSupported {
		return false
	}
	h.Transitions++
	update()
	return true
}
