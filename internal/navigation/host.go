// Package navigation keeps scroll position and route data consistent across
// client-side navigations.
//
// Everything here runs on the host's single event loop. Waiting is always
// expressed as a scheduled callback, never as a blocking call.
package navigation

import "time"

// ScrollBehavior mirrors the DOM ScrollToOptions behavior values.
type ScrollBehavior string

// ScrollInstant jumps without animation. Route changes always use it.
const ScrollInstant ScrollBehavior = "instant"

// Scroller is something that can be scrolled: an element or the viewport.
type Scroller interface {
	ScrollTo(x, y float64, behavior ScrollBehavior)
}

// Host is the environment the controller runs in.
type Host interface {
	// RequestFrame runs fn just before the next paint.
	RequestFrame(fn func())
	// AfterFunc runs fn once d has elapsed.
	AfterFunc(d time.Duration, fn func())
	// OnHistoryChange calls fn on every back/forward navigation until the
	// returned function is called.
	OnHistoryChange(fn func()) (unsubscribe func())
	// ScrollContainer returns the designated scroll container, if the page has one.
	ScrollContainer() (Scroller, bool)
	// Viewport returns the whole-window scroller.
	Viewport() Scroller
	// Refresh re-fetches all data for the current route.
	Refresh()
}

// Transitioner is implemented by hosts that may animate DOM updates.
// StartViewTransition runs update inside a view transition and reports true,
// or reports false without running update when the runtime lacks support.
type Transitioner interface {
	StartViewTransition(update func()) bool
}

// Wrap runs navigate inside a view transition when host supports one, and
// directly otherwise. navigate runs exactly once either way.
func Wrap(host any, navigate func()) {
	if t, ok := host.(Transitioner); ok && t.StartViewTransition(navigate) {
		return
	}
	navigate()
}
