//go:build js && wasm

// Package jshost implements navigation.Host on top of the browser DOM.
package jshost

import (
	"fmt"
	"syscall/js"
	"time"

	"github.com/R3E-Network/admin_console/internal/logging"
	"github.com/R3E-Network/admin_console/internal/navigation"
)

// DefaultRefreshFunc is the global function called to re-fetch route data.
const DefaultRefreshFunc = "__adminRefresh"

// Host adapts window and document to navigation.Host.
type Host struct {
	window      js.Value
	document    js.Value
	containerID string
	refreshFunc string
	log         *logging.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used for failing page callbacks.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) { h.log = l }
}

// New creates a host. containerID names the designated scroll container
// element; an empty id means the viewport is always used.
func New(containerID, refreshFunc string, opts ...Option) *Host {
	if refreshFunc == "" {
		refreshFunc = DefaultRefreshFunc
	}
	window := js.Global()
	h := &Host{
		window:      window,
		document:    window.Get("document"),
		containerID: containerID,
		refreshFunc: refreshFunc,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logging.NewDefault("jshost")
	}
	return h
}

// Invoke calls fn and turns a thrown JavaScript exception into an error
// instead of a panic that would stop the Go runtime.
func Invoke(fn js.Value, args ...any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			err = fmt.Errorf("javascript call: %v", r)
		}
	}()
	fn.Invoke(args...)
	return nil
}

// once wraps fn in a js.Func that releases itself after its first call.
func once(fn func()) js.Func {
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	return cb
}

func (h *Host) RequestFrame(fn func()) {
	h.window.Call("requestAnimationFrame", once(fn))
}

func (h *Host) AfterFunc(d time.Duration, fn func()) {
	h.window.Call("setTimeout", once(fn), d.Milliseconds())
}

func (h *Host) OnHistoryChange(fn func()) func() {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	h.window.Call("addEventListener", "popstate", cb)
	return func() {
		h.window.Call("removeEventListener", "popstate", cb)
		cb.Release()
	}
}

func (h *Host) ScrollContainer() (navigation.Scroller, bool) {
	if h.containerID == "" {
		return nil, false
	}
	el := h.document.Call("getElementById", h.containerID)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return element{el}, true
}

func (h *Host) Viewport() navigation.Scroller {
	return element{h.window}
}

// Refresh calls the page's refresh hook, or reloads when there is none.
func (h *Host) Refresh() {
	if fn := h.window.Get(h.refreshFunc); fn.Type() == js.TypeFunction {
		if err := Invoke(fn); err != nil {
			h.log.WithError(err).WithField("hook", h.refreshFunc).Error("refresh hook failed")
		}
		return
	}
	h.window.Get("location").Call("reload")
}

// StartViewTransition uses document.startViewTransition when the browser has it.
func (h *Host) StartViewTransition(update func()) bool {
	if h.document.Get("startViewTransition").Type() != js.TypeFunction {
		return false
	}
	h.document.Call("startViewTransition", once(update))
	return true
}

type element struct {
	v js.Value
}

func (e element) ScrollTo(x, y float64, behavior navigation.ScrollBehavior) {
	opts := js.Global().Get("Object").New()
	opts.Set("left", x)
	opts.Set("top", y)
	opts.Set("behavior", string(behavior))
	e.v.Call("scrollTo", opts)
}
