package navigation

import (
	"time"

	"go.uber.org/atomic"

	"github.com/R3E-Network/admin_console/internal/config"
	"github.com/R3E-Network/admin_console/internal/logging"
)

// State is a bit set of pending work.
type State uint8

const (
	Idle           State = 0
	ScrollPending  State = 1 << 0
	RefreshPending State = 1 << 1
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ScrollPending:
		return "scroll-pending"
	case RefreshPending:
		return "refresh-pending"
	case ScrollPending | RefreshPending:
		return "scroll-pending|refresh-pending"
	default:
		return "unknown"
	}
}

// Controller resets scroll on route changes and refreshes route data after
// back/forward navigation. Methods must be called from the host's event loop;
// State may be read from anywhere.
type Controller struct {
	host         Host
	refreshDelay time.Duration
	log          *logging.Logger

	route       string
	seenRoute   bool
	unsubscribe func()

	scrolls   atomic.Int32
	refreshes atomic.Int32
}

// Option configures a Controller.
type Option func(*Controller)

// WithRefreshDelay sets how long to wait after a history signal before refreshing.
func WithRefreshDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.refreshDelay = d
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller for host. It does nothing until Mount or RouteChanged.
func New(host Host, opts ...Option) *Controller {
	c := &Controller{
		host:         host,
		refreshDelay: config.DefaultRefreshDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logging.NewDefault("navigation")
	}
	return c
}

// FromConfig creates a controller using the navigation settings.
func FromConfig(host Host, cfg *config.Navigation, opts ...Option) *Controller {
	if cfg == nil {
		cfg = config.DefaultNavigation()
	}
	return New(host, append([]Option{WithRefreshDelay(cfg.RefreshDelay)}, opts...)...)
}

// Mount subscribes to back/forward navigation. Calling it twice is a no-op.
func (c *Controller) Mount() {
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.host.OnHistoryChange(c.historyChanged)
	c.log.Entry().Debug("navigation controller mounted")
}

// Unmount releases the history subscription. Callbacks already scheduled
// still fire; resets and refreshes are idempotent.
func (c *Controller) Unmount() {
	if c.unsubscribe == nil {
		return
	}
	c.unsubscribe()
	c.unsubscribe = nil
	c.log.Entry().Debug("navigation controller unmounted")
}

// Mounted reports whether the history subscription is active.
func (c *Controller) Mounted() bool {
	return c.unsubscribe != nil
}

// RouteChanged handles a new active route. Scroll is reset to the origin in
// each of the next two frames: the first usually lands, the second catches
// layout that settled late.
func (c *Controller) RouteChanged(route string) {
	if c.seenRoute && route == c.route {
		return
	}
	c.route = route
	c.seenRoute = true

	c.scrolls.Inc()
	c.host.RequestFrame(func() {
		c.resetScroll()
		c.host.RequestFrame(func() {
			c.resetScroll()
			c.scrolls.Dec()
		})
	})
	c.log.WithField("route", route).Debug("scroll reset scheduled")
}

// Route returns the last route seen.
func (c *Controller) Route() string {
	return c.route
}

// Navigate runs navigate, inside a view transition when the host supports it.
func (c *Controller) Navigate(navigate func()) {
	Wrap(c.host, navigate)
}

// State reports the pending work.
func (c *Controller) State() State {
	s := Idle
	if c.scrolls.Load() > 0 {
		s |= ScrollPending
	}
	if c.refreshes.Load() > 0 {
		s |= RefreshPending
	}
	return s
}

func (c *Controller) resetScroll() {
	if container, ok := c.host.ScrollContainer(); ok && container != nil {
		container.ScrollTo(0, 0, ScrollInstant)
		return
	}
	c.host.Viewport().ScrollTo(0, 0, ScrollInstant)
}

func (c *Controller) historyChanged() {
	c.refreshes.Inc()
	c.host.AfterFunc(c.refreshDelay, func() {
		c.host.Refresh()
		c.refreshes.Dec()
	})
	c.log.WithField("delay", c.refreshDelay.String()).Debug("history refresh scheduled")
}
