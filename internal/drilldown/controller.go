package drilldown

import (
	"context"
	"log/slog"
	"sync"

	"painel/internal/core"
)

// RangeOwner holds the date range the rest of the dashboard filters by.
// CurrentRange may return nil when no range is set.
type RangeOwner interface {
	SetRange(r core.DateRange)
	CurrentRange() *core.DateRange
}

// RangeCell is a goroutine-safe RangeOwner.
type RangeCell struct {
	mu sync.RWMutex
	r  *core.DateRange
}

func NewRangeCell(initial *core.DateRange) *RangeCell {
	c := &RangeCell{}
	if initial != nil {
		r := *initial
		c.r = &r
	}
	return c
}

func (c *RangeCell) SetRange(r core.DateRange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r = &r
}

// CurrentRange returns a copy of the range, or nil when none is set.
func (c *RangeCell) CurrentRange() *core.DateRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.r == nil {
		return nil
	}
	r := *c.r
	return &r
}

// Reset removes the range.
func (c *RangeCell) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r = nil
}

// Controller owns one session's Selection. Transitions are applied one at a
// time, in the order Dispatch is called, and their range effects reach the
// owner before Dispatch returns.
type Controller struct {
	mu        sync.Mutex
	env       Env
	sel       Selection
	owner     RangeOwner
	listeners []func(Effect)
	logger    *slog.Logger
}

// NewController binds a controller to a range owner. owner may be nil, in
// which case range effects are only returned to the caller.
func NewController(env Env, owner RangeOwner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{env: env, owner: owner, logger: logger}
}

// Subscribe registers fn to receive every effect after it is applied. fn
// runs under the controller lock and must not call back into it.
func (c *Controller) Subscribe(fn func(Effect)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Dispatch applies a. A failed transition is logged and leaves the
// selection and the range untouched.
func (c *Controller) Dispatch(ctx context.Context, a Action) (Selection, []Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, effects, err := Reduce(c.env, c.sel, a)
	if err != nil {
		c.logger.WarnContext(ctx, "drill-down transition aborted",
			"error", err,
			"selection", c.sel.String(),
		)
		return c.sel.clone(), nil, err
	}
	c.sel = next

	for _, e := range effects {
		if rc, ok := e.(RangeChanged); ok && c.owner != nil {
			c.owner.SetRange(rc.Range)
		}
		for _, fn := range c.listeners {
			fn(e)
		}
	}
	c.logger.DebugContext(ctx, "drill-down transition applied",
		"selection", next.String(),
		"effects", len(effects),
	)
	return next.clone(), effects, nil
}

// Selection returns a copy of the current state.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.clone()
}

// Range is the owner's current range; nil when there is no owner or no
// range.
func (c *Controller) Range() *core.DateRange {
	if c.owner == nil {
		return nil
	}
	return c.owner.CurrentRange()
}

func (s Selection) clone() Selection {
	if s.Month != nil {
		k := *s.Month
		s.Month = &k
	}
	return s
}
