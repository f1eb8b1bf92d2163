package layout

import (
	"io"
	"reflect"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/observability"
)

// DataSource supplies the section structure.
type DataSource interface {
	NumberOfSections() int
	NumberOfItems(section int) int

	// StrategyFor returns the strategy for a section. It is called once per
	// section on every section-list rebuild. Returning the instance used
	// before keeps its cached geometry.
	StrategyFor(section int) Strategy
}

// Host is the scrollable view the composite lays out for.
type Host interface {
	DataSource

	// Bounds is the visible rectangle in content coordinates. Its origin is
	// the scroll offset.
	Bounds() geom.Rect
}

// Default decoration settings.
const (
	DefaultSeparatorColor     = "#C8C7CC"
	DefaultSeparatorThickness = 0.5
)

// =============================================================================
// Options
// =============================================================================

// Option configures a Composite.
type Option func(*Composite)

// WithLogger sets the logger for layout passes. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Composite) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScheduler sets the scheduler handed to strategies with timers.
func WithScheduler(s Scheduler) Option {
	return func(c *Composite) { c.scheduler = s }
}

// WithSeparatorColor sets the color used for separators of sections that
// don't set their own.
func WithSeparatorColor(color string) Option {
	return func(c *Composite) { c.separatorColor = color }
}

// WithSeparatorThickness sets the separator height.
func WithSeparatorThickness(t float64) Option {
	return func(c *Composite) {
		if t > 0 {
			c.separatorThickness = t
		}
	}
}

// WithPinnedZIndex sets the z-index of pinned headers and footers.
func WithPinnedZIndex(z int) Option {
	return func(c *Composite) { c.pinnedZ = z }
}

// WithInvalidationHandler registers a function called whenever a strategy
// requests a layout pass on its own, for example from a timer. Hosts use it
// to schedule a redraw.
func WithInvalidationHandler(fn func(*InvalidationContext)) Option {
	return func(c *Composite) { c.onInvalidate = fn }
}

// =============================================================================
// Composite
// =============================================================================

// Composite stacks section strategies into one vertical scroll space.
type Composite struct {
	host   Host
	logger *log.Logger

	scheduler          Scheduler
	separatorColor     string
	separatorThickness float64
	pinnedZ            int
	onInvalidate       func(*InvalidationContext)

	sections []*sectionState
	origins  []float64 // len(sections)+1 prefix sums, valid when !originsStale
	stale    bool

	pending  *InvalidationContext
	bounds   geom.Rect
	width    float64
	prepared bool
	closed   bool
}

type sectionState struct {
	strategy Strategy
	count    int
	observer BoundsObserver
	attacher Attacher
	prepared bool
}

// New returns a composite for host. Nothing is computed until the first
// query or Prepare.
func New(host Host, opts ...Option) *Composite {
	c := &Composite{
		host:               host,
		logger:             log.NewWithOptions(io.Discard, log.Options{}),
		separatorColor:     DefaultSeparatorColor,
		separatorThickness: DefaultSeparatorThickness,
		pinnedZ:            ZPinned,
		pending:            &InvalidationContext{Reasons: ReasonEverything},
		stale:              true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invalidate merges ctx into the pending batch.
func (c *Composite) Invalidate(ctx *InvalidationContext) {
	if ctx == nil {
		return
	}
	if c.pending == nil {
		c.pending = &InvalidationContext{}
	}
	c.pending.Merge(ctx)
}

// InvalidateAll discards every cache on the next pass.
func (c *Composite) InvalidateAll() {
	c.Invalidate(&InvalidationContext{Reasons: ReasonEverything})
}

// Pending returns a copy of the pending batch, or nil when the layout is
// up to date.
func (c *Composite) Pending() *InvalidationContext {
	if c.pending == nil {
		return nil
	}
	return c.pending.Clone()
}

// Prepare consumes the pending batch. Contract violations by the host are
// returned as coded errors; the previous geometry is kept in that case and
// the batch is dropped.
func (c *Composite) Prepare() error {
	batch := c.pending
	c.pending = nil
	if batch == nil {
		batch = &InvalidationContext{}
	}
	if !c.prepared {
		batch.Reasons |= ReasonEverything
	}

	start := time.Now()
	bounds := c.host.Bounds()
	width := max(bounds.Width, 0)
	widthChanged := c.prepared && !geom.Approx(width, c.width)

	plan, err := c.plan(batch)
	if err != nil {
		c.logger.Error("layout contract violation", "err", err)
		observability.Layout().OnPrepare(observability.PrepareEvent{
			Reasons:  batch.Reasons.String(),
			Sections: len(c.sections),
			Duration: time.Since(start),
			Err:      err,
		})
		return err
	}

	if plan.rebuild {
		c.rebind(plan)
	}

	prepared := 0
	origin := 0.0
	for i, s := range c.sections {
		work := plan.work[i]
		if widthChanged {
			work.reasons |= ReasonWidth
			work.payloads = append(work.payloads, s.strategy.InvalidationForWidthChange(c.width, width))
		}
		if !s.prepared {
			work.reasons |= ReasonEverything
		}
		if work.reasons != 0 || len(work.payloads) > 0 || len(work.updates) > 0 {
			s.strategy.Prepare(PrepareContext{
				Section:   i,
				ItemCount: s.count,
				Width:     width,
				Viewport:  bounds.Offset(0, -origin),
				Reasons:   work.reasons | batch.Reasons&^(ReasonEverything|ReasonDataCounts|ReasonSectionsReset|ReasonWidth),
				Payloads:  work.payloads,
				Updates:   work.updates,
				Logger:    c.logger,
			})
			s.prepared = true
			prepared++
		}
		origin += max(s.strategy.Height(), 0)
	}

	if widthChanged {
		c.logger.Debug("width changed", "from", c.width, "to", width)
	}
	c.width = width
	c.bounds = bounds
	c.prepared = true
	c.stale = true

	c.logger.Debug("layout pass",
		"reasons", batch.Reasons,
		"sections", len(c.sections),
		"prepared", prepared,
		"height", origin)
	observability.Layout().OnPrepare(observability.PrepareEvent{
		Reasons:  batch.Reasons.String(),
		Sections: len(c.sections),
		Prepared: prepared,
		Rebuilt:  plan.rebuild,
		Height:   origin,
		Duration: time.Since(start),
	})
	return nil
}

// sectionWork is what one section receives in a pass.
type sectionWork struct {
	reasons  Reason
	payloads []any
	updates  []ItemUpdate
}

// passPlan is the validated outcome of reading a batch against the host.
type passPlan struct {
	rebuild bool
	next    []*sectionState
	work    []sectionWork
}

// plan validates the batch and the host's section list without mutating the
// composite.
func (c *Composite) plan(batch *InvalidationContext) (*passPlan, error) {
	if !batch.Reasons.Structural() {
		p := &passPlan{work: make([]sectionWork, len(c.sections))}
		for s, ps := range batch.Payloads {
			if s >= 0 && s < len(c.sections) {
				p.work[s].reasons |= ReasonOther
				p.work[s].payloads = append(p.work[s].payloads, ps...)
			}
		}
		return p, nil
	}

	n := max(c.host.NumberOfSections(), 0)
	m, err := mapSections(len(c.sections), batch.Updates)
	if err != nil {
		return nil, err
	}
	if len(batch.Updates) > 0 && len(m.newToOld) != n {
		return nil, errors.New(errors.ErrCodeCountMismatch,
			"batch leaves %d sections, host reports %d", len(m.newToOld), n)
	}

	p := &passPlan{rebuild: true, next: make([]*sectionState, n), work: make([]sectionWork, n)}
	byStrategy := make(map[Strategy]*sectionState, len(c.sections))
	oldIndex := make(map[Strategy]int, len(c.sections))
	for i, s := range c.sections {
		byStrategy[s.strategy] = s
		oldIndex[s.strategy] = i
	}
	seen := make(map[Strategy]int, n)
	for i := 0; i < n; i++ {
		st := c.host.StrategyFor(i)
		if st == nil {
			return nil, errors.New(errors.ErrCodeMissingStrategy, "no strategy for section %d", i)
		}
		if reflect.TypeOf(st).Kind() != reflect.Pointer {
			return nil, errors.New(errors.ErrCodeContractViolation,
				"strategy for section %d is %T, strategies must be pointers", i, st)
		}
		if j, dup := seen[st]; dup {
			return nil, errors.New(errors.ErrCodeContractViolation,
				"sections %d and %d share one strategy instance", j, i)
		}
		seen[st] = i

		count := max(c.host.NumberOfItems(i), 0)
		w := &p.work[i]
		prev, reused := byStrategy[st]
		switch {
		case batch.Reasons.Has(ReasonEverything) || !reused:
			w.reasons |= ReasonEverything
		case len(batch.Updates) > 0:
			// A reused instance must still describe the same logical section.
			old := m.newToOld[i]
			if old < 0 || m.reloaded[old] || old != oldIndex[st] {
				w.reasons |= ReasonEverything
				break
			}
			w.updates = m.items[i]
			if len(w.updates) > 0 || prev.count != count {
				w.reasons |= ReasonDataCounts
			}
		case prev.count != count:
			w.reasons |= ReasonDataCounts
		}

		if reused {
			w.payloads = append(w.payloads, batch.Payloads[oldIndex[st]]...)
			if len(w.payloads) > 0 {
				w.reasons |= ReasonOther
			}
		}

		next := &sectionState{strategy: st, count: count}
		if reused {
			next.attacher = prev.attacher
			next.prepared = prev.prepared && !w.reasons.Has(ReasonEverything)
		}
		next.observer, _ = st.(BoundsObserver)
		p.next[i] = next
	}
	return p, nil
}

// rebind swaps in the planned section list, detaching strategies that left
// and attaching the ones that joined.
func (c *Composite) rebind(p *passPlan) {
	keep := make(map[Strategy]bool, len(p.next))
	for _, s := range p.next {
		keep[s.strategy] = true
	}
	for _, s := range c.sections {
		if !keep[s.strategy] && s.attacher != nil {
			s.attacher.Detach()
			s.attacher = nil
		}
	}
	for _, s := range p.next {
		if s.attacher != nil || c.closed {
			continue
		}
		if a, ok := s.strategy.(Attacher); ok {
			st := s.strategy
			a.Attach(Attachment{
				Scheduler:  c.scheduler,
				Invalidate: func(payload any) { c.requestFrom(st, payload) },
			})
			s.attacher = a
		}
	}
	if len(p.next) != len(c.sections) {
		c.logger.Debug("section list resized", "from", len(c.sections), "to", len(p.next))
	}
	c.sections = p.next
	c.stale = true
}

// requestFrom handles an invalidation raised by a strategy itself. The
// payload is routed to whatever section the strategy currently lays out;
// requests from strategies no longer in the list are dropped.
func (c *Composite) requestFrom(st Strategy, payload any) {
	for i, s := range c.sections {
		if s.strategy != st {
			continue
		}
		ctx := &InvalidationContext{Reasons: ReasonOther, Animated: true}
		ctx.Add(i, payload)
		c.Invalidate(ctx)
		if c.onInvalidate != nil {
			c.onInvalidate(ctx)
		}
		return
	}
}

// Close detaches every strategy. Timers owned by strategies stop and later
// passes no longer attach new ones.
func (c *Composite) Close() {
	for _, s := range c.sections {
		if s.attacher != nil {
			s.attacher.Detach()
			s.attacher = nil
		}
	}
	c.closed = true
}

// ensure runs a pass when one is pending or the host's bounds moved in a
// way that requires one. Queries never fail; violations are logged.
func (c *Composite) ensure() {
	if c.prepared {
		if b := c.host.Bounds(); b != c.bounds {
			if c.shouldInvalidateForBounds(b) {
				c.Invalidate(c.InvalidationContextForBoundsChange(b))
			} else {
				c.bounds = b
			}
		}
	}
	if c.pending != nil {
		_ = c.Prepare()
	}
}

// ensureOrigins recomputes the prefix sums of section heights.
func (c *Composite) ensureOrigins() {
	if !c.stale && len(c.origins) == len(c.sections)+1 {
		return
	}
	c.origins = c.origins[:0]
	y := 0.0
	c.origins = append(c.origins, y)
	for _, s := range c.sections {
		y += max(s.strategy.Height(), 0)
		c.origins = append(c.origins, y)
	}
	c.stale = false
}

// =============================================================================
// Structure Queries
// =============================================================================

// NumberOfSections returns the section count of the last pass.
func (c *Composite) NumberOfSections() int {
	c.ensure()
	return len(c.sections)
}

// NumberOfItems returns the item count a section was laid out with, or zero
// for an unknown section.
func (c *Composite) NumberOfItems(section int) int {
	c.ensure()
	if section < 0 || section >= len(c.sections) {
		return 0
	}
	return c.sections[section].count
}

// Strategy returns the strategy laying out section.
func (c *Composite) Strategy(section int) (Strategy, bool) {
	c.ensure()
	if section < 0 || section >= len(c.sections) {
		return nil, false
	}
	return c.sections[section].strategy, true
}

// ContentSize returns the width of the last pass and the sum of all
// section heights.
func (c *Composite) ContentSize() geom.Size {
	c.ensure()
	c.ensureOrigins()
	return geom.Size{Width: c.width, Height: c.origins[len(c.sections)]}
}

// SectionFrame returns the global frame of a section.
func (c *Composite) SectionFrame(section int) (geom.Rect, bool) {
	c.ensure()
	if section < 0 || section >= len(c.sections) {
		return geom.Rect{}, false
	}
	c.ensureOrigins()
	o := c.origins[section]
	return geom.R(0, o, c.width, c.origins[section+1]-o), true
}

// Bounds returns the viewport the last pass was prepared for.
func (c *Composite) Bounds() geom.Rect { return c.bounds }
