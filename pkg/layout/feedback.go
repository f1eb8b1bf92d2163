package layout

import (
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/observability"
)

// ===== Bounds =====

// ShouldInvalidateForBoundsChange reports whether moving the viewport to
// newBounds requires a layout pass. A width change always does. An offset
// or height change only does for sections visible before or after the move
// that pin supplementaries or observe the viewport.
func (c *Composite) ShouldInvalidateForBoundsChange(newBounds geom.Rect) bool {
	if c.pending != nil {
		_ = c.Prepare()
	}
	return c.shouldInvalidateForBounds(newBounds)
}

func (c *Composite) shouldInvalidateForBounds(newBounds geom.Rect) bool {
	old := c.bounds
	if !geom.Approx(max(newBounds.Width, 0), c.width) {
		return true
	}
	if old == newBounds {
		return false
	}
	c.ensureOrigins()
	for _, i := range c.sectionsNear(old, newBounds) {
		s := c.sections[i]
		opts := s.strategy.Options()
		if opts.PinHeader || opts.PinFooter {
			return true
		}
		if s.observer != nil {
			o := c.origins[i]
			if _, ok := s.observer.InvalidationForBoundsChange(old.Offset(0, -o), newBounds.Offset(0, -o)); ok {
				return true
			}
		}
	}
	return false
}

// InvalidationContextForBoundsChange builds the context for a viewport move.
// On a width change every section contributes its width payload; otherwise
// only observing sections near the old or new viewport contribute.
func (c *Composite) InvalidationContextForBoundsChange(newBounds geom.Rect) *InvalidationContext {
	ctx := &InvalidationContext{Reasons: ReasonBounds}
	old := c.bounds
	c.ensureOrigins()

	width := max(newBounds.Width, 0)
	if !geom.Approx(width, c.width) {
		ctx.Reasons |= ReasonWidth
		for i, s := range c.sections {
			ctx.Add(i, s.strategy.InvalidationForWidthChange(c.width, width))
		}
		return ctx
	}

	for _, i := range c.sectionsNear(old, newBounds) {
		s := c.sections[i]
		if s.observer == nil {
			continue
		}
		o := c.origins[i]
		if p, ok := s.observer.InvalidationForBoundsChange(old.Offset(0, -o), newBounds.Offset(0, -o)); ok {
			ctx.Reasons |= ReasonOther
			if p == nil {
				p = Reset{}
			}
			ctx.Add(i, p)
		}
	}
	return ctx
}

// sectionsNear returns the sections intersecting a or b.
func (c *Composite) sectionsNear(a, b geom.Rect) []int {
	var out []int
	for i := range c.sections {
		f := geom.R(0, c.origins[i], max(c.width, 1), c.origins[i+1]-c.origins[i])
		if f.Height <= 0 {
			// Empty sections still observe the viewport passing their origin.
			f.Height = geom.Epsilon
		}
		if f.Intersects(a) || f.Intersects(b) {
			out = append(out, i)
		}
	}
	return out
}

// ===== Preferred Size =====

// ShouldInvalidateForPreferredSize asks the owning section whether a
// measured size needs a re-layout. Measurements equal to the cached size
// confirm it in place.
func (c *Composite) ShouldInvalidateForPreferredSize(key ItemKey, preferred, original geom.Size) bool {
	c.ensure()
	st, ok := c.owner(key)
	if !ok {
		return false
	}
	invalidate := st.ShouldInvalidateForPreferredSize(key, preferred, original)
	observability.Layout().OnFeedback(key.String(), invalidate)
	return invalidate
}

// InvalidationContextForPreferredSize stores a measurement in the owning
// section and returns the context for the next pass. When the content that
// moves starts above the viewport, the context asks the host to shift its
// scroll offset by the same amount so visible content does not jump.
//
// Payloads implementing [ContentShifter] report how the section moves;
// for other payloads the element's own height change is used.
func (c *Composite) InvalidationContextForPreferredSize(key ItemKey, preferred, original geom.Size) *InvalidationContext {
	c.ensure()
	ctx := &InvalidationContext{Reasons: ReasonPreferredSize}
	st, ok := c.owner(key)
	if !ok {
		return ctx
	}
	before, hadFrame := c.NaturalFrame(key)
	payload := st.InvalidationForPreferredSize(key, preferred, original)
	if payload == nil {
		return ctx
	}
	ctx.Add(key.Section, payload)

	shift := Shift{Below: before.MaxY() - c.origins[key.Section], Delta: preferred.Height - before.Height}
	if s, ok := payload.(ContentShifter); ok {
		shift = s.ContentShift()
	} else if !hadFrame {
		return ctx
	}
	if shift.Delta != 0 && c.origins[key.Section]+shift.Below <= c.bounds.MinY() {
		ctx.ContentOffsetAdjustment.Y = shift.Delta
	}
	return ctx
}

func (c *Composite) owner(key ItemKey) (Strategy, bool) {
	if key.Section < 0 || key.Section >= len(c.sections) || key.Category == CategoryDecoration {
		return nil, false
	}
	return c.sections[key.Section].strategy, true
}
