package scene

import (
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// Feedback summarizes one Settle call.
type Feedback struct {
	// Applied counts measurements that changed the layout.
	Applied int

	// Adjustment is the accumulated content offset change the host should
	// apply to keep visible content in place.
	Adjustment geom.Point
}

// maxSettleRounds bounds the feedback loop. One round normally suffices:
// measured records accept equal measurements in place.
const maxSettleRounds = 4

// Settle lays c out and reports every measurement recorded in h through
// the composite's preferred-size feedback, as a host would after
// displaying the elements. It stops once a round changes nothing.
func Settle(c *layout.Composite, h *Host) (Feedback, error) {
	var fb Feedback
	if err := Sync(c, h); err != nil {
		return fb, err
	}
	ms := h.Measurements()
	for range maxSettleRounds {
		applied := 0
		for _, m := range ms {
			frame, ok := c.NaturalFrame(m.Key)
			if !ok {
				continue
			}
			preferred := geom.Size{Width: frame.Width, Height: m.Height}
			if !c.ShouldInvalidateForPreferredSize(m.Key, preferred, frame.Size()) {
				continue
			}
			ctx := c.InvalidationContextForPreferredSize(m.Key, preferred, frame.Size())
			fb.Adjustment = fb.Adjustment.Add(ctx.ContentOffsetAdjustment)
			c.Invalidate(ctx)
			applied++
		}
		if applied == 0 {
			break
		}
		fb.Applied += applied
		if err := c.Prepare(); err != nil {
			return fb, err
		}
	}
	return fb, nil
}

// Sync runs the pending layout pass, then the pass for any viewport change
// of h the composite cares about. Unlike the implicit pass of a query it
// returns contract violations.
func Sync(c *layout.Composite, h layout.Host) error {
	if c.Pending() != nil {
		if err := c.Prepare(); err != nil {
			return err
		}
	}
	if b := h.Bounds(); c.ShouldInvalidateForBoundsChange(b) {
		c.Invalidate(c.InvalidationContextForBoundsChange(b))
	}
	if c.Pending() == nil {
		return nil
	}
	return c.Prepare()
}
