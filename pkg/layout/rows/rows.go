// Package rows implements a single-column section strategy.
//
// Every item is one full-width row. Rows have either a fixed height or an
// estimated height that is replaced by measurements reported through
// preferred-size feedback. The cache is updated incrementally: inserts,
// deletes and moves keep the measured heights of surviving rows, and a
// measurement only moves the rows below it.
package rows

import (
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// DefaultEstimatedRowHeight is used when neither a fixed nor an estimated
// height is configured.
const DefaultEstimatedRowHeight = 44

// RowChanged is the payload for a row whose measured height changed.
type RowChanged struct {
	Index int
	layout.Shift
}

// Rows lays out items as stacked full-width rows.
type Rows struct {
	layout.Base

	// RowHeight is the height of every row when SelfSizing is off.
	RowHeight float64

	// EstimatedRowHeight is the provisional height of self-sizing rows, and
	// the row height when SelfSizing is off and RowHeight is not set.
	EstimatedRowHeight float64

	// SelfSizing rows take their height from preferred-size feedback.
	SelfSizing bool

	// Spacing is the vertical gap between consecutive rows.
	Spacing float64

	records  []layout.ItemRecord
	width    float64
	height   float64
	prepared bool
}

// Fixed returns a strategy with fixed-height rows.
func Fixed(height float64) *Rows {
	return &Rows{RowHeight: height}
}

// SelfSizing returns a strategy whose rows start at estimate and are
// resized by measurements.
func SelfSizing(estimate float64) *Rows {
	return &Rows{EstimatedRowHeight: estimate, SelfSizing: true}
}

func (r *Rows) estimate() float64 {
	if r.EstimatedRowHeight > 0 {
		return r.EstimatedRowHeight
	}
	return DefaultEstimatedRowHeight
}

func (r *Rows) fresh() layout.ItemRecord {
	if r.SelfSizing {
		return layout.ItemRecord{Frame: geom.R(0, 0, 0, r.estimate()), State: layout.HeightEstimated}
	}
	h := r.RowHeight
	if h <= 0 {
		h = r.estimate()
	}
	return layout.ItemRecord{Frame: geom.R(0, 0, 0, h), State: layout.HeightFixed}
}

// Prepare implements layout.Strategy.
func (r *Rows) Prepare(pc layout.PrepareContext) {
	count := max(pc.ItemCount, 0)
	if pc.Width <= 0 {
		r.clear()
		return
	}

	full := !r.prepared || pc.Full()
	for _, p := range pc.Payloads {
		if _, ok := p.(layout.Reset); ok {
			full = true
		}
	}
	if full {
		r.build(pc.Width, count)
		if pc.Logger != nil {
			pc.Logger.Debug("rows rebuilt", "section", pc.Section, "items", count, "height", r.height)
		}
		return
	}

	dirty := len(r.records)
	if !geom.Approx(pc.Width, r.width) {
		r.width = pc.Width
		est := r.estimate()
		for i := range r.records {
			r.records[i].Invalidate(est)
		}
		r.ResetSupplementaries(pc.Width, false)
		dirty = 0
	}

	var d int
	switch {
	case len(pc.Updates) > 0:
		r.records, d = layout.ApplyItemUpdates(r.records, pc.Updates, count, r.fresh)
		dirty = min(dirty, d)
	case count != len(r.records):
		r.records, d = layout.ResizeRecords(r.records, count, r.fresh)
		dirty = min(dirty, d)
	}

	for _, p := range pc.Payloads {
		switch p := p.(type) {
		case RowChanged:
			dirty = min(dirty, p.Index)
		case layout.SupplementaryChanged:
			if p.Kind == layout.KindHeader {
				dirty = 0
			}
		}
	}
	r.layoutFrom(max(dirty, 0))
}

func (r *Rows) build(width float64, count int) {
	r.width = width
	r.records = r.records[:0]
	for i := 0; i < count; i++ {
		r.records = append(r.records, r.fresh())
	}
	r.ResetSupplementaries(width, false)
	r.prepared = true
	r.layoutFrom(0)
}

func (r *Rows) clear() {
	r.records = nil
	r.width = 0
	r.height = 0
	r.prepared = false
	r.ClearSupplementaries()
}

// layoutFrom recomputes origins of rows from index i on, then the footer.
func (r *Rows) layoutFrom(i int) {
	x := r.Insets.Left
	w := max(r.width-r.Insets.Horizontal(), 0)
	n := len(r.records)

	y := r.ContentTop()
	if i > 0 && i <= n {
		y = r.records[i-1].Frame.MaxY() + r.Spacing
	}
	for j := min(i, n); j < n; j++ {
		rec := &r.records[j]
		rec.Frame.X, rec.Frame.Y, rec.Frame.Width = x, y, w
		y = rec.Frame.MaxY() + r.Spacing
	}

	bottom := r.ContentTop()
	if n > 0 {
		bottom = r.records[n-1].Frame.MaxY()
	}
	r.height = r.Finish(bottom, r.width)
}

// Height implements layout.Strategy.
func (r *Rows) Height() float64 { return r.height }

// Count returns the number of laid out rows.
func (r *Rows) Count() int { return len(r.records) }

// Record returns the cached record of row i.
func (r *Rows) Record(i int) (layout.ItemRecord, bool) {
	if i < 0 || i >= len(r.records) {
		return layout.ItemRecord{}, false
	}
	return r.records[i], true
}

// ItemsIn implements layout.Strategy.
func (r *Rows) ItemsIn(rect geom.Rect, section int) []layout.Element {
	if !r.prepared || rect.IsEmpty() {
		return nil
	}
	var out []layout.Element
	if e, ok := r.HeaderIn(rect, section); ok {
		out = append(out, e)
	}
	n := len(r.records)
	first := layout.FirstIntersecting(n, func(i int) float64 { return r.records[i].Frame.MaxY() }, rect.MinY())
	for i := first; i < n; i++ {
		f := r.records[i].Frame
		if f.MinY() >= rect.MaxY() {
			break
		}
		if f.Intersects(rect) {
			out = append(out, layout.Element{Key: layout.CellKey(section, i), Frame: f, ZIndex: layout.ZCell})
		}
	}
	if e, ok := r.FooterIn(rect, section); ok {
		out = append(out, e)
	}
	return out
}

// Frame implements layout.Strategy.
func (r *Rows) Frame(key layout.ItemKey) (geom.Rect, bool) {
	if !r.prepared {
		return geom.Rect{}, false
	}
	if key.Category == layout.CategorySupplementary {
		return r.SupplementaryFrame(key)
	}
	if key.Category != layout.CategoryCell || key.Item < 0 || key.Item >= len(r.records) {
		return geom.Rect{}, false
	}
	return r.records[key.Item].Frame, true
}

// InvalidationForWidthChange implements layout.Strategy.
func (r *Rows) InvalidationForWidthChange(from, to float64) any {
	return layout.WidthChange{From: from, To: to}
}

// ShouldInvalidateForPreferredSize implements layout.Strategy.
func (r *Rows) ShouldInvalidateForPreferredSize(key layout.ItemKey, preferred, original geom.Size) bool {
	if !r.prepared {
		return false
	}
	if key.Category == layout.CategorySupplementary {
		return r.ShouldInvalidateSupplementary(key, preferred)
	}
	if !r.SelfSizing || key.Item < 0 || key.Item >= len(r.records) {
		return false
	}
	return r.records[key.Item].WantsHeight(preferred.Height)
}

// InvalidationForPreferredSize implements layout.Strategy.
func (r *Rows) InvalidationForPreferredSize(key layout.ItemKey, preferred, original geom.Size) any {
	if !r.prepared {
		return nil
	}
	if key.Category == layout.CategorySupplementary {
		return r.MeasureSupplementary(key, preferred)
	}
	if !r.SelfSizing || key.Item < 0 || key.Item >= len(r.records) {
		return nil
	}
	before := r.records[key.Item].Frame
	if !r.records[key.Item].Measure(preferred.Height) {
		return nil
	}
	return RowChanged{
		Index: key.Item,
		Shift: layout.Shift{Below: before.MaxY(), Delta: r.records[key.Item].Frame.Height - before.Height},
	}
}

var _ layout.Strategy = (*Rows)(nil)
