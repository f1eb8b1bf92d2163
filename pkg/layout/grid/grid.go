// Package grid implements a multi-column section strategy.
//
// Items flow left to right into rows of equal column count; only the last
// row may be partial, so item i always sits in row i / columns. Column count
// and item width come from a fixed item size, a size callback, a fixed
// column count or a column callback. The spacing between columns is
// recomputed so that the columns exactly fill the content width, floored to
// the device pixel grid.
//
// Self-sizing items keep their natural measured height; the row takes the
// tallest item's height and each item's displayed frame is derived from its
// natural frame according to the row [Alignment].
package grid

import (
	"math"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// Alignment positions items that are shorter than their row.
type Alignment uint8

const (
	// AlignNone shows natural frames at the top of the row.
	AlignNone Alignment = iota
	// AlignEqualHeight stretches every item to the row height.
	AlignEqualHeight
	// AlignCenter centers items vertically in the row.
	AlignCenter
	// AlignTop pins items to the top of the row.
	AlignTop
	// AlignBottom pins items to the bottom of the row.
	AlignBottom
)

var alignmentNames = map[Alignment]string{
	AlignNone:        "none",
	AlignEqualHeight: "equal-height",
	AlignCenter:      "center",
	AlignTop:         "top",
	AlignBottom:      "bottom",
}

func (a Alignment) String() string {
	if s, ok := alignmentNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAlignment parses the names produced by Alignment.String.
func ParseAlignment(s string) (Alignment, bool) {
	for a, name := range alignmentNames {
		if name == s {
			return a, true
		}
	}
	return AlignNone, false
}

// ItemChanged is the payload for an item whose measured height changed.
// The shift is the change of its row's height, which is zero when another
// item in the row is still taller.
type ItemChanged struct {
	Index int
	layout.Shift
}

// MetricsChanged is the payload to send after changing insets or spacing
// without reloading the section.
type MetricsChanged struct{}

// Metrics are the values derived from the configuration and the width.
type Metrics struct {
	ContentWidth float64
	Columns      int
	ItemWidth    float64
	ItemHeight   float64
	Spacing      float64
}

// Grid lays out items in rows of equal column count.
type Grid struct {
	layout.Base

	// ItemSize is the fixed item size. When Columns or ColumnsFunc is set
	// only its height is used.
	ItemSize geom.Size

	// ItemSizeFunc overrides ItemSize with a size derived from the content
	// width.
	ItemSizeFunc func(contentWidth float64) geom.Size

	// Columns fixes the column count; item width is derived from it.
	Columns int

	// ColumnsFunc overrides Columns with a count derived from the content
	// width.
	ColumnsFunc func(contentWidth float64) int

	MinimumInteritemSpacing float64
	LineSpacing             float64

	// SelfSizing items take their height from preferred-size feedback,
	// starting at EstimatedItemHeight.
	SelfSizing          bool
	EstimatedItemHeight float64

	Alignment Alignment

	// Scale is the device pixel scale used to floor derived lengths.
	// Zero means 2.
	Scale float64

	records  []layout.ItemRecord
	rows     []band
	metrics  Metrics
	applied  appliedConfig
	width    float64
	height   float64
	prepared bool
}

type band struct {
	y, h float64
}

// appliedConfig is the part of the configuration the current geometry was
// computed with.
type appliedConfig struct {
	insets      geom.Insets
	minSpacing  float64
	lineSpacing float64
}

func (g *Grid) current() appliedConfig {
	return appliedConfig{insets: g.Insets, minSpacing: g.MinimumInteritemSpacing, lineSpacing: g.LineSpacing}
}

func (g *Grid) scale() float64 {
	if g.Scale > 0 {
		return g.Scale
	}
	return 2
}

// DeriveMetrics computes column count, item size and actual spacing for a
// section width.
func (g *Grid) DeriveMetrics(width float64) Metrics {
	cw := max(width-g.Insets.Horizontal(), 0)
	minSp := max(g.MinimumInteritemSpacing, 0)
	m := Metrics{ContentWidth: cw}
	floor := func(v float64) float64 { return geom.FloorToPixel(v, g.scale()) }

	columns := g.Columns
	if g.ColumnsFunc != nil {
		columns = g.ColumnsFunc(cw)
	}
	if columns > 0 {
		m.Columns = columns
		m.ItemWidth = max(floor((cw-float64(columns-1)*minSp)/float64(columns)), 0)
		m.ItemHeight = g.ItemSize.Height
		if m.ItemHeight <= 0 {
			m.ItemHeight = m.ItemWidth
		}
	} else {
		size := g.ItemSize
		if g.ItemSizeFunc != nil {
			size = g.ItemSizeFunc(cw)
		}
		w := min(max(size.Width, 0), cw)
		m.Columns = 1
		if w > 0 {
			m.Columns = max(int(math.Floor((cw+minSp)/(w+minSp)+geom.Epsilon)), 1)
		}
		m.ItemWidth = w
		m.ItemHeight = size.Height
		if m.ItemHeight <= 0 {
			m.ItemHeight = w
		}
	}
	if m.Columns > 1 {
		m.Spacing = floor((cw - float64(m.Columns)*m.ItemWidth) / float64(m.Columns-1))
	}
	return m
}

// Metrics returns the metrics of the last layout.
func (g *Grid) Metrics() Metrics { return g.metrics }

func (g *Grid) estimate() float64 {
	if g.SelfSizing && g.EstimatedItemHeight > 0 {
		return g.EstimatedItemHeight
	}
	return g.metrics.ItemHeight
}

func (g *Grid) fresh() layout.ItemRecord {
	state := layout.HeightFixed
	if g.SelfSizing {
		state = layout.HeightEstimated
	}
	return layout.ItemRecord{Frame: geom.R(0, 0, g.metrics.ItemWidth, g.estimate()), State: state}
}

// Prepare implements layout.Strategy.
func (g *Grid) Prepare(pc layout.PrepareContext) {
	count := max(pc.ItemCount, 0)
	if pc.Width <= 0 {
		g.clear()
		return
	}

	full := !g.prepared || pc.Full()
	metricsChanged := false
	for _, p := range pc.Payloads {
		switch p.(type) {
		case layout.Reset:
			full = true
		case MetricsChanged:
			metricsChanged = true
		}
	}
	if full {
		g.build(pc.Width, count)
		if pc.Logger != nil {
			pc.Logger.Debug("grid rebuilt", "section", pc.Section, "items", count,
				"columns", g.metrics.Columns, "spacing", g.metrics.Spacing)
		}
		return
	}

	dirtyRow := len(g.rows)
	xDirty := false

	if !geom.Approx(pc.Width, g.width) || metricsChanged {
		m := g.DeriveMetrics(pc.Width)
		switch {
		case !geom.Approx(pc.Width, g.width) || m.Columns != g.metrics.Columns || !geom.Approx(m.ItemWidth, g.metrics.ItemWidth):
			// Item width changed, so measured heights are stale.
			g.metrics = m
			est := g.estimate()
			for i := range g.records {
				g.records[i].Invalidate(est)
				if g.records[i].State == layout.HeightFixed {
					g.records[i].Frame.Height = m.ItemHeight
				}
				g.records[i].Frame.Width = m.ItemWidth
			}
			g.ResetSupplementaries(pc.Width, false)
			dirtyRow = 0
		default:
			g.metrics = m
			xDirty = true
			if g.verticalChanged() {
				dirtyRow = 0
			}
		}
		g.width = pc.Width
	}

	var d int
	switch {
	case len(pc.Updates) > 0:
		g.records, d = layout.ApplyItemUpdates(g.records, pc.Updates, count, g.fresh)
		dirtyRow = min(dirtyRow, g.rowOf(d))
	case count != len(g.records):
		g.records, d = layout.ResizeRecords(g.records, count, g.fresh)
		dirtyRow = min(dirtyRow, g.rowOf(d))
	}

	for _, p := range pc.Payloads {
		switch p := p.(type) {
		case ItemChanged:
			dirtyRow = min(dirtyRow, g.rowOf(p.Index))
		case layout.SupplementaryChanged:
			if p.Kind == layout.KindHeader {
				dirtyRow = 0
			}
		}
	}

	if xDirty {
		g.placeColumns(0, len(g.records))
	}
	g.layoutFromRow(max(dirtyRow, 0))
}

// rowOf returns the row containing item i. Every row but the last holds
// exactly Columns items.
func (g *Grid) rowOf(i int) int {
	n := max(g.metrics.Columns, 1)
	return max(i, 0) / n
}

func (g *Grid) verticalChanged() bool {
	a, c := g.applied, g.current()
	return !geom.Approx(a.insets.Top, c.insets.Top) ||
		!geom.Approx(a.insets.Bottom, c.insets.Bottom) ||
		!geom.Approx(a.lineSpacing, c.lineSpacing)
}

func (g *Grid) build(width float64, count int) {
	g.width = width
	g.metrics = g.DeriveMetrics(width)
	g.records = g.records[:0]
	for i := 0; i < count; i++ {
		g.records = append(g.records, g.fresh())
	}
	g.ResetSupplementaries(width, false)
	g.prepared = true
	g.placeColumns(0, count)
	g.layoutFromRow(0)
}

func (g *Grid) clear() {
	g.records = nil
	g.rows = nil
	g.metrics = Metrics{}
	g.width = 0
	g.height = 0
	g.prepared = false
	g.ClearSupplementaries()
}

// placeColumns sets the X origin and width of items [from, to).
func (g *Grid) placeColumns(from, to int) {
	n := max(g.metrics.Columns, 1)
	step := g.metrics.ItemWidth + g.metrics.Spacing
	for i := from; i < to; i++ {
		g.records[i].Frame.X = g.Insets.Left + float64(i%n)*step
		g.records[i].Frame.Width = g.metrics.ItemWidth
	}
}

// layoutFromRow recomputes rows from r0 on, then the footer.
func (g *Grid) layoutFromRow(r0 int) {
	n := max(g.metrics.Columns, 1)
	count := len(g.records)
	rowCount := (count + n - 1) / n
	r0 = min(r0, len(g.rows), rowCount)
	g.rows = g.rows[:r0]

	y := g.ContentTop()
	if r0 > 0 {
		last := g.rows[r0-1]
		y = last.y + last.h + g.LineSpacing
	}
	for row := r0; row < rowCount; row++ {
		start, end := row*n, min(row*n+n, count)
		h := 0.0
		for i := start; i < end; i++ {
			g.records[i].Frame.Y = y
			h = max(h, g.records[i].Frame.Height)
		}
		g.placeColumns(start, end)
		g.rows = append(g.rows, band{y: y, h: h})
		y += h + g.LineSpacing
	}

	bottom := g.ContentTop()
	if len(g.rows) > 0 {
		last := g.rows[len(g.rows)-1]
		bottom = last.y + last.h
	}
	g.height = g.Finish(bottom, g.width)
	g.applied = g.current()
}

// displayed applies the row alignment to item i's natural frame.
func (g *Grid) displayed(i int) geom.Rect {
	f := g.records[i].Frame
	row := g.rows[g.rowOf(i)]
	switch g.Alignment {
	case AlignEqualHeight:
		f.Y, f.Height = row.y, row.h
	case AlignCenter:
		f.Y = row.y + geom.FloorToPixel((row.h-f.Height)/2, g.scale())
	case AlignBottom:
		f.Y = row.y + row.h - f.Height
	default:
		f.Y = row.y
	}
	return f
}

// Height implements layout.Strategy.
func (g *Grid) Height() float64 { return g.height }

// Count returns the number of laid out items.
func (g *Grid) Count() int { return len(g.records) }

// Record returns the natural record of item i.
func (g *Grid) Record(i int) (layout.ItemRecord, bool) {
	if i < 0 || i >= len(g.records) {
		return layout.ItemRecord{}, false
	}
	return g.records[i], true
}

// ItemsIn implements layout.Strategy.
func (g *Grid) ItemsIn(rect geom.Rect, section int) []layout.Element {
	if !g.prepared || rect.IsEmpty() {
		return nil
	}
	var out []layout.Element
	if e, ok := g.HeaderIn(rect, section); ok {
		out = append(out, e)
	}
	n := max(g.metrics.Columns, 1)
	first := layout.FirstIntersecting(len(g.rows), func(r int) float64 { return g.rows[r].y + g.rows[r].h }, rect.MinY())
	for r := first; r < len(g.rows); r++ {
		if g.rows[r].y >= rect.MaxY() {
			break
		}
		for i := r * n; i < min(r*n+n, len(g.records)); i++ {
			if f := g.displayed(i); f.Intersects(rect) {
				out = append(out, layout.Element{Key: layout.CellKey(section, i), Frame: f, ZIndex: layout.ZCell})
			}
		}
	}
	if e, ok := g.FooterIn(rect, section); ok {
		out = append(out, e)
	}
	return out
}

// Frame implements layout.Strategy. Cells are reported with their
// displayed frame.
func (g *Grid) Frame(key layout.ItemKey) (geom.Rect, bool) {
	if !g.prepared {
		return geom.Rect{}, false
	}
	if key.Category == layout.CategorySupplementary {
		return g.SupplementaryFrame(key)
	}
	if key.Category != layout.CategoryCell || key.Item < 0 || key.Item >= len(g.records) {
		return geom.Rect{}, false
	}
	return g.displayed(key.Item), true
}

// InvalidationForWidthChange implements layout.Strategy.
func (g *Grid) InvalidationForWidthChange(from, to float64) any {
	return layout.WidthChange{From: from, To: to}
}

// ShouldInvalidateForPreferredSize implements layout.Strategy. Only the
// height of a measurement is used; widths are dictated by the columns.
func (g *Grid) ShouldInvalidateForPreferredSize(key layout.ItemKey, preferred, original geom.Size) bool {
	if !g.prepared {
		return false
	}
	if key.Category == layout.CategorySupplementary {
		return g.ShouldInvalidateSupplementary(key, preferred)
	}
	if !g.SelfSizing || key.Item < 0 || key.Item >= len(g.records) {
		return false
	}
	return g.records[key.Item].WantsHeight(preferred.Height)
}

// InvalidationForPreferredSize implements layout.Strategy.
func (g *Grid) InvalidationForPreferredSize(key layout.ItemKey, preferred, original geom.Size) any {
	if !g.prepared {
		return nil
	}
	if key.Category == layout.CategorySupplementary {
		return g.MeasureSupplementary(key, preferred)
	}
	if !g.SelfSizing || key.Item < 0 || key.Item >= len(g.records) {
		return nil
	}
	row := g.rowOf(key.Item)
	top, before := g.rowExtent(row)
	if !g.records[key.Item].Measure(preferred.Height) {
		return nil
	}
	_, after := g.rowExtent(row)
	return ItemChanged{
		Index: key.Item,
		Shift: layout.Shift{Below: top + before, Delta: after - before},
	}
}

// rowExtent returns the top and the natural height of a row from its
// records, so measurements not yet laid out are included.
func (g *Grid) rowExtent(row int) (top, height float64) {
	n := max(g.metrics.Columns, 1)
	start, end := row*n, min(row*n+n, len(g.records))
	if start >= end {
		return 0, 0
	}
	top = g.records[start].Frame.Y
	for i := start; i < end; i++ {
		height = max(height, g.records[i].Frame.Height)
	}
	return top, height
}

var _ layout.Strategy = (*Grid)(nil)
