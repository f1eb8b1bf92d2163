// Package mosaic implements a section of square tiles where one tile is
// shown at twice the size of the others.
//
// The big tile rotates through the items on a timer. Each rotation is a
// [Swap] that exchanges the frames of two items without touching the rest
// of the section. The timer runs only while the strategy is attached to a
// composite.
package mosaic

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// DefaultInterval is the rotation period when Interval is zero.
const DefaultInterval = 3 * time.Second

// Aspect ratio thresholds (viewport width / height) between arrangements.
const (
	WideAspect   = 1.25
	NarrowAspect = 0.8
)

// Arrangement decides where small tiles go relative to the big one.
type Arrangement uint8

const (
	// ArrangeAuto picks an arrangement from the viewport aspect ratio.
	ArrangeAuto Arrangement = iota
	// ArrangeRight puts small tiles beside the big tile, four columns wide.
	ArrangeRight
	// ArrangeBottom stretches the big tile across two columns and stacks
	// small tiles below it.
	ArrangeBottom
	// ArrangeBoth fills a three column grid beside and below the big tile.
	ArrangeBoth
)

func (a Arrangement) String() string {
	switch a {
	case ArrangeAuto:
		return "auto"
	case ArrangeRight:
		return "right"
	case ArrangeBottom:
		return "bottom"
	case ArrangeBoth:
		return "both"
	default:
		return fmt.Sprintf("arrangement(%d)", uint8(a))
	}
}

// ParseArrangement parses the String form of an Arrangement.
func ParseArrangement(s string) (Arrangement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ArrangeAuto, nil
	case "right":
		return ArrangeRight, nil
	case "bottom":
		return ArrangeBottom, nil
	case "both":
		return ArrangeBoth, nil
	}
	return ArrangeAuto, fmt.Errorf("unknown arrangement %q", s)
}

// Columns is the number of unit columns the arrangement uses.
func (a Arrangement) Columns() int {
	switch a {
	case ArrangeRight:
		return 4
	case ArrangeBottom:
		return 2
	default:
		return 3
	}
}

// Classify picks the arrangement for a viewport.
func Classify(viewport geom.Rect) Arrangement {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return ArrangeBoth
	}
	switch aspect := viewport.Width / viewport.Height; {
	case aspect > WideAspect:
		return ArrangeRight
	case aspect < NarrowAspect:
		return ArrangeBottom
	default:
		return ArrangeBoth
	}
}

// Swap is the payload of one rotation: item A hands the big tile to item B.
type Swap struct {
	A, B int
}

// Mosaic lays items out as one big tile and unit-sized small tiles.
type Mosaic struct {
	layout.Base

	// Spacing is the gap between tiles in both directions.
	Spacing float64

	// Interval is the rotation period. Zero means DefaultInterval and a
	// negative value disables rotation.
	Interval time.Duration

	// Arrangement forces an arrangement. ArrangeAuto follows the viewport.
	Arrangement Arrangement

	// Scale is the display scale used to snap tile sizes; zero means 2.
	Scale float64

	// Order seeds the first build with a slot assignment as returned by
	// SlotOrder: Order[0] is the big tile. It is ignored unless it is a
	// permutation of the item count, and dropped after the first build.
	Order []int

	// slots maps an item to its slot and items maps a slot to its item. Slot 0 is the big
	// tile; the other slots are small tiles in row-major order.
	slots     []int
	items     []int
	cells     []cell
	frames    []geom.Rect
	arranged  Arrangement
	unit      float64
	width     float64
	height    float64
	big       int
	target    int
	prepared  bool
	attached  layout.Attachment
	cancel    func()
	rotations int
}

type cell struct {
	col, row, span int
}

// New returns a mosaic with the given spacing and rotation interval.
func New(spacing float64, interval time.Duration) *Mosaic {
	return &Mosaic{Spacing: spacing, Interval: interval}
}

func (m *Mosaic) scale() float64 {
	if m.Scale > 0 {
		return m.Scale
	}
	return 2
}

func (m *Mosaic) interval() time.Duration {
	if m.Interval == 0 {
		return DefaultInterval
	}
	return m.Interval
}

// =============================================================================
// Lifecycle
// =============================================================================

// Attach starts the rotation timer on the attachment's scheduler.
func (m *Mosaic) Attach(a layout.Attachment) {
	m.Detach()
	m.attached = a
	if a.Scheduler == nil || a.Invalidate == nil || m.interval() < 0 {
		return
	}
	m.cancel = a.Scheduler.Every(m.interval(), m.tick)
}

// Detach stops the rotation timer.
func (m *Mosaic) Detach() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.attached = layout.Attachment{}
}

// Attached reports whether the rotation timer is running.
func (m *Mosaic) Attached() bool { return m.cancel != nil }

// Rotations returns the number of swaps applied so far.
func (m *Mosaic) Rotations() int { return m.rotations }

func (m *Mosaic) tick() {
	n := len(m.slots)
	if !m.prepared || n < 2 || m.attached.Invalidate == nil {
		return
	}
	a := m.target
	b := (a + 1) % n
	m.target = b
	m.attached.Invalidate(Swap{A: a, B: b})
}

// Rotate requests the next swap immediately, as the timer would.
func (m *Mosaic) Rotate() { m.tick() }

// =============================================================================
// Layout
// =============================================================================

// Prepare implements layout.Strategy.
func (m *Mosaic) Prepare(pc layout.PrepareContext) {
	count := max(pc.ItemCount, 0)
	if pc.Width <= 0 {
		m.clear()
		return
	}

	full := !m.prepared || pc.Full() || len(pc.Updates) > 0 ||
		count != len(m.slots) || !geom.Approx(pc.Width, m.width)
	for _, p := range pc.Payloads {
		switch p.(type) {
		case layout.Reset, layout.WidthChange:
			full = true
		}
	}
	if full {
		m.build(pc.Width, count, pc.Viewport)
		if pc.Logger != nil {
			pc.Logger.Debug("mosaic rebuilt", "section", pc.Section, "items", count,
				"arrangement", m.arranged, "big", m.big)
		}
	}

	for _, p := range pc.Payloads {
		switch p := p.(type) {
		case Swap:
			if m.swap(p.A, p.B) && pc.Logger != nil {
				pc.Logger.Debug("mosaic swap", "section", pc.Section, "from", p.A, "to", p.B)
			}
		case layout.SupplementaryChanged:
			m.place()
		}
	}
	m.target = m.big
}

func (m *Mosaic) build(width float64, count int, viewport geom.Rect) {
	keep := m.prepared && geom.Approx(width, m.width)
	m.width = width
	m.arranged = m.Arrangement
	if m.arranged == ArrangeAuto {
		m.arranged = Classify(viewport)
	}
	if count > 0 {
		m.big = min(max(m.big, 0), count-1)
	} else {
		m.big = 0
	}

	m.slots = make([]int, count)
	m.items = make([]int, count)
	if !m.prepared && isPermutation(m.Order, count) {
		for slot, item := range m.Order {
			m.slots[item] = slot
			m.items[slot] = item
		}
		m.big = m.Order[0]
		m.finishBuild(width, count, keep)
		return
	}
	next := 1
	for i := 0; i < count; i++ {
		if i == m.big {
			m.slots[i] = 0
			m.items[0] = i
			continue
		}
		m.slots[i] = next
		m.items[next] = i
		next++
	}
	m.finishBuild(width, count, keep)
}

func (m *Mosaic) finishBuild(width float64, count int, keep bool) {
	m.Order = nil
	m.cells = cellsFor(m.arranged.Columns(), count)
	m.ResetSupplementaries(width, keep)
	m.prepared = true
	m.place()
}

func isPermutation(order []int, n int) bool {
	if n == 0 || len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// cellsFor returns the grid cell of each slot. The big tile sits at the top
// left and spans two columns and two rows; small tiles fill the free cells
// row by row.
func cellsFor(cols, n int) []cell {
	if n == 0 {
		return nil
	}
	out := make([]cell, 0, n)
	out = append(out, cell{span: 2})
	for row := 0; len(out) < n; row++ {
		for col := 0; col < cols && len(out) < n; col++ {
			if row < 2 && col < 2 {
				continue
			}
			out = append(out, cell{col: col, row: row, span: 1})
		}
	}
	return out
}

// place computes every frame from the slot assignment.
func (m *Mosaic) place() {
	cols := m.arranged.Columns()
	cw := max(m.width-m.Insets.Horizontal(), 0)
	m.unit = max(geom.FloorToPixel((cw-float64(cols-1)*m.Spacing)/float64(cols), m.scale()), 0)

	top := m.ContentTop()
	bottom := top
	m.frames = make([]geom.Rect, len(m.slots))
	for i, s := range m.slots {
		f := m.slotFrame(s, top)
		m.frames[i] = f
		bottom = max(bottom, f.MaxY())
	}
	m.height = m.Finish(bottom, m.width)
}

func (m *Mosaic) slotFrame(slot int, top float64) geom.Rect {
	c := m.cells[slot]
	step := m.unit + m.Spacing
	size := float64(c.span)*m.unit + float64(c.span-1)*m.Spacing
	return geom.R(m.Insets.Left+float64(c.col)*step, top+float64(c.row)*step, size, size)
}

// swap moves the big tile from a to b. It is a no-op unless a currently
// holds the big tile.
func (m *Mosaic) swap(a, b int) bool {
	n := len(m.slots)
	if a < 0 || b < 0 || a >= n || b >= n || a == b || m.slots[a] != 0 {
		return false
	}
	sa, sb := m.slots[a], m.slots[b]
	m.slots[a], m.slots[b] = sb, sa
	m.items[sa], m.items[sb] = b, a
	m.frames[a], m.frames[b] = m.frames[b], m.frames[a]
	m.big = b
	m.rotations++
	return true
}

func (m *Mosaic) clear() {
	m.slots = nil
	m.items = nil
	m.cells = nil
	m.frames = nil
	m.width = 0
	m.height = 0
	m.prepared = false
	m.ClearSupplementaries()
}

// =============================================================================
// Queries
// =============================================================================

// Height implements layout.Strategy.
func (m *Mosaic) Height() float64 { return m.height }

// SlotOrder returns the item shown in each slot. Slot 0 is the big tile.
func (m *Mosaic) SlotOrder() []int { return append([]int(nil), m.items...) }

// Big returns the item currently shown as the big tile.
func (m *Mosaic) Big() int { return m.big }

// Arranged returns the arrangement used by the last build.
func (m *Mosaic) Arranged() Arrangement { return m.arranged }

// Unit returns the side length of a small tile.
func (m *Mosaic) Unit() float64 { return m.unit }

// ItemsIn implements layout.Strategy. Small tiles are visited in slot
// order, which is row-major, so their Y origins never decrease.
func (m *Mosaic) ItemsIn(rect geom.Rect, section int) []layout.Element {
	if !m.prepared || rect.IsEmpty() {
		return nil
	}
	var out []layout.Element
	if e, ok := m.HeaderIn(rect, section); ok {
		out = append(out, e)
	}
	n := len(m.items)
	if n > 0 {
		if f := m.frames[m.items[0]]; f.Intersects(rect) {
			out = append(out, layout.Element{Key: layout.CellKey(section, m.items[0]), Frame: f, ZIndex: layout.ZCell})
		}
		first := 1 + layout.FirstIntersecting(n-1, func(s int) float64 {
			return m.frames[m.items[s+1]].MaxY()
		}, rect.MinY())
		for s := first; s < n; s++ {
			item := m.items[s]
			f := m.frames[item]
			if f.MinY() >= rect.MaxY() {
				break
			}
			if f.Intersects(rect) {
				out = append(out, layout.Element{Key: layout.CellKey(section, item), Frame: f, ZIndex: layout.ZCell})
			}
		}
	}
	if e, ok := m.FooterIn(rect, section); ok {
		out = append(out, e)
	}
	return out
}

// Frame implements layout.Strategy.
func (m *Mosaic) Frame(key layout.ItemKey) (geom.Rect, bool) {
	if !m.prepared {
		return geom.Rect{}, false
	}
	if key.Category == layout.CategorySupplementary {
		return m.SupplementaryFrame(key)
	}
	if key.Category != layout.CategoryCell || key.Item < 0 || key.Item >= len(m.frames) {
		return geom.Rect{}, false
	}
	return m.frames[key.Item], true
}

// InvalidationForWidthChange implements layout.Strategy. Tile sizes follow
// the width, so the mosaic always rebuilds.
func (m *Mosaic) InvalidationForWidthChange(from, to float64) any {
	return layout.Reset{}
}

// InvalidationForBoundsChange implements layout.BoundsObserver. An
// automatic arrangement rebuilds when the viewport crosses an aspect ratio
// threshold.
func (m *Mosaic) InvalidationForBoundsChange(oldViewport, newViewport geom.Rect) (any, bool) {
	if m.Arrangement != ArrangeAuto || !m.prepared {
		return nil, false
	}
	if Classify(newViewport) == m.arranged {
		return nil, false
	}
	return layout.Reset{}, true
}

// ShouldInvalidateForPreferredSize implements layout.Strategy. Tiles are
// sized by the mosaic; only headers and footers take measurements.
func (m *Mosaic) ShouldInvalidateForPreferredSize(key layout.ItemKey, preferred, original geom.Size) bool {
	if !m.prepared || key.Category != layout.CategorySupplementary {
		return false
	}
	return m.ShouldInvalidateSupplementary(key, preferred)
}

// InvalidationForPreferredSize implements layout.Strategy.
func (m *Mosaic) InvalidationForPreferredSize(key layout.ItemKey, preferred, original geom.Size) any {
	if !m.prepared || key.Category != layout.CategorySupplementary {
		return nil
	}
	return m.MeasureSupplementary(key, preferred)
}

var (
	_ layout.Strategy       = (*Mosaic)(nil)
	_ layout.Attacher       = (*Mosaic)(nil)
	_ layout.BoundsObserver = (*Mosaic)(nil)
)
