// Package layouttest provides a scriptable host and geometry checks for
// testing section strategies and the composite.
package layouttest

import (
	"fmt"
	"sort"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// Section is one section of a Host.
type Section struct {
	Strategy layout.Strategy
	Count    int
}

// Host is an in-memory layout.Host. Tests mutate its fields directly and
// then report the change to the composite.
type Host struct {
	Sections []Section
	View     geom.Rect
}

// NumberOfSections implements layout.DataSource.
func (h *Host) NumberOfSections() int { return len(h.Sections) }

// NumberOfItems implements layout.DataSource.
func (h *Host) NumberOfItems(s int) int {
	if s < 0 || s >= len(h.Sections) {
		return 0
	}
	return h.Sections[s].Count
}

// StrategyFor implements layout.DataSource.
func (h *Host) StrategyFor(s int) layout.Strategy {
	if s < 0 || s >= len(h.Sections) {
		return nil
	}
	return h.Sections[s].Strategy
}

// Bounds implements layout.Host.
func (h *Host) Bounds() geom.Rect { return h.View }

// Build fully prepares a strategy on its own, as the composite does for a
// new section.
func Build(st layout.Strategy, count int, width float64) {
	st.Prepare(layout.PrepareContext{
		ItemCount: count,
		Width:     width,
		Viewport:  geom.R(0, 0, width, 800),
		Reasons:   layout.ReasonEverything,
	})
}

// AllKeys enumerates every element key the composite can produce.
func AllKeys(c *layout.Composite) []layout.ItemKey {
	var keys []layout.ItemKey
	for s := 0; s < c.NumberOfSections(); s++ {
		keys = append(keys,
			layout.HeaderKey(s),
			layout.FooterKey(s),
			layout.GutterKey(s, layout.KindTopGutter),
			layout.GutterKey(s, layout.KindBottomGutter))
		for i := 0; i < c.NumberOfItems(s); i++ {
			keys = append(keys, layout.CellKey(s, i), layout.SeparatorKey(s, i))
		}
	}
	return keys
}

// BruteForce returns the elements intersecting rect by looking up the frame
// of every key.
func BruteForce(c *layout.Composite, rect geom.Rect) map[layout.ItemKey]geom.Rect {
	out := make(map[layout.ItemKey]geom.Rect)
	for _, k := range AllKeys(c) {
		if f, ok := c.Frame(k); ok && f.Intersects(rect) {
			out[k] = f
		}
	}
	return out
}

// Index turns a query result into a key to frame map. It fails on
// duplicate keys.
func Index(elems []layout.Element) (map[layout.ItemKey]geom.Rect, error) {
	out := make(map[layout.ItemKey]geom.Rect, len(elems))
	for _, e := range elems {
		if _, dup := out[e.Key]; dup {
			return nil, fmt.Errorf("duplicate element %s", e.Key)
		}
		out[e.Key] = e.Frame
	}
	return out, nil
}

// Diff describes the differences between two key to frame maps, or returns
// an empty string when they match within geom.Epsilon.
func Diff(got, want map[layout.ItemKey]geom.Rect) string {
	var lines []string
	for k, w := range want {
		g, ok := got[k]
		switch {
		case !ok:
			lines = append(lines, fmt.Sprintf("missing %s %v", k, w))
		case !g.ApproxEqual(w):
			lines = append(lines, fmt.Sprintf("%s = %v, want %v", k, g, w))
		}
	}
	for k, g := range got {
		if _, ok := want[k]; !ok {
			lines = append(lines, fmt.Sprintf("unexpected %s %v", k, g))
		}
	}
	sort.Strings(lines)
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

// CheckMonotonic verifies that the cells of one section are y-ordered
// without overlap between consecutive distinct rows, and that no cell
// extends past the section height.
func CheckMonotonic(st layout.Strategy, count int) error {
	prevMaxY := 0.0
	prevY := -1.0
	for i := 0; i < count; i++ {
		f, ok := st.Frame(layout.CellKey(0, i))
		if !ok {
			return fmt.Errorf("item %d has no frame", i)
		}
		if f.Y < prevY-geom.Epsilon {
			return fmt.Errorf("item %d at y=%v above item %d at y=%v", i, f.Y, i-1, prevY)
		}
		if f.Y > prevY+geom.Epsilon && f.Y < prevMaxY-geom.Epsilon {
			return fmt.Errorf("item %d at y=%v overlaps previous row ending at %v", i, f.Y, prevMaxY)
		}
		if f.MaxY() > st.Height()+geom.Epsilon {
			return fmt.Errorf("item %d ends at %v below section height %v", i, f.MaxY(), st.Height())
		}
		prevY = f.Y
		prevMaxY = max(prevMaxY, f.MaxY())
	}
	return nil
}

// Frames returns the cell frames of a strategy.
func Frames(st layout.Strategy, count int) []geom.Rect {
	out := make([]geom.Rect, 0, count)
	for i := 0; i < count; i++ {
		f, _ := st.Frame(layout.CellKey(0, i))
		out = append(out, f)
	}
	return out
}

// SameFrames reports the first index where two frame lists differ.
func SameFrames(got, want []geom.Rect) error {
	if len(got) != len(want) {
		return fmt.Errorf("got %d frames, want %d", len(got), len(want))
	}
	for i := range got {
		if !got[i].ApproxEqual(want[i]) {
			return fmt.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}
	return nil
}
