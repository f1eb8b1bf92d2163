package layout

import (
	"sort"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/observability"
)

// ElementsIn returns every element whose frame intersects rect, in global
// coordinates: cells, headers and footers from the strategies plus the
// separators, gutters and pinned supplementaries the composite adds.
//
// Sections are visited from the first one reaching below rect.MinY and the
// walk stops at the first section starting at or below rect.MaxY.
func (c *Composite) ElementsIn(rect geom.Rect) []Element {
	c.ensure()
	c.ensureOrigins()
	if rect.IsEmpty() {
		return nil
	}

	n := len(c.sections)
	first := sort.Search(n, func(i int) bool { return c.origins[i+1] > rect.MinY() })

	var out []Element
	visited, pinned := 0, 0
	for i := first; i < n; i++ {
		origin := c.origins[i]
		if origin >= rect.MaxY() {
			break
		}
		visited++
		s := c.sections[i]
		opts := s.strategy.Options()

		for _, e := range s.strategy.ItemsIn(rect.Offset(0, -origin), i) {
			if (e.Key.IsHeader() && opts.PinHeader) || (e.Key.IsFooter() && opts.PinFooter) {
				continue
			}
			e.Key.Section = i
			e.Frame = e.Frame.Offset(0, origin)
			out = append(out, e)
			if e.Key.Category == CategoryCell {
				if sep, ok := c.separator(i, e.Key.Item, e.Frame, s.count, opts); ok && sep.Frame.Intersects(rect) {
					out = append(out, sep)
				}
			}
		}

		for _, g := range c.gutters(i, origin, opts) {
			if g.Frame.Intersects(rect) {
				out = append(out, g)
			}
		}

		for _, p := range c.pinnedIn(i) {
			if p.Frame.Intersects(rect) {
				out = append(out, p)
				pinned++
			}
		}
	}

	observability.Layout().OnQuery(observability.QueryEvent{Visited: visited, Elements: len(out), Pinned: pinned})
	return out
}

// Frame returns the global frame of any element, including decorations.
// Pinned headers and footers are reported at their pinned position.
func (c *Composite) Frame(key ItemKey) (geom.Rect, bool) {
	c.ensure()
	c.ensureOrigins()
	if key.Section < 0 || key.Section >= len(c.sections) {
		return geom.Rect{}, false
	}
	i := key.Section
	s := c.sections[i]
	origin := c.origins[i]
	opts := s.strategy.Options()

	switch key.Category {
	case CategoryCell:
		f, ok := s.strategy.Frame(key)
		if !ok {
			return geom.Rect{}, false
		}
		return f.Offset(0, origin), true

	case CategorySupplementary:
		if (key.IsHeader() && opts.PinHeader) || (key.IsFooter() && opts.PinFooter) {
			for _, p := range c.pinnedIn(i) {
				if p.Key.Kind == key.Kind {
					return p.Frame, true
				}
			}
			return geom.Rect{}, false
		}
		f, ok := s.strategy.Frame(key)
		if !ok {
			return geom.Rect{}, false
		}
		return f.Offset(0, origin), true

	case CategoryDecoration:
		switch key.Kind {
		case KindSeparator:
			cell, ok := s.strategy.Frame(CellKey(i, key.Item))
			if !ok {
				return geom.Rect{}, false
			}
			sep, ok := c.separator(i, key.Item, cell.Offset(0, origin), s.count, opts)
			return sep.Frame, ok
		case KindTopGutter, KindBottomGutter:
			for _, g := range c.gutters(i, origin, opts) {
				if g.Key.Kind == key.Kind {
					return g.Frame, true
				}
			}
		}
	}
	return geom.Rect{}, false
}

// NaturalFrame returns the global frame of a cell, header or footer
// ignoring pinning.
func (c *Composite) NaturalFrame(key ItemKey) (geom.Rect, bool) {
	c.ensure()
	c.ensureOrigins()
	if key.Section < 0 || key.Section >= len(c.sections) || key.Category == CategoryDecoration {
		return geom.Rect{}, false
	}
	f, ok := c.sections[key.Section].strategy.Frame(key)
	if !ok {
		return geom.Rect{}, false
	}
	return f.Offset(0, c.origins[key.Section]), true
}

// ===== Decorations =====

// separator returns the separator under a cell frame. It sits inside the
// bottom edge of the cell.
func (c *Composite) separator(section, item int, cell geom.Rect, count int, opts SectionOptions) (Element, bool) {
	switch opts.Separator {
	case SeparatorNone:
		return Element{}, false
	case SeparatorAllButLast:
		if item == count-1 {
			return Element{}, false
		}
	}
	if cell.IsEmpty() {
		return Element{}, false
	}
	h := min(c.separatorThickness, cell.Height)
	color := opts.SeparatorColor
	if color == "" {
		color = c.separatorColor
	}
	return Element{
		Key:    SeparatorKey(section, item),
		Frame:  geom.R(cell.X, cell.MaxY()-h, cell.Width, h),
		ZIndex: ZDecoration,
		Color:  color,
	}, true
}

// gutters returns the enabled, non-empty inset band decorations of a
// section in global coordinates.
func (c *Composite) gutters(section int, origin float64, opts SectionOptions) []Element {
	if !opts.ShowTopGutter && !opts.ShowBottomGutter {
		return nil
	}
	top, bottom := c.sections[section].strategy.InsetBands()
	var out []Element
	if opts.ShowTopGutter && !top.IsEmpty() {
		out = append(out, Element{
			Key:    GutterKey(section, KindTopGutter),
			Frame:  top.Offset(0, origin),
			ZIndex: ZDecoration,
			Color:  opts.GutterColor,
		})
	}
	if opts.ShowBottomGutter && !bottom.IsEmpty() {
		out = append(out, Element{
			Key:    GutterKey(section, KindBottomGutter),
			Frame:  bottom.Offset(0, origin),
			ZIndex: ZDecoration,
			Color:  opts.GutterColor,
		})
	}
	return out
}

// ===== Pinning =====

// pinnedIn returns the pinned header and footer of a section, clamped
// between the section bounds and the viewport of the last pass.
//
// A pinned header follows the viewport top but never leaves its section and
// never covers the footer. A pinned footer follows the viewport bottom up to
// its natural position and is displaced below the header when the two would
// overlap.
func (c *Composite) pinnedIn(section int) []Element {
	s := c.sections[section]
	opts := s.strategy.Options()
	if !opts.PinHeader && !opts.PinFooter {
		return nil
	}
	origin := c.origins[section]
	sectionMax := c.origins[section+1]
	view := c.bounds

	header, hasHeader := s.strategy.Frame(HeaderKey(section))
	footer, hasFooter := s.strategy.Frame(FooterKey(section))
	if hasHeader {
		header = header.Offset(0, origin)
	}
	if hasFooter {
		footer = footer.Offset(0, origin)
	}

	var out []Element
	headerBottom := origin
	if hasHeader {
		if opts.PinHeader {
			reserve := 0.0
			if hasFooter {
				reserve = footer.Height
			}
			y := geom.Clamp(view.MinY(), header.Y, sectionMax-header.Height-reserve)
			header = header.WithY(y)
			out = append(out, Element{Key: HeaderKey(section), Frame: header, ZIndex: c.pinnedZ, Pinned: true})
		}
		headerBottom = header.MaxY()
	}
	if hasFooter && opts.PinFooter {
		y := geom.Clamp(view.MaxY()-footer.Height, headerBottom, footer.Y)
		footer = footer.WithY(y)
		out = append(out, Element{Key: FooterKey(section), Frame: footer, ZIndex: c.pinnedZ, Pinned: true})
	}
	return out
}
