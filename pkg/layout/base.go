package layout

import (
	"github.com/matzehuels/sectionflow/pkg/geom"
)

// Base carries the configuration and bookkeeping shared by section
// strategies: insets, header and footer, decorations and pinning. Strategies
// embed it and call its helpers from their own layout code.
type Base struct {
	Insets     geom.Insets
	Header     Supplementary
	Footer     Supplementary
	Decoration SectionOptions
	Identifier string

	header     ItemRecord
	footer     ItemRecord
	topBand    geom.Rect
	bottomBand geom.Rect
}

// Options implements Strategy.
func (b *Base) Options() SectionOptions { return b.Decoration }

// ReuseIdentifier implements Identifiable.
func (b *Base) ReuseIdentifier() string { return b.Identifier }

// InsetBands implements Strategy.
func (b *Base) InsetBands() (top, bottom geom.Rect) { return b.topBand, b.bottomBand }

// ResetSupplementaries lays the header out at the top of a section of the
// given width and clears footer and bands. Measured heights are dropped
// unless keep is set and the width is unchanged.
func (b *Base) ResetSupplementaries(width float64, keep bool) {
	b.header = resetSupplementary(b.header, b.Header, width, keep)
	b.footer = resetSupplementary(b.footer, b.Footer, width, keep)
	b.header.Frame.Y = 0
}

func resetSupplementary(rec ItemRecord, cfg Supplementary, width float64, keep bool) ItemRecord {
	if !cfg.Present() {
		return ItemRecord{}
	}
	h := cfg.Height
	state := cfg.state()
	if keep && rec.State == HeightComputed && cfg.Mode == SupplementaryEstimated {
		h, state = rec.Frame.Height, HeightComputed
	}
	return ItemRecord{Frame: geom.R(0, rec.Frame.Y, width, h), State: state}
}

// HeaderHeight returns the laid out header height, zero when absent.
func (b *Base) HeaderHeight() float64 {
	if !b.Header.Present() {
		return 0
	}
	return b.header.Frame.Height
}

// ContentTop is where a section's first item starts.
func (b *Base) ContentTop() float64 { return b.HeaderHeight() + b.Insets.Top }

// Finish places the inset bands and the footer below contentBottom (the max Y
// of the last item, or ContentTop when there are none) and returns the total
// section height.
func (b *Base) Finish(contentBottom, width float64) float64 {
	headerH := b.HeaderHeight()
	b.topBand = geom.R(0, headerH, width, b.Insets.Top)
	b.bottomBand = geom.R(0, contentBottom, width, b.Insets.Bottom)
	y := contentBottom + b.Insets.Bottom
	if b.Footer.Present() {
		b.footer.Frame.X = 0
		b.footer.Frame.Width = width
		b.footer.Frame.Y = y
		y += b.footer.Frame.Height
	}
	return y
}

// ClearSupplementaries puts the base in the degenerate empty state.
func (b *Base) ClearSupplementaries() {
	b.header = ItemRecord{}
	b.footer = ItemRecord{}
	b.topBand = geom.Rect{}
	b.bottomBand = geom.Rect{}
}

// SupplementaryRecord returns the record addressed by key.
func (b *Base) SupplementaryRecord(key ItemKey) (*ItemRecord, bool) {
	switch {
	case key.IsHeader() && b.Header.Present():
		return &b.header, true
	case key.IsFooter() && b.Footer.Present():
		return &b.footer, true
	}
	return nil, false
}

// SupplementaryFrame returns the frame of a header or footer.
func (b *Base) SupplementaryFrame(key ItemKey) (geom.Rect, bool) {
	rec, ok := b.SupplementaryRecord(key)
	if !ok {
		return geom.Rect{}, false
	}
	return rec.Frame, true
}

// HeaderIn returns the header element if it intersects rect.
func (b *Base) HeaderIn(rect geom.Rect, section int) (Element, bool) {
	if !b.Header.Present() || !b.header.Frame.Intersects(rect) {
		return Element{}, false
	}
	return Element{Key: HeaderKey(section), Frame: b.header.Frame, ZIndex: ZSupplementary}, true
}

// FooterIn returns the footer element if it intersects rect.
func (b *Base) FooterIn(rect geom.Rect, section int) (Element, bool) {
	if !b.Footer.Present() || !b.footer.Frame.Intersects(rect) {
		return Element{}, false
	}
	return Element{Key: FooterKey(section), Frame: b.footer.Frame, ZIndex: ZSupplementary}, true
}

// ShouldInvalidateSupplementary handles preferred-size checks for headers
// and footers.
func (b *Base) ShouldInvalidateSupplementary(key ItemKey, preferred geom.Size) bool {
	rec, ok := b.SupplementaryRecord(key)
	if !ok {
		return false
	}
	return rec.WantsHeight(preferred.Height)
}

// MeasureSupplementary stores a measured header or footer height and
// returns the payload for it, or nil when nothing moved.
func (b *Base) MeasureSupplementary(key ItemKey, preferred geom.Size) any {
	rec, ok := b.SupplementaryRecord(key)
	if !ok {
		return nil
	}
	before := rec.Frame
	if !rec.Measure(preferred.Height) {
		return nil
	}
	return SupplementaryChanged{
		Kind:  key.Kind,
		Shift: Shift{Below: before.MaxY(), Delta: rec.Frame.Height - before.Height},
	}
}
