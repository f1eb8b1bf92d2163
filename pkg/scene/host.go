package scene

import (
	"slices"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/mosaic"
)

// Host is a layout.Host backed by a scene. Its mutation methods change the
// item structure and return the batch updates to hand to
// layout.Composite.PerformBatchUpdates. Strategies are created once per
// section and kept across mutations so their caches survive.
type Host struct {
	scene      *Scene
	strategies []layout.Strategy
	view       geom.Rect
}

// NewHost builds a host for s. The scene is copied.
func NewHost(s *Scene) (*Host, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	h := &Host{scene: s.Clone(), view: s.Viewport.Rect()}
	h.strategies = make([]layout.Strategy, len(h.scene.Sections))
	for i := range h.scene.Sections {
		st, err := h.scene.Sections[i].Strategy(h.scene.Viewport.Scale)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "section %d", i)
		}
		h.strategies[i] = st
	}
	return h, nil
}

// Options returns the composite options implied by the scene.
func (h *Host) Options() []layout.Option {
	var opts []layout.Option
	if h.scene.SeparatorColor != "" {
		opts = append(opts, layout.WithSeparatorColor(h.scene.SeparatorColor))
	}
	if h.scene.SeparatorThickness > 0 {
		opts = append(opts, layout.WithSeparatorThickness(h.scene.SeparatorThickness))
	}
	return opts
}

// Fresh returns a host with the same structure, bounds and measurements
// but new strategies, for comparing incremental geometry against a
// rebuild. Mosaics start from the current tile assignment.
func (h *Host) Fresh() (*Host, error) {
	out, err := NewHost(h.Scene())
	if err != nil {
		return nil, err
	}
	out.view = h.view
	for i, st := range h.strategies {
		if m, ok := st.(*mosaic.Mosaic); ok {
			out.strategies[i].(*mosaic.Mosaic).Order = m.SlotOrder()
		}
	}
	return out, nil
}

// Scene returns a copy of the current scene, including mutations and the
// current viewport.
func (h *Host) Scene() *Scene {
	s := h.scene.Clone()
	s.Viewport.Width = h.view.Width
	s.Viewport.Height = h.view.Height
	s.Viewport.Offset = h.view.Y
	return s
}

// Section returns the configuration of section s.
func (h *Host) Section(s int) (Section, bool) {
	if s < 0 || s >= len(h.scene.Sections) {
		return Section{}, false
	}
	return h.scene.Sections[s].clone(), true
}

// SectionIndex returns the index of the section with the given id.
func (h *Host) SectionIndex(id string) (int, bool) {
	for i, sec := range h.scene.Sections {
		if sec.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ===== layout.Host =====

// NumberOfSections implements layout.DataSource.
func (h *Host) NumberOfSections() int { return len(h.scene.Sections) }

// NumberOfItems implements layout.DataSource.
func (h *Host) NumberOfItems(s int) int {
	if s < 0 || s >= len(h.scene.Sections) {
		return 0
	}
	return h.scene.Sections[s].Items
}

// StrategyFor implements layout.DataSource.
func (h *Host) StrategyFor(s int) layout.Strategy {
	if s < 0 || s >= len(h.strategies) {
		return nil
	}
	return h.strategies[s]
}

// Bounds implements layout.Host.
func (h *Host) Bounds() geom.Rect { return h.view }

// ===== Viewport =====

// SetBounds moves or resizes the viewport.
func (h *Host) SetBounds(r geom.Rect) { h.view = r }

// ScrollTo sets the vertical scroll offset.
func (h *Host) ScrollTo(y float64) { h.view.Y = max(y, 0) }

// ScrollBy moves the scroll offset by dy.
func (h *Host) ScrollBy(dy float64) { h.ScrollTo(h.view.Y + dy) }

// Resize changes the viewport size. A non-positive height keeps the
// current one.
func (h *Host) Resize(width, height float64) {
	h.view.Width = width
	if height > 0 {
		h.view.Height = height
	}
}

// ===== Mutations =====

// InsertItems inserts n items at item in section s.
func (h *Host) InsertItems(s, item, n int) ([]layout.Update, error) {
	sec, err := h.section(s)
	if err != nil {
		return nil, err
	}
	if item < 0 || item > sec.Items || n <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot insert %d items at %d:%d (section has %d)", n, s, item, sec.Items)
	}
	updates := make([]layout.Update, n)
	for k := range n {
		updates[k] = layout.InsertAt(s, item+k)
	}
	sec.Items += n
	if item < len(sec.Heights) {
		sec.Heights = slices.Insert(sec.Heights, item, make([]float64, n)...)
	}
	return updates, nil
}

// DeleteItems removes n items starting at item in section s.
func (h *Host) DeleteItems(s, item, n int) ([]layout.Update, error) {
	sec, err := h.section(s)
	if err != nil {
		return nil, err
	}
	if item < 0 || n <= 0 || item+n > sec.Items {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot delete %d items at %d:%d (section has %d)", n, s, item, sec.Items)
	}
	updates := make([]layout.Update, n)
	for k := range n {
		updates[k] = layout.DeleteAt(s, item+k)
	}
	sec.Items -= n
	if item < len(sec.Heights) {
		sec.Heights = slices.Delete(sec.Heights, item, min(item+n, len(sec.Heights)))
	}
	return updates, nil
}

// MoveItem moves one item. The destination is its index after the move.
func (h *Host) MoveItem(from, to layout.IndexPath) ([]layout.Update, error) {
	src, err := h.section(from.Section)
	if err != nil {
		return nil, err
	}
	dst, err := h.section(to.Section)
	if err != nil {
		return nil, err
	}
	if from.Item < 0 || from.Item >= src.Items {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no item %d:%d to move", from.Section, from.Item)
	}
	limit := dst.Items
	if from.Section == to.Section {
		limit--
	}
	if to.Item < 0 || to.Item > limit {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot move to %d:%d", to.Section, to.Item)
	}

	height := 0.0
	if from.Item < len(src.Heights) {
		height = src.Heights[from.Item]
		src.Heights = slices.Delete(src.Heights, from.Item, from.Item+1)
	}
	src.Items--
	dst.Items++
	if height > 0 || to.Item < len(dst.Heights) {
		for len(dst.Heights) < to.Item {
			dst.Heights = append(dst.Heights, 0)
		}
		dst.Heights = slices.Insert(dst.Heights, to.Item, height)
	}
	return []layout.Update{layout.Move(from, to)}, nil
}

// ReloadItem marks an item as reloaded. Its measurement is dropped.
func (h *Host) ReloadItem(s, item int) ([]layout.Update, error) {
	sec, err := h.section(s)
	if err != nil {
		return nil, err
	}
	if item < 0 || item >= sec.Items {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no item %d:%d to reload", s, item)
	}
	if item < len(sec.Heights) {
		sec.Heights[item] = 0
	}
	return []layout.Update{layout.ReloadAt(s, item)}, nil
}

// InsertSection inserts a section at index at.
func (h *Host) InsertSection(at int, sec Section) ([]layout.Update, error) {
	if at < 0 || at > len(h.scene.Sections) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot insert section at %d (have %d)", at, len(h.scene.Sections))
	}
	if err := sec.Validate(); err != nil {
		return nil, err
	}
	if _, dup := h.SectionIndex(sec.ID); dup {
		return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate section id %q", sec.ID)
	}
	st, err := sec.Strategy(h.scene.Viewport.Scale)
	if err != nil {
		return nil, err
	}
	h.scene.Sections = slices.Insert(h.scene.Sections, at, sec.clone())
	h.strategies = slices.Insert(h.strategies, at, st)
	return []layout.Update{layout.InsertSectionAt(at)}, nil
}

// DeleteSection removes section s.
func (h *Host) DeleteSection(s int) ([]layout.Update, error) {
	if _, err := h.section(s); err != nil {
		return nil, err
	}
	h.scene.Sections = slices.Delete(h.scene.Sections, s, s+1)
	h.strategies = slices.Delete(h.strategies, s, s+1)
	return []layout.Update{layout.DeleteSectionAt(s)}, nil
}

// MoveSection moves section from to index to.
func (h *Host) MoveSection(from, to int) ([]layout.Update, error) {
	if _, err := h.section(from); err != nil {
		return nil, err
	}
	if to < 0 || to >= len(h.scene.Sections) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot move section to %d", to)
	}
	sec, st := h.scene.Sections[from], h.strategies[from]
	h.scene.Sections = slices.Insert(slices.Delete(h.scene.Sections, from, from+1), to, sec)
	h.strategies = slices.Insert(slices.Delete(h.strategies, from, from+1), to, st)
	return []layout.Update{layout.MoveSectionTo(from, to)}, nil
}

// ===== Measurements =====

// SetHeight records the measured height of an item. Zero clears it.
func (h *Host) SetHeight(s, item int, height float64) error {
	sec, err := h.section(s)
	if err != nil {
		return err
	}
	if item < 0 || item >= sec.Items || height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot measure %d:%d as %g", s, item, height)
	}
	for len(sec.Heights) <= item {
		sec.Heights = append(sec.Heights, 0)
	}
	sec.Heights[item] = height
	return nil
}

// SetSupplementaryHeight records the measured height of a header or footer.
func (h *Host) SetSupplementaryHeight(s int, kind layout.Kind, height float64) error {
	sec, err := h.section(s)
	if err != nil {
		return err
	}
	sup := sec.Header
	if kind == layout.KindFooter {
		sup = sec.Footer
	}
	if sup == nil || height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "section %d has no %s to measure", s, kind)
	}
	sup.Measured = height
	return nil
}

// Measurement is one recorded element height.
type Measurement struct {
	Key    layout.ItemKey
	Height float64
}

// Measurements lists every recorded height in section and item order.
func (h *Host) Measurements() []Measurement {
	var out []Measurement
	for s, sec := range h.scene.Sections {
		if sec.Header != nil && sec.Header.Measured > 0 {
			out = append(out, Measurement{Key: layout.HeaderKey(s), Height: sec.Header.Measured})
		}
		for i, v := range sec.Heights {
			if v > 0 && i < sec.Items {
				out = append(out, Measurement{Key: layout.CellKey(s, i), Height: v})
			}
		}
		if sec.Footer != nil && sec.Footer.Measured > 0 {
			out = append(out, Measurement{Key: layout.FooterKey(s), Height: sec.Footer.Measured})
		}
	}
	return out
}

func (h *Host) section(s int) (*Section, error) {
	if s < 0 || s >= len(h.scene.Sections) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no section %d (have %d)", s, len(h.scene.Sections))
	}
	return &h.scene.Sections[s], nil
}
