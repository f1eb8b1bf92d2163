package scene

import (
	"strings"
	"testing"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/mosaic"
)

func newInbox(t *testing.T) (*Host, *layout.Composite) {
	t.Helper()
	h, err := NewHost(mustParse(t, inboxTOML, FormatTOML))
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	c := layout.New(h, h.Options()...)
	t.Cleanup(c.Close)
	return h, c
}

func TestHostInitialLayout(t *testing.T) {
	h, c := newInbox(t)
	if err := Sync(c, h); err != nil {
		t.Fatal(err)
	}
	// 20 + 3*44, 50 + 10 + 50, 210
	if got := c.ContentSize().Height; got != 472 {
		t.Errorf("content height before feedback = %v, want 472", got)
	}

	fb, err := Settle(c, h)
	if err != nil {
		t.Fatal(err)
	}
	if fb.Applied != 2 || fb.Adjustment != (geom.Point{}) {
		t.Errorf("feedback = %+v, want 2 applied and no adjustment", fb)
	}
	if got := c.ContentSize().Height; got != 524 {
		t.Errorf("content height = %v, want 524", got)
	}
	if f, _ := c.SectionFrame(1); f.Y != 204 {
		t.Errorf("grid section starts at %v, want 204", f.Y)
	}
	if f, _ := c.Frame(layout.CellKey(0, 2)); !f.ApproxEqual(geom.R(0, 124, 320, 80)) {
		t.Errorf("third row = %v", f)
	}

	again, err := Settle(c, h)
	if err != nil || again.Applied != 0 {
		t.Errorf("second Settle = %+v, %v; want nothing applied", again, err)
	}
}

func TestHostOptionsCarrySeparatorColor(t *testing.T) {
	h, c := newInbox(t)
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range c.ElementsIn(geom.R(0, 0, 320, 200)) {
		if e.Key.Kind == layout.KindSeparator {
			found = true
			if e.Color != "#cccccc" {
				t.Errorf("separator color = %q", e.Color)
			}
		}
	}
	if !found {
		t.Error("no separators in the rows section")
	}
}

// mutate applies one host mutation to the composite and checks the result
// against a host rebuilt from scratch.
func mutate(t *testing.T, h *Host, c *layout.Composite, name string, fn func() ([]layout.Update, error)) {
	t.Helper()
	updates, err := fn()
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if err := c.PerformBatchUpdates(updates); err != nil {
		t.Fatalf("%s: PerformBatchUpdates: %v", name, err)
	}
	if _, err := Settle(c, h); err != nil {
		t.Fatalf("%s: Settle: %v", name, err)
	}
	got := Capture(c, h, CaptureOptions{})

	fresh, err := h.Fresh()
	if err != nil {
		t.Fatalf("%s: Fresh: %v", name, err)
	}
	fc := layout.New(fresh, fresh.Options()...)
	defer fc.Close()
	if _, err := Settle(fc, fresh); err != nil {
		t.Fatalf("%s: fresh Settle: %v", name, err)
	}
	want := Capture(fc, fresh, CaptureOptions{})
	if diff := Diff(got, want); len(diff) > 0 {
		t.Errorf("%s: incremental layout differs from rebuild:\n%s", name, strings.Join(diff, "\n"))
	}
}

func TestHostMutationsMatchRebuild(t *testing.T) {
	h, c := newInbox(t)
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}

	mutate(t, h, c, "insert rows", func() ([]layout.Update, error) { return h.InsertItems(0, 1, 2) })
	if got := h.NumberOfItems(0); got != 5 {
		t.Fatalf("rows section has %d items, want 5", got)
	}
	mutate(t, h, c, "measure", func() ([]layout.Update, error) { return nil, h.SetHeight(0, 1, 30) })
	mutate(t, h, c, "move within", func() ([]layout.Update, error) {
		return h.MoveItem(layout.IndexPath{Section: 0, Item: 0}, layout.IndexPath{Section: 0, Item: 3})
	})
	mutate(t, h, c, "move across", func() ([]layout.Update, error) {
		return h.MoveItem(layout.IndexPath{Section: 1, Item: 0}, layout.IndexPath{Section: 0, Item: 0})
	})
	mutate(t, h, c, "delete", func() ([]layout.Update, error) { return h.DeleteItems(0, 2, 2) })
	mutate(t, h, c, "reload", func() ([]layout.Update, error) { return h.ReloadItem(0, 0) })
	mutate(t, h, c, "insert section", func() ([]layout.Update, error) {
		return h.InsertSection(1, Section{ID: "more", Type: TypeRows, Items: 2, RowHeight: 30})
	})
	mutate(t, h, c, "move section", func() ([]layout.Update, error) { return h.MoveSection(3, 0) })
	mutate(t, h, c, "delete section", func() ([]layout.Update, error) { return h.DeleteSection(2) })

	if got := h.NumberOfSections(); got != 3 {
		t.Errorf("NumberOfSections() = %d, want 3", got)
	}
	if i, ok := h.SectionIndex("featured"); !ok || i != 0 {
		t.Errorf("featured at %d, %v; want 0", i, ok)
	}
}

func TestHeightsFollowItems(t *testing.T) {
	h, _ := newInbox(t)
	if _, err := h.InsertItems(0, 0, 1); err != nil {
		t.Fatal(err)
	}
	sec, _ := h.Section(0)
	if want := []float64{0, 60, 0, 80}; !equalFloats(sec.Heights, want) {
		t.Errorf("heights after insert = %v, want %v", sec.Heights, want)
	}
	if _, err := h.MoveItem(layout.IndexPath{Section: 0, Item: 3}, layout.IndexPath{Section: 1, Item: 4}); err != nil {
		t.Fatal(err)
	}
	src, _ := h.Section(0)
	dst, _ := h.Section(1)
	if !equalFloats(src.Heights, []float64{0, 60, 0}) || !equalFloats(dst.Heights, []float64{0, 0, 0, 0, 80}) {
		t.Errorf("heights after move = %v / %v", src.Heights, dst.Heights)
	}
	if _, err := h.DeleteItems(0, 1, 2); err != nil {
		t.Fatal(err)
	}
	src, _ = h.Section(0)
	if !equalFloats(src.Heights, []float64{0}) || src.Items != 1 {
		t.Errorf("after delete: items %d heights %v", src.Items, src.Heights)
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHostRejectsBadMutations(t *testing.T) {
	h, _ := newInbox(t)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"insert past end", func() error { _, err := h.InsertItems(0, 4, 1); return err }},
		{"insert none", func() error { _, err := h.InsertItems(0, 0, 0); return err }},
		{"unknown section", func() error { _, err := h.InsertItems(9, 0, 1); return err }},
		{"delete past end", func() error { _, err := h.DeleteItems(0, 2, 2); return err }},
		{"move missing", func() error {
			_, err := h.MoveItem(layout.IndexPath{Section: 0, Item: 3}, layout.IndexPath{Section: 0, Item: 0})
			return err
		}},
		{"move past end", func() error {
			_, err := h.MoveItem(layout.IndexPath{Section: 0, Item: 0}, layout.IndexPath{Section: 0, Item: 3})
			return err
		}},
		{"duplicate section", func() error {
			_, err := h.InsertSection(0, Section{ID: "photos", Type: TypeRows})
			return err
		}},
		{"invalid section", func() error {
			_, err := h.InsertSection(0, Section{ID: "x", Type: "carousel"})
			return err
		}},
		{"measure missing", func() error { return h.SetHeight(0, 7, 10) }},
		{"no footer", func() error { return h.SetSupplementaryHeight(0, layout.KindFooter, 10) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err == nil {
				t.Error("expected error")
			}
		})
	}
	if got := h.NumberOfItems(0); got != 3 {
		t.Errorf("rejected mutations changed the item count to %d", got)
	}
}

func TestEstimatedHeaderMeasurement(t *testing.T) {
	s := mustParse(t, inboxTOML, FormatTOML)
	s.Sections[0].Header = &Supplementary{Height: 20, Estimated: true, Measured: 36}
	h, err := NewHost(s)
	if err != nil {
		t.Fatal(err)
	}
	c := layout.New(h)
	defer c.Close()
	fb, err := Settle(c, h)
	if err != nil {
		t.Fatal(err)
	}
	if fb.Applied != 3 {
		t.Errorf("applied = %d, want 3", fb.Applied)
	}
	if f, _ := c.Frame(layout.CellKey(0, 0)); f.Y != 36 {
		t.Errorf("first row at %v, want 36", f.Y)
	}
}

func TestFeedbackAboveViewportAdjustsOffset(t *testing.T) {
	s := mustParse(t, inboxTOML, FormatTOML)
	s.Viewport.Offset = 300
	s.Sections[0].Heights = nil
	h, err := NewHost(s)
	if err != nil {
		t.Fatal(err)
	}
	c := layout.New(h)
	defer c.Close()
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	if err := h.SetHeight(0, 0, 64); err != nil {
		t.Fatal(err)
	}
	fb, err := Settle(c, h)
	if err != nil {
		t.Fatal(err)
	}
	if fb.Adjustment.Y != 20 {
		t.Errorf("adjustment = %v, want 20", fb.Adjustment.Y)
	}
}

func TestFreshKeepsMosaicRotation(t *testing.T) {
	h, c := newInbox(t)
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	st := h.StrategyFor(2)
	m, ok := st.(*mosaic.Mosaic)
	if !ok {
		t.Fatalf("section 2 strategy is %T", st)
	}
	m.Rotate()
	m.Rotate()
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	if m.Big() != 2 {
		t.Fatalf("Big() = %d after two rotations, want 2", m.Big())
	}

	fresh, err := h.Fresh()
	if err != nil {
		t.Fatal(err)
	}
	fc := layout.New(fresh)
	defer fc.Close()
	if _, err := Settle(fc, fresh); err != nil {
		t.Fatal(err)
	}
	if diff := Diff(Capture(c, h, CaptureOptions{}), Capture(fc, fresh, CaptureOptions{})); len(diff) > 0 {
		t.Errorf("fresh host differs:\n%s", strings.Join(diff, "\n"))
	}
}
