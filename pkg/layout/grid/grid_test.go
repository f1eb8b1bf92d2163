package grid_test

import (
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/grid"
	"github.com/matzehuels/sectionflow/pkg/layout/layouttest"
)

func TestDeriveMetrics(t *testing.T) {
	tests := []struct {
		name        string
		grid        grid.Grid
		width       float64
		wantColumns int
		wantItemW   float64
		wantSpacing float64
	}{
		{
			name:        "fixed item size fills row",
			grid:        grid.Grid{ItemSize: geom.Size{Width: 100, Height: 100}, MinimumInteritemSpacing: 10},
			width:       330,
			wantColumns: 3, wantItemW: 100, wantSpacing: 15,
		},
		{
			name: "insets reduce content width",
			grid: grid.Grid{
				Base:                    layout.Base{Insets: geom.Insets{Left: 15, Right: 15}},
				ItemSize:                geom.Size{Width: 100, Height: 100},
				MinimumInteritemSpacing: 10,
			},
			width:       360,
			wantColumns: 3, wantItemW: 100, wantSpacing: 15,
		},
		{
			name:        "fixed columns floor to half pixel",
			grid:        grid.Grid{Columns: 4, MinimumInteritemSpacing: 8},
			width:       375,
			wantColumns: 4, wantItemW: 87.5, wantSpacing: 8,
		},
		{
			name:        "item wider than content",
			grid:        grid.Grid{ItemSize: geom.Size{Width: 500, Height: 50}},
			width:       320,
			wantColumns: 1, wantItemW: 320, wantSpacing: 0,
		},
		{
			name:        "column callback",
			grid:        grid.Grid{ColumnsFunc: func(cw float64) int { return map[bool]int{true: 4, false: 2}[cw > 600] }},
			width:       400,
			wantColumns: 2, wantItemW: 200, wantSpacing: 0,
		},
		{
			name:        "size callback",
			grid:        grid.Grid{ItemSizeFunc: func(cw float64) geom.Size { return geom.Size{Width: cw / 2, Height: 40} }, MinimumInteritemSpacing: 0},
			width:       300,
			wantColumns: 2, wantItemW: 150, wantSpacing: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.grid.DeriveMetrics(tt.width)
			if m.Columns != tt.wantColumns {
				t.Errorf("Columns = %d, want %d", m.Columns, tt.wantColumns)
			}
			if !geom.Approx(m.ItemWidth, tt.wantItemW) {
				t.Errorf("ItemWidth = %v, want %v", m.ItemWidth, tt.wantItemW)
			}
			if !geom.Approx(m.Spacing, tt.wantSpacing) {
				t.Errorf("Spacing = %v, want %v", m.Spacing, tt.wantSpacing)
			}
			used := float64(m.Columns)*m.ItemWidth + float64(m.Columns-1)*m.Spacing
			if used > m.ContentWidth+geom.Epsilon {
				t.Errorf("row uses %v of %v", used, m.ContentWidth)
			}
		})
	}
}

func TestGridFillsRow(t *testing.T) {
	g := &grid.Grid{ItemSize: geom.Size{Width: 100, Height: 100}, MinimumInteritemSpacing: 10}
	layouttest.Build(g, 3, 330)

	last, _ := g.Frame(layout.CellKey(0, 2))
	if last.X != 230 || last.MaxX() != 330 {
		t.Errorf("last column = %v, want x=230 maxX=330", last)
	}
	if g.Height() != 100 {
		t.Errorf("Height() = %v, want 100", g.Height())
	}
}

func newSelfSizing() *grid.Grid {
	return &grid.Grid{
		ItemSize:                geom.Size{Width: 100},
		MinimumInteritemSpacing: 10,
		LineSpacing:             10,
		SelfSizing:              true,
		EstimatedItemHeight:     50,
	}
}

func measure(t *testing.T, g *grid.Grid, item int, h float64) any {
	t.Helper()
	key := layout.CellKey(0, item)
	f, _ := g.Frame(key)
	pref := geom.Size{Width: f.Width, Height: h}
	if !g.ShouldInvalidateForPreferredSize(key, pref, f.Size()) {
		t.Fatalf("item %d: measurement %v should invalidate", item, h)
	}
	return g.InvalidationForPreferredSize(key, pref, f.Size())
}

func TestFeedbackRecomputesRowAndBelow(t *testing.T) {
	g := newSelfSizing()
	layouttest.Build(g, 7, 330)
	if g.Height() != 170 {
		t.Fatalf("Height() = %v, want 170", g.Height())
	}
	before := layouttest.Frames(g, 7)

	p := measure(t, g, 4, 80)
	if want := (grid.ItemChanged{Index: 4, Shift: layout.Shift{Below: 110, Delta: 30}}); p != want {
		t.Fatalf("payload = %#v, want %#v", p, want)
	}
	g.Prepare(layout.PrepareContext{ItemCount: 7, Width: 330, Reasons: layout.ReasonPreferredSize, Payloads: []any{p}})

	after := layouttest.Frames(g, 7)
	for i := 0; i < 3; i++ {
		if after[i] != before[i] {
			t.Errorf("item %d in the first row moved: %v -> %v", i, before[i], after[i])
		}
	}
	if after[6].Y != 150 {
		t.Errorf("last row y = %v, want 150", after[6].Y)
	}
	if g.Height() != 200 {
		t.Errorf("Height() = %v, want 200", g.Height())
	}
}

func TestFeedbackShiftFollowsRowHeight(t *testing.T) {
	g := newSelfSizing()
	layouttest.Build(g, 7, 330)

	tests := []struct {
		item   int
		height float64
		want   layout.Shift
	}{
		{4, 80, layout.Shift{Below: 110, Delta: 30}},
		{3, 60, layout.Shift{Below: 140, Delta: 0}},
		{5, 20, layout.Shift{Below: 140, Delta: 0}},
		{4, 40, layout.Shift{Below: 140, Delta: -20}},
	}
	for _, tt := range tests {
		p, ok := measure(t, g, tt.item, tt.height).(grid.ItemChanged)
		if !ok {
			t.Fatalf("item %d: payload is not ItemChanged", tt.item)
		}
		if p.ContentShift() != tt.want {
			t.Errorf("item %d -> %v: shift = %+v, want %+v", tt.item, tt.height, p.ContentShift(), tt.want)
		}
		g.Prepare(layout.PrepareContext{ItemCount: 7, Width: 330, Payloads: []any{p}})
	}
}

// The last row holds fewer items than the others. Row membership must still
// be index / columns for items in it.
func TestFeedbackInPartialLastRow(t *testing.T) {
	g := newSelfSizing()
	layouttest.Build(g, 7, 330)

	p := measure(t, g, 6, 120)
	g.Prepare(layout.PrepareContext{ItemCount: 7, Width: 330, Payloads: []any{p}})

	f, _ := g.Frame(layout.CellKey(0, 6))
	if f.Y != 120 || f.Height != 120 || f.X != 0 {
		t.Errorf("item 6 = %v, want x=0 y=120 h=120", f)
	}
	if g.Height() != 240 {
		t.Errorf("Height() = %v, want 240", g.Height())
	}

	if err := layouttest.CheckMonotonic(g, 7); err != nil {
		t.Error(err)
	}
}

func TestAlignment(t *testing.T) {
	heights := []float64{40, 80, 60}
	tests := []struct {
		align   grid.Alignment
		wantY   []float64
		wantH   []float64
		wantStr string
	}{
		{grid.AlignNone, []float64{0, 0, 0}, []float64{40, 80, 60}, "none"},
		{grid.AlignTop, []float64{0, 0, 0}, []float64{40, 80, 60}, "top"},
		{grid.AlignEqualHeight, []float64{0, 0, 0}, []float64{80, 80, 80}, "equal-height"},
		{grid.AlignCenter, []float64{20, 0, 10}, []float64{40, 80, 60}, "center"},
		{grid.AlignBottom, []float64{40, 0, 20}, []float64{40, 80, 60}, "bottom"},
	}

	for _, tt := range tests {
		t.Run(tt.wantStr, func(t *testing.T) {
			g := newSelfSizing()
			g.Alignment = tt.align
			layouttest.Build(g, 3, 330)
			var payloads []any
			for i, h := range heights {
				payloads = append(payloads, measure(t, g, i, h))
			}
			g.Prepare(layout.PrepareContext{ItemCount: 3, Width: 330, Payloads: payloads})

			for i := range heights {
				f, _ := g.Frame(layout.CellKey(0, i))
				if f.Y != tt.wantY[i] || f.Height != tt.wantH[i] {
					t.Errorf("item %d = y %v h %v, want y %v h %v", i, f.Y, f.Height, tt.wantY[i], tt.wantH[i])
				}
				rec, _ := g.Record(i)
				if rec.Frame.Height != heights[i] {
					t.Errorf("item %d natural height = %v, want %v", i, rec.Frame.Height, heights[i])
				}
			}
			if g.Height() != 80 {
				t.Errorf("Height() = %v, want 80", g.Height())
			}
			if tt.align.String() != tt.wantStr {
				t.Errorf("String() = %q", tt.align.String())
			}
			if a, ok := grid.ParseAlignment(tt.wantStr); !ok || a != tt.align {
				t.Errorf("ParseAlignment(%q) = %v, %v", tt.wantStr, a, ok)
			}
		})
	}
}

func TestMetricsChangedShiftsX(t *testing.T) {
	g := newSelfSizing()
	g.Insets = geom.Insets{Left: 10, Right: 10}
	layouttest.Build(g, 5, 350)
	p := measure(t, g, 1, 70)
	g.Prepare(layout.PrepareContext{ItemCount: 5, Width: 350, Payloads: []any{p}})
	before := layouttest.Frames(g, 5)

	g.Insets = geom.Insets{Left: 20, Right: 0}
	g.Prepare(layout.PrepareContext{ItemCount: 5, Width: 350, Reasons: layout.ReasonOther, Payloads: []any{grid.MetricsChanged{}}})

	after := layouttest.Frames(g, 5)
	for i := range after {
		if !geom.Approx(after[i].X, before[i].X+10) || after[i].Y != before[i].Y || after[i].Height != before[i].Height {
			t.Errorf("item %d: %v -> %v, want shifted right by 10", i, before[i], after[i])
		}
	}
	if rec, _ := g.Record(1); rec.State != layout.HeightComputed {
		t.Error("an X-only change must keep measured heights")
	}

	g.LineSpacing = 30
	g.Prepare(layout.PrepareContext{ItemCount: 5, Width: 350, Reasons: layout.ReasonOther, Payloads: []any{grid.MetricsChanged{}}})
	f, _ := g.Frame(layout.CellKey(0, 3))
	if f.Y != 70+30 {
		t.Errorf("second row y = %v, want 100", f.Y)
	}
}

func TestMetricsChangedRecomputesColumns(t *testing.T) {
	g := newSelfSizing()
	layouttest.Build(g, 6, 330)
	if g.Metrics().Columns != 3 {
		t.Fatalf("Columns = %d, want 3", g.Metrics().Columns)
	}

	g.MinimumInteritemSpacing = 40
	g.Prepare(layout.PrepareContext{ItemCount: 6, Width: 330, Payloads: []any{grid.MetricsChanged{}}})

	if g.Metrics().Columns != 2 {
		t.Fatalf("Columns = %d, want 2", g.Metrics().Columns)
	}
	fresh := newSelfSizing()
	fresh.MinimumInteritemSpacing = 40
	layouttest.Build(fresh, 6, 330)
	if err := layouttest.SameFrames(layouttest.Frames(g, 6), layouttest.Frames(fresh, 6)); err != nil {
		t.Error(err)
	}
}

func TestIncrementalEqualsRebuild(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	mk := func() *grid.Grid {
		g := newSelfSizing()
		g.Header = layout.FixedSupplementary(24)
		g.Insets = geom.Insets{Top: 4, Bottom: 4}
		return g
	}
	for trial := 0; trial < 50; trial++ {
		g := mk()
		count := rng.IntN(10)
		layouttest.Build(g, count, 330)

		for step := 0; step < 8; step++ {
			var u layout.ItemUpdate
			switch op := rng.IntN(3); {
			case op == 0 || count == 0:
				u = layout.ItemUpdate{Action: layout.InsertItems, From: -1, To: rng.IntN(count + 1)}
				count++
			case op == 1:
				u = layout.ItemUpdate{Action: layout.DeleteItems, From: rng.IntN(count), To: -1}
				count--
			default:
				u = layout.ItemUpdate{Action: layout.MoveItem, From: rng.IntN(count), To: rng.IntN(count)}
			}
			g.Prepare(layout.PrepareContext{ItemCount: count, Width: 330, Reasons: layout.ReasonDataCounts, Updates: []layout.ItemUpdate{u}})

			fresh := mk()
			layouttest.Build(fresh, count, 330)
			if err := layouttest.SameFrames(layouttest.Frames(g, count), layouttest.Frames(fresh, count)); err != nil {
				t.Fatalf("trial %d step %d (%+v): %v", trial, step, u, err)
			}
			if !geom.Approx(g.Height(), fresh.Height()) {
				t.Fatalf("trial %d step %d: Height() = %v, rebuild %v", trial, step, g.Height(), fresh.Height())
			}
		}
	}
}

func TestItemsInMatchesScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 9))
	g := newSelfSizing()
	g.Alignment = grid.AlignCenter
	g.Header = layout.FixedSupplementary(30)
	const n = 23
	layouttest.Build(g, n, 330)
	var payloads []any
	for i := 0; i < n; i++ {
		payloads = append(payloads, g.InvalidationForPreferredSize(layout.CellKey(0, i), geom.Size{Height: float64(20 + rng.IntN(90))}, geom.Size{}))
	}
	g.Prepare(layout.PrepareContext{ItemCount: n, Width: 330, Payloads: payloads})

	for q := 0; q < 100; q++ {
		rect := geom.R(rng.Float64()*200, rng.Float64()*g.Height(), 50+rng.Float64()*200, rng.Float64()*200)
		got := map[layout.ItemKey]bool{}
		for _, e := range g.ItemsIn(rect, 0) {
			got[e.Key] = true
		}
		want := map[layout.ItemKey]bool{}
		if f, ok := g.Frame(layout.HeaderKey(0)); ok && f.Intersects(rect) {
			want[layout.HeaderKey(0)] = true
		}
		for i := 0; i < n; i++ {
			if f, _ := g.Frame(layout.CellKey(0, i)); f.Intersects(rect) {
				want[layout.CellKey(0, i)] = true
			}
		}
		if len(got) != len(want) {
			t.Fatalf("rect %v: got %d elements, want %d", rect, len(got), len(want))
		}
		for k := range want {
			if !got[k] {
				t.Fatalf("rect %v: missing %s", rect, k)
			}
		}
	}
}

func TestWidthChangeRederivesColumns(t *testing.T) {
	g := newSelfSizing()
	layouttest.Build(g, 6, 330)
	p := measure(t, g, 0, 90)
	g.Prepare(layout.PrepareContext{ItemCount: 6, Width: 330, Payloads: []any{p}})

	g.Prepare(layout.PrepareContext{ItemCount: 6, Width: 560, Reasons: layout.ReasonWidth, Payloads: []any{g.InvalidationForWidthChange(330, 560)}})
	if g.Metrics().Columns != 5 {
		t.Errorf("Columns = %d, want 5", g.Metrics().Columns)
	}
	if rec, _ := g.Record(0); rec.State != layout.HeightEstimated || rec.Frame.Height != 50 {
		t.Errorf("record 0 = %+v, want reverted to estimate", rec)
	}
	if g.Height() != 110 {
		t.Errorf("Height() = %v, want 110", g.Height())
	}
}
