package layout

import (
	"reflect"
	"testing"

	"github.com/matzehuels/sectionflow/pkg/geom"
)

func ids(records []ItemRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Frame.Height
	}
	return out
}

func numbered(n int) []ItemRecord {
	out := make([]ItemRecord, n)
	for i := range out {
		out[i] = ItemRecord{Frame: geom.R(0, 0, 0, float64(i)), State: HeightComputed}
	}
	return out
}

func TestApplyItemUpdates(t *testing.T) {
	fresh := func() ItemRecord { return ItemRecord{Frame: geom.R(0, 0, 0, -1), State: HeightEstimated} }
	tests := []struct {
		name      string
		updates   []ItemUpdate
		count     int
		want      []float64
		wantDirty int
	}{
		{
			name:      "delete then insert at front",
			updates:   []ItemUpdate{{Action: DeleteItems, From: 1}, {Action: InsertItems, To: 0}},
			count:     5,
			want:      []float64{-1, 0, 2, 3, 4},
			wantDirty: 0,
		},
		{
			name:      "move first to last",
			updates:   []ItemUpdate{{Action: MoveItem, From: 0, To: 4}},
			count:     5,
			want:      []float64{1, 2, 3, 4, 0},
			wantDirty: 0,
		},
		{
			name:      "move up",
			updates:   []ItemUpdate{{Action: MoveItem, From: 3, To: 1}},
			count:     5,
			want:      []float64{0, 3, 1, 2, 4},
			wantDirty: 1,
		},
		{
			name:      "reload",
			updates:   []ItemUpdate{{Action: ReloadItems, From: 2}},
			count:     5,
			want:      []float64{0, 1, -1, 3, 4},
			wantDirty: 2,
		},
		{
			name:      "delete last",
			updates:   []ItemUpdate{{Action: DeleteItems, From: 4}},
			count:     4,
			want:      []float64{0, 1, 2, 3},
			wantDirty: 4,
		},
		{
			name:      "append",
			updates:   []ItemUpdate{{Action: InsertItems, To: 5}},
			count:     6,
			want:      []float64{0, 1, 2, 3, 4, -1},
			wantDirty: 5,
		},
		{
			name:      "insertions use final positions",
			updates:   []ItemUpdate{{Action: InsertItems, To: 3}, {Action: InsertItems, To: 1}},
			count:     7,
			want:      []float64{0, -1, 1, -1, 2, 3, 4},
			wantDirty: 1,
		},
		{
			name:      "count wins over updates",
			updates:   nil,
			count:     3,
			want:      []float64{0, 1, 2},
			wantDirty: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dirty := ApplyItemUpdates(numbered(5), tt.updates, tt.count, fresh)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("records = %v, want %v", ids(got), tt.want)
			}
			if dirty != tt.wantDirty {
				t.Errorf("dirty = %d, want %d", dirty, tt.wantDirty)
			}
		})
	}
}

func TestApplyItemUpdatesKeepsState(t *testing.T) {
	fresh := func() ItemRecord { return ItemRecord{State: HeightEstimated} }
	got, _ := ApplyItemUpdates(numbered(3), []ItemUpdate{{Action: InsertItems, To: 0}}, 4, fresh)
	want := []HeightState{HeightEstimated, HeightComputed, HeightComputed, HeightComputed}
	for i, r := range got {
		if r.State != want[i] {
			t.Errorf("record %d state = %v, want %v", i, r.State, want[i])
		}
	}
}

func TestFirstIntersecting(t *testing.T) {
	maxY := []float64{10, 20, 30, 40}
	f := func(i int) float64 { return maxY[i] }
	tests := []struct {
		y    float64
		want int
	}{
		{-5, 0},
		{10, 1},
		{15, 1},
		{39.9, 3},
		{40, 4},
	}
	for _, tt := range tests {
		if got := FirstIntersecting(len(maxY), f, tt.y); got != tt.want {
			t.Errorf("FirstIntersecting(y=%v) = %d, want %d", tt.y, got, tt.want)
		}
	}
}

func TestMapSections(t *testing.T) {
	m, err := mapSections(3, []Update{
		MoveSectionTo(0, 2),
		Move(IndexPath{Section: 1, Item: 2}, IndexPath{Section: 2, Item: 0}),
		DeleteAt(2, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 0}; !reflect.DeepEqual(m.newToOld, want) {
		t.Errorf("newToOld = %v, want %v", m.newToOld, want)
	}
	if want := []int{2, 0, 1}; !reflect.DeepEqual(m.oldToNew, want) {
		t.Errorf("oldToNew = %v, want %v", m.oldToNew, want)
	}

	// Old section 1 is new section 0 and loses its item; new section 2 (old
	// section 0) receives it. Old section 2 is new section 1.
	wantItems := map[int][]ItemUpdate{
		0: {{Action: DeleteItems, From: 2, To: -1}},
		2: {{Action: InsertItems, From: -1, To: 0}},
		1: {{Action: DeleteItems, From: 0, To: -1}},
	}
	if !reflect.DeepEqual(m.items, wantItems) {
		t.Errorf("items = %v, want %v", m.items, wantItems)
	}

	if _, err := mapSections(2, []Update{DeleteSectionAt(5)}); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestInvalidationContextMerge(t *testing.T) {
	a := &InvalidationContext{Reasons: ReasonBounds}
	a.Add(0, "first")
	a.Add(0, nil)
	b := &InvalidationContext{Reasons: ReasonPreferredSize, Animated: true}
	b.Add(0, "second")
	b.Add(2, "other")
	b.ContentOffsetAdjustment = geom.Point{Y: 4}

	a.Merge(b)
	a.Merge(nil)
	if a.Reasons != ReasonBounds|ReasonPreferredSize || !a.Animated {
		t.Errorf("merged = %+v", a)
	}
	if !reflect.DeepEqual(a.Payloads[0], []any{"first", "second"}) {
		t.Errorf("payloads = %v", a.Payloads[0])
	}
	if a.ContentOffsetAdjustment.Y != 4 {
		t.Errorf("adjustment = %v", a.ContentOffsetAdjustment)
	}

	c := a.Clone()
	c.Add(0, "third")
	if len(a.Payloads[0]) != 2 {
		t.Error("Clone shares payload slices")
	}
}

func TestReason(t *testing.T) {
	r := ReasonDataCounts | ReasonWidth
	if got := r.String(); got != "data-counts|width" {
		t.Errorf("String() = %q", got)
	}
	if !r.Structural() || (ReasonBounds | ReasonPreferredSize).Structural() {
		t.Error("Structural() misclassified")
	}
	if Reason(0).String() != "none" {
		t.Errorf("zero reason = %q", Reason(0).String())
	}
}
