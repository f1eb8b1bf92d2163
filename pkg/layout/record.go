package layout

import "github.com/matzehuels/sectionflow/pkg/geom"

// HeightState tracks where an item's height came from.
type HeightState uint8

const (
	// HeightFixed heights are configured and never change from feedback.
	HeightFixed HeightState = iota
	// HeightEstimated heights are provisional until the host measures the item.
	HeightEstimated
	// HeightComputed heights were confirmed by a measurement.
	HeightComputed
)

func (s HeightState) String() string {
	switch s {
	case HeightFixed:
		return "fixed"
	case HeightEstimated:
		return "estimated"
	case HeightComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// ItemRecord is the cached geometry of one cell, header or footer in
// section-local coordinates.
type ItemRecord struct {
	Frame geom.Rect
	State HeightState
}

// WantsHeight reports whether a measured height h requires re-layout.
// A measurement equal to the current height confirms an estimate in place.
func (r *ItemRecord) WantsHeight(h float64) bool {
	if r.State == HeightFixed {
		return false
	}
	if geom.Approx(r.Frame.Height, h) {
		r.State = HeightComputed
		return false
	}
	return true
}

// Measure stores a measured height and reports whether it changed.
// Fixed records ignore measurements.
func (r *ItemRecord) Measure(h float64) bool {
	if r.State == HeightFixed {
		return false
	}
	if h < 0 {
		h = 0
	}
	changed := !geom.Approx(r.Frame.Height, h)
	r.Frame.Height = h
	r.State = HeightComputed
	return changed
}

// Invalidate reverts a measured height to the estimate after an external
// invalidation such as a width change.
func (r *ItemRecord) Invalidate(estimate float64) {
	if r.State == HeightFixed {
		return
	}
	r.State = HeightEstimated
	r.Frame.Height = estimate
}

// SeparatorStyle selects which cells get a separator underneath.
type SeparatorStyle uint8

const (
	SeparatorNone SeparatorStyle = iota
	SeparatorAllButLast
	SeparatorAll
)

// SupplementaryMode says whether a header or footer exists and how its
// height is determined.
type SupplementaryMode uint8

const (
	SupplementaryNone SupplementaryMode = iota
	SupplementaryFixed
	SupplementaryEstimated
)

// Supplementary configures a header or footer.
type Supplementary struct {
	Mode   SupplementaryMode
	Height float64
}

// FixedSupplementary returns a fixed-height header or footer.
func FixedSupplementary(h float64) Supplementary {
	return Supplementary{Mode: SupplementaryFixed, Height: h}
}

// EstimatedSupplementary returns a self-sizing header or footer.
func EstimatedSupplementary(h float64) Supplementary {
	return Supplementary{Mode: SupplementaryEstimated, Height: h}
}

// Present reports whether the element exists.
func (s Supplementary) Present() bool { return s.Mode != SupplementaryNone }

func (s Supplementary) state() HeightState {
	if s.Mode == SupplementaryEstimated {
		return HeightEstimated
	}
	return HeightFixed
}

// Element is one positioned element returned by layout queries.
type Element struct {
	Key    ItemKey
	Frame  geom.Rect
	ZIndex int
	Pinned bool
	Color  string
}

// Z-order defaults.
const (
	ZCell          = 0
	ZDecoration    = 1
	ZSupplementary = 10
	ZPinned        = 1024
)
