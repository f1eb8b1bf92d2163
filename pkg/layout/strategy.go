package layout

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/sectionflow/pkg/geom"
)

// Strategy computes the geometry of one section in section-local coordinates.
//
// Implementations own their item cache. They must be pointer types: the
// composite recognises a strategy that is handed back for a new section list
// by identity and keeps its cache.
type Strategy interface {
	// Prepare incorporates an invalidation. It may do nothing, fix up part of
	// the cache, or rebuild it. A missing cache always means a full build.
	Prepare(pc PrepareContext)

	// Height returns the cached total height of the section.
	Height() float64

	// ItemsIn returns the cells, headers and footers whose frames intersect
	// rect, in increasing Y order. Keys carry section as their section index.
	ItemsIn(rect geom.Rect, section int) []Element

	// Frame returns the local frame of a cell, header or footer. It reports
	// false when the key is out of range.
	Frame(key ItemKey) (geom.Rect, bool)

	// InvalidationForWidthChange returns the payload to apply when the
	// section width changes from one value to another.
	InvalidationForWidthChange(from, to float64) any

	// ShouldInvalidateForPreferredSize reports whether a measured size
	// differs enough from the cached one to require re-layout.
	ShouldInvalidateForPreferredSize(key ItemKey, preferred, original geom.Size) bool

	// InvalidationForPreferredSize stores the measured size and returns the
	// payload describing what moved.
	InvalidationForPreferredSize(key ItemKey, preferred, original geom.Size) any

	// Options returns the section's decoration and pinning configuration.
	Options() SectionOptions

	// InsetBands returns the local rectangles of the top and bottom inset
	// bands, used to place gutters.
	InsetBands() (top, bottom geom.Rect)
}

// PrepareContext is everything a strategy may use during Prepare. It is
// passed explicitly instead of giving strategies a reference to the composite.
type PrepareContext struct {
	Section   int
	ItemCount int
	Width     float64

	// Viewport is the host's visible rectangle in section-local coordinates.
	Viewport geom.Rect

	Reasons  Reason
	Payloads []any
	Updates  []ItemUpdate

	Logger *log.Logger
}

// Full reports whether the strategy must rebuild from scratch.
func (pc PrepareContext) Full() bool { return pc.Reasons.Has(ReasonEverything) }

// SectionOptions configures what the composite adds around a section.
type SectionOptions struct {
	PinHeader bool
	PinFooter bool

	Separator      SeparatorStyle
	SeparatorColor string

	ShowTopGutter    bool
	ShowBottomGutter bool
	GutterColor      string
}

// BoundsObserver is implemented by strategies whose geometry depends on the
// viewport position or height. Only observers are consulted when the
// viewport moves without changing width. Implementations must not mutate
// state: the composite may ask twice for the same change.
type BoundsObserver interface {
	InvalidationForBoundsChange(oldViewport, newViewport geom.Rect) (any, bool)
}

// Attachment is handed to strategies that run their own timers.
type Attachment struct {
	Scheduler Scheduler

	// Invalidate requests a layout pass carrying payload for the calling
	// strategy's current section.
	Invalidate func(payload any)
}

// Attacher is implemented by strategies with a lifecycle. Attach is called
// when the strategy joins the section list and Detach when it leaves it or
// when the composite is closed.
type Attacher interface {
	Attach(Attachment)
	Detach()
}

// Identifiable strategies expose a reuse identifier so data sources can
// hand out the same instance across reloads.
type Identifiable interface {
	ReuseIdentifier() string
}

// Reset is a payload asking a strategy to rebuild from scratch.
type Reset struct{}

// WidthChange is the default payload for a section width change.
type WidthChange struct {
	From, To float64
}

// SupplementaryChanged is the payload for a header or footer whose measured
// height changed.
type SupplementaryChanged struct {
	Kind Kind
	Shift
}

// ContentShifter is implemented by preferred-size payloads that know how
// the section's content moves once the measurement is laid out.
type ContentShifter interface {
	ContentShift() Shift
}

// Shift describes content movement inside a section: everything at or
// below Below, in section coordinates, moves down by Delta.
type Shift struct {
	Below float64
	Delta float64
}

// ContentShift implements ContentShifter.
func (s Shift) ContentShift() Shift { return s }
