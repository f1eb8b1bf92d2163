package layout

import (
	"strings"

	"github.com/matzehuels/sectionflow/pkg/geom"
)

// Reason is a bit set describing why a layout pass is needed.
type Reason uint16

const (
	// ReasonEverything discards every cache and rebuilds the section list.
	ReasonEverything Reason = 1 << iota
	// ReasonDataCounts means items or sections were inserted, deleted or moved.
	ReasonDataCounts
	// ReasonSectionsReset asks the host for a fresh section list without
	// forcing strategies to drop their caches.
	ReasonSectionsReset
	// ReasonBounds means the viewport moved or resized.
	ReasonBounds
	// ReasonWidth means the viewport width changed.
	ReasonWidth
	// ReasonPreferredSize carries self-sizing feedback.
	ReasonPreferredSize
	// ReasonOther carries a strategy-specific signal.
	ReasonOther
)

// Has reports whether any bit of o is set in r.
func (r Reason) Has(o Reason) bool { return r&o != 0 }

// Structural reports whether r requires re-reading the section list.
func (r Reason) Structural() bool {
	return r.Has(ReasonEverything | ReasonDataCounts | ReasonSectionsReset)
}

func (r Reason) String() string {
	if r == 0 {
		return "none"
	}
	names := []struct {
		bit  Reason
		name string
	}{
		{ReasonEverything, "everything"},
		{ReasonDataCounts, "data-counts"},
		{ReasonSectionsReset, "sections-reset"},
		{ReasonBounds, "bounds"},
		{ReasonWidth, "width"},
		{ReasonPreferredSize, "preferred-size"},
		{ReasonOther, "other"},
	}
	var parts []string
	for _, n := range names {
		if r.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// InvalidationContext describes what changed since the last layout pass.
// The composite merges every context it receives into one pending batch and
// clears it after Prepare consumes it.
type InvalidationContext struct {
	Reasons Reason

	// Payloads maps a section index to opaque values produced by the section's
	// own strategy, in the order they were produced.
	Payloads map[int][]any

	// Updates are the structural changes reported by the host, in batch order.
	Updates []Update

	// ContentOffsetAdjustment is how far the host should move its scroll
	// offset so that visible content stays put.
	ContentOffsetAdjustment geom.Point

	// Animated is set for invalidations a host should animate.
	Animated bool
}

// Add appends a payload for section. Nil payloads are ignored.
func (c *InvalidationContext) Add(section int, payload any) {
	if payload == nil {
		return
	}
	if c.Payloads == nil {
		c.Payloads = make(map[int][]any)
	}
	c.Payloads[section] = append(c.Payloads[section], payload)
}

// Merge folds o into c. Payload order within a section is preserved.
func (c *InvalidationContext) Merge(o *InvalidationContext) {
	if o == nil {
		return
	}
	c.Reasons |= o.Reasons
	for s, ps := range o.Payloads {
		for _, p := range ps {
			c.Add(s, p)
		}
	}
	c.Updates = append(c.Updates, o.Updates...)
	c.ContentOffsetAdjustment = c.ContentOffsetAdjustment.Add(o.ContentOffsetAdjustment)
	c.Animated = c.Animated || o.Animated
}

// Clone returns a deep copy of c.
func (c *InvalidationContext) Clone() *InvalidationContext {
	out := &InvalidationContext{}
	out.Merge(c)
	return out
}

// UpdateAction is the kind of a structural change.
type UpdateAction uint8

const (
	InsertItems UpdateAction = iota
	DeleteItems
	MoveItem
	ReloadItems
	InsertSection
	DeleteSection
	MoveSection
	ReloadSection
)

func (a UpdateAction) String() string {
	switch a {
	case InsertItems:
		return "insert"
	case DeleteItems:
		return "delete"
	case MoveItem:
		return "move"
	case ReloadItems:
		return "reload"
	case InsertSection:
		return "insert-section"
	case DeleteSection:
		return "delete-section"
	case MoveSection:
		return "move-section"
	case ReloadSection:
		return "reload-section"
	default:
		return "unknown"
	}
}

// IsSection reports whether a applies to whole sections.
func (a UpdateAction) IsSection() bool { return a >= InsertSection }

// IndexPath addresses an item in a section.
type IndexPath struct {
	Section, Item int
}

// Update is one structural change reported by the host.
//
// Indexes follow batch-update conventions: deletions, reloads and move
// sources refer to positions before the batch; insertions and move
// destinations refer to positions after it. Section actions only use the
// Section field.
type Update struct {
	Action UpdateAction
	Before IndexPath
	After  IndexPath
}

// InsertAt returns an item insertion at the post-update position.
func InsertAt(section, item int) Update {
	return Update{Action: InsertItems, After: IndexPath{section, item}}
}

// DeleteAt returns an item deletion at the pre-update position.
func DeleteAt(section, item int) Update {
	return Update{Action: DeleteItems, Before: IndexPath{section, item}}
}

// ReloadAt returns an item reload at the pre-update position.
func ReloadAt(section, item int) Update {
	return Update{Action: ReloadItems, Before: IndexPath{section, item}}
}

// Move returns an item move.
func Move(from, to IndexPath) Update {
	return Update{Action: MoveItem, Before: from, After: to}
}

// InsertSectionAt returns a section insertion.
func InsertSectionAt(section int) Update {
	return Update{Action: InsertSection, After: IndexPath{Section: section}}
}

// DeleteSectionAt returns a section deletion.
func DeleteSectionAt(section int) Update {
	return Update{Action: DeleteSection, Before: IndexPath{Section: section}}
}

// MoveSectionTo returns a section move.
func MoveSectionTo(from, to int) Update {
	return Update{Action: MoveSection, Before: IndexPath{Section: from}, After: IndexPath{Section: to}}
}

// ItemUpdate is the section-local form of an item update handed to strategies.
// For moves inside one section From is the old index and To the new one;
// otherwise only the relevant one of the two is meaningful.
type ItemUpdate struct {
	Action UpdateAction
	From   int
	To     int
}
