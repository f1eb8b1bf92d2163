// Package layout implements an incremental, section-composed scroll layout.
//
// A scrollable area is split into sections. Each section is laid out by its
// own [Strategy] in a section-local coordinate space whose origin is the
// section's top-left corner. The [Composite] stacks the sections vertically,
// translates between global and local coordinates, synthesizes separator and
// gutter decorations and pins sticky headers and footers.
//
// # Invalidation
//
// Nothing is recomputed eagerly. Mutations are described by an
// [InvalidationContext] (what changed and an opaque per-section payload that
// the owning strategy produced itself) and merged into one pending batch. The
// next [Composite.Prepare] consumes the batch and hands each strategy only the
// part that concerns it. Strategies keep their item geometry cached between
// passes and decide themselves between doing nothing, fixing up a suffix of
// their items, or rebuilding from scratch.
//
// # Feedback
//
// Hosts that measure elements report the measured size through
// [Composite.ShouldInvalidateForPreferredSize] and
// [Composite.InvalidationContextForPreferredSize]. Estimated heights become
// computed heights and only the affected suffix of the section moves.
//
// # Concurrency
//
// A Composite and its strategies are not safe for concurrent use. All calls,
// including scheduler callbacks, must happen on the host's UI loop.
package layout
