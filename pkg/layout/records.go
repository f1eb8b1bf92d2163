package layout

import "sort"

// ApplyItemUpdates rewrites a section's record slice for a batch of
// section-local updates and returns the new slice together with the first
// index whose origin must be recomputed. Records that survive keep their
// measured heights; inserted and reloaded items get fresh records. The
// result always has exactly newCount records.
//
// Deletions, reloads and move sources are interpreted against the old slice;
// insertions and move destinations against the new one.
func ApplyItemUpdates(records []ItemRecord, updates []ItemUpdate, newCount int, fresh func() ItemRecord) ([]ItemRecord, int) {
	var ops reorderOps
	for _, u := range updates {
		switch u.Action {
		case DeleteItems:
			ops.deletes = append(ops.deletes, u.From)
		case ReloadItems:
			ops.reloads = append(ops.reloads, u.From)
		case InsertItems:
			ops.inserts = append(ops.inserts, u.To)
		case MoveItem:
			ops.moves = append(ops.moves, [2]int{u.From, u.To})
		}
	}
	out, dirty := reorder(records, ops, fresh)
	out, tail := ResizeRecords(out, newCount, fresh)
	return out, max(0, min(dirty, tail))
}

// ResizeRecords truncates or extends records to n. Appended records come from
// fresh. The second result is the first index that was not carried over.
func ResizeRecords(records []ItemRecord, n int, fresh func() ItemRecord) ([]ItemRecord, int) {
	if n < 0 {
		n = 0
	}
	if n <= len(records) {
		return records[:n], n
	}
	first := len(records)
	for len(records) < n {
		records = append(records, fresh())
	}
	return records, first
}

// FirstIntersecting returns the index of the first frame in [0,n) whose MaxY
// exceeds y, assuming MaxY is non-decreasing in index order.
func FirstIntersecting(n int, maxY func(i int) float64, y float64) int {
	return sort.Search(n, func(i int) bool { return maxY(i) > y })
}

// reorderOps is one batch of positional changes. deletes, reloads and move
// sources index the old sequence; inserts and move destinations the new one.
type reorderOps struct {
	deletes []int
	reloads []int
	inserts []int
	moves   [][2]int
}

// reorder applies ops to old. Reloaded and inserted positions are filled by
// fresh; moved values travel to their destination. It also returns a lower
// bound on the first position whose value may differ from old.
func reorder[T any](old []T, ops reorderOps, fresh func() T) ([]T, int) {
	n := len(old)
	dirty := n
	inRange := func(i int) bool { return i >= 0 && i < n }

	removed := make(map[int]bool)
	reloaded := make(map[int]bool)
	for _, i := range ops.deletes {
		if inRange(i) {
			removed[i] = true
			dirty = min(dirty, i)
		}
	}
	for _, i := range ops.reloads {
		if inRange(i) {
			reloaded[i] = true
			dirty = min(dirty, i)
		}
	}

	type placement struct {
		at   int
		from int
	}
	var places []placement
	for _, at := range ops.inserts {
		places = append(places, placement{at: at, from: -1})
		dirty = min(dirty, at)
	}
	for _, m := range ops.moves {
		p := placement{at: m[1], from: -1}
		if inRange(m[0]) {
			removed[m[0]] = true
			p.from = m[0]
			dirty = min(dirty, m[0])
		}
		places = append(places, p)
		dirty = min(dirty, m[1])
	}

	value := func(i int) T {
		if reloaded[i] {
			return fresh()
		}
		return old[i]
	}

	out := make([]T, 0, n+len(places))
	for i := range old {
		if !removed[i] {
			out = append(out, value(i))
		}
	}

	sort.SliceStable(places, func(a, b int) bool { return places[a].at < places[b].at })
	for _, p := range places {
		var v T
		if p.from >= 0 {
			v = value(p.from)
		} else {
			v = fresh()
		}
		at := max(0, min(p.at, len(out)))
		var zero T
		out = append(out, zero)
		copy(out[at+1:], out[at:])
		out[at] = v
	}
	return out, max(0, dirty)
}
