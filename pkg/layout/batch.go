package layout

import (
	"github.com/matzehuels/sectionflow/pkg/errors"
)

// sectionMapping relates sections before and after a batch of updates.
type sectionMapping struct {
	newToOld []int // old index per new section, -1 for inserted sections
	oldToNew []int // new index per old section, -1 for deleted sections
	reloaded map[int]bool
	items    map[int][]ItemUpdate // item updates per new section
}

// mapSections applies the section-level part of updates to oldCount
// sections and translates item updates into section-local form.
func mapSections(oldCount int, updates []Update) (*sectionMapping, error) {
	m := &sectionMapping{reloaded: make(map[int]bool), items: make(map[int][]ItemUpdate)}

	inOld := func(s int) bool { return s >= 0 && s < oldCount }
	var ops reorderOps
	for _, u := range updates {
		switch u.Action {
		case DeleteSection:
			if !inOld(u.Before.Section) {
				return nil, errors.New(errors.ErrCodeContractViolation, "delete of unknown section %d", u.Before.Section)
			}
			ops.deletes = append(ops.deletes, u.Before.Section)
		case ReloadSection:
			if !inOld(u.Before.Section) {
				return nil, errors.New(errors.ErrCodeContractViolation, "reload of unknown section %d", u.Before.Section)
			}
			m.reloaded[u.Before.Section] = true
		case InsertSection:
			ops.inserts = append(ops.inserts, u.After.Section)
		case MoveSection:
			if !inOld(u.Before.Section) {
				return nil, errors.New(errors.ErrCodeContractViolation, "move of unknown section %d", u.Before.Section)
			}
			ops.moves = append(ops.moves, [2]int{u.Before.Section, u.After.Section})
		}
	}

	old := make([]int, oldCount)
	for i := range old {
		old[i] = i
	}
	m.newToOld, _ = reorder(old, ops, func() int { return -1 })
	m.oldToNew = make([]int, oldCount)
	for i := range m.oldToNew {
		m.oldToNew[i] = -1
	}
	for n, o := range m.newToOld {
		if o >= 0 {
			m.oldToNew[o] = n
		}
	}

	newSection := func(old int) int {
		if !inOld(old) {
			return -1
		}
		return m.oldToNew[old]
	}
	for _, u := range updates {
		switch u.Action {
		case InsertItems:
			m.items[u.After.Section] = append(m.items[u.After.Section], ItemUpdate{Action: InsertItems, From: -1, To: u.After.Item})
		case DeleteItems, ReloadItems:
			if !inOld(u.Before.Section) {
				return nil, errors.New(errors.ErrCodeContractViolation, "%s in unknown section %d", u.Action, u.Before.Section)
			}
			if s := newSection(u.Before.Section); s >= 0 {
				m.items[s] = append(m.items[s], ItemUpdate{Action: u.Action, From: u.Before.Item, To: -1})
			}
		case MoveItem:
			if !inOld(u.Before.Section) {
				return nil, errors.New(errors.ErrCodeContractViolation, "move from unknown section %d", u.Before.Section)
			}
			src := newSection(u.Before.Section)
			if src == u.After.Section {
				m.items[src] = append(m.items[src], ItemUpdate{Action: MoveItem, From: u.Before.Item, To: u.After.Item})
				continue
			}
			if src >= 0 {
				m.items[src] = append(m.items[src], ItemUpdate{Action: DeleteItems, From: u.Before.Item, To: -1})
			}
			m.items[u.After.Section] = append(m.items[u.After.Section], ItemUpdate{Action: InsertItems, From: -1, To: u.After.Item})
		}
	}
	return m, nil
}

// PerformBatchUpdates records a batch of structural changes the data source
// has already applied. The batch is reconciled against the item counts of
// the last pass: every section that was neither inserted nor reloaded must
// report exactly its old count adjusted by the batch, otherwise the batch is
// rejected with COUNT_MISMATCH and nothing changes.
//
// When an earlier structural batch has not been consumed yet the counts it
// describes are unknown, so the composite falls back to a full rebuild.
func (c *Composite) PerformBatchUpdates(updates []Update) error {
	if len(updates) == 0 {
		return nil
	}
	if !c.prepared || (c.pending != nil && c.pending.Reasons.Structural()) {
		c.logger.Debug("batch on top of unconsumed structural change, rebuilding", "updates", len(updates))
		c.InvalidateAll()
		return nil
	}
	if err := c.reconcile(updates); err != nil {
		c.logger.Error("batch rejected", "err", err)
		return err
	}
	c.Invalidate(&InvalidationContext{Reasons: ReasonDataCounts, Updates: updates})
	return nil
}

func (c *Composite) reconcile(updates []Update) error {
	m, err := mapSections(len(c.sections), updates)
	if err != nil {
		return err
	}
	n := max(c.host.NumberOfSections(), 0)
	if len(m.newToOld) != n {
		return errors.New(errors.ErrCodeCountMismatch,
			"batch leaves %d sections (%d before), data source reports %d", len(m.newToOld), len(c.sections), n)
	}
	for s := range m.items {
		if s < 0 || s >= n {
			return errors.New(errors.ErrCodeContractViolation, "item update targets unknown section %d", s)
		}
	}

	for j := 0; j < n; j++ {
		old := m.newToOld[j]
		got := c.host.NumberOfItems(j)
		if old < 0 || m.reloaded[old] {
			continue
		}
		before := c.sections[old].count
		expected := before
		for _, u := range m.items[j] {
			switch u.Action {
			case InsertItems:
				expected++
			case DeleteItems:
				expected--
			}
		}
		for _, u := range m.items[j] {
			switch u.Action {
			case DeleteItems, ReloadItems, MoveItem:
				if u.From < 0 || u.From >= before {
					return errors.New(errors.ErrCodeContractViolation,
						"section %d: %s of item %d, section had %d items", j, u.Action, u.From, before)
				}
			}
			switch u.Action {
			case InsertItems, MoveItem:
				if u.To < 0 || u.To >= got {
					return errors.New(errors.ErrCodeContractViolation,
						"section %d: %s to item %d, section has %d items", j, u.Action, u.To, got)
				}
			}
		}
		if got != expected {
			return errors.New(errors.ErrCodeCountMismatch,
				"section %d: expected %d items after batch (%d before), data source reports %d", j, expected, before, got)
		}
	}
	return nil
}
