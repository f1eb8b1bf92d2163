package layout_test

import (
	"fmt"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/layouttest"
	"github.com/matzehuels/sectionflow/pkg/layout/rows"
)

func ExampleComposite() {
	list := rows.SelfSizing(44)
	list.Insets = geom.Insets{Top: 5, Bottom: 5}
	host := &layouttest.Host{
		Sections: []layouttest.Section{{Strategy: list, Count: 3}},
		View:     geom.R(0, 0, 320, 480),
	}

	c := layout.New(host)
	fmt.Println(c.ContentSize().Height)
	for _, e := range c.ElementsIn(geom.R(0, 0, 320, 60)) {
		fmt.Println(e.Key, e.Frame)
	}
	// Output:
	// 142
	// cell[0:0] {0 5 320 44}
	// cell[0:1] {0 49 320 44}
}

func ExampleComposite_PerformBatchUpdates() {
	host := &layouttest.Host{
		Sections: []layouttest.Section{{Strategy: rows.Fixed(44), Count: 3}},
		View:     geom.R(0, 0, 320, 480),
	}
	c := layout.New(host)
	fmt.Println(c.ContentSize().Height)

	host.Sections[0].Count = 2
	if err := c.PerformBatchUpdates([]layout.Update{layout.DeleteAt(0, 1)}); err != nil {
		fmt.Println(err)
	}
	fmt.Println(c.ContentSize().Height)

	host.Sections[0].Count = 5
	err := c.PerformBatchUpdates([]layout.Update{layout.InsertAt(0, 0)})
	fmt.Println(err)
	// Output:
	// 132
	// 88
	// COUNT_MISMATCH: section 0: expected 3 items after batch (2 before), data source reports 5
}
