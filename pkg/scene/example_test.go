package scene_test

import (
	"fmt"

	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

func ExampleHost() {
	s, err := scene.Parse([]byte(`
name = "list"

[viewport]
width = 320
height = 480

[[sections]]
id = "rows"
type = "rows"
items = 3
row_height = 44
`), scene.FormatTOML)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	h, _ := scene.NewHost(s)
	c := layout.New(h)
	defer c.Close()
	if _, err := scene.Settle(c, h); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("height:", c.ContentSize().Height)

	// Insert one row after the first and report it.
	updates, _ := h.InsertItems(0, 1, 1)
	if err := c.PerformBatchUpdates(updates); err != nil {
		fmt.Println("Error:", err)
		return
	}
	f, _ := c.Frame(layout.CellKey(0, 3))
	fmt.Println("height:", c.ContentSize().Height)
	fmt.Println("last row:", f)
	// Output:
	// height: 132
	// height: 176
	// last row: {0 132 320 44}
}
