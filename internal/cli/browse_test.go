package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

const browseTOML = `
name = "browse"

[viewport]
width = 320
height = 200

[[sections]]
id = "list"
type = "rows"
items = 10
row_height = 44

[sections.header]
height = 30
pinned = true

[[sections]]
id = "tiles"
type = "mosaic"
items = 3
interval = "1s"
`

func newTestBrowser(t *testing.T, src string) browseModel {
	t.Helper()
	sc, err := scene.Parse([]byte(browseTOML), scene.FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	r, err := script.NewReplayer(sc, script.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)

	var steps []*script.Step
	if src != "" {
		scr, err := script.ParseString(t.Name(), src)
		if err != nil {
			t.Fatal(err)
		}
		steps = scr.Steps
	}
	return newBrowseModel(r, steps, 500*time.Millisecond)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m browseModel, msg tea.Msg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(browseModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return bm, cmd
}

func TestBrowseScrolls(t *testing.T) {
	m := newTestBrowser(t, "")
	offset := func() float64 { return m.replayer.Host().Bounds().Y }

	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key("j"))
	if offset() != 2*lineStep {
		t.Errorf("offset after two lines = %v, want %v", offset(), 2*lineStep)
	}
	m, _ = update(t, m, key("pgdown"))
	if offset() != 2*lineStep+200 {
		t.Errorf("offset after a page = %v", offset())
	}
	m, _ = update(t, m, key("g"))
	if offset() != 0 {
		t.Errorf("offset after g = %v, want 0", offset())
	}
	m, _ = update(t, m, key("k"))
	if offset() != 0 {
		t.Errorf("scrolling above the top gave offset %v", offset())
	}
}

func TestBrowseFramesRotateMosaic(t *testing.T) {
	m := newTestBrowser(t, "")

	m, cmd := update(t, m, frameMsg(time.Now()))
	if cmd == nil {
		t.Fatal("frame should schedule the next frame")
	}
	if m.rotated != 0 {
		t.Errorf("rotated after 500ms = %d", m.rotated)
	}
	m, _ = update(t, m, frameMsg(time.Now()))
	if m.rotated != 1 {
		t.Errorf("rotated after 1s = %d, want 1", m.rotated)
	}
}

func TestBrowseStepsScript(t *testing.T) {
	m := newTestBrowser(t, "insert list:0 count 2\ncheck")

	m, _ = update(t, m, key("n"))
	if m.next != 1 || m.replayer.Host().NumberOfItems(0) != 12 {
		t.Errorf("after one step: next %d, items %d", m.next, m.replayer.Host().NumberOfItems(0))
	}
	m, _ = update(t, m, key("n"))
	if !strings.HasSuffix(m.status, iconSuccess) {
		t.Errorf("check step status = %q, want verified", m.status)
	}
	m, _ = update(t, m, key("n"))
	if m.status != "no more steps" {
		t.Errorf("status = %q", m.status)
	}
}

func TestBrowseExport(t *testing.T) {
	m := newTestBrowser(t, "")
	var got *scene.Snapshot
	m.export = func(s *scene.Snapshot) (string, error) {
		got = s
		return "browse-1.svg", nil
	}

	m, _ = update(t, m, key("e"))
	if got == nil || got.Clipped {
		t.Fatal("export should receive a full snapshot")
	}
	if len(m.exported) != 1 || m.status != "exported browse-1.svg" {
		t.Errorf("exported %v, status %q", m.exported, m.status)
	}
}

func TestBrowseQuits(t *testing.T) {
	m := newTestBrowser(t, "")
	for _, k := range []string{"q", "esc"} {
		_, cmd := update(t, m, key(k))
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", k)
		}
	}
}

func TestBrowseView(t *testing.T) {
	m := newTestBrowser(t, "")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 42, Height: 26})
	if m.cols != 40 || m.rows != 20 {
		t.Errorf("map size = %d×%d, want 40×20", m.cols, m.rows)
	}
	view := m.View()
	if !strings.Contains(view, "browse") || !strings.Contains(view, "q quit") {
		t.Errorf("view missing title or help:\n%s", view)
	}
}

func TestViewportMap(t *testing.T) {
	out := viewportMap(testSnapshot(), 32, 10)
	lines := strings.Split(out, "\n")
	// Border plus ten rows.
	if len(lines) != 12 {
		t.Fatalf("got %d lines, want 12:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "▓▓▓▓") {
		t.Errorf("pinned header should cover the top row: %q", lines[1])
	}
	if !strings.Contains(lines[6], "▒▒▒▒") || strings.Contains(lines[6], "▓") {
		t.Errorf("row 5 should show the mosaic cell: %q", lines[6])
	}
}

func TestMapGlyph(t *testing.T) {
	tests := []struct {
		e    scene.Element
		want rune
	}{
		{scene.Element{Category: "cell", Section: 0}, '░'},
		{scene.Element{Category: "cell", Section: 3}, '▒'},
		{scene.Element{Category: "supplementary", Kind: "header"}, '█'},
		{scene.Element{Category: "supplementary", Kind: "header", Pinned: true}, '▓'},
		{scene.Element{Category: "decoration", Kind: "separator"}, '─'},
		{scene.Element{Category: "decoration", Kind: "bottom-gutter"}, '·'},
	}
	for _, tt := range tests {
		if got, _ := mapGlyph(tt.e); got != tt.want {
			t.Errorf("mapGlyph(%+v) = %q, want %q", tt.e, got, tt.want)
		}
	}
}
