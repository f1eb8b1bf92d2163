package script

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/layout/mosaic"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

const feedTOML = `
name = "feed"

[viewport]
width = 320
height = 200

[[sections]]
id = "list"
type = "rows"
items = 3
self_sizing = true
estimated_height = 44

[[sections]]
id = "tiles"
type = "mosaic"
items = 3
spacing = 10
interval = "1s"
`

func newReplayer(t *testing.T, src string, verify bool) *Replayer {
	t.Helper()
	s, err := scene.Parse([]byte(src), scene.FormatTOML)
	if err != nil {
		t.Fatalf("scene.Parse: %v", err)
	}
	r, err := NewReplayer(s, Options{Verify: verify})
	if err != nil {
		t.Fatalf("NewReplayer: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func mustScript(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseString(t.Name(), src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return s
}

func TestReplayMatchesRebuild(t *testing.T) {
	r := newReplayer(t, feedTOML, true)
	s := mustScript(t, `
insert list:1 count 2
measure list:0 height 60
move list:4 to list:0
delete list:1
tick 1s
insert section 1 more like list count 2
move section tiles to 0
scroll 50
resize 320 100
check
`)
	if err := r.Run(context.Background(), s); err != nil {
		t.Fatalf("Run: %v", err)
	}

	results := r.Results()
	if len(results) != len(s.Steps) {
		t.Fatalf("got %d results, want %d", len(results), len(s.Steps))
	}
	for _, res := range results {
		if !res.Verified {
			t.Errorf("step %d %q not verified", res.Index, res.Step)
		}
	}
	if tick := results[4]; tick.Timers != 1 {
		t.Errorf("tick fired %d timers, want 1", tick.Timers)
	}
	if got := results[len(results)-2].Offset; got != 50 {
		t.Errorf("offset after resize = %v, want 50", got)
	}

	h := r.Host()
	if i, _ := h.SectionIndex("tiles"); i != 0 {
		t.Errorf("tiles at %d, want 0", i)
	}
	list, _ := h.SectionIndex("list")
	if f, _ := r.Composite().SectionFrame(list); f.Height != 4*44 {
		t.Errorf("list height = %v, want %v", f.Height, 4*44)
	}
	more, _ := h.Section(2)
	if more.ID != "more" || more.Items != 2 || !more.SelfSizing || len(more.Heights) != 0 {
		t.Errorf("inserted section = %+v", more)
	}
	if m, ok := h.StrategyFor(0).(*mosaic.Mosaic); !ok || m.Rotations() != 1 {
		t.Errorf("tiles strategy = %T, want one rotation", h.StrategyFor(0))
	}
}

func TestReplayAdjustsOffset(t *testing.T) {
	r := newReplayer(t, `
name = "long"

[viewport]
width = 320
height = 200

[[sections]]
id = "list"
type = "rows"
items = 20
self_sizing = true
estimated_height = 44
`, false)

	s := mustScript(t, "scroll 300\nmeasure list:0 height 64")
	if err := r.Run(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	last := r.Results()[1]
	if last.Adjusted != 20 || last.Offset != 320 {
		t.Errorf("measure above viewport: adjusted %v offset %v, want 20 and 320", last.Adjusted, last.Offset)
	}
	if last.Height != 20*44+20 {
		t.Errorf("height = %v, want %v", last.Height, 20*44+20)
	}
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"unknown section", "insert nowhere:0", errors.ErrCodeNotFound},
		{"section out of range", "delete section 7", errors.ErrCodeNotFound},
		{"item out of range", "delete list:5", errors.ErrCodeInvalidInput},
		{"missing footer", "measure footer list height 10", errors.ErrCodeInvalidInput},
		{"duplicate section", "insert section 0 tiles", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReplayer(t, feedTOML, false)
			err := r.Run(context.Background(), mustScript(t, tt.src))
			if !errors.Is(err, tt.code) {
				t.Errorf("Run(%q) = %v, want %s", tt.src, err, tt.code)
			}
		})
	}
}

func TestReplayStopsOnCancel(t *testing.T) {
	r := newReplayer(t, feedTOML, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Run(ctx, mustScript(t, "insert list:0"))
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if len(r.Results()) != 0 {
		t.Error("steps ran after cancellation")
	}
}

func TestReloadInvalidatesEverything(t *testing.T) {
	r := newReplayer(t, feedTOML, false)
	before := r.Snapshot(scene.CaptureOptions{})
	if err := r.Run(context.Background(), mustScript(t, "reload\nreload list:2\ncheck")); err != nil {
		t.Fatal(err)
	}
	if diff := scene.Diff(r.Snapshot(scene.CaptureOptions{}), before); len(diff) > 0 {
		t.Errorf("reload moved elements: %v", diff)
	}
}

func TestAdvanceAndScrollBy(t *testing.T) {
	r := newReplayer(t, feedTOML, false)

	if n, err := r.Advance(500 * time.Millisecond); err != nil || n != 0 {
		t.Errorf("Advance(500ms) = %d, %v; want 0 timers", n, err)
	}
	if n, err := r.Advance(500 * time.Millisecond); err != nil || n != 1 {
		t.Errorf("Advance(1s total) = %d, %v; want 1 timer", n, err)
	}
	if err := r.ScrollBy(40); err != nil {
		t.Fatal(err)
	}
	if y := r.Host().Bounds().Y; y != 40 {
		t.Errorf("offset = %v, want 40", y)
	}
	if len(r.Results()) != 0 {
		t.Errorf("browsing recorded %d steps", len(r.Results()))
	}
	if err := r.Verify(); err != nil {
		t.Error(err)
	}
}
