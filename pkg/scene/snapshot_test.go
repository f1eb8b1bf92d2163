package scene

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/matzehuels/sectionflow/pkg/geom"
)

func TestCaptureViewport(t *testing.T) {
	h, c := newInbox(t)
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	h.ScrollTo(100)
	h.Resize(320, 100)

	snap := Capture(c, h, CaptureOptions{Viewport: true})
	if !snap.Clipped || snap.Scene != "inbox" || snap.ID == "" {
		t.Errorf("snapshot header = %+v", snap)
	}
	if snap.Viewport != (Frame{X: 0, Y: 100, Width: 320, Height: 100}) {
		t.Errorf("viewport = %+v", snap.Viewport)
	}
	if len(snap.Sections) != 3 || snap.Sections[1].ID != "photos" || snap.Sections[1].Y != 204 {
		t.Errorf("sections = %+v", snap.Sections)
	}

	keys := map[string]bool{}
	for _, e := range snap.Elements {
		keys[e.Key] = true
	}
	for _, k := range []string{"cell[0:1]", "cell[0:2]", "separator[0:1]", "header[0]"} {
		if !keys[k] {
			t.Errorf("missing %s in %v", k, keys)
		}
	}
	if len(snap.Elements) != 4 {
		t.Errorf("got %d elements, want 4", len(snap.Elements))
	}

	last := snap.Elements[len(snap.Elements)-1]
	if last.Key != "header[0]" || !last.Pinned || last.Rect() != geom.R(0, 100, 320, 20) {
		t.Errorf("pinned header = %+v, want last and at the viewport top", last)
	}
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	h, c := newInbox(t)
	if _, err := Settle(c, h); err != nil {
		t.Fatal(err)
	}
	snap := Capture(c, h, CaptureOptions{})

	path := filepath.Join(t.TempDir(), "inbox.json")
	if err := WriteSnapshotFile(snap, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != snap.ID {
		t.Errorf("id = %q, want %q", got.ID, snap.ID)
	}
	if diff := Diff(got, snap); len(diff) > 0 {
		t.Errorf("round trip changed geometry: %v", diff)
	}
}

func TestDiffReportsChanges(t *testing.T) {
	a := &Snapshot{Height: 100, Elements: []Element{
		{Key: "cell[0:0]", Frame: Frame{Width: 10, Height: 10}},
		{Key: "cell[0:1]", Frame: Frame{Y: 10, Width: 10, Height: 10}},
	}}
	b := &Snapshot{Height: 110, Elements: []Element{
		{Key: "cell[0:0]", Frame: Frame{Width: 10, Height: 20}},
		{Key: "cell[0:2]", Frame: Frame{Y: 20, Width: 10, Height: 10}},
	}}
	diff := Diff(a, b)
	if len(diff) != 4 {
		t.Fatalf("Diff = %q, want 4 lines", diff)
	}
	if diff[0] != "content height 100, want 110" {
		t.Errorf("first line = %q", diff[0])
	}
	if len(Diff(a, a)) != 0 {
		t.Error("snapshot differs from itself")
	}
}

func TestWriteSnapshotIsIndented(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&Snapshot{ID: "x"}, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"id\": \"x\"")) {
		t.Errorf("output not indented:\n%s", buf.String())
	}
}
