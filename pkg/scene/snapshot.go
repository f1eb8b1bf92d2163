package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/matzehuels/sectionflow/pkg/geom"
	"github.com/matzehuels/sectionflow/pkg/layout"
)

// =============================================================================
// Snapshot - Layout Wire Format
// =============================================================================

// Snapshot is the computed geometry of a scene at one point in time.
//
// Elements are in paint order: ascending z-index, then query order.
type Snapshot struct {
	ID    string `json:"id"`
	Scene string `json:"scene,omitempty"`

	// Width and Height are the content size.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Viewport Frame `json:"viewport"`

	// Clipped is set when Elements only covers the viewport.
	Clipped bool `json:"clipped,omitempty"`

	Sections []SectionFrame `json:"sections"`
	Elements []Element      `json:"elements"`
}

// Frame is a rectangle in content coordinates.
type Frame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// FrameOf converts a geom.Rect.
func FrameOf(r geom.Rect) Frame { return Frame{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height} }

// Rect converts back to a geom.Rect.
func (f Frame) Rect() geom.Rect { return geom.R(f.X, f.Y, f.Width, f.Height) }

// SectionFrame is the extent of one section.
type SectionFrame struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Items int    `json:"items"`
	Frame
}

// Element is one positioned element.
type Element struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Kind     string `json:"kind,omitempty"`
	Section  int    `json:"section"`
	Item     int    `json:"item"`
	Frame
	Z      int    `json:"z,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
	Color  string `json:"color,omitempty"`
}

// CaptureOptions selects what a snapshot contains.
type CaptureOptions struct {
	// Viewport limits elements to the host's visible rectangle.
	Viewport bool
}

// Capture records the current geometry of c. The host supplies section
// names and must be the one c lays out for.
func Capture(c *layout.Composite, h *Host, opts CaptureOptions) *Snapshot {
	size := c.ContentSize()
	bounds := c.Bounds()
	snap := &Snapshot{
		ID:       uuid.NewString(),
		Scene:    h.scene.Name,
		Width:    size.Width,
		Height:   size.Height,
		Viewport: FrameOf(bounds),
		Clipped:  opts.Viewport,
	}

	for s := 0; s < c.NumberOfSections(); s++ {
		f, _ := c.SectionFrame(s)
		sf := SectionFrame{Items: c.NumberOfItems(s), Frame: FrameOf(f)}
		if sec, ok := h.Section(s); ok {
			sf.ID, sf.Type = sec.ID, sec.Type
		}
		snap.Sections = append(snap.Sections, sf)
	}

	rect := geom.R(0, 0, size.Width, size.Height)
	if opts.Viewport {
		rect = bounds
	}
	elems := c.ElementsIn(rect)
	sort.SliceStable(elems, func(i, j int) bool { return elems[i].ZIndex < elems[j].ZIndex })
	snap.Elements = make([]Element, len(elems))
	for i, e := range elems {
		snap.Elements[i] = Element{
			Key:      e.Key.String(),
			Category: e.Key.Category.String(),
			Kind:     string(e.Key.Kind),
			Section:  e.Key.Section,
			Item:     e.Key.Item,
			Frame:    FrameOf(e.Frame),
			Z:        e.ZIndex,
			Pinned:   e.Pinned,
			Color:    e.Color,
		}
	}
	return snap
}

// Frames indexes the snapshot's elements by key.
func (s *Snapshot) Frames() map[string]geom.Rect {
	out := make(map[string]geom.Rect, len(s.Elements))
	for _, e := range s.Elements {
		out[e.Key] = e.Rect()
	}
	return out
}

// Diff lists the geometric differences between two snapshots, sorted by
// key. It returns nil when both agree within geom.Epsilon.
func Diff(got, want *Snapshot) []string {
	var out []string
	if !geom.Approx(got.Height, want.Height) {
		out = append(out, fmt.Sprintf("content height %g, want %g", got.Height, want.Height))
	}
	g, w := got.Frames(), want.Frames()
	var keyed []string
	for k, wf := range w {
		gf, ok := g[k]
		switch {
		case !ok:
			keyed = append(keyed, fmt.Sprintf("%s missing, want %v", k, FrameOf(wf)))
		case !gf.ApproxEqual(wf):
			keyed = append(keyed, fmt.Sprintf("%s at %v, want %v", k, FrameOf(gf), FrameOf(wf)))
		}
	}
	for k, gf := range g {
		if _, ok := w[k]; !ok {
			keyed = append(keyed, fmt.Sprintf("%s unexpected at %v", k, FrameOf(gf)))
		}
	}
	sort.Strings(keyed)
	return append(out, keyed...)
}

// ===== Serialization =====

// MarshalSnapshot encodes a snapshot as indented JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// WriteSnapshot writes s as JSON to w.
func WriteSnapshot(s *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads a snapshot from a JSON file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

// WriteSnapshotFile writes s to path.
func WriteSnapshotFile(s *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(s, f)
}
