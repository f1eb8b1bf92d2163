package render

import (
	"bytes"
	"image"
	_ "image/png"
	"testing"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

func testSnapshot() *scene.Snapshot {
	return &scene.Snapshot{
		ID:       "test",
		Scene:    "list",
		Width:    320,
		Height:   120,
		Viewport: scene.Frame{Width: 320, Height: 60},
		Sections: []scene.SectionFrame{
			{ID: "rows", Type: "rows", Items: 2, Frame: scene.Frame{Width: 320, Height: 120}},
		},
		Elements: []scene.Element{
			{Key: "cell[0:0]", Category: "cell", Frame: scene.Frame{Y: 20, Width: 320, Height: 50}},
			{Key: "cell[0:1]", Category: "cell", Frame: scene.Frame{Y: 70, Width: 320, Height: 50}},
			{Key: "separator[0:0]", Category: "decoration", Kind: "separator", Color: "#cccccc",
				Frame: scene.Frame{Y: 69.5, Width: 320, Height: 0.5}, Z: 1},
			{Key: "header[0]", Category: "supplementary", Kind: "header", Pinned: true,
				Frame: scene.Frame{Width: 320, Height: 20}, Z: 1024},
		},
	}
}

func TestRenderFormats(t *testing.T) {
	snap := testSnapshot()
	tests := []struct {
		format string
		prefix []byte
	}{
		{FormatSVG, []byte("<svg")},
		{FormatPDF, []byte("%PDF")},
		{FormatPNG, []byte("\x89PNG")},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Render(snap, tt.format, Options{Sections: true, Viewport: true})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			n := min(len(data), 64)
			if !bytes.Contains(data[:n], tt.prefix) {
				t.Errorf("output starts with %q, want %q", data[:n], tt.prefix)
			}
		})
	}
}

func TestRenderPNGSize(t *testing.T) {
	data, err := Render(testSnapshot(), FormatPNG, Options{Scale: 1, Margin: -1})
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.Height != 120 {
		t.Errorf("png is %dx%d, want 320x120", cfg.Width, cfg.Height)
	}

	clipped := testSnapshot()
	clipped.Clipped = true
	data, err = Render(clipped, FormatPNG, Options{Scale: 2, Margin: -1})
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 640 || cfg.Height != 120 {
		t.Errorf("clipped png is %dx%d, want 640x120", cfg.Width, cfg.Height)
	}
}

func TestRenderRejects(t *testing.T) {
	snap := testSnapshot()
	if _, err := Render(snap, "gif", Options{}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("gif: err = %v, want INVALID_FORMAT", err)
	}
	if _, err := Render(nil, FormatSVG, Options{}); err == nil {
		t.Error("nil snapshot rendered")
	}
	if _, err := Render(snap, FormatSVG, Options{Palette: Palette{Cell: "blue"}}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad color: err = %v, want INVALID_INPUT", err)
	}
}

func TestRenderAll(t *testing.T) {
	out, err := RenderAll(testSnapshot(), []string{FormatSVG, FormatPDF}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || len(out[FormatSVG]) == 0 || len(out[FormatPDF]) == 0 {
		t.Errorf("RenderAll returned %d artifacts", len(out))
	}
}

func TestStyle(t *testing.T) {
	p := DefaultPalette
	tests := []struct {
		name    string
		elem    scene.Element
		fill    string
		outline string
	}{
		{"cell", scene.Element{Category: "cell"}, p.Cell, p.Outline},
		{"separator keeps its color", scene.Element{Category: "decoration", Color: "#123456"}, "#123456", ""},
		{"gutter without color", scene.Element{Category: "decoration"}, p.Decoration, ""},
		{"header", scene.Element{Category: "supplementary", Kind: "header"}, p.Header, p.Outline},
		{"footer", scene.Element{Category: "supplementary", Kind: "footer"}, p.Footer, p.Outline},
		{"pinned", scene.Element{Category: "supplementary", Kind: "footer", Pinned: true}, p.Pinned, p.Outline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fill, outline := style(tt.elem, p)
			if fill != tt.fill || outline != tt.outline {
				t.Errorf("style = %s/%s, want %s/%s", fill, outline, tt.fill, tt.outline)
			}
		})
	}
}

func TestPaletteMerge(t *testing.T) {
	opts := Options{Palette: Palette{Cell: "#000"}}
	opts.SetDefaults()
	if opts.Palette.Cell != "#000" || opts.Palette.Header != DefaultPalette.Header {
		t.Errorf("palette = %+v", opts.Palette)
	}
	if opts.Scale != DefaultScale || opts.Margin != DefaultMargin {
		t.Errorf("defaults = %v/%v", opts.Scale, opts.Margin)
	}
}
