package render

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPDF, FormatPNG}

const (
	// DefaultScale is the PNG resolution in pixels per layout point.
	DefaultScale = 2.0

	// DefaultMargin surrounds the drawing.
	DefaultMargin = 8.0

	outlineWidth = 0.5
)

// Options controls how a snapshot is drawn.
type Options struct {
	// Scale is the PNG resolution in pixels per point. Zero means
	// DefaultScale. Vector formats ignore it.
	Scale float64

	// Margin is the blank border around the content. Negative means none,
	// zero means DefaultMargin.
	Margin float64

	// Viewport outlines the viewport on full-content snapshots.
	Viewport bool

	// Sections draws alternating bands behind each section.
	Sections bool

	// Palette overrides DefaultPalette. Empty entries keep the default.
	Palette Palette
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	o.Palette = o.Palette.merge(DefaultPalette)
}

// Validate checks the palette colors.
func (o *Options) Validate() error {
	for _, c := range o.Palette.colors() {
		if c == "" {
			continue
		}
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	return nil
}

// Palette assigns colors to element classes. Colors are "#rgb" or
// "#rrggbb".
type Palette struct {
	Background string
	SectionA   string
	SectionB   string
	Cell       string
	Outline    string
	Header     string
	Footer     string
	Pinned     string
	Decoration string
	Viewport   string
}

// DefaultPalette is a light scheme with iOS-like grays.
var DefaultPalette = Palette{
	Background: "#FFFFFF",
	SectionA:   "#F7F7F9",
	SectionB:   "#EEF1F6",
	Cell:       "#DCE6F5",
	Outline:    "#8FA6C8",
	Header:     "#E9E4F2",
	Footer:     "#EDEDED",
	Pinned:     "#C9B8E8",
	Decoration: "#C8C7CC",
	Viewport:   "#E0474C",
}

func (p Palette) merge(def Palette) Palette {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Palette{
		Background: pick(p.Background, def.Background),
		SectionA:   pick(p.SectionA, def.SectionA),
		SectionB:   pick(p.SectionB, def.SectionB),
		Cell:       pick(p.Cell, def.Cell),
		Outline:    pick(p.Outline, def.Outline),
		Header:     pick(p.Header, def.Header),
		Footer:     pick(p.Footer, def.Footer),
		Pinned:     pick(p.Pinned, def.Pinned),
		Decoration: pick(p.Decoration, def.Decoration),
		Viewport:   pick(p.Viewport, def.Viewport),
	}
}

func (p Palette) colors() []string {
	return []string{p.Background, p.SectionA, p.SectionB, p.Cell, p.Outline,
		p.Header, p.Footer, p.Pinned, p.Decoration, p.Viewport}
}

// =============================================================================
// Rendering
// =============================================================================

// Render draws snap in one format.
func Render(snap *scene.Snapshot, format string, opts Options) ([]byte, error) {
	if err := errors.ValidateFormat(format, Formats...); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing to render")
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := Draw(snap, opts)
	var buf bytes.Buffer
	switch format {
	case FormatSVG:
		w := svg.New(&buf, c.W, c.H, nil)
		c.RenderTo(w)
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("write svg: %w", err)
		}
	case FormatPDF:
		w := pdf.New(&buf, c.W, c.H, nil)
		c.RenderTo(w)
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("write pdf: %w", err)
		}
	case FormatPNG:
		img := rasterizer.Draw(c, canvas.DPMM(opts.Scale), canvas.DefaultColorSpace)
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("write png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// RenderAll draws snap in every requested format.
func RenderAll(snap *scene.Snapshot, formats []string, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, err := Render(snap, f, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		out[f] = data
	}
	return out, nil
}

// Draw paints snap onto a new canvas, one unit per layout point. Options
// are used as given; call SetDefaults first for the default palette.
func Draw(snap *scene.Snapshot, opts Options) *canvas.Canvas {
	origin := scene.Frame{Width: snap.Width, Height: snap.Height}
	if snap.Clipped {
		origin = snap.Viewport
	}
	m := opts.Margin
	c := canvas.New(origin.Width+2*m, origin.Height+2*m)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	// Content coordinates to canvas coordinates.
	at := func(f scene.Frame) (float64, float64) { return f.X - origin.X + m, f.Y - origin.Y + m }

	fill(ctx, opts.Palette.Background, "")
	ctx.DrawPath(0, 0, canvas.Rectangle(c.W, c.H))

	if opts.Sections {
		for i, s := range snap.Sections {
			if s.Height <= 0 {
				continue
			}
			band := opts.Palette.SectionA
			if i%2 == 1 {
				band = opts.Palette.SectionB
			}
			f := s.Frame
			f.Width = origin.Width
			if snap.Clipped && !overlaps(f, origin) {
				continue
			}
			fill(ctx, band, "")
			x, y := at(f)
			ctx.DrawPath(x, y, canvas.Rectangle(f.Width, f.Height))
		}
	}

	for _, e := range snap.Elements {
		if e.Width <= 0 || e.Height <= 0 {
			continue
		}
		color, outline := style(e, opts.Palette)
		fill(ctx, color, outline)
		x, y := at(e.Frame)
		ctx.DrawPath(x, y, canvas.Rectangle(e.Width, e.Height))
	}

	if opts.Viewport && !snap.Clipped {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(canvas.Hex(opts.Palette.Viewport))
		ctx.SetStrokeWidth(2 * outlineWidth)
		x, y := at(snap.Viewport)
		ctx.DrawPath(x, y, canvas.Rectangle(snap.Viewport.Width, snap.Viewport.Height))
	}
	return c
}

// style returns the fill and outline colors of an element.
func style(e scene.Element, p Palette) (string, string) {
	switch {
	case e.Category == layout.CategoryDecoration.String():
		if e.Color != "" {
			return e.Color, ""
		}
		return p.Decoration, ""
	case e.Pinned:
		return p.Pinned, p.Outline
	case e.Kind == string(layout.KindHeader):
		return p.Header, p.Outline
	case e.Kind == string(layout.KindFooter):
		return p.Footer, p.Outline
	}
	return p.Cell, p.Outline
}

func fill(ctx *canvas.Context, color, outline string) {
	ctx.SetFillColor(canvas.Hex(color))
	if outline == "" {
		ctx.SetStrokeColor(canvas.Transparent)
		return
	}
	ctx.SetStrokeColor(canvas.Hex(outline))
	ctx.SetStrokeWidth(outlineWidth)
}

func overlaps(a, b scene.Frame) bool {
	return a.Rect().Intersects(b.Rect())
}
