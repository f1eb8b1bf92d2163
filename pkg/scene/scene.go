package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/geom"
)

// Section types.
const (
	TypeRows   = "rows"
	TypeGrid   = "grid"
	TypeMosaic = "mosaic"
)

// Separator styles.
const (
	SeparatorNone       = "none"
	SeparatorAll        = "all"
	SeparatorAllButLast = "all-but-last"
)

// File formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// =============================================================================
// Types
// =============================================================================

// Scene is a scrollable screen made of sections.
type Scene struct {
	Name     string   `toml:"name" json:"name"`
	Viewport Viewport `toml:"viewport" json:"viewport"`

	// SeparatorColor and SeparatorThickness apply to every section that
	// does not set its own separator color.
	SeparatorColor     string  `toml:"separator_color,omitempty" json:"separator_color,omitempty"`
	SeparatorThickness float64 `toml:"separator_thickness,omitempty" json:"separator_thickness,omitempty"`

	Sections []Section `toml:"sections" json:"sections"`
}

// Viewport is the visible part of the scroll space.
type Viewport struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Offset float64 `toml:"offset,omitempty" json:"offset,omitempty"`

	// Scale is the device pixel scale used to snap derived lengths.
	// Zero means 2.
	Scale float64 `toml:"scale,omitempty" json:"scale,omitempty"`
}

// Rect returns the viewport in content coordinates.
func (v Viewport) Rect() geom.Rect { return geom.R(0, v.Offset, v.Width, v.Height) }

// Section configures one section of a scene. Only the parameters of the
// section's type are used.
type Section struct {
	ID     string `toml:"id" json:"id"`
	Type   string `toml:"type" json:"type"`
	Items  int    `toml:"items" json:"items"`
	Insets Insets `toml:"insets,omitempty" json:"insets,omitempty"`

	Header *Supplementary `toml:"header,omitempty" json:"header,omitempty"`
	Footer *Supplementary `toml:"footer,omitempty" json:"footer,omitempty"`

	Separator      string `toml:"separator,omitempty" json:"separator,omitempty"`
	SeparatorColor string `toml:"separator_color,omitempty" json:"separator_color,omitempty"`
	TopGutter      bool   `toml:"top_gutter,omitempty" json:"top_gutter,omitempty"`
	BottomGutter   bool   `toml:"bottom_gutter,omitempty" json:"bottom_gutter,omitempty"`
	GutterColor    string `toml:"gutter_color,omitempty" json:"gutter_color,omitempty"`

	// rows
	RowHeight       float64 `toml:"row_height,omitempty" json:"row_height,omitempty"`
	EstimatedHeight float64 `toml:"estimated_height,omitempty" json:"estimated_height,omitempty"`
	SelfSizing      bool    `toml:"self_sizing,omitempty" json:"self_sizing,omitempty"`
	Spacing         float64 `toml:"spacing,omitempty" json:"spacing,omitempty"`

	// grid
	ItemWidth   float64 `toml:"item_width,omitempty" json:"item_width,omitempty"`
	ItemHeight  float64 `toml:"item_height,omitempty" json:"item_height,omitempty"`
	Columns     int     `toml:"columns,omitempty" json:"columns,omitempty"`
	MinSpacing  float64 `toml:"min_spacing,omitempty" json:"min_spacing,omitempty"`
	LineSpacing float64 `toml:"line_spacing,omitempty" json:"line_spacing,omitempty"`
	Alignment   string  `toml:"alignment,omitempty" json:"alignment,omitempty"`

	// mosaic
	Interval    Duration `toml:"interval,omitempty" json:"interval,omitempty"`
	Arrangement string   `toml:"arrangement,omitempty" json:"arrangement,omitempty"`

	// Heights are the measured heights of self-sizing items by index. A
	// zero entry means the item has not been measured.
	Heights []float64 `toml:"heights,omitempty" json:"heights,omitempty"`
}

// Insets mirrors geom.Insets with file tags.
type Insets struct {
	Top    float64 `toml:"top,omitempty" json:"top,omitempty"`
	Left   float64 `toml:"left,omitempty" json:"left,omitempty"`
	Bottom float64 `toml:"bottom,omitempty" json:"bottom,omitempty"`
	Right  float64 `toml:"right,omitempty" json:"right,omitempty"`
}

// Geom converts to geom.Insets.
func (in Insets) Geom() geom.Insets {
	return geom.Insets{Top: in.Top, Left: in.Left, Bottom: in.Bottom, Right: in.Right}
}

// Supplementary configures a header or footer.
type Supplementary struct {
	Height    float64 `toml:"height" json:"height"`
	Estimated bool    `toml:"estimated,omitempty" json:"estimated,omitempty"`
	Pinned    bool    `toml:"pinned,omitempty" json:"pinned,omitempty"`

	// Measured is the height the element reports once displayed. Only
	// meaningful for estimated elements.
	Measured float64 `toml:"measured,omitempty" json:"measured,omitempty"`
}

// Duration is a time.Duration that reads and writes "3s" style strings.
// "off" disables a timer and is stored as a negative duration.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	if d < 0 {
		return []byte("off"), nil
	}
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "off" {
		*d = -1
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("duration %q: negative", s)
	}
	*d = Duration(v)
	return nil
}

// Clone returns a deep copy of s.
func (s *Scene) Clone() *Scene {
	out := *s
	out.Sections = make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		out.Sections[i] = sec.clone()
	}
	return &out
}

func (s Section) clone() Section {
	if s.Header != nil {
		h := *s.Header
		s.Header = &h
	}
	if s.Footer != nil {
		f := *s.Footer
		s.Footer = &f
	}
	s.Heights = append([]float64(nil), s.Heights...)
	return s
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the scene and returns an INVALID_SCENE error describing
// the first problem found.
func (s *Scene) Validate() error {
	if s.Viewport.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidScene, "viewport width must be positive, got %g", s.Viewport.Width)
	}
	if s.Viewport.Height < 0 || s.Viewport.Offset < 0 || s.Viewport.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "viewport height, offset and scale cannot be negative")
	}
	if s.SeparatorColor != "" {
		if err := errors.ValidateColor(s.SeparatorColor); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "separator_color")
		}
	}
	if s.SeparatorThickness < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "separator_thickness cannot be negative")
	}
	seen := make(map[string]bool, len(s.Sections))
	for i := range s.Sections {
		sec := &s.Sections[i]
		if err := sec.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "section %d", i)
		}
		if seen[sec.ID] {
			return errors.New(errors.ErrCodeInvalidScene, "section %d: duplicate id %q", i, sec.ID)
		}
		seen[sec.ID] = true
	}
	return nil
}

// Validate checks one section.
func (sec *Section) Validate() error {
	if err := errors.ValidateIdentifier(sec.ID); err != nil {
		return err
	}
	switch sec.Type {
	case TypeRows, TypeGrid, TypeMosaic:
	default:
		return errors.New(errors.ErrCodeUnknownStrategy, "unknown section type %q", sec.Type)
	}
	if sec.Items < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "items cannot be negative")
	}
	switch sec.Separator {
	case "", SeparatorNone, SeparatorAll, SeparatorAllButLast:
	default:
		return errors.New(errors.ErrCodeInvalidScene, "unknown separator style %q", sec.Separator)
	}
	for name, c := range map[string]string{"separator_color": sec.SeparatorColor, "gutter_color": sec.GutterColor} {
		if c == "" {
			continue
		}
		if err := errors.ValidateColor(c); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "%s", name)
		}
	}
	in := sec.Insets
	if in.Top < 0 || in.Left < 0 || in.Bottom < 0 || in.Right < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "insets cannot be negative")
	}
	for _, sup := range []*Supplementary{sec.Header, sec.Footer} {
		if sup != nil && (sup.Height < 0 || sup.Measured < 0) {
			return errors.New(errors.ErrCodeInvalidScene, "header and footer heights cannot be negative")
		}
	}
	if len(sec.Heights) > sec.Items {
		return errors.New(errors.ErrCodeInvalidScene, "%d heights for %d items", len(sec.Heights), sec.Items)
	}
	for i, h := range sec.Heights {
		if h < 0 {
			return errors.New(errors.ErrCodeInvalidScene, "height of item %d cannot be negative", i)
		}
	}
	if sec.RowHeight < 0 || sec.EstimatedHeight < 0 || sec.Spacing < 0 ||
		sec.ItemWidth < 0 || sec.ItemHeight < 0 || sec.Columns < 0 ||
		sec.MinSpacing < 0 || sec.LineSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "sizes and spacings cannot be negative")
	}
	if sec.Type == TypeGrid && sec.Columns == 0 && sec.ItemWidth == 0 {
		return errors.New(errors.ErrCodeInvalidScene, "grid needs columns or item_width")
	}
	_, err := sec.Strategy(0)
	return err
}

// =============================================================================
// Reading and Writing
// =============================================================================

// FormatForPath returns the file format implied by a path's extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer scene format from %q (want .toml or .json)", path)
	}
}

// Parse decodes and validates a scene.
func Parse(data []byte, format string) (*Scene, error) {
	var s Scene
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidScene, "unknown key %q", undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode json")
		}
	default:
		return nil, errors.ValidateFormat(format, FormatTOML, FormatJSON)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Read decodes a scene from r.
func Read(r io.Reader, format string) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(data, format)
}

// ReadFile reads a scene file, choosing the format by extension.
func ReadFile(path string) (*Scene, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Parse(data, format)
}

// Marshal encodes s in the given format.
func Marshal(s *Scene, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes s to w.
func Write(s *Scene, w io.Writer, format string) error {
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(s); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return errors.ValidateFormat(format, FormatTOML, FormatJSON)
	}
	return nil
}

// WriteFile writes s to path, choosing the format by extension.
func WriteFile(s *Scene, path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f, format)
}
