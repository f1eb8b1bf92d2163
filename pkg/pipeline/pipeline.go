// Package pipeline provides the scene pipeline shared by the CLI commands.
//
// The pipeline has three stages:
//
//  1. Load: Read a scene file (or the built-in profile scene) and an
//     optional mutation script
//  2. Replay: Lay the scene out, apply the script step by step and capture
//     a snapshot of the resulting geometry
//  3. Render: Draw the snapshot as SVG, PDF or PNG, or emit it as JSON
//
// Replayed snapshots and rendered artifacts are cached by content hash, so
// re-running an unchanged scene and script only costs the cache lookups.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ScenePath:  "inbox.toml",
//	    ScriptPath: "scroll.sfs",
//	    Verify:     true,
//	    Formats:    []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	sc, scr, err := runner.Load(ctx, opts)
//	snap, steps, err := runner.Replay(ctx, sc, scr, opts)
//	artifacts, err := runner.Render(ctx, snap, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sectionflow/pkg/cache"
	"github.com/matzehuels/sectionflow/pkg/render"
	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// =============================================================================
// Default Values - Single Source of Truth for the CLI
// =============================================================================

const (
	// DefaultScale is the PNG resolution in pixels per point.
	DefaultScale = render.DefaultScale

	// DefaultFormat is the output format when none is requested.
	DefaultFormat = FormatSVG
)

// Format constants for output formats.
const (
	FormatSVG  = render.FormatSVG
	FormatPNG  = render.FormatPNG
	FormatPDF  = render.FormatPDF
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the scene pipeline.
type Options struct {
	// Load options. With neither ScenePath nor SceneData the built-in
	// profile scene is used.
	ScenePath   string `json:"scene_path,omitempty"`
	SceneData   []byte `json:"-"`
	SceneFormat string `json:"scene_format,omitempty"` // Format of SceneData; defaults to TOML
	ScriptPath  string `json:"script_path,omitempty"`
	Script      string `json:"script,omitempty"` // Inline script source, used when ScriptPath is empty
	Demo        bool   `json:"demo,omitempty"`   // Replay the profile demo script when no script is given

	// Replay options. Zero viewport values keep the scene's.
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Offset   float64 `json:"offset,omitempty"`
	Viewport bool    `json:"viewport,omitempty"` // Capture only the visible elements
	Verify   bool    `json:"verify,omitempty"`   // Compare against a rebuild after every step
	Refresh  bool    `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Sections bool     `json:"sections,omitempty"` // Draw section bands
	Outline  bool     `json:"outline,omitempty"`  // Outline the viewport on full snapshots

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the loaded scene before the script ran.
	Scene *scene.Scene

	// SceneHash is the content hash of the scene.
	SceneHash string

	// Snapshot is the geometry after the script ran.
	Snapshot *scene.Snapshot

	// Steps has one entry per script step. Empty on snapshot cache hits
	// of scripts without steps.
	Steps []script.StepResult

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Sections   int
	Elements   int
	Steps      int
	LoadTime   time.Duration
	ReplayTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // Whether the snapshot came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForReplay(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the scene and script sources.
func (o *Options) ValidateForLoad() error {
	if o.ScenePath != "" && len(o.SceneData) > 0 {
		return fmt.Errorf("scene path and scene data are mutually exclusive")
	}
	if o.ScriptPath != "" && o.Script != "" {
		return fmt.Errorf("script path and inline script are mutually exclusive")
	}
	if len(o.SceneData) > 0 && o.SceneFormat == "" {
		o.SceneFormat = scene.FormatTOML
	}
	if o.SceneFormat != "" && o.SceneFormat != scene.FormatTOML && o.SceneFormat != scene.FormatJSON {
		return fmt.Errorf("invalid scene format: %q (must be one of: toml, json)", o.SceneFormat)
	}
	o.setLogger()
	return nil
}

// ValidateForReplay checks viewport overrides.
func (o *Options) ValidateForReplay() error {
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("viewport size cannot be negative")
	}
	if o.Offset < 0 {
		return fmt.Errorf("scroll offset cannot be negative")
	}
	o.setLogger()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return fmt.Errorf("scale cannot be negative")
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// RenderOptions returns the renderer options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Scale:    o.Scale,
		Viewport: o.Outline,
		Sections: o.Sections,
	}
}

// SnapshotKeyOpts returns cache key options for replay.
func (o *Options) SnapshotKeyOpts(scriptHash string) cache.SnapshotKeyOpts {
	return cache.SnapshotKeyOpts{
		ScriptHash: scriptHash,
		Width:      o.Width,
		Height:     o.Height,
		Offset:     o.Offset,
		Viewport:   o.Viewport,
		Verify:     o.Verify,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Scale:    o.Scale,
		Viewport: o.Outline,
		Sections: o.Sections,
	}
}
