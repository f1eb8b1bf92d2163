package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sectionflow/pkg/cache"
	"github.com/matzehuels/sectionflow/pkg/observability"
	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// replayRecord is the cached form of a replay.
type replayRecord struct {
	Snapshot *scene.Snapshot     `json:"snapshot"`
	Steps    []script.StepResult `json:"steps,omitempty"`
}

// Execute runs the complete load → replay → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	sc, scr, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Scene = sc
	result.SceneHash = sceneHash(sc)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Sections = len(sc.Sections)
	if scr != nil {
		result.Stats.Steps = len(scr.Steps)
	}

	r.Logger.Info("loaded scene",
		"scene", sc.Name,
		"sections", len(sc.Sections),
		"steps", result.Stats.Steps,
		"duration", result.Stats.LoadTime)

	// Stage 2: Replay
	replayStart := time.Now()
	snap, steps, hit, err := r.ReplayWithCacheInfo(ctx, sc, scr, opts)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	result.Snapshot = snap
	result.Steps = steps
	result.Stats.ReplayTime = time.Since(replayStart)
	result.Stats.Elements = len(snap.Elements)
	result.CacheInfo.SnapshotHit = hit

	r.Logger.Info("replayed layout",
		"height", snap.Height,
		"elements", len(snap.Elements),
		"cached", hit,
		"duration", result.Stats.ReplayTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, snap, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the scene and script named by opts.
func (r *Runner) Load(ctx context.Context, opts Options) (*scene.Scene, *script.Script, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, err
	}
	source := sceneSource(opts)
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, source)

	sc, err := LoadScene(opts)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, nil, err
	}
	scr, err := LoadScript(opts)
	observability.Pipeline().OnLoadComplete(ctx, source, len(sc.Sections), time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return sc, scr, nil
}

// ReplayWithCacheInfo replays scr against sc with caching and returns cache
// hit info.
func (r *Runner) ReplayWithCacheInfo(ctx context.Context, sc *scene.Scene, scr *script.Script, opts Options) (*scene.Snapshot, []script.StepResult, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForReplay(); err != nil {
		return nil, nil, false, err
	}

	var scriptHash string
	steps := 0
	if scr != nil {
		scriptHash = cache.Hash([]byte(scr.String()))
		steps = len(scr.Steps)
	}
	cacheKey := r.Keyer.SnapshotKey(sceneHash(sc), opts.SnapshotKeyOpts(scriptHash))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var rec replayRecord
			if err := json.Unmarshal(data, &rec); err == nil && rec.Snapshot != nil {
				observability.Cache().OnCacheHit(ctx, "snapshot")
				return rec.Snapshot, rec.Steps, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "snapshot")
	}

	start := time.Now()
	observability.Pipeline().OnReplayStart(ctx, steps)
	snap, results, err := Replay(ctx, sc, scr, opts)
	observability.Pipeline().OnReplayComplete(ctx, steps, time.Since(start), err)
	if err != nil {
		return nil, results, false, err
	}

	if data, err := json.Marshal(replayRecord{Snapshot: snap, Steps: results}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLSnapshot); err == nil {
			observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
		}
	}

	return snap, results, false, nil
}

// Replay is a convenience wrapper that calls ReplayWithCacheInfo and discards the cache hit info.
func (r *Runner) Replay(ctx context.Context, sc *scene.Scene, scr *script.Script, opts Options) (*scene.Snapshot, []script.StepResult, error) {
	snap, steps, _, err := r.ReplayWithCacheInfo(ctx, sc, scr, opts)
	return snap, steps, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, snap *scene.Snapshot, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hash, err := snapshotHash(snap)
	if err != nil {
		return nil, false, fmt.Errorf("serialize snapshot for cache key: %w", err)
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(snap, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, snap *scene.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, snap, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// sceneHash hashes the canonical JSON form of a scene.
func sceneHash(sc *scene.Scene) string {
	data, err := scene.Marshal(sc, scene.FormatJSON)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// snapshotHash hashes a snapshot's geometry. The run ID is left out so that
// identical layouts share artifacts.
func snapshotHash(snap *scene.Snapshot) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("nil snapshot")
	}
	anon := *snap
	anon.ID = ""
	data, err := json.Marshal(&anon)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
