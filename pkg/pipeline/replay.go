package pipeline

import (
	"context"

	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// Replay lays sc out, applies scr (which may be nil) and captures the
// resulting geometry. The scene itself is not modified.
func Replay(ctx context.Context, sc *scene.Scene, scr *script.Script, opts Options) (*scene.Snapshot, []script.StepResult, error) {
	sc = applyViewport(sc.Clone(), opts)

	r, err := script.NewReplayer(sc, script.Options{Verify: opts.Verify, Logger: opts.Logger})
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	if opts.Verify {
		if err := r.Verify(); err != nil {
			return nil, nil, err
		}
	}
	if scr != nil {
		if err := r.Run(ctx, scr); err != nil {
			return nil, r.Results(), err
		}
	}
	return r.Snapshot(scene.CaptureOptions{Viewport: opts.Viewport}), r.Results(), nil
}

func applyViewport(sc *scene.Scene, opts Options) *scene.Scene {
	if opts.Width > 0 {
		sc.Viewport.Width = opts.Width
	}
	if opts.Height > 0 {
		sc.Viewport.Height = opts.Height
	}
	if opts.Offset > 0 {
		sc.Viewport.Offset = opts.Offset
	}
	return sc
}
