package script

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/layout/mosaic"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

// maxDiffLines limits the differences quoted in a DIVERGED error.
const maxDiffLines = 8

// Options configures a Replayer.
type Options struct {
	// Verify compares the layout against a rebuild after every step. Check
	// steps compare regardless.
	Verify bool

	// Logger receives one debug line per step. Nil discards.
	Logger *log.Logger
}

// StepResult describes the layout after one step.
type StepResult struct {
	Index    int
	Line     int
	Step     string
	Height   float64
	Offset   float64
	Applied  int
	Adjusted float64
	Timers   int
	Verified bool
}

// Replayer applies script steps to a scene host and its composite. Mosaic
// timers run on a manual scheduler that only tick steps advance, so replays
// are deterministic.
type Replayer struct {
	host      *scene.Host
	composite *layout.Composite
	scheduler *layout.ManualScheduler
	opts      Options
	logger    *log.Logger
	results   []StepResult
}

// NewReplayer builds a host and composite for s and lays them out,
// including the measurements recorded in the scene.
func NewReplayer(s *scene.Scene, opts Options) (*Replayer, error) {
	h, err := scene.NewHost(s)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	sched := layout.NewManualScheduler()
	copts := append(h.Options(), layout.WithScheduler(sched), layout.WithLogger(logger))
	r := &Replayer{
		host:      h,
		composite: layout.New(h, copts...),
		scheduler: sched,
		opts:      opts,
		logger:    logger,
	}
	if _, err := r.settle(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Host returns the scene host.
func (r *Replayer) Host() *scene.Host { return r.host }

// Composite returns the composite under test.
func (r *Replayer) Composite() *layout.Composite { return r.composite }

// Results returns the results of the steps run so far.
func (r *Replayer) Results() []StepResult { return r.results }

// Close stops the composite's timers.
func (r *Replayer) Close() { r.composite.Close() }

// Snapshot captures the current layout.
func (r *Replayer) Snapshot(opts scene.CaptureOptions) *scene.Snapshot {
	return scene.Capture(r.composite, r.host, opts)
}

// Run applies every step of s in order. It stops at the first failing step
// or when ctx is done.
func (r *Replayer) Run(ctx context.Context, s *Script) error {
	for _, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.Step(st); err != nil {
			return fmt.Errorf("line %d: %s: %w", st.Pos.Line, st, err)
		}
	}
	return nil
}

// Step applies one step.
func (r *Replayer) Step(st *Step) (StepResult, error) {
	res := StepResult{Index: len(r.results), Line: st.Pos.Line, Step: st.String()}
	verify := r.opts.Verify

	updates, err := r.apply(st, &res)
	if err != nil {
		return res, err
	}
	if len(updates) > 0 {
		if err := r.composite.PerformBatchUpdates(updates); err != nil {
			return res, err
		}
	}
	if st.Check != nil {
		verify = true
	}

	fb, err := r.settle()
	if err != nil {
		return res, err
	}
	res.Applied = fb.Applied
	res.Adjusted = fb.Adjustment.Y

	if verify {
		if err := r.Verify(); err != nil {
			return res, err
		}
		res.Verified = true
	}

	res.Height = r.composite.ContentSize().Height
	res.Offset = r.host.Bounds().Y
	r.results = append(r.results, res)
	r.logger.Debug("step", "n", res.Index, "step", res.Step, "height", res.Height,
		"offset", res.Offset, "feedback", res.Applied, "verified", res.Verified)
	return res, nil
}

// settle feeds measurements and applies the resulting scroll adjustment the
// way a host keeps visible content in place.
func (r *Replayer) settle() (scene.Feedback, error) {
	fb, err := scene.Settle(r.composite, r.host)
	if err != nil {
		return fb, err
	}
	if fb.Adjustment.Y != 0 {
		r.host.ScrollBy(fb.Adjustment.Y)
		if err := scene.Sync(r.composite, r.host); err != nil {
			return fb, err
		}
	}
	return fb, nil
}

// Verify compares the current layout with a rebuild of the same host state
// and returns a DIVERGED error listing the differences.
func (r *Replayer) Verify() error {
	fresh, err := r.host.Fresh()
	if err != nil {
		return err
	}
	fc := layout.New(fresh, fresh.Options()...)
	defer fc.Close()
	if _, err := scene.Settle(fc, fresh); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	got := scene.Capture(r.composite, r.host, scene.CaptureOptions{})
	want := scene.Capture(fc, fresh, scene.CaptureOptions{})
	diff := scene.Diff(got, want)
	if len(diff) == 0 {
		return nil
	}
	n := len(diff)
	if n > maxDiffLines {
		diff = append(diff[:maxDiffLines], fmt.Sprintf("... %d more", n-maxDiffLines))
	}
	return errors.New(errors.ErrCodeDiverged, "incremental layout differs from rebuild in %d places:\n  %s",
		n, strings.Join(diff, "\n  "))
}

func (r *Replayer) apply(st *Step, res *StepResult) ([]layout.Update, error) {
	h := r.host
	switch {
	case st.Reload != nil:
		if st.Reload.Target == nil {
			r.composite.InvalidateAll()
			return nil, nil
		}
		s, err := r.section(st.Reload.Target.Section)
		if err != nil {
			return nil, err
		}
		return h.ReloadItem(s, st.Reload.Target.Item)

	case st.Resize != nil:
		h.Resize(st.Resize.Width, st.Resize.Height)
		return nil, nil

	case st.Scroll != nil:
		if st.Scroll.By {
			h.ScrollBy(st.Scroll.Offset)
		} else {
			h.ScrollTo(st.Scroll.Offset)
		}
		return nil, nil

	case st.InsertSection != nil:
		return r.insertSection(st.InsertSection)

	case st.Insert != nil:
		s, err := r.section(st.Insert.Target.Section)
		if err != nil {
			return nil, err
		}
		return h.InsertItems(s, st.Insert.Target.Item, max(st.Insert.Count, 1))

	case st.DeleteSection != nil:
		s, err := r.section(st.DeleteSection.Section)
		if err != nil {
			return nil, err
		}
		return h.DeleteSection(s)

	case st.Delete != nil:
		s, err := r.section(st.Delete.Target.Section)
		if err != nil {
			return nil, err
		}
		return h.DeleteItems(s, st.Delete.Target.Item, max(st.Delete.Count, 1))

	case st.MoveSection != nil:
		s, err := r.section(st.MoveSection.Section)
		if err != nil {
			return nil, err
		}
		return h.MoveSection(s, st.MoveSection.To)

	case st.Move != nil:
		from, err := r.section(st.Move.From.Section)
		if err != nil {
			return nil, err
		}
		to, err := r.section(st.Move.To.Section)
		if err != nil {
			return nil, err
		}
		return h.MoveItem(
			layout.IndexPath{Section: from, Item: st.Move.From.Item},
			layout.IndexPath{Section: to, Item: st.Move.To.Item})

	case st.MeasureBanner != nil:
		s, err := r.section(st.MeasureBanner.Section)
		if err != nil {
			return nil, err
		}
		return nil, h.SetSupplementaryHeight(s, layout.Kind(st.MeasureBanner.Kind), st.MeasureBanner.Height)

	case st.Measure != nil:
		s, err := r.section(st.Measure.Target.Section)
		if err != nil {
			return nil, err
		}
		return nil, h.SetHeight(s, st.Measure.Target.Item, st.Measure.Height)

	case st.Tick != nil:
		d, err := st.Tick.Interval(mosaic.DefaultInterval)
		if err != nil {
			return nil, err
		}
		res.Timers = r.scheduler.Advance(d)
		return nil, nil

	case st.Check != nil:
		return nil, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidScript, "empty step")
}

func (r *Replayer) insertSection(op *InsertSection) ([]layout.Update, error) {
	sec := scene.Section{ID: op.ID, Type: scene.TypeRows, SelfSizing: true}
	if op.Like != "" {
		s, err := r.section(op.Like)
		if err != nil {
			return nil, err
		}
		sec, _ = r.host.Section(s)
		sec.ID = op.ID
		sec.Heights = nil
		if sec.Header != nil {
			sec.Header.Measured = 0
		}
		if sec.Footer != nil {
			sec.Footer.Measured = 0
		}
	}
	if op.Count != nil {
		sec.Items = *op.Count
	}
	return r.host.InsertSection(op.At, sec)
}

// section resolves a section index or id.
func (r *Replayer) section(ref string) (int, error) {
	if i, ok := r.host.SectionIndex(ref); ok {
		return i, nil
	}
	i, err := strconv.Atoi(ref)
	if err != nil || i < 0 || i >= r.host.NumberOfSections() {
		return 0, errors.New(errors.ErrCodeNotFound, "no section %q", ref)
	}
	return i, nil
}

// Elapsed returns the scheduler clock.
func (r *Replayer) Elapsed() time.Duration { return r.scheduler.Now() }

// Advance moves the mosaic clock forward by d without recording a step and
// returns the number of timers that fired.
func (r *Replayer) Advance(d time.Duration) (int, error) {
	n := r.scheduler.Advance(d)
	if n == 0 {
		return 0, nil
	}
	_, err := r.settle()
	return n, err
}

// ScrollBy moves the visible rectangle by dy without recording a step.
func (r *Replayer) ScrollBy(dy float64) error {
	r.host.ScrollBy(dy)
	return scene.Sync(r.composite, r.host)
}
