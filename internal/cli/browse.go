package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/cache"
	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/layout"
	"github.com/matzehuels/sectionflow/pkg/pipeline"
	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

const (
	// defaultFrame is how often the browser advances mosaic timers.
	defaultFrame = 100 * time.Millisecond

	// lineStep is the scroll distance of a single up/down key press.
	lineStep = 24.0
)

// Map styles
var (
	mapEvenStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	mapOddStyle    = lipgloss.NewStyle().Foreground(colorBlue)
	mapBannerStyle = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	mapPinnedStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	mapDecorStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for scrolling a live layout.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags  sceneFlags
		output string
		frame  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "browse [scene.toml]",
		Short: "Scroll through a live layout in the terminal",
		Long: `Scroll through a live layout in the terminal.

The viewport is drawn as a character map that follows the incremental
layout: headers pin while their section scrolls by, mosaic sections rotate
on their timers and script steps can be applied one at a time.

Keys:
  ↑/k ↓/j    scroll a line      pgup/pgdown  scroll a page
  g          back to the top    n            apply the next script step
  e          export an SVG      q            quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), sceneArg(args), flags, output, frame)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "base path of exported SVGs (default: <scene>)")
	cmd.Flags().DurationVar(&frame, "frame", defaultFrame, "mosaic timer resolution")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, flags sceneFlags, output string, frame time.Duration) error {
	if frame <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "frame must be positive")
	}

	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Logger = c.Logger
	sc, scr, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	sc = sc.Clone()
	if opts.Width > 0 {
		sc.Viewport.Width = opts.Width
	}
	if opts.Height > 0 {
		sc.Viewport.Height = opts.Height
	}
	if opts.Offset > 0 {
		sc.Viewport.Offset = opts.Offset
	}

	// The TUI owns the terminal, so nothing may log while it runs.
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	r, err := script.NewReplayer(sc, script.Options{Verify: flags.verify, Logger: quiet})
	if err != nil {
		return err
	}
	defer r.Close()

	var steps []*script.Step
	if scr != nil {
		steps = scr.Steps
	}
	m := newBrowseModel(r, steps, frame)
	m.export = newExporter(ctx, basePath(output, sceneName(input)), quiet)

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(browseModel); ok {
		for _, p := range fm.exported {
			printFile(p)
		}
		if fm.err != nil {
			return fm.err
		}
	}
	return nil
}

// newExporter returns a function that renders snapshots to numbered SVG
// files next to base. Identical frames are rendered once.
func newExporter(ctx context.Context, base string, logger *log.Logger) func(*scene.Snapshot) (string, error) {
	runner := pipeline.NewRunner(cache.NewMemoryCache(16), nil, logger)
	n := 0
	return func(snap *scene.Snapshot) (string, error) {
		artifacts, err := runner.Render(ctx, snap, pipeline.Options{
			Formats:  []string{pipeline.FormatSVG},
			Sections: true,
			Outline:  true,
		})
		if err != nil {
			return "", err
		}
		n++
		path := fmt.Sprintf("%s-%d.svg", base, n)
		if err := os.WriteFile(path, artifacts[pipeline.FormatSVG], 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, nil
	}
}

// =============================================================================
// browseModel - Live layout viewer
// =============================================================================

// frameMsg advances the mosaic clock by one frame.
type frameMsg time.Time

type browseModel struct {
	replayer *script.Replayer
	steps    []*script.Step
	next     int
	frame    time.Duration
	rotated  int

	cols, rows int
	status     string
	err        error

	export   func(*scene.Snapshot) (string, error)
	exported []string
}

func newBrowseModel(r *script.Replayer, steps []*script.Step, frame time.Duration) browseModel {
	return browseModel{
		replayer: r,
		steps:    steps,
		frame:    frame,
		cols:     48,
		rows:     20,
	}
}

func (m browseModel) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m browseModel) Init() tea.Cmd {
	return m.tick()
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		n, err := m.replayer.Advance(m.frame)
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.rotated += n
		return m, m.tick()

	case tea.KeyMsg:
		page := m.replayer.Host().Bounds().Height
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "down", "j":
			m.scroll(lineStep)
		case "up", "k":
			m.scroll(-lineStep)
		case "pgdown", " ":
			m.scroll(page)
		case "pgup":
			m.scroll(-page)
		case "g", "home":
			m.scroll(-m.replayer.Host().Bounds().Y)
		case "n", "enter":
			m.step()
		case "e":
			m.exportSnapshot()
		}

	case tea.WindowSizeMsg:
		m.cols = max(msg.Width-2, 8)
		m.rows = max(msg.Height-6, 4)
	}
	if m.err != nil {
		return m, tea.Quit
	}
	return m, nil
}

func (m *browseModel) scroll(dy float64) {
	if err := m.replayer.ScrollBy(dy); err != nil {
		m.err = err
	}
}

func (m *browseModel) step() {
	if m.next >= len(m.steps) {
		m.status = "no more steps"
		return
	}
	st := m.steps[m.next]
	res, err := m.replayer.Step(st)
	if err != nil {
		if errors.Is(err, errors.ErrCodeDiverged) || errors.IsContractViolation(err) {
			m.err = fmt.Errorf("line %d: %s: %w", st.Pos.Line, st, err)
			return
		}
		m.status = errors.UserMessage(err)
		m.next++
		return
	}
	m.next++
	m.status = fmt.Sprintf("%d/%d %s", m.next, len(m.steps), res.Step)
	if res.Verified {
		m.status += " " + iconSuccess
	}
}

func (m *browseModel) exportSnapshot() {
	if m.export == nil {
		return
	}
	path, err := m.export(m.replayer.Snapshot(scene.CaptureOptions{}))
	if err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	m.exported = append(m.exported, path)
	m.status = "exported " + path
}

func (m browseModel) View() string {
	var b strings.Builder

	snap := m.replayer.Snapshot(scene.CaptureOptions{Viewport: true})
	b.WriteString(StyleTitle.Render(snap.Scene))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  offset %s of %s  ·  %d rotations",
		formatNum(snap.Viewport.Y), formatNum(snap.Height), m.rotated)))
	b.WriteString("\n\n")
	b.WriteString(viewportMap(snap, m.cols, m.rows))
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(StyleHighlight.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render("↑/↓ scroll  pgup/pgdn page  n step  e export  q quit"))
	return b.String()
}

// =============================================================================
// Viewport Map
// =============================================================================

var (
	cellCategory          = layout.CategoryCell.String()
	supplementaryCategory = layout.CategorySupplementary.String()
	decorationCategory    = layout.CategoryDecoration.String()
)

// mapCell is one character of the viewport map.
type mapCell struct {
	r     rune
	style *lipgloss.Style
}

// viewportMap draws the elements of a clipped snapshot into a cols × rows
// character grid scaled to the viewport. Elements are painted in z order so
// pinned banners cover the cells scrolling beneath them.
func viewportMap(snap *scene.Snapshot, cols, rows int) string {
	grid := make([][]mapCell, rows)
	for y := range grid {
		grid[y] = make([]mapCell, cols)
		for x := range grid[y] {
			grid[y][x] = mapCell{r: ' '}
		}
	}

	v := snap.Viewport
	if v.Width <= 0 || v.Height <= 0 {
		return ""
	}
	sx := float64(cols) / v.Width
	sy := float64(rows) / v.Height

	for _, e := range snap.Elements {
		x0 := clampInt(int(math.Floor((e.X-v.X)*sx)), 0, cols)
		x1 := clampInt(int(math.Ceil((e.X+e.Width-v.X)*sx)), 0, cols)
		y0 := clampInt(int(math.Floor((e.Y-v.Y)*sy)), 0, rows)
		y1 := clampInt(int(math.Ceil((e.Y+e.Height-v.Y)*sy)), 0, rows)
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		glyph, style := mapGlyph(e)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				grid[y][x] = mapCell{r: glyph, style: style}
			}
		}
		if e.Category == cellCategory && x1-x0 > 1 {
			label := []rune(fmt.Sprint(e.Item))
			for i := 0; i < len(label) && x0+i < x1; i++ {
				grid[y0][x0+i] = mapCell{r: label[i], style: &mapBannerStyle}
			}
		}
	}

	lines := make([]string, rows)
	for y, row := range grid {
		var line strings.Builder
		for x := 0; x < len(row); {
			run := x
			for run < len(row) && row[run].style == row[x].style {
				run++
			}
			var seg strings.Builder
			for _, c := range row[x:run] {
				seg.WriteRune(c.r)
			}
			if row[x].style != nil {
				line.WriteString(row[x].style.Render(seg.String()))
			} else {
				line.WriteString(seg.String())
			}
			x = run
		}
		lines[y] = line.String()
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Render(strings.Join(lines, "\n"))
}

// mapGlyph picks the character and style an element is drawn with.
func mapGlyph(e scene.Element) (rune, *lipgloss.Style) {
	switch {
	case e.Pinned:
		return '▓', &mapPinnedStyle
	case e.Category == decorationCategory && e.Kind == string(layout.KindSeparator):
		return '─', &mapDecorStyle
	case e.Category == decorationCategory:
		return '·', &mapDecorStyle
	case e.Category == supplementaryCategory:
		return '█', &mapBannerStyle
	case e.Section%2 == 1:
		return '▒', &mapOddStyle
	}
	return '░', &mapEvenStyle
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
