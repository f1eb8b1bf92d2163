package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/scene"
)

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// inspectCommand creates the inspect command for tabulating a layout.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags    sceneFlags
		elements bool
		section  int
	)

	cmd := &cobra.Command{
		Use:   "inspect [scene.toml | snapshot.json]",
		Short: "Print the sections and elements of a layout",
		Long: `Print the sections and elements of a layout as tables.

The argument is either a scene, which is laid out first (with the optional
script), or a snapshot written by 'layout'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, cached, err := c.loadSnapshot(cmd.Context(), sceneArg(args), flags)
			if err != nil {
				return err
			}
			printSnapshot(snap, cached, elements, section)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&elements, "elements", "e", false, "list every element")
	cmd.Flags().IntVar(&section, "section", -1, "only list elements of this section")
	flags.register(cmd)

	return cmd
}

// loadSnapshot reads input as a snapshot when it is one, and lays it out as
// a scene otherwise.
func (c *CLI) loadSnapshot(ctx context.Context, input string, flags sceneFlags) (*scene.Snapshot, bool, error) {
	if strings.HasSuffix(input, ".json") {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", input, err)
		}
		if snap, err := scene.UnmarshalSnapshot(data); err == nil && snap.ID != "" {
			return snap, false, nil
		}
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return nil, false, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Logger = c.Logger
	sc, scr, err := runner.Load(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	snap, _, hit, err := runner.ReplayWithCacheInfo(ctx, sc, scr, opts)
	if err != nil {
		return nil, false, err
	}
	return snap, hit, nil
}

// printSnapshot writes the summary, the section table and optionally the
// element table to stdout.
func printSnapshot(snap *scene.Snapshot, cached, elements bool, section int) {
	fmt.Println(StyleTitle.Render(snap.Scene))
	printKeyValue("Content", fmt.Sprintf("%s × %s", formatNum(snap.Width), formatNum(snap.Height)))
	printKeyValue("Viewport", formatFrame(snap.Viewport))
	printStats(len(snap.Sections), len(snap.Elements), 0, cached)
	printNewline()
	fmt.Println(sectionTable(snap))
	if elements || section >= 0 {
		printNewline()
		fmt.Println(elementTable(snap, section))
	}
}

// sectionTable renders one row per section.
func sectionTable(snap *scene.Snapshot) string {
	rows := make([][]string, 0, len(snap.Sections))
	for i, s := range snap.Sections {
		rows = append(rows, []string{
			strconv.Itoa(i), s.ID, s.Type, strconv.Itoa(s.Items),
			formatNum(s.Y), formatNum(s.Height),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Section", "Type", "Items", "Y", "Height").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return tableHeaderStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col >= 3:
				return lipgloss.NewStyle().Foreground(colorWhite).Align(lipgloss.Right)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		}).
		Render()
}

// elementTable renders one row per element, limited to section when it is
// not negative.
func elementTable(snap *scene.Snapshot, section int) string {
	var rows [][]string
	var pinned []bool
	for _, e := range snap.Elements {
		if section >= 0 && e.Section != section {
			continue
		}
		rows = append(rows, []string{e.Key, e.Category, formatFrame(e.Frame), strconv.Itoa(e.Z)})
		pinned = append(pinned, e.Pinned)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "Category", "Frame", "Z").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if row >= 0 && row < len(pinned) && pinned[row] {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func formatFrame(f scene.Frame) string {
	return fmt.Sprintf("(%s, %s) %s×%s", formatNum(f.X), formatNum(f.Y), formatNum(f.Width), formatNum(f.Height))
}

// formatNum prints v with at most two decimals and no trailing zeros.
func formatNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
