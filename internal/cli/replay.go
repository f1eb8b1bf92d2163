package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// replayCommand creates the replay command for stepping through a script.
func (c *CLI) replayCommand() *cobra.Command {
	var flags sceneFlags

	cmd := &cobra.Command{
		Use:   "replay [scene.toml]",
		Short: "Replay a mutation script and report every step",
		Long: `Replay a mutation script against the incremental layout and print the
content height, scroll offset and feedback applied after every step.

Without a scene the built-in profile scene and its demo script are used.
With --verify the layout is compared against a full rebuild after every
step and the replay stops at the first divergence. 'check' steps always
compare.`,
		Example: `  sectionflow replay inbox.toml -s scroll.sfs --verify
  sectionflow replay --demo --verify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd.Context(), sceneArg(args), flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runReplay(ctx context.Context, input string, flags sceneFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Logger = c.Logger
	if input == "" {
		opts.Demo = true
	}

	sc, scr, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog := newProgress(loggerFromContext(ctx))
	snap, steps, hit, err := runner.ReplayWithCacheInfo(ctx, sc, scr, opts)

	if len(steps) > 0 {
		fmt.Println(stepTable(steps))
	} else if err == nil {
		printWarning("Script has no steps")
	}
	if err != nil {
		if errors.Is(err, errors.ErrCodeDiverged) {
			printError("Diverged at step %d", len(steps)+1)
			fmt.Println(StyleWarning.Render(errors.UserMessage(err)))
		}
		return err
	}
	prog.done(fmt.Sprintf("Replayed %d steps", len(steps)))

	verified := 0
	for _, st := range steps {
		if st.Verified {
			verified++
		}
	}
	printSuccess("Replay complete")
	printKeyValue("Height", formatNum(snap.Height))
	printKeyValue("Offset", formatNum(snap.Viewport.Y))
	if verified > 0 {
		printKeyValue("Verified", fmt.Sprintf("%d of %d steps", verified, len(steps)))
	}
	printStats(len(snap.Sections), len(snap.Elements), len(steps), hit)
	return nil
}

// stepTable renders one row per replayed step.
func stepTable(steps []script.StepResult) string {
	rows := make([][]string, 0, len(steps))
	for _, st := range steps {
		mark := ""
		if st.Verified {
			mark = iconSuccess
		}
		adjust := ""
		if st.Adjusted != 0 {
			adjust = fmt.Sprintf("%+g", st.Adjusted)
		}
		rows = append(rows, []string{
			strconv.Itoa(st.Line), st.Step, formatNum(st.Height), formatNum(st.Offset), adjust, mark,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Line", "Step", "Height", "Offset", "Adjust", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return tableHeaderStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 5:
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Align(lipgloss.Right)
		}).
		Render()
}
