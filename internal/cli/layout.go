package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/pipeline"
	"github.com/matzehuels/sectionflow/pkg/scene/profile"
)

// layoutCommand creates the layout command for computing scene geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		flags  sceneFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [scene.toml]",
		Short: "Compute the layout of a scene",
		Long: `Compute the layout of a scene and write it as a JSON snapshot.

The scene is laid out, the optional mutation script is replayed against the
incremental layout and the resulting frames of every cell, header, footer,
separator and gutter are written to a snapshot file. Snapshots can be drawn
with 'render' or examined with 'inspect'.

Without a scene argument the built-in profile scene is used.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), sceneArg(args), flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <scene>.layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout replays the scene and writes the snapshot.
func (c *CLI) runLayout(ctx context.Context, input string, flags sceneFlags, output string) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data := result.Artifacts[pipeline.FormatJSON]
	if output == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", sceneName(input)) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.Sections, result.Stats.Elements, result.Stats.Steps, result.CacheInfo.SnapshotHit)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	printNextStep("Inspect", appName+" inspect "+outputPath)

	return nil
}

// sceneName returns input, or the built-in scene's name when input is empty.
func sceneName(input string) string {
	if input == "" {
		return profile.Name
	}
	return input
}
