package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/pipeline"
)

// renderCommand creates the render command for drawing scenes.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		flags      sceneFlags
	)
	opts := pipeline.Options{}
	opts.SetRenderDefaults()

	cmd := &cobra.Command{
		Use:   "render [scene.toml]",
		Short: "Render a scene to SVG, PDF, PNG or JSON",
		Long: `Render a scene to SVG, PDF, PNG or JSON.

The scene is laid out and the optional mutation script replayed exactly as
with 'layout'; the final snapshot is then drawn. Sections are shown as
alternating bands, pinned headers and footers in their own colors and the
visible rectangle as an outline.

With --viewport only what is on screen is drawn, in screen coordinates.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), sceneArg(args), flags, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG pixels per point")
	cmd.Flags().BoolVar(&opts.Sections, "sections", true, "draw section bands")
	cmd.Flags().BoolVar(&opts.Outline, "outline", true, "outline the viewport")
	flags.register(cmd)

	return cmd
}

// runRender replays the scene and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, flags sceneFlags, ropts pipeline.Options, output string) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Formats = ropts.Formats
	opts.Scale = ropts.Scale
	opts.Sections = ropts.Sections
	opts.Outline = ropts.Outline
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, sceneName(input), output)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.Sections, result.Stats.Elements, result.Stats.Steps,
		result.CacheInfo.SnapshotHit && result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each rendered format and returns the paths written.
// A single format goes to output verbatim when it is set.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	if len(formats) == 1 && output != "" {
		if err := os.WriteFile(output, artifacts[formats[0]], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", output, err)
		}
		return []string{output}, nil
	}

	base := basePath(output, input)
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
