package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sectionflow/pkg/buildinfo"
	"github.com/matzehuels/sectionflow/pkg/cache"
	"github.com/matzehuels/sectionflow/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "sectionflow"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Sectionflow lays out sectioned scroll views incrementally",
		Long:         `Sectionflow lays out scenes made of rows, grid and mosaic sections, replays mutation scripts against the incremental layout and renders the result as SVG, PDF, PNG or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped to
// the build so that entries written by other versions are never read.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, buildinfo.CachePrefix())
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/sectionflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// sceneFlags holds the flags shared by every command that loads a scene.
type sceneFlags struct {
	script   string
	demo     bool
	width    float64
	height   float64
	offset   float64
	viewport bool
	verify   bool
	noCache  bool
	refresh  bool
}

// register adds the shared flags to cmd.
func (f *sceneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.script, "script", "s", "", "mutation script to replay (.sfs)")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "replay the built-in demo script when no script is given")
	cmd.Flags().Float64Var(&f.width, "width", 0, "viewport width (default: scene's)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "viewport height (default: scene's)")
	cmd.Flags().Float64Var(&f.offset, "offset", 0, "initial scroll offset (default: scene's)")
	cmd.Flags().BoolVar(&f.viewport, "viewport", false, "capture only the elements in the viewport")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "compare against a full rebuild after every step")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached snapshots")
}

// options converts the flags into pipeline options for the scene at path.
// An empty path selects the built-in profile scene.
func (f *sceneFlags) options(path string) pipeline.Options {
	return pipeline.Options{
		ScenePath:  path,
		ScriptPath: f.script,
		Demo:       f.demo,
		Width:      f.width,
		Height:     f.height,
		Offset:     f.offset,
		Viewport:   f.viewport,
		Verify:     f.verify,
		Refresh:    f.refresh,
	}
}

// sceneArg returns the optional scene argument.
func sceneArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the output path without extension. With no explicit
// output the scene path (or scene name) is used.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
