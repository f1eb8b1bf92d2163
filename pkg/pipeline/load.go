package pipeline

import (
	"fmt"
	"os"

	"github.com/matzehuels/sectionflow/pkg/errors"
	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/scene/profile"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// LoadScene reads the scene named by opts.
func LoadScene(opts Options) (*scene.Scene, error) {
	switch {
	case opts.ScenePath != "":
		return scene.ReadFile(opts.ScenePath)
	case len(opts.SceneData) > 0:
		format := opts.SceneFormat
		if format == "" {
			format = scene.FormatTOML
		}
		return scene.Parse(opts.SceneData, format)
	}
	return profile.Scene(), nil
}

// LoadScript reads the script named by opts. It returns nil when there is
// none.
func LoadScript(opts Options) (*script.Script, error) {
	switch {
	case opts.ScriptPath != "":
		f, err := os.Open(opts.ScriptPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New(errors.ErrCodeFileNotFound, "script not found: %s", opts.ScriptPath)
			}
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		return script.Parse(opts.ScriptPath, f)
	case opts.Script != "":
		return script.ParseString("inline", opts.Script)
	case opts.Demo:
		return profile.Script(), nil
	}
	return nil, nil
}

// sceneSource names where the scene comes from, for logs and hooks.
func sceneSource(opts Options) string {
	switch {
	case opts.ScenePath != "":
		return opts.ScenePath
	case len(opts.SceneData) > 0:
		return "inline"
	}
	return profile.Name
}
