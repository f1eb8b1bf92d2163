// Package profile provides a built-in sample scene: a social profile screen
// with every strategy and decoration the layout engine supports, plus a
// demo script that exercises it.
//
// The CLI falls back to this scene when no scene file is given.
package profile

import (
	_ "embed"

	"github.com/matzehuels/sectionflow/pkg/scene"
	"github.com/matzehuels/sectionflow/pkg/script"
)

// Name is the name the embedded scene and script report in errors.
const Name = "profile"

//go:embed profile.toml
var sceneTOML []byte

//go:embed demo.sfs
var demoScript string

// SceneTOML returns the scene file.
func SceneTOML() []byte {
	return sceneTOML
}

// Scene returns a fresh copy of the profile scene.
func Scene() *scene.Scene {
	s, err := scene.Parse(sceneTOML, scene.FormatTOML)
	if err != nil {
		panic("profile: embedded scene: " + err.Error())
	}
	return s
}

// ScriptSource returns the demo script text.
func ScriptSource() string {
	return demoScript
}

// Script returns the parsed demo script.
func Script() *script.Script {
	s, err := script.ParseString(Name+".sfs", demoScript)
	if err != nil {
		panic("profile: embedded script: " + err.Error())
	}
	return s
}
