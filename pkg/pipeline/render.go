package pipeline

import (
	"fmt"

	"github.com/matzehuels/sectionflow/pkg/render"
	"github.com/matzehuels/sectionflow/pkg/scene"
)

// Render generates output artifacts in the requested formats. JSON is the
// snapshot itself; the other formats are drawn by the renderer.
func Render(snap *scene.Snapshot, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	ropts := opts.RenderOptions()

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = scene.MarshalSnapshot(snap)
		case FormatSVG, FormatPDF, FormatPNG:
			data, err = render.Render(snap, format, ropts)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
