// Package render draws layout snapshots with tdewolff/canvas.
//
// A snapshot is drawn as filled rectangles in paint order: section bands
// first, then every element by ascending z-index, so pinned headers cover
// the cells they float over. Colors come from a [Palette]; separators and
// gutters keep the color the layout assigned them.
//
//	snap := scene.Capture(c, host, scene.CaptureOptions{})
//	svg, err := render.Render(snap, render.FormatSVG, render.Options{})
//
// Clipped snapshots (captured with CaptureOptions.Viewport) are drawn in
// viewport coordinates, which makes them frames of a scroll sequence.
package render
