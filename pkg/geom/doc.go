// Package geom provides the value types shared by the layout engine.
//
// All coordinates are float64 in points with the origin at the top-left
// corner and Y growing downward, matching the coordinate space of a
// vertically scrolling view. Rectangles are half-open on their max edges:
// two rectangles that only touch do not intersect.
package geom
