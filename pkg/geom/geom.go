package geom

import "math"

// Epsilon is the tolerance used when comparing computed lengths.
const Epsilon = 1e-6

// Point is an (X, Y) coordinate.
type Point struct {
	X, Y float64
}

// Add returns p offset by o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Size is a width and height pair.
type Size struct {
	Width, Height float64
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Rect is an axis-aligned rectangle given by its origin and size.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// R is shorthand for constructing a Rect.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, Width: w, Height: h} }

// MinX returns the left edge.
func (r Rect) MinX() float64 { return r.X }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MinY returns the top edge.
func (r Rect) MinY() float64 { return r.Y }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Intersects reports whether r and o share a region of non-zero area.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.MinX() < o.MaxX() && o.MinX() < r.MaxX() &&
		r.MinY() < o.MaxY() && o.MinY() < r.MaxY()
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X < r.MaxX() && p.Y >= r.MinY() && p.Y < r.MaxY()
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// WithY returns r moved vertically to y.
func (r Rect) WithY(y float64) Rect {
	r.Y = y
	return r
}

// Union returns the smallest rectangle containing both r and o.
// An empty rectangle does not contribute to the result.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	minX := math.Min(r.MinX(), o.MinX())
	minY := math.Min(r.MinY(), o.MinY())
	maxX := math.Max(r.MaxX(), o.MaxX())
	maxY := math.Max(r.MaxY(), o.MaxY())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ApproxEqual compares two rectangles within Epsilon.
func (r Rect) ApproxEqual(o Rect) bool {
	return Approx(r.X, o.X) && Approx(r.Y, o.Y) &&
		Approx(r.Width, o.Width) && Approx(r.Height, o.Height)
}

// Insets are the margins applied inside a section's bounds.
type Insets struct {
	Top, Left, Bottom, Right float64
}

// Uniform returns insets with the same value on every edge.
func Uniform(v float64) Insets { return Insets{Top: v, Left: v, Bottom: v, Right: v} }

// Horizontal returns Left + Right.
func (in Insets) Horizontal() float64 { return in.Left + in.Right }

// Vertical returns Top + Bottom.
func (in Insets) Vertical() float64 { return in.Top + in.Bottom }

// Approx reports whether a and b are equal within Epsilon.
func Approx(a, b float64) bool { return math.Abs(a-b) <= Epsilon }

// FloorToPixel floors v onto the pixel grid of a display with the given scale.
// A non-positive scale leaves v untouched.
func FloorToPixel(v, scale float64) float64 {
	if scale <= 0 {
		return v
	}
	return math.Floor(v*scale+Epsilon) / scale
}

// FloorToHalf floors v to the nearest half point below it.
func FloorToHalf(v float64) float64 { return FloorToPixel(v, 2) }

// Clamp limits v to [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
