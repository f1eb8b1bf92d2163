package geom

import "testing"

func TestRectEdges(t *testing.T) {
	r := R(10, 20, 30, 40)
	if r.MinX() != 10 || r.MaxX() != 40 {
		t.Errorf("x edges = (%v, %v), want (10, 40)", r.MinX(), r.MaxX())
	}
	if r.MinY() != 20 || r.MaxY() != 60 {
		t.Errorf("y edges = (%v, %v), want (20, 60)", r.MinY(), r.MaxY())
	}
}

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlap", R(0, 0, 10, 10), R(5, 5, 10, 10), true},
		{"contained", R(0, 0, 100, 100), R(10, 10, 1, 1), true},
		{"touching edges", R(0, 0, 10, 10), R(0, 10, 10, 10), false},
		{"disjoint", R(0, 0, 10, 10), R(20, 20, 5, 5), false},
		{"zero height", R(0, 5, 10, 0), R(0, 0, 10, 10), false},
		{"negative width", R(0, 0, -1, 10), R(0, 0, 10, 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Errorf("Intersects() not symmetric: %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"disjoint", R(0, 0, 10, 10), R(20, 20, 10, 10), R(0, 0, 30, 30)},
		{"empty left", Rect{}, R(1, 2, 3, 4), R(1, 2, 3, 4)},
		{"empty right", R(1, 2, 3, 4), Rect{}, R(1, 2, 3, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFloorToHalf(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{15, 15},
		{15.2, 15},
		{15.5, 15.5},
		{15.99, 15.5},
		{14.9999999999, 15},
		{0, 0},
	}

	for _, tt := range tests {
		if got := FloorToHalf(tt.in); got != tt.want {
			t.Errorf("FloorToHalf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFloorToPixelNoScale(t *testing.T) {
	if got := FloorToPixel(3.3, 0); got != 3.3 {
		t.Errorf("FloorToPixel(3.3, 0) = %v, want 3.3", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %v, want 3", got)
	}
	if got := Clamp(-1, 0, 3); got != 0 {
		t.Errorf("Clamp(-1, 0, 3) = %v, want 0", got)
	}
	if got := Clamp(2, 4, 3); got != 4 {
		t.Errorf("Clamp(2, 4, 3) = %v, want 4 (lo wins)", got)
	}
}

func TestInsets(t *testing.T) {
	in := Insets{Top: 1, Left: 2, Bottom: 3, Right: 4}
	if in.Horizontal() != 6 || in.Vertical() != 4 {
		t.Errorf("Horizontal/Vertical = %v/%v, want 6/4", in.Horizontal(), in.Vertical())
	}
	if u := Uniform(5); u.Top != 5 || u.Right != 5 {
		t.Errorf("Uniform(5) = %+v", u)
	}
}
