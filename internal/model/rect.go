package model

// Rect is a floating point rectangle in destination units (usually pixels or cells).
type Rect struct {
	X, Y, W, H float64
}

// EmptyRect is the rectangle assigned to nodes that are not drawn.
var EmptyRect = Rect{}

// Area returns W*H, or 0 for empty rectangles
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.W * r.H
}

// IsEmpty reports whether the rectangle has no positive area
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// IsDegenerate reports whether the rectangle is too small to draw (< 1 unit on a side)
func (r Rect) IsDegenerate() bool {
	return r.W < 1 || r.H < 1
}

// Right returns the x coordinate of the right edge
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside the rectangle. The right and
// bottom edges are exclusive so adjacent rectangles never both contain a point.
func (r Rect) Contains(x, y float64) bool {
	if r.IsEmpty() {
		return false
	}
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Inset shrinks the rectangle by the given amounts on each side. The result may
// have negative width or height; callers check IsDegenerate.
func (r Rect) Inset(left, top, right, bottom float64) Rect {
	return Rect{
		X: r.X + left,
		Y: r.Y + top,
		W: r.W - left - right,
		H: r.H - top - bottom,
	}
}

// Intersects reports whether two rectangles overlap by more than eps in both axes
func (r Rect) Intersects(o Rect, eps float64) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.X < o.Right()-eps && o.X < r.Right()-eps &&
		r.Y < o.Bottom()-eps && o.Y < r.Bottom()-eps
}

// AspectRatio returns max(W/H, H/W); 1 is a perfect square
func (r Rect) AspectRatio() float64 {
	if r.IsEmpty() {
		return 0
	}
	if r.W >= r.H {
		return r.W / r.H
	}
	return r.H / r.W
}
