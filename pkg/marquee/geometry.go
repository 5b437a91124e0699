package marquee

// Point is a position in viewport coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in viewport coordinates.
// A normalized Rect has Left <= Right and Top <= Bottom.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectFromPoints builds the normalized rectangle spanned by two corner points,
// in either drag direction.
func RectFromPoints(a, b Point) Rect {
	r := Rect{Left: a.X, Top: a.Y, Right: b.X, Bottom: b.Y}
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Empty reports whether the rectangle has zero width or height.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Overlaps is the open-rectangle overlap test: rectangles that only share an
// edge do not overlap. Both rectangles must be normalized.
func (r Rect) Overlaps(o Rect) bool {
	return o.Left < r.Right && o.Right > r.Left && o.Top < r.Bottom && o.Bottom > r.Top
}

// Contains reports whether p lies inside r (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Item is a selectable thing on the desktop: an opaque id plus its current
// geometry. Geometry is owned by the host and may change between events, so
// items are looked up fresh every time, never cached.
type Item struct {
	ID   string
	Rect Rect
}

// GeometryProvider supplies the live geometry of all selectable items.
// Render order is meaningful: the last item is the topmost one.
type GeometryProvider interface {
	Items() []Item
}

// ItemsFunc adapts a plain function to the GeometryProvider interface.
type ItemsFunc func() []Item

func (f ItemsFunc) Items() []Item { return f() }
