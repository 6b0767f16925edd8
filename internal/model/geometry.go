package model

// BoundingBox is an axis-aligned rectangle given by its center and size
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a rectangle given by its corner coordinates
type Rect struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Rect converts the box to corner coordinates
func (b BoundingBox) Rect() Rect {
	return Rect{
		X1: b.X - b.Width/2,
		X2: b.X + b.Width/2,
		Y1: b.Y - b.Height/2,
		Y2: b.Y + b.Height/2,
	}
}

// Overlaps reports whether two boxes share interior area.
// Boxes that only touch along an edge do not overlap.
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	r1 := b.Rect()
	r2 := other.Rect()
	return !(r1.X1 >= r2.X2 || r2.X1 >= r1.X2 || r1.Y1 >= r2.Y2 || r2.Y1 >= r1.Y2)
}

// Contains reports whether the point lies strictly inside the box
func (b BoundingBox) Contains(x, y float64) bool {
	r := b.Rect()
	return x > r.X1 && x < r.X2 && y > r.Y1 && y < r.Y2
}

// IsValid reports whether the box has a positive width and height
func (b BoundingBox) IsValid() bool {
	return b.Width > 0 && b.Height > 0
}
