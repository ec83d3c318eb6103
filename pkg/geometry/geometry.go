// Package geometry defines the coordinate types shared by the gesture
// pipeline: raw touch samples in screen pixels, normalized points in
// keyboard-relative space, and versioned keyboard layouts.
//
// All prediction math runs in normalized space, where both axes span [0,1]
// across the keyboard rectangle regardless of screen resolution or keyboard
// placement. Raw pixel samples cross into normalized space exactly once, at
// the stroke normalizer.
package geometry

import "math"

// Point is a position in normalized keyboard space. Both coordinates are
// expected to lie in [0,1]; values produced by Normalize always do.
type Point struct {
	X float64
	Y float64
}

// RawPoint is a single touch sample in screen pixels. T is the capture time
// in milliseconds since an arbitrary origin and is zero when the host does
// not report timestamps. The prediction pipeline never reads T.
type RawPoint struct {
	X float64
	Y float64
	T int64
}

// Bounds is the on-screen keyboard rectangle in pixels.
type Bounds struct {
	X float64
	Y float64
	W float64
	H float64
}

// Key is one key of a layout, in normalized keyboard space.
type Key struct {
	Char   rune
	Center Point
	W      float64
	H      float64
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp returns the point a fraction t of the way from p to q.
// t=0 yields p, t=1 yields q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// PathLength returns the total arc length of the polyline through points.
// Fewer than two points have zero length.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].Dist(points[i])
	}
	return total
}

// BoundingBox returns the min and max corners of the axis-aligned box
// enclosing points. Both returns are zero for an empty slice.
func BoundingBox(points []Point) (min, max Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}
