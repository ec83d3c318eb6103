// Package stroke turns raw touch samples into the fixed-length normalized
// paths the rest of the pipeline operates on.
//
// The pipeline is normalize -> smooth -> resample. Normalization maps pixel
// samples into keyboard-relative [0,1] space. Smoothing knocks down sensor
// jitter with a small moving average. Resampling redistributes the points
// uniformly along the path's arc length so that any two strokes, and any
// stroke and word template, compare pointwise at equal length.
//
// Degenerate input is left alone rather than rejected: fewer than two points
// or a path shorter than TapLengthThreshold comes back unchanged, and the
// caller treats it as a tap instead of a glide. None of these functions
// return errors and none mutate their input.
package stroke

import "github.com/bastiangx/glideserve/pkg/geometry"

const (
	// DefaultSampleCount is the fixed number of points a glide is resampled
	// to. Every template is resampled to the same count, which is what makes
	// pointwise comparison valid.
	DefaultSampleCount = 100

	// TapLengthThreshold is the normalized path length below which input is
	// considered a tap rather than a glide.
	TapLengthThreshold = 0.05

	// DefaultSmoothWindow is the moving-average window applied before
	// resampling.
	DefaultSmoothWindow = 3
)

// Normalize maps raw pixel samples into keyboard-relative space, clamping
// every coordinate to [0,1]. Samples outside bounds (fingers sliding off the
// keyboard edge) clamp to the nearest edge. Degenerate bounds collapse the
// affected axis to zero.
func Normalize(raw []geometry.RawPoint, bounds geometry.Bounds) []geometry.Point {
	out := make([]geometry.Point, len(raw))
	for i, rp := range raw {
		var x, y float64
		if bounds.W > 0 {
			x = clamp01((rp.X - bounds.X) / bounds.W)
		}
		if bounds.H > 0 {
			y = clamp01((rp.Y - bounds.Y) / bounds.H)
		}
		out[i] = geometry.Point{X: x, Y: y}
	}
	return out
}

// Smooth applies a centered moving average of the given window to the
// interior points. The first and last points pass through untouched so the
// stroke's endpoints, which drive start/end key pruning, stay where the
// finger actually was. Windows below 3 and paths below 3 points come back
// as plain copies. Even windows round down to the next odd width.
func Smooth(points []geometry.Point, window int) []geometry.Point {
	out := make([]geometry.Point, len(points))
	copy(out, points)
	if window < 3 || len(points) < 3 {
		return out
	}

	half := window / 2
	if window%2 == 0 {
		half = (window - 1) / 2
	}
	for i := 1; i < len(points)-1; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(points)-1 {
			hi = len(points) - 1
		}
		var sx, sy float64
		for j := lo; j <= hi; j++ {
			sx += points[j].X
			sy += points[j].Y
		}
		n := float64(hi - lo + 1)
		out[i] = geometry.Point{X: sx / n, Y: sy / n}
	}
	return out
}

// Resample redistributes points uniformly along the path's arc length and
// returns exactly count points, first and last preserved exactly. Input
// with fewer than two points, a count below two, or a path shorter than
// TapLengthThreshold is returned as an unmodified copy; callers detect the
// tap case by checking the result length.
//
// Floating point drift while walking the path can leave the result a point
// or two short; the deficit is filled by bisecting the final segment until
// the count holds. The count invariant is unconditional for glide input.
func Resample(points []geometry.Point, count int) []geometry.Point {
	if len(points) < 2 || count < 2 {
		out := make([]geometry.Point, len(points))
		copy(out, points)
		return out
	}
	total := geometry.PathLength(points)
	if total < TapLengthThreshold {
		out := make([]geometry.Point, len(points))
		copy(out, points)
		return out
	}

	interval := total / float64(count-1)
	out := make([]geometry.Point, 0, count)
	out = append(out, points[0])

	acc := 0.0
	prev := points[0]
	for i := 1; i < len(points); i++ {
		seg := prev.Dist(points[i])
		if seg == 0 {
			continue
		}
		for acc+seg >= interval && len(out) < count-1 {
			t := (interval - acc) / seg
			next := prev.Lerp(points[i], t)
			out = append(out, next)
			seg -= interval - acc
			prev = next
			acc = 0
		}
		acc += seg
		prev = points[i]
	}

	out = append(out, points[len(points)-1])

	for len(out) < count {
		last := out[len(out)-1]
		mid := out[len(out)-2].Lerp(last, 0.5)
		out = append(out[:len(out)-1], mid, last)
	}
	if len(out) > count {
		last := out[len(out)-1]
		out = append(out[:count-1], last)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
