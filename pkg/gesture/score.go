package gesture

import (
	"math"

	"github.com/bastiangx/glideserve/pkg/geometry"
)

// gaussian maps a distance to (0,1] through exp(-0.5*(d/sigma)^2).
func gaussian(dist, sigma float64) float64 {
	z := dist / sigma
	return math.Exp(-0.5 * z * z)
}

// meanDistance is the mean pointwise Euclidean distance between two paths.
// Both paths must carry the same fixed sample count; the resampling stage
// guarantees that for every path reaching the scorer.
func meanDistance(a, b []geometry.Point) float64 {
	var sum float64
	for i := range a {
		sum += a[i].Dist(b[i])
	}
	return sum / float64(len(a))
}

// normalizeShape maps a path into its own unit bounding box: translated to
// the origin and scaled by the larger box side, so aspect ratio survives.
// This is what makes the shape channel blind to where on the keyboard the
// glide sat and how large it was drawn. A degenerate box collapses every
// point to the origin.
func normalizeShape(pts []geometry.Point) []geometry.Point {
	min, max := geometry.BoundingBox(pts)
	w := max.X - min.X
	h := max.Y - min.Y
	scale := w
	if h > scale {
		scale = h
	}

	out := make([]geometry.Point, len(pts))
	if scale == 0 {
		return out
	}
	for i, p := range pts {
		out[i] = geometry.Point{
			X: (p.X - min.X) / scale,
			Y: (p.Y - min.Y) / scale,
		}
	}
	return out
}

// combinedFrequency blends corpus frequency with the user's own selections:
// the personal count saturates toward PersonalWeight, so a handful of
// selections outweighs typical corpus frequencies without ever zeroing out
// the dictionary signal.
func (e *Engine) combinedFrequency(word string, dictFreq float64) float64 {
	n := float64(e.personal.Count(word))
	boost := e.opts.PersonalWeight * n / (n + e.opts.PersonalSaturation)
	return clamp01(dictFreq + boost)
}

// scoreCandidate runs both channels and blends in frequency. userLoc is the
// resampled stroke in keyboard space, userShape the same stroke through
// normalizeShape; both are computed once per predict call.
func (e *Engine) scoreCandidate(userLoc, userShape []geometry.Point, c candidate) Prediction {
	shapeDist := meanDistance(userShape, normalizeShape(c.tpl.Path))
	locDist := meanDistance(userLoc, c.tpl.Path)

	shapeP := gaussian(shapeDist, e.opts.ShapeSigma)
	locP := gaussian(locDist, e.opts.LocationSigma)
	freq := e.combinedFrequency(c.word, c.freq)

	return Prediction{
		Word:       c.word,
		Confidence: clamp01(shapeP * locP * freq),
		Shape:      shapeP,
		Location:   locP,
		Frequency:  freq,
	}
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
