package stroke

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/glideserve/pkg/geometry"
)

func TestNormalizeClamps(t *testing.T) {
	bounds := geometry.Bounds{X: 10, Y: 20, W: 100, H: 50}
	raw := []geometry.RawPoint{
		{X: 10, Y: 20},   // top-left corner
		{X: 110, Y: 70},  // bottom-right corner
		{X: 60, Y: 45},   // center
		{X: -50, Y: 500}, // far outside
	}

	pts := Normalize(raw, bounds)
	require.Len(t, pts, 4)

	assert.Equal(t, geometry.Point{X: 0, Y: 0}, pts[0])
	assert.Equal(t, geometry.Point{X: 1, Y: 1}, pts[1])
	assert.InDelta(t, 0.5, pts[2].X, 1e-12)
	assert.InDelta(t, 0.5, pts[2].Y, 1e-12)
	assert.Equal(t, geometry.Point{X: 0, Y: 1}, pts[3])
}

func TestNormalizeDegenerateBounds(t *testing.T) {
	raw := []geometry.RawPoint{{X: 42, Y: 17}}
	pts := Normalize(raw, geometry.Bounds{})
	require.Len(t, pts, 1)
	assert.Equal(t, geometry.Point{}, pts[0])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	raw := []geometry.RawPoint{{X: 5, Y: 5, T: 3}}
	Normalize(raw, geometry.Bounds{W: 10, H: 10})
	assert.Equal(t, geometry.RawPoint{X: 5, Y: 5, T: 3}, raw[0])
}

func TestSmoothPreservesCountAndEndpoints(t *testing.T) {
	pts := []geometry.Point{
		{X: 0, Y: 0}, {X: 0.1, Y: 0.3}, {X: 0.2, Y: 0}, {X: 0.3, Y: 0.3}, {X: 0.4, Y: 0},
	}
	sm := Smooth(pts, 3)

	require.Len(t, sm, len(pts))
	assert.Equal(t, pts[0], sm[0])
	assert.Equal(t, pts[len(pts)-1], sm[len(sm)-1])

	// Interior zigzag flattens toward the mean.
	assert.Greater(t, sm[1].Y, 0.0)
	assert.Less(t, sm[1].Y, 0.3)
}

func TestSmoothSmallInput(t *testing.T) {
	pts := []geometry.Point{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}}
	assert.Equal(t, pts, Smooth(pts, 3))
	assert.Equal(t, pts, Smooth(pts, 0))
}

func TestResampleExactCount(t *testing.T) {
	line := []geometry.Point{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}}
	out := Resample(line, 100)

	require.Len(t, out, 100)
	assert.Equal(t, line[0], out[0])
	assert.Equal(t, line[1], out[99])

	// Uniform spacing along a straight line.
	for i := 1; i < len(out); i++ {
		assert.InDelta(t, 1.0/99.0, out[i-1].Dist(out[i]), 1e-9)
	}
}

func TestResampleCountInvariantRandomPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(40)
		pts := make([]geometry.Point, n)
		pts[0] = geometry.Point{X: rng.Float64(), Y: rng.Float64()}
		for i := 1; i < n; i++ {
			pts[i] = geometry.Point{
				X: clamp01(pts[i-1].X + (rng.Float64()-0.5)*0.4),
				Y: clamp01(pts[i-1].Y + (rng.Float64()-0.5)*0.4),
			}
		}
		if geometry.PathLength(pts) < TapLengthThreshold {
			continue
		}

		out := Resample(pts, DefaultSampleCount)
		require.Len(t, out, DefaultSampleCount, "trial %d with %d input points", trial, n)
		assert.Equal(t, pts[0], out[0])
		assert.Equal(t, pts[n-1], out[len(out)-1])
	}
}

func TestResampleTapUnchanged(t *testing.T) {
	tap := []geometry.Point{{X: 0.50, Y: 0.50}, {X: 0.51, Y: 0.50}, {X: 0.505, Y: 0.505}}
	require.Less(t, geometry.PathLength(tap), TapLengthThreshold)

	out := Resample(tap, 100)
	assert.Equal(t, tap, out)
}

func TestResampleTooFewPointsUnchanged(t *testing.T) {
	single := []geometry.Point{{X: 0.3, Y: 0.3}}
	assert.Equal(t, single, Resample(single, 100))
	assert.Empty(t, Resample(nil, 100))
}

func TestResampleZeroLengthSegments(t *testing.T) {
	// Repeated points model a finger dwelling on one key mid-glide.
	pts := []geometry.Point{
		{X: 0.1, Y: 0.5}, {X: 0.1, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.9, Y: 0.5},
	}
	out := Resample(pts, 50)
	require.Len(t, out, 50)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[4], out[49])
}

func TestResampleSmallCount(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0.5}, {X: 1, Y: 1}}
	out := Resample(pts, 2)
	require.Len(t, out, 2)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[2], out[1])
}

func BenchmarkResample(b *testing.B) {
	rng := rand.New(rand.NewSource(11))
	pts := make([]geometry.Point, 64)
	for i := range pts {
		pts[i] = geometry.Point{X: rng.Float64(), Y: rng.Float64()}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Resample(pts, DefaultSampleCount)
	}
}
