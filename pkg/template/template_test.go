package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/stroke"
)

func TestBuildProducesFixedCount(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	tpl, ok := b.Build("hello", lay)
	require.True(t, ok)
	assert.Equal(t, "hello", tpl.Word)
	assert.Len(t, tpl.Path, stroke.DefaultSampleCount)
	assert.Greater(t, tpl.Length, 0.0)
	assert.Equal(t, lay.Version(), tpl.Version)

	// Endpoints land on the first and last key centers.
	h, _ := lay.Key('h')
	o, _ := lay.Key('o')
	assert.InDelta(t, h.Center.X, tpl.Path[0].X, 1e-9)
	assert.InDelta(t, o.Center.X, tpl.Path[len(tpl.Path)-1].X, 1e-9)
}

func TestBuildMissingKey(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	_, ok := b.Build("naïve", lay)
	assert.False(t, ok)

	stats := b.Stats()
	assert.Equal(t, 0, stats["cachedTemplates"])
}

func TestBuildSingleLetterWord(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	_, ok := b.Build("a", lay)
	assert.False(t, ok, "single letters are taps, not glides")
}

func TestBuildCachesPerWord(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	first, ok := b.Build("word", lay)
	require.True(t, ok)
	second, ok := b.Build("word", lay)
	require.True(t, ok)

	assert.Same(t, first, second)

	stats := b.Stats()
	assert.Equal(t, 1, stats["cachedTemplates"])
	assert.Equal(t, 1, stats["cacheHits"])
	assert.Equal(t, 1, stats["cacheMisses"])
}

func TestBuildRebuildsOnLayoutChange(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)

	layA := geometry.QWERTY()
	tplA, ok := b.Build("test", layA)
	require.True(t, ok)

	layB := geometry.QWERTY()
	require.NotEqual(t, layA.Version(), layB.Version())

	tplB, ok := b.Build("test", layB)
	require.True(t, ok)

	assert.NotSame(t, tplA, tplB)
	assert.Equal(t, layB.Version(), tplB.Version)

	// Same geometry, so the rebuilt path matches pointwise.
	require.Len(t, tplB.Path, len(tplA.Path))
	for i := range tplA.Path {
		assert.InDelta(t, tplA.Path[i].X, tplB.Path[i].X, 1e-12)
		assert.InDelta(t, tplA.Path[i].Y, tplB.Path[i].Y, 1e-12)
	}
}

func TestBuildDoubleLetters(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	tpl, ok := b.Build("hello", lay)
	require.True(t, ok)

	collapsed, ok := b.Build("helo", lay)
	require.True(t, ok)

	// A doubled letter adds no geometry; both words trace the same path.
	assert.InDelta(t, collapsed.Length, tpl.Length, 1e-9)
}

func TestReset(t *testing.T) {
	b := NewBuilder(stroke.DefaultSampleCount, 3)
	lay := geometry.QWERTY()

	_, ok := b.Build("keep", lay)
	require.True(t, ok)

	b.Reset()
	stats := b.Stats()
	assert.Equal(t, 0, stats["cachedTemplates"])
	assert.Equal(t, 0, stats["cacheMisses"])
}

func BenchmarkBuildCold(b *testing.B) {
	lay := geometry.QWERTY()
	builder := NewBuilder(stroke.DefaultSampleCount, 3)
	words := []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Reset()
		for _, w := range words {
			builder.Build(w, lay)
		}
	}
}

func BenchmarkBuildCached(b *testing.B) {
	lay := geometry.QWERTY()
	builder := NewBuilder(stroke.DefaultSampleCount, 3)
	builder.Build("gesture", lay)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Build("gesture", lay)
	}
}
