package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/stroke"
)

// resampledTrace builds the engine-ready path for a word's perfect trace.
func resampledTrace(t *testing.T, e *Engine, lay *geometry.Layout, word string) []geometry.Point {
	t.Helper()
	raw, ok := lay.TraceWord(word, e.opts.InterPoints)
	require.True(t, ok, "word %q not traceable", word)
	pts := stroke.Normalize(raw, lay.Bounds())
	return stroke.Resample(pts, e.opts.SampleCount)
}

func pruneFixture(t *testing.T, words map[string]int, opts Options) (*Engine, *geometry.Layout) {
	t.Helper()
	dict := dictionary.NewMemDict()
	for w, s := range words {
		dict.AddWord(w, s)
	}
	e, err := NewEngine(dict, nil, opts)
	require.NoError(t, err)
	return e, geometry.QWERTY()
}

func candidateWords(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.word
	}
	return out
}

func TestPruneEndpointFilter(t *testing.T) {
	e, lay := pruneFixture(t, map[string]int{
		"wet":  400,
		"were": 600, // ends in e, not near the trace's final key
		"wert": 100,
		"ten":  900, // starts nowhere near w
	}, DefaultOptions())

	path := resampledTrace(t, e, lay, "wet")
	cands := e.prune(path, lay)
	words := candidateWords(cands)

	assert.Contains(t, words, "wet")
	assert.Contains(t, words, "wert")
	assert.NotContains(t, words, "were")
	assert.NotContains(t, words, "ten")
}

func TestPruneLengthFilter(t *testing.T) {
	// "west" shares w...t endpoints with "wet" but detours to the home row,
	// nearly tripling the path.
	e, lay := pruneFixture(t, map[string]int{
		"wet":  400,
		"west": 800,
	}, DefaultOptions())

	path := resampledTrace(t, e, lay, "wet")
	words := candidateWords(e.prune(path, lay))

	assert.Contains(t, words, "wet")
	assert.NotContains(t, words, "west")
}

func TestPruneCapDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCandidates = 2

	// All three end on allowed keys. "were" matches the trace length
	// exactly; "weer" and "wer" tie at the same length difference, and the
	// alphabetical tie-break keeps "weer" regardless of frequency.
	e, lay := pruneFixture(t, map[string]int{
		"were": 600,
		"weer": 300,
		"wer":  900,
	}, opts)

	path := resampledTrace(t, e, lay, "were")

	first := candidateWords(e.prune(path, lay))
	require.Len(t, first, 2)
	assert.ElementsMatch(t, []string{"were", "weer"}, first)

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, candidateWords(e.prune(path, lay)))
	}
}

func TestPruneEmptyDictionary(t *testing.T) {
	e, lay := pruneFixture(t, nil, DefaultOptions())
	path := resampledTrace(t, e, lay, "wet")
	assert.Empty(t, e.prune(path, lay))
}

func TestPruneSkipsUntraceableWords(t *testing.T) {
	// "wét" passes both endpoint filters but é has no key, so the template
	// build rejects it quietly.
	e, lay := pruneFixture(t, map[string]int{
		"wet": 400,
		"wét": 900,
	}, DefaultOptions())

	path := resampledTrace(t, e, lay, "wet")
	words := candidateWords(e.prune(path, lay))

	assert.Contains(t, words, "wet")
	assert.NotContains(t, words, "wét")
}
