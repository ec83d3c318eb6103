// Package template builds and caches the ideal glide paths words would
// trace across a keyboard layout.
package template

import (
	"sync"

	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/stroke"
)

// Template is the ideal glide path of one word on one layout snapshot,
// resampled to the same fixed point count as user strokes.
type Template struct {
	Word    string
	Path    []geometry.Point
	Length  float64
	Version uint64
}

// Builder constructs templates on demand and caches them per word. Cache
// entries carry the layout version they were built against; an entry built
// for an older layout is rebuilt on next use, so swapping layouts costs
// nothing up front. Safe for concurrent use.
type Builder struct {
	sampleCount int
	interPoints int

	mu     sync.RWMutex
	cache  map[string]*Template
	hits   int
	misses int
}

// NewBuilder returns a Builder producing templates with sampleCount points,
// interpolating interPoints extra points between consecutive key centers
// before resampling.
func NewBuilder(sampleCount, interPoints int) *Builder {
	return &Builder{
		sampleCount: sampleCount,
		interPoints: interPoints,
		cache:       make(map[string]*Template),
	}
}

// Build returns the template for word on the given layout. The second
// return is false when the word cannot be glided on this layout: a
// character has no key, or the ideal path is too short to resample (single
// letters and stacked duplicates). Words rejected here are simply not
// candidates; that is not an error.
func (b *Builder) Build(word string, lay *geometry.Layout) (*Template, bool) {
	version := lay.Version()

	b.mu.RLock()
	cached, ok := b.cache[word]
	b.mu.RUnlock()
	if ok && cached.Version == version {
		b.mu.Lock()
		b.hits++
		b.mu.Unlock()
		return cached, true
	}

	tpl, ok := b.build(word, lay, version)
	if !ok {
		return nil, false
	}

	b.mu.Lock()
	b.misses++
	b.cache[word] = tpl
	b.mu.Unlock()
	return tpl, true
}

func (b *Builder) build(word string, lay *geometry.Layout, version uint64) (*Template, bool) {
	centers := make([]geometry.Point, 0, len(word))
	for _, c := range word {
		key, ok := lay.Key(c)
		if !ok {
			return nil, false
		}
		centers = append(centers, key.Center)
	}
	if len(centers) < 2 {
		return nil, false
	}

	path := make([]geometry.Point, 0, len(centers)+(len(centers)-1)*b.interPoints)
	path = append(path, centers[0])
	for i := 1; i < len(centers); i++ {
		prev, cur := centers[i-1], centers[i]
		for j := 1; j <= b.interPoints; j++ {
			t := float64(j) / float64(b.interPoints+1)
			path = append(path, prev.Lerp(cur, t))
		}
		path = append(path, cur)
	}

	resampled := stroke.Resample(path, b.sampleCount)
	if len(resampled) != b.sampleCount {
		// Path shorter than the tap threshold; the word has no usable glide
		// shape on this layout.
		return nil, false
	}

	return &Template{
		Word:    word,
		Path:    resampled,
		Length:  geometry.PathLength(resampled),
		Version: version,
	}, true
}

// Reset drops every cached template. Called when the dictionary is swapped;
// layout changes need no reset since entries are version-checked.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]*Template)
	b.hits = 0
	b.misses = 0
}

// Stats reports cache size and hit counters.
func (b *Builder) Stats() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return map[string]int{
		"cachedTemplates": len(b.cache),
		"cacheHits":       b.hits,
		"cacheMisses":     b.misses,
	}
}
