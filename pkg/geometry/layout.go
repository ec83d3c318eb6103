package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// layoutVersion hands out a process-unique version to every layout built.
// Template caches key their entries by this version, so swapping layouts
// invalidates stale templates lazily instead of through an explicit purge.
var layoutVersion atomic.Uint64

// Layout is an immutable snapshot of a keyboard: its keys in normalized
// space plus the pixel rectangle it was captured from. Build a new Layout
// whenever the on-screen keyboard changes; never mutate one in place.
type Layout struct {
	name    string
	keys    map[rune]Key
	order   []rune
	bounds  Bounds
	version uint64
}

// NewLayout builds a layout from keys already in normalized space.
// bounds records the pixel rectangle the keyboard occupies on screen,
// used when synthesizing raw traces. Keys with duplicate characters keep
// the last occurrence.
func NewLayout(name string, keys []Key, bounds Bounds) *Layout {
	l := &Layout{
		name:    name,
		keys:    make(map[rune]Key, len(keys)),
		bounds:  bounds,
		version: layoutVersion.Add(1),
	}
	for _, k := range keys {
		if _, seen := l.keys[k.Char]; !seen {
			l.order = append(l.order, k.Char)
		}
		l.keys[k.Char] = k
	}
	sort.Slice(l.order, func(i, j int) bool { return l.order[i] < l.order[j] })
	return l
}

func (l *Layout) Name() string { return l.name }

// Version is the process-unique identity of this layout snapshot.
func (l *Layout) Version() uint64 { return l.version }

// Bounds returns the pixel rectangle this layout was built from.
func (l *Layout) Bounds() Bounds { return l.bounds }

// Key looks up the key for a character.
func (l *Layout) Key(char rune) (Key, bool) {
	k, ok := l.keys[char]
	return k, ok
}

// Keys returns all keys ordered by character.
func (l *Layout) Keys() []Key {
	out := make([]Key, 0, len(l.order))
	for _, c := range l.order {
		out = append(out, l.keys[c])
	}
	return out
}

// Len returns the number of keys.
func (l *Layout) Len() int { return len(l.keys) }

// NearestKeys returns the characters of the k keys whose centers are
// closest to p, nearest first. Ties break by character so the result is
// deterministic. Asking for more keys than the layout has returns them all.
func (l *Layout) NearestKeys(p Point, k int) []rune {
	if k <= 0 || len(l.order) == 0 {
		return nil
	}
	type keyDist struct {
		char rune
		dist float64
	}
	dists := make([]keyDist, 0, len(l.order))
	for _, c := range l.order {
		dists = append(dists, keyDist{char: c, dist: p.Dist(l.keys[c].Center)})
	}
	sort.Slice(dists, func(i, j int) bool {
		if dists[i].dist != dists[j].dist {
			return dists[i].dist < dists[j].dist
		}
		return dists[i].char < dists[j].char
	})
	if k > len(dists) {
		k = len(dists)
	}
	out := make([]rune, k)
	for i := 0; i < k; i++ {
		out[i] = dists[i].char
	}
	return out
}

// TraceWord synthesizes the ideal raw stroke for word: key centers joined
// by perSegment evenly spaced points, denormalized into this layout's pixel
// bounds. Returns false if any character of word has no key. Used by the
// debug CLI and tests; real strokes come from the host.
func (l *Layout) TraceWord(word string, perSegment int) ([]RawPoint, bool) {
	centers := make([]Point, 0, len(word))
	for _, c := range word {
		k, ok := l.keys[c]
		if !ok {
			return nil, false
		}
		centers = append(centers, k.Center)
	}
	if len(centers) == 0 {
		return nil, false
	}

	path := []Point{centers[0]}
	for i := 1; i < len(centers); i++ {
		prev, cur := centers[i-1], centers[i]
		for j := 1; j <= perSegment; j++ {
			t := float64(j) / float64(perSegment+1)
			path = append(path, prev.Lerp(cur, t))
		}
		path = append(path, cur)
	}

	raw := make([]RawPoint, len(path))
	for i, p := range path {
		raw[i] = RawPoint{
			X: l.bounds.X + p.X*l.bounds.W,
			Y: l.bounds.Y + p.Y*l.bounds.H,
			T: int64(i) * 8,
		}
	}
	return raw, true
}

// PixelKey describes one key in screen pixels, as captured from the host
// keyboard. X and Y address the key center.
type PixelKey struct {
	Char string
	X    float64
	Y    float64
	W    float64
	H    float64
}

// NewLayoutFromPixels normalizes pixel-space keys into a Layout. Keys whose
// label is not exactly one character are skipped with a warning.
func NewLayoutFromPixels(name string, width, height float64, keys []PixelKey) (*Layout, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("layout %q has invalid dimensions %gx%g", name, width, height)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("layout %q has no keys", name)
	}

	norm := make([]Key, 0, len(keys))
	for _, pk := range keys {
		runes := []rune(pk.Char)
		if len(runes) != 1 {
			log.Warnf("Skipping layout key with label %q: want exactly one character", pk.Char)
			continue
		}
		norm = append(norm, Key{
			Char:   runes[0],
			Center: Point{X: pk.X / width, Y: pk.Y / height},
			W:      pk.W / width,
			H:      pk.H / height,
		})
	}
	if len(norm) == 0 {
		return nil, fmt.Errorf("layout %q has no usable keys", name)
	}
	return NewLayout(name, norm, Bounds{X: 0, Y: 0, W: width, H: height}), nil
}

// layoutFile is the on-disk JSON shape for keyboard layouts. Coordinates
// are pixels; key x/y address the key center.
type layoutFile struct {
	Name   string    `json:"name"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Keys   []keyFile `json:"keys"`
}

type keyFile struct {
	Char string  `json:"char"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

// LoadLayoutFile reads a JSON layout description and normalizes it.
func LoadLayoutFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	lay, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}
	return lay, nil
}

// ParseLayout builds a Layout from JSON layout bytes.
func ParseLayout(data []byte) (*Layout, error) {
	var lf layoutFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	keys := make([]PixelKey, len(lf.Keys))
	for i, kf := range lf.Keys {
		keys[i] = PixelKey{Char: kf.Char, X: kf.X, Y: kf.Y, W: kf.W, H: kf.H}
	}
	lay, err := NewLayoutFromPixels(lf.Name, lf.Width, lf.Height, keys)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded layout %q with %d keys (v%d)", lf.Name, lay.Len(), lay.Version())
	return lay, nil
}
