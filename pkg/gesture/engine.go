package gesture

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/stroke"
	"github.com/bastiangx/glideserve/pkg/template"
)

// Prediction is one ranked candidate word for a glide.
type Prediction struct {
	Word       string
	Confidence float64
	Shape      float64
	Location   float64
	Frequency  float64
}

// Engine predicts words from glides. It owns the template cache and the
// personal frequency store; the dictionary and layouts are supplied by the
// host. Safe for concurrent use, and a Predict call never blocks behind
// another.
type Engine struct {
	dict      dictionary.Dictionary
	personal  FrequencyStore
	templates *template.Builder
	opts      Options
}

// NewEngine builds an engine over dict. personal may be nil, in which case
// selections are tracked in memory only.
func NewEngine(dict dictionary.Dictionary, personal FrequencyStore, opts Options) (*Engine, error) {
	if dict == nil {
		return nil, ErrNilDictionary
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if personal == nil {
		personal = NewMemoryFrequency()
	}
	return &Engine{
		dict:      dict,
		personal:  personal,
		templates: template.NewBuilder(opts.SampleCount, opts.InterPoints),
		opts:      opts,
	}, nil
}

// Options returns the engine's tuning.
func (e *Engine) Options() Options { return e.opts }

// Predict returns up to TopK candidate words for the raw stroke on the
// given layout, best first. Degenerate strokes (under two points, taps)
// and empty candidate sets return an empty slice with no error; the only
// errors are a nil layout and context cancellation. Predict does not
// mutate engine state beyond the template cache, so identical inputs give
// identical output.
func (e *Engine) Predict(ctx context.Context, raw []geometry.RawPoint, lay *geometry.Layout) ([]Prediction, error) {
	if lay == nil {
		return nil, ErrNilLayout
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(raw) < 2 || lay.Len() == 0 {
		return nil, nil
	}

	pts := stroke.Normalize(raw, lay.Bounds())
	if e.opts.SmoothWindow >= 3 {
		pts = stroke.Smooth(pts, e.opts.SmoothWindow)
	}
	if geometry.PathLength(pts) < e.opts.MinGlideLength {
		return nil, nil
	}

	sampled := stroke.Resample(pts, e.opts.SampleCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cands := e.prune(sampled, lay)
	if len(cands) == 0 {
		return nil, nil
	}

	userShape := normalizeShape(sampled)
	preds := make([]Prediction, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, c := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			preds[i] = e.scoreCandidate(sampled, userShape, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Confidence != preds[j].Confidence {
			return preds[i].Confidence > preds[j].Confidence
		}
		return preds[i].Word < preds[j].Word
	})
	if len(preds) > e.opts.TopK {
		preds = preds[:e.opts.TopK]
	}
	return preds, nil
}

// LearnSelection records that the user picked word for a glide. The stroke
// itself only feeds debug logging; what personalizes ranking is the
// selection count.
func (e *Engine) LearnSelection(word string, raw []geometry.RawPoint) {
	if word == "" {
		return
	}
	n := e.personal.Increment(word, 1)
	log.Debugf("Learned selection %q (count %d, stroke %d pts)", word, n, len(raw))
}

// Personal exposes the frequency store, mainly so hosts can persist it.
func (e *Engine) Personal() FrequencyStore { return e.personal }

// Dictionary exposes the dictionary the engine ranks against, so hosts can
// rebuild the engine with new tuning without reloading words.
func (e *Engine) Dictionary() dictionary.Dictionary { return e.dict }

// Stats merges the template cache counters with dictionary size.
func (e *Engine) Stats() map[string]int {
	stats := e.templates.Stats()
	stats["dictWords"] = e.dict.Len()
	if m, ok := e.personal.(*MemoryFrequency); ok {
		stats["personalWords"] = m.Len()
	}
	return stats
}

// ResetTemplates drops all cached templates. Needed after dictionary swaps;
// layout changes invalidate lazily through versioning.
func (e *Engine) ResetTemplates() {
	e.templates.Reset()
}
