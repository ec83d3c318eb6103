package gesture

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/template"
)

// candidate is a word that survived pruning, with its template and raw
// dictionary frequency attached for the scoring stage.
type candidate struct {
	word    string
	freq    float64
	tpl     *template.Template
	lenDiff float64
}

// prune narrows the dictionary to words that could plausibly match the
// stroke: the word's first and last characters must sit among the keys
// nearest the stroke's endpoints, and the word's template length must be
// within LengthTolerance of the stroke's. Enumeration walks only the trie
// subtrees of the allowed start characters. An overfull result is cut to
// MaxCandidates by ascending length difference, ties broken by word, so
// the cap is deterministic.
func (e *Engine) prune(path []geometry.Point, lay *geometry.Layout) []candidate {
	startChars := lay.NearestKeys(path[0], e.opts.StartKeys)
	endChars := lay.NearestKeys(path[len(path)-1], e.opts.EndKeys)
	if len(startChars) == 0 || len(endChars) == 0 {
		return nil
	}
	endSet := make(map[rune]bool, len(endChars))
	for _, c := range endChars {
		endSet[c] = true
	}

	pathLen := geometry.PathLength(path)

	var cands []candidate
	for _, startChar := range startChars {
		err := e.dict.WalkPrefix(string(startChar), func(word string, freq float64) error {
			last, _ := utf8.DecodeLastRuneInString(word)
			if !endSet[last] {
				return nil
			}
			tpl, ok := e.templates.Build(word, lay)
			if !ok {
				return nil
			}
			diff := math.Abs(pathLen - tpl.Length)
			if diff > e.opts.LengthTolerance {
				return nil
			}
			cands = append(cands, candidate{
				word:    word,
				freq:    freq,
				tpl:     tpl,
				lenDiff: diff,
			})
			return nil
		})
		if err != nil {
			log.Errorf("Candidate walk for %q failed: %v", string(startChar), err)
		}
	}

	if len(cands) > e.opts.MaxCandidates {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].lenDiff != cands[j].lenDiff {
				return cands[i].lenDiff < cands[j].lenDiff
			}
			return cands[i].word < cands[j].word
		})
		cands = cands[:e.opts.MaxCandidates]
	}
	return cands
}
