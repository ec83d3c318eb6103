package dictionary

import (
	"strings"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"
)

// MemDict is an in-memory word store backed by a patricia trie, so prefix
// walks touch only the matching subtree. Scores are raw integer counts or
// ranks; Frequency normalizes against the current maximum. Safe for
// concurrent use.
type MemDict struct {
	mu       sync.RWMutex
	trie     *patricia.Trie
	scores   map[string]int
	maxScore int
}

func NewMemDict() *MemDict {
	return &MemDict{
		trie:   patricia.NewTrie(),
		scores: make(map[string]int),
	}
}

// AddWord inserts word with the given score, replacing any previous score.
// Words are lowercased; glide paths carry no case information.
func (d *MemDict) AddWord(word string, score int) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || score <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.trie.Insert(patricia.Prefix(word), score)
	d.scores[word] = score
	if score > d.maxScore {
		d.maxScore = score
	}
}

// RemoveWord deletes word from the store. The normalization maximum is
// recomputed only when the removed word carried it.
func (d *MemDict) RemoveWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))

	d.mu.Lock()
	defer d.mu.Unlock()
	score, ok := d.scores[word]
	if !ok {
		return
	}
	d.trie.Delete(patricia.Prefix(word))
	delete(d.scores, word)
	if score == d.maxScore {
		d.maxScore = 0
		for _, s := range d.scores {
			if s > d.maxScore {
				d.maxScore = s
			}
		}
	}
}

func (d *MemDict) Frequency(word string) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.maxScore == 0 {
		return 0
	}
	score, ok := d.scores[strings.ToLower(word)]
	if !ok {
		return 0
	}
	return float64(score) / float64(d.maxScore)
}

func (d *MemDict) WalkPrefix(prefix string, fn func(word string, freq float64) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	max := float64(d.maxScore)
	if max == 0 {
		return nil
	}
	return d.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		return fn(string(p), float64(item.(int))/max)
	})
}

func (d *MemDict) Walk(fn func(word string, freq float64) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	max := float64(d.maxScore)
	if max == 0 {
		return nil
	}
	return d.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		return fn(string(p), float64(item.(int))/max)
	})
}

func (d *MemDict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.scores)
}

// Stats reports store size and score bounds.
func (d *MemDict) Stats() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return map[string]int{
		"totalWords":   len(d.scores),
		"maxFrequency": d.maxScore,
	}
}
