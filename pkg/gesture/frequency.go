package gesture

import (
	"strings"
	"sync"
)

// FrequencyStore tracks how often the user has picked each word. The engine
// only needs get and increment; persistence lives behind the interface so
// hosts can mirror counts into whatever storage they have.
type FrequencyStore interface {
	// Count returns the user's selection count for word.
	Count(word string) int

	// Increment adds delta to word's count and returns the new count.
	Increment(word string, delta int) int
}

// MemoryFrequency is the default in-process FrequencyStore. Safe for
// concurrent use.
type MemoryFrequency struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewMemoryFrequency() *MemoryFrequency {
	return &MemoryFrequency{counts: make(map[string]int)}
}

func (m *MemoryFrequency) Count(word string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[strings.ToLower(word)]
}

func (m *MemoryFrequency) Increment(word string, delta int) int {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[word] += delta
	if m.counts[word] < 0 {
		m.counts[word] = 0
	}
	return m.counts[word]
}

// Seed bulk-loads counts, replacing existing entries with the same word.
// Used to restore persisted counts at startup.
func (m *MemoryFrequency) Seed(counts map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for word, n := range counts {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" || n <= 0 {
			continue
		}
		m.counts[word] = n
	}
}

// Snapshot returns a copy of all counts.
func (m *MemoryFrequency) Snapshot() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.counts))
	for w, n := range m.counts {
		out[w] = n
	}
	return out
}

func (m *MemoryFrequency) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.counts)
}
