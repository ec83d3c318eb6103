// Package dictionary provides the word stores the prediction engine draws
// candidates from: an in-memory patricia trie plus loaders for plain text
// wordlists and the chunked binary format.
package dictionary

// Dictionary is the word source consulted during prediction.
type Dictionary interface {
	// Frequency returns the word's relative frequency in [0,1], where 1 is
	// the most frequent word in the store. Unknown words return 0.
	Frequency(word string) float64

	// WalkPrefix visits every word starting with prefix. Returning an error
	// from fn stops the walk and surfaces that error.
	WalkPrefix(prefix string, fn func(word string, freq float64) error) error

	// Walk visits every word in the store.
	Walk(fn func(word string, freq float64) error) error

	// Len returns the number of words in the store.
	Len() int
}
