package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Entry is one word with its raw corpus count, the unit text wordlists and
// the chunk writer exchange.
type Entry struct {
	Word  string
	Score int
}

// WriteChunks writes entries as chunked binary dictionary files under dir,
// chunkSize words per file. Entries are ranked by descending score before
// writing; ranks beyond 65535 saturate. Returns the number of chunk files
// written.
func WriteChunks(dir string, entries []Entry, chunkSize int) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("no entries to write")
	}
	if chunkSize <= 0 {
		chunkSize = 10000
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create chunk directory %s: %w", dir, err)
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Word < sorted[j].Word
	})

	chunkID := 0
	for start := 0; start < len(sorted); start += chunkSize {
		end := start + chunkSize
		if end > len(sorted) {
			end = len(sorted)
		}
		chunkID++
		path := filepath.Join(dir, ChunkFilename(chunkID))
		if err := writeChunkFile(path, sorted[start:end], start); err != nil {
			return chunkID - 1, err
		}
		log.Debugf("Wrote chunk %d: %d words", chunkID, end-start)
	}
	return chunkID, nil
}

// writeChunkFile writes one chunk. rankOffset is the number of entries in
// earlier chunks, so ranks stay global across files.
func writeChunkFile(path string, entries []Entry, rankOffset int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunk file %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, int32(len(entries))); err != nil {
		return fmt.Errorf("failed to write chunk header: %w", err)
	}

	for i, e := range entries {
		word := strings.ToLower(strings.TrimSpace(e.Word))
		if err := binary.Write(w, binary.LittleEndian, uint16(len(word))); err != nil {
			return fmt.Errorf("failed to write word length: %w", err)
		}
		if _, err := w.WriteString(word); err != nil {
			return fmt.Errorf("failed to write word: %w", err)
		}
		rank := rankOffset + i + 1
		if rank > 65535 {
			rank = 65535
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(rank)); err != nil {
			return fmt.Errorf("failed to write rank: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush chunk file %s: %w", path, err)
	}
	return nil
}
