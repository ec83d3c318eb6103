// glidedict converts plain text word frequency lists into the chunked
// binary dictionary files that glideserve loads at runtime.
//
// The input is a `word frequency` pair per line:
//
//	the 23135851162
//	of 13151942776
//
// Entries are deduplicated case-insensitively, ranked by descending
// frequency, and written as dict_0001.bin, dict_0002.bin, ... into the
// output directory:
//
//	glidedict -in 20k.txt -out data/ -chunk 10000
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/dictionary"
)

func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	defaults := config.DefaultConfig()

	input := flag.String("in", "", "Input text wordlist (word frequency pairs)")
	outDir := flag.String("out", "data/", "Output directory for binary chunk files")
	chunkSize := flag.Int("chunk", defaults.Dict.ChunkSize, "Number of words per chunk file")
	wordLimit := flag.Int("words", 0, "Keep only the N most frequent words (use 0 for all words)")
	verify := flag.Bool("verify", false, "Reload written chunks and check the word count")
	debugMode := flag.Bool("d", false, "Toggle debug mode")

	flag.Parse()

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(false)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "glidedict: -in is required")
		flag.Usage()
		os.Exit(1)
	}

	// Refuse inputs that are already chunk files; anything else is parsed
	// as text and fails per line.
	if format, err := dictionary.DetectFileFormat(*input); err == nil && format == dictionary.FormatChunk {
		log.Fatalf("%s is already a binary chunk file", *input)
	}

	entries, err := dictionary.ReadTextEntries(*input)
	if err != nil {
		log.Fatalf("Failed to read wordlist: %v", err)
	}
	if len(entries) == 0 {
		log.Fatalf("No usable entries in %s", *input)
	}

	entries = dedupe(entries)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Word < entries[j].Word
	})
	if *wordLimit > 0 && len(entries) > *wordLimit {
		log.Debugf("Keeping top %d of %d entries", *wordLimit, len(entries))
		entries = entries[:*wordLimit]
	}

	chunks, err := dictionary.WriteChunks(*outDir, entries, *chunkSize)
	if err != nil {
		log.Fatalf("Failed to write chunks: %v", err)
	}
	fmt.Printf("Wrote %d words into %d chunk files under %s\n", len(entries), chunks, *outDir)

	if *verify {
		dict, err := dictionary.LoadChunkDir(*outDir, 0)
		if err != nil {
			log.Fatalf("Verification reload failed: %v", err)
		}
		if dict.Len() != len(entries) {
			log.Fatalf("Verification failed: wrote %d words, reloaded %d", len(entries), dict.Len())
		}
		fmt.Printf("Verified: %d words reload cleanly\n", dict.Len())
	}
}

// dedupe collapses case-insensitive duplicates, keeping the highest score.
func dedupe(entries []dictionary.Entry) []dictionary.Entry {
	best := make(map[string]int, len(entries))
	for _, e := range entries {
		word := strings.ToLower(strings.TrimSpace(e.Word))
		if word == "" {
			continue
		}
		if s, ok := best[word]; !ok || e.Score > s {
			best[word] = e.Score
		}
	}
	out := make([]dictionary.Entry, 0, len(best))
	for word, score := range best {
		out = append(out, dictionary.Entry{Word: word, Score: score})
	}
	return out
}
