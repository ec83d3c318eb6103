package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ReadTextEntries parses a plain text wordlist into entries. Each line is a
// `word frequency` pair separated by whitespace; `#` starts a comment.
// Malformed lines are skipped with a warning rather than failing the load.
func ReadTextEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist %s: %w", path, err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			log.Warnf("Skipping malformed line %d in %s: %q", lineNo, path, line)
			skipped++
			continue
		}
		score, err := strconv.Atoi(fields[1])
		if err != nil || score <= 0 {
			log.Warnf("Skipping line %d in %s: bad frequency %q", lineNo, path, fields[1])
			skipped++
			continue
		}
		entries = append(entries, Entry{Word: fields[0], Score: score})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist %s: %w", path, err)
	}

	log.Debugf("Read %d entries from %s (%d lines skipped)", len(entries), path, skipped)
	return entries, nil
}

// LoadTextFile reads a plain text wordlist into a new MemDict.
func LoadTextFile(path string) (*MemDict, error) {
	entries, err := ReadTextEntries(path)
	if err != nil {
		return nil, err
	}
	dict := NewMemDict()
	for _, e := range entries {
		dict.AddWord(e.Word, e.Score)
	}
	return dict, nil
}
