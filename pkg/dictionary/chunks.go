package dictionary

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Chunked binary dictionary format, one file per chunk, named dict_0001.bin
// onward. Each file is little-endian: an int32 entry count, then per entry a
// uint16 word length, the word bytes, and a uint16 global rank (1 = most
// frequent). Ranks map to scores as 65536-rank so higher stays better.

// ChunkFilename returns the conventional filename for a chunk ID.
func ChunkFilename(id int) string {
	return fmt.Sprintf("dict_%04d.bin", id)
}

// ChunkInfo contains metadata about a chunk file.
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	WordCount int
}

// LoaderStats provides statistics about the loading process.
type LoaderStats struct {
	TotalWords      int
	LoadedChunks    int
	AvailableChunks int
	MaxFrequency    int
	IsLoading       bool
}

// AvailableChunks scans a directory for chunk files, ordered by chunk ID.
func AvailableChunks(dirPath string) ([]ChunkInfo, error) {
	pattern := filepath.Join(dirPath, "dict_*.bin")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		basename := filepath.Base(file)
		idStr := strings.TrimSuffix(strings.TrimPrefix(basename, "dict_"), ".bin")
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		if err := ValidateFileFormat(file, FormatChunk); err != nil {
			log.Warnf("Skipping invalid chunk file %s: %v", file, err)
			continue
		}
		wordCount, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to read word count from chunk %s: %v", file, err)
			wordCount = 0
		}
		chunks = append(chunks, ChunkInfo{ChunkID: chunkID, Filename: file, WordCount: wordCount})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkID < chunks[j].ChunkID })
	return chunks, nil
}

// chunkWordCount reads the entry count from a chunk file's header.
func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var count int32
	if err := binary.Read(file, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	return int(count), nil
}

// readChunkFile streams every entry of one chunk file through fn.
func readChunkFile(filename string, fn func(word string, score int)) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	var totalEntries int32
	if err := binary.Read(reader, binary.LittleEndian, &totalEntries); err != nil {
		return 0, fmt.Errorf("failed to read chunk header: %w", err)
	}

	count := 0
	for count < int(totalEntries) {
		var wordLen uint16
		if err := binary.Read(reader, binary.LittleEndian, &wordLen); err != nil {
			if err == io.EOF {
				break
			}
			return count, fmt.Errorf("failed to read word length: %w", err)
		}

		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(reader, wordBytes); err != nil {
			return count, fmt.Errorf("failed to read word: %w", err)
		}

		var rank uint16
		if err := binary.Read(reader, binary.LittleEndian, &rank); err != nil {
			return count, fmt.Errorf("failed to read rank: %w", err)
		}

		// Rank 1 is the most frequent word; invert so higher score = better.
		fn(string(wordBytes), 65536-int(rank))
		count++
	}
	return count, nil
}

// LoadChunkDir eagerly loads chunk files from a directory into a new
// MemDict, in chunk order, stopping once maxWords is reached (0 = no limit).
func LoadChunkDir(dirPath string, maxWords int) (*MemDict, error) {
	chunks, err := AvailableChunks(dirPath)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunk files found in %s", dirPath)
	}

	dict := NewMemDict()
	for _, chunk := range chunks {
		if maxWords > 0 && dict.Len() >= maxWords {
			break
		}
		n, err := readChunkFile(chunk.Filename, func(word string, score int) {
			dict.AddWord(word, score)
		})
		if err != nil {
			return nil, err
		}
		log.Debugf("Loaded chunk %d: %d words", chunk.ChunkID, n)
	}
	return dict, nil
}

// ChunkLoader loads dictionary chunks into a shared MemDict in the
// background, so the engine can start predicting against the first chunks
// while the tail is still streaming in. Failed chunks are retried with
// backoff up to maxRetries.
type ChunkLoader struct {
	dirPath  string
	maxWords int
	dict     *MemDict

	mu           sync.RWMutex
	loadedChunks map[int]bool
	chunkWords   map[int][]string
	errorCount   map[int]int

	loadingCh  chan int
	done       chan struct{}
	stopOnce   sync.Once
	maxRetries int
}

// NewChunkLoader creates a lazy chunk loader feeding a fresh MemDict.
// maxWords of 0 loads everything available.
func NewChunkLoader(dirPath string, maxWords int) *ChunkLoader {
	return &ChunkLoader{
		dirPath:      dirPath,
		maxWords:     maxWords,
		dict:         NewMemDict(),
		loadedChunks: make(map[int]bool),
		chunkWords:   make(map[int][]string),
		errorCount:   make(map[int]int),
		loadingCh:    make(chan int, 16),
		done:         make(chan struct{}),
		maxRetries:   3,
	}
}

// Dict returns the MemDict this loader fills. Valid immediately; it grows
// as chunks arrive.
func (cl *ChunkLoader) Dict() *MemDict {
	return cl.dict
}

// Start scans for chunks, begins background loading, and queues enough
// chunks to satisfy the word budget.
func (cl *ChunkLoader) Start() error {
	chunks, err := AvailableChunks(cl.dirPath)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no chunk files found in %s", cl.dirPath)
	}

	log.Debugf("Found %d chunk files in %s", len(chunks), cl.dirPath)
	go cl.backgroundLoader()

	queuedWords := 0
	for _, chunk := range chunks {
		if cl.maxWords > 0 && queuedWords >= cl.maxWords {
			break
		}
		select {
		case cl.loadingCh <- chunk.ChunkID:
		case <-time.After(100 * time.Millisecond):
			log.Warnf("Loading queue full, chunk %d deferred", chunk.ChunkID)
		}
		queuedWords += chunk.WordCount
	}
	return nil
}

func (cl *ChunkLoader) backgroundLoader() {
	for {
		select {
		case chunkID := <-cl.loadingCh:
			if err := cl.loadChunk(chunkID); err != nil {
				log.Errorf("Failed to load chunk %d: %v", chunkID, err)

				cl.mu.Lock()
				cl.errorCount[chunkID]++
				attempts := cl.errorCount[chunkID]
				cl.mu.Unlock()

				if attempts < cl.maxRetries {
					log.Debugf("Retrying chunk %d (attempt %d/%d)", chunkID, attempts+1, cl.maxRetries)
					go func(id, delay int) {
						time.Sleep(time.Duration(delay) * time.Second)
						select {
						case cl.loadingCh <- id:
						case <-cl.done:
						}
					}(chunkID, attempts)
				} else {
					log.Errorf("Chunk %d failed %d times, giving up", chunkID, cl.maxRetries)
				}
			}
		case <-cl.done:
			return
		}
	}
}

func (cl *ChunkLoader) loadChunk(chunkID int) error {
	cl.mu.Lock()
	if cl.loadedChunks[chunkID] {
		cl.mu.Unlock()
		return nil
	}
	cl.mu.Unlock()

	filename := filepath.Join(cl.dirPath, ChunkFilename(chunkID))
	var words []string
	n, err := readChunkFile(filename, func(word string, score int) {
		cl.dict.AddWord(word, score)
		words = append(words, word)
	})
	if err != nil {
		return err
	}

	cl.mu.Lock()
	cl.loadedChunks[chunkID] = true
	cl.chunkWords[chunkID] = words
	cl.mu.Unlock()

	log.Debugf("Chunk %d loaded: %d words", chunkID, n)
	return nil
}

// unloadChunk removes one chunk's words from the shared dict.
func (cl *ChunkLoader) unloadChunk(chunkID int) {
	cl.mu.Lock()
	words := cl.chunkWords[chunkID]
	delete(cl.chunkWords, chunkID)
	delete(cl.loadedChunks, chunkID)
	cl.mu.Unlock()

	for _, w := range words {
		cl.dict.RemoveWord(w)
	}
	log.Debugf("Unloaded chunk %d (%d words)", chunkID, len(words))
}

// Resize adjusts the word budget at runtime: growing queues further chunks,
// shrinking unloads the highest-numbered loaded chunks until the dict fits.
func (cl *ChunkLoader) Resize(maxWords int) error {
	cl.mu.Lock()
	cl.maxWords = maxWords
	cl.mu.Unlock()

	if maxWords <= 0 || cl.dict.Len() < maxWords {
		chunks, err := AvailableChunks(cl.dirPath)
		if err != nil {
			return err
		}
		queued := cl.dict.Len()
		for _, chunk := range chunks {
			cl.mu.RLock()
			loaded := cl.loadedChunks[chunk.ChunkID]
			cl.mu.RUnlock()
			if loaded {
				continue
			}
			if maxWords > 0 && queued >= maxWords {
				break
			}
			select {
			case cl.loadingCh <- chunk.ChunkID:
				queued += chunk.WordCount
			case <-time.After(100 * time.Millisecond):
				log.Warnf("Loading queue full, chunk %d deferred", chunk.ChunkID)
			}
		}
		return nil
	}

	// Shrink: drop highest chunks first, keeping at least one.
	cl.mu.RLock()
	var loaded []int
	for id := range cl.loadedChunks {
		loaded = append(loaded, id)
	}
	cl.mu.RUnlock()
	sort.Sort(sort.Reverse(sort.IntSlice(loaded)))

	remaining := len(loaded)
	for _, id := range loaded {
		if cl.dict.Len() <= maxWords || remaining == 1 {
			break
		}
		cl.unloadChunk(id)
		remaining--
	}
	return nil
}

// SizeOption is one selectable dictionary size, expressed as a chunk count
// and the cumulative word count it buys.
type SizeOption struct {
	Chunks int    `msgpack:"chunks"`
	Words  int    `msgpack:"words"`
	Label  string `msgpack:"label"`
}

// SizeOptions lists the cumulative size steps the chunk directory offers,
// one per chunk. Hosts surface these in settings UIs and feed the chosen
// word count back into Resize.
func (cl *ChunkLoader) SizeOptions() ([]SizeOption, error) {
	chunks, err := AvailableChunks(cl.dirPath)
	if err != nil {
		return nil, err
	}

	options := make([]SizeOption, 0, len(chunks))
	totalWords := 0
	for i, chunk := range chunks {
		totalWords += chunk.WordCount
		options = append(options, SizeOption{
			Chunks: i + 1,
			Words:  totalWords,
			Label:  fmt.Sprintf("%dK words", totalWords/1000),
		})
	}
	return options, nil
}

// Stats returns current loading statistics.
func (cl *ChunkLoader) Stats() LoaderStats {
	chunks, _ := AvailableChunks(cl.dirPath)
	dictStats := cl.dict.Stats()

	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return LoaderStats{
		TotalWords:      dictStats["totalWords"],
		LoadedChunks:    len(cl.loadedChunks),
		AvailableChunks: len(chunks),
		MaxFrequency:    dictStats["maxFrequency"],
		IsLoading:       len(cl.loadingCh) > 0,
	}
}

// Stop terminates background loading. Safe to call more than once.
func (cl *ChunkLoader) Stop() {
	cl.stopOnce.Do(func() { close(cl.done) })
}
