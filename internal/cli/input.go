// Package cli handles cmd line input for DBG and testing the glide engine
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/gesture"
)

// InputHandler reads words from stdin, synthesizes the ideal glide for each
// against the active layout, and prints what the engine would have
// predicted. It is the fastest way to eyeball ranking changes without a
// host attached.
type InputHandler struct {
	engine  *gesture.Engine
	layout  *geometry.Layout
	density int
	limit   int
}

// NewInputHandler handles initialization of the InputHandler with basic
// parameters. density is how many points are interpolated per key-to-key
// segment when synthesizing traces; limit caps how many candidates print.
func NewInputHandler(engine *gesture.Engine, lay *geometry.Layout, density, limit int) *InputHandler {
	if density < 1 {
		density = 24
	}
	return &InputHandler{
		engine:  engine,
		layout:  lay,
		density: density,
		limit:   limit,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the trimmed input to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin
func (h *InputHandler) Start() error {
	log.Print("GlideServe CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a word and press Enter to glide it (!word learns a selection, :layout / :stats / :reset, Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput routes one line: commands first, everything else is a word to
// glide.
func (h *InputHandler) handleInput(line string) {
	switch {
	case line == ":layout":
		h.printLayout()
	case line == ":stats":
		h.printStats()
	case line == ":reset":
		h.engine.ResetTemplates()
		log.Print("Template cache cleared")
	case strings.HasPrefix(line, "!"):
		h.handleLearn(strings.TrimPrefix(line, "!"))
	default:
		h.handleGlide(line)
	}
}

// handleGlide synthesizes the ideal trace for a word and prints the ranked
// candidates the engine decodes from it.
func (h *InputHandler) handleGlide(word string) {
	word = strings.ToLower(word)
	raw, ok := h.layout.TraceWord(word, h.density)
	if !ok {
		log.Errorf("Word '%s' has characters outside layout '%s'", word, h.layout.Name())
		return
	}

	start := time.Now()
	preds, err := h.engine.Predict(context.Background(), raw, h.layout)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("Predict failed: %v", err)
		return
	}
	log.Debugf("Took [ %v ] for a %d-point glide", elapsed, len(raw))

	if len(preds) == 0 {
		log.Warnf("No candidates for glide '%s'", word)
		return
	}
	if h.limit > 0 && len(preds) > h.limit {
		preds = preds[:h.limit]
	}

	log.Printf("Found %d candidates for glide '%s':", len(preds), word)
	for i, p := range preds {
		clWord := fmt.Sprintf("\033[38;5;75m%s\033[0m", p.Word)
		log.Printf("%2d. %-40s (conf: %6.3f  shape: %5.3f  loc: %5.3f)",
			i+1, clWord, p.Confidence, p.Shape, p.Location)
	}
}

// handleLearn records a selection so the next glide of the same shape ranks
// the word higher.
func (h *InputHandler) handleLearn(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		log.Error("Nothing to learn: empty word")
		return
	}
	raw, _ := h.layout.TraceWord(word, h.density)
	h.engine.LearnSelection(word, raw)
	log.Printf("Learned selection '%s'", word)
}

// printLayout dumps the active layout geometry.
func (h *InputHandler) printLayout() {
	b := h.layout.Bounds()
	log.Printf("Layout '%s': %d keys over %.0fx%.0f px at (%.0f, %.0f)",
		h.layout.Name(), h.layout.Len(), b.W, b.H, b.X, b.Y)

	var chars strings.Builder
	for i, k := range h.layout.Keys() {
		if i > 0 {
			chars.WriteByte(' ')
		}
		chars.WriteRune(k.Char)
	}
	log.Printf("keys: %s", chars.String())
}

// printStats dumps the engine counters, sorted by name.
func (h *InputHandler) printStats() {
	stats := h.engine.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Printf("Layout '%s' with %d keys", h.layout.Name(), h.layout.Len())
	for _, name := range names {
		log.Printf("%-18s %s", name, formatWithCommas(stats[name]))
	}
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}
