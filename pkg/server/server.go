package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bastiangx/glideserve/internal/observe"
	"github.com/bastiangx/glideserve/internal/store"
	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/gesture"
)

// defaultMaxTracePoints caps inbound traces when no config says otherwise.
// A swipe at 120Hz sampling rarely passes a few hundred points.
const defaultMaxTracePoints = 4096

// Server handles the IPC for gesture predictions.
type Server struct {
	mu     sync.RWMutex // guards engine and layout swaps
	engine *gesture.Engine
	layout *geometry.Layout

	loader  *dictionary.ChunkLoader
	persist *store.Store
	cfg     *config.Config
	cfgPath string
	metrics *observe.Metrics

	maxTracePoints int

	dec *msgpack.Decoder
	out *bufio.Writer
	enc *msgpack.Encoder
}

// Options wires the optional collaborators of a Server. The zero value
// serves over stdin/stdout with the default metrics instruments, no
// durable personal store, and no dictionary resizing.
type Options struct {
	// Loader enables the dict ops. Nil means the dictionary is fixed for
	// the process lifetime.
	Loader *dictionary.ChunkLoader
	// Persist receives selection counts so personal rankings survive
	// restarts. Nil keeps them in memory only.
	Persist *store.Store
	// Config and ConfigPath back the config op. A nil Config disables it;
	// an empty path applies updates without saving.
	Config     *config.Config
	ConfigPath string
	// Metrics overrides the instruments, mainly for tests.
	Metrics *observe.Metrics
	// MaxTracePoints caps the points accepted per predict request.
	MaxTracePoints int

	In  io.Reader
	Out io.Writer
}

// NewServer creates a gesture server answering requests on the configured
// streams, stdin/stdout when none are given.
func NewServer(engine *gesture.Engine, lay *geometry.Layout, opts Options) *Server {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	var outw io.Writer = os.Stdout
	if opts.Out != nil {
		outw = opts.Out
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	maxPoints := opts.MaxTracePoints
	if maxPoints <= 0 && opts.Config != nil {
		maxPoints = opts.Config.Server.MaxTracePoints
	}
	if maxPoints <= 0 {
		maxPoints = defaultMaxTracePoints
	}

	bw := bufio.NewWriter(outw)
	return &Server{
		engine:         engine,
		layout:         lay,
		loader:         opts.Loader,
		persist:        opts.Persist,
		cfg:            opts.Config,
		cfgPath:        opts.ConfigPath,
		metrics:        metrics,
		maxTracePoints: maxPoints,
		dec:            msgpack.NewDecoder(in),
		out:            bw,
		enc:            msgpack.NewEncoder(bw),
	}
}

// Start begins listening for IPC requests. It answers until the input
// stream closes or ctx is canceled between requests.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting gesture server")

	// Signal that the server is ready
	s.sendResponse(AckResponse{Status: "ready"})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var request Request
		if err := s.dec.Decode(&request); err != nil {
			if err == io.EOF {
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			return err
		}
		s.handleRequest(ctx, request)
	}
}

// handleRequest dispatches one decoded request to its op handler.
func (s *Server) handleRequest(ctx context.Context, request Request) {
	start := time.Now()
	s.metrics.ActiveRequests.Add(ctx, 1)
	defer s.metrics.ActiveRequests.Add(ctx, -1)

	switch request.Op {
	case "predict":
		s.handlePredict(ctx, request)
	case "learn":
		s.handleLearn(ctx, request)
	case "layout":
		s.handleLayout(request)
	case "dict":
		s.handleDict(request)
	case "config":
		s.handleConfig(request)
	case "stats":
		s.handleStats(request)
	case "health":
		s.sendResponse(AckResponse{ID: request.ID, Status: "ok"})
	case "":
		s.sendError(request.ID, "Missing 'op' field", 400)
		return
	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown op: %s", request.Op), 400)
		return
	}
	s.metrics.RecordRequest(ctx, request.Op, time.Since(start).Seconds())
}

// handlePredict decodes one trace into ranked candidates. It validates the
// request, runs the engine against the current layout, and sends the
// response with the decode time in microseconds.
func (s *Server) handlePredict(ctx context.Context, request Request) {
	if len(request.Points) == 0 {
		s.sendError(request.ID, "Missing 'pts' parameter", 400)
		log.Debug("Predict request carried no points")
		return
	}
	if len(request.Points) > s.maxTracePoints {
		s.sendError(request.ID, fmt.Sprintf("Trace exceeds maximum of %d points", s.maxTracePoints), 400)
		log.Debugf("Trace too long: %d points", len(request.Points))
		return
	}

	raw := rawPoints(request.Points)

	s.mu.RLock()
	engine, lay := s.engine, s.layout
	s.mu.RUnlock()

	start := time.Now()
	preds, err := engine.Predict(ctx, raw, lay)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordPrediction(ctx, "error")
		s.sendError(request.ID, err.Error(), 500)
		log.Errorf("Predict failed: %v", err)
		return
	}

	if request.Limit > 0 && len(preds) > request.Limit {
		preds = preds[:request.Limit]
	}

	words := make([]Candidate, len(preds))
	for i, p := range preds {
		words[i] = Candidate{Word: p.Word, Confidence: p.Confidence, Rank: uint16(i + 1)}
	}

	status := "ok"
	if len(words) == 0 {
		status = "empty"
	}
	s.metrics.PredictDuration.Record(ctx, elapsed.Seconds())
	s.metrics.RecordPrediction(ctx, status)

	s.sendResponse(PredictResponse{
		ID:        request.ID,
		Words:     words,
		Count:     len(words),
		TimeTaken: elapsed.Microseconds(),
	})
}

// handleLearn records a committed word so personal frequency starts
// favoring it. The trace is optional; hosts that have it send it along.
func (s *Server) handleLearn(ctx context.Context, request Request) {
	word := strings.ToLower(strings.TrimSpace(request.Word))
	if word == "" {
		s.sendError(request.ID, "Missing 'w' parameter", 400)
		log.Debug("Learn request carried no word")
		return
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	engine.LearnSelection(word, rawPoints(request.Points))

	if s.persist != nil {
		if _, err := s.persist.Increment(ctx, word, 1); err != nil {
			log.Warnf("Failed to persist selection %q: %v", word, err)
		}
	}
	s.metrics.RecordSelection(ctx)

	s.sendResponse(AckResponse{ID: request.ID, Status: "ok"})
}

// handleLayout swaps the key geometry. A spec naming the builtin layout
// with no keys selects it; anything else must carry the full geometry.
// Stale cached templates die lazily through the layout version, no purge
// needed.
func (s *Server) handleLayout(request Request) {
	if request.Layout == nil {
		s.sendError(request.ID, "Missing 'layout' parameter", 400)
		return
	}

	spec := request.Layout
	var lay *geometry.Layout
	if len(spec.Keys) == 0 && strings.EqualFold(spec.Name, "qwerty") {
		lay = geometry.QWERTY()
	} else {
		keys := make([]geometry.PixelKey, len(spec.Keys))
		for i, k := range spec.Keys {
			keys[i] = geometry.PixelKey{Char: k.Char, X: k.X, Y: k.Y, W: k.W, H: k.H}
		}
		var err error
		lay, err = geometry.NewLayoutFromPixels(spec.Name, spec.Width, spec.Height, keys)
		if err != nil {
			s.sendError(request.ID, err.Error(), 400)
			return
		}
	}

	s.mu.Lock()
	s.layout = lay
	s.mu.Unlock()

	log.Debugf("Switched to layout %q with %d keys (v%d)", lay.Name(), lay.Len(), lay.Version())
	s.sendResponse(AckResponse{ID: request.ID, Status: "ok"})
}

// handleDict serves the runtime dictionary ops against the chunk loader.
func (s *Server) handleDict(request Request) {
	if s.loader == nil {
		s.sendError(request.ID, "Dictionary is not chunk-backed", 400)
		return
	}

	switch request.Action {
	case "get_info":
		st := s.loader.Stats()
		s.sendResponse(DictResponse{
			ID:              request.ID,
			Status:          "ok",
			TotalWords:      st.TotalWords,
			CurrentChunks:   st.LoadedChunks,
			AvailableChunks: st.AvailableChunks,
		})

	case "get_options":
		options, err := s.loader.SizeOptions()
		if err != nil {
			s.sendError(request.ID, err.Error(), 500)
			return
		}
		out := make([]SizeOption, len(options))
		for i, o := range options {
			out[i] = SizeOption{ChunkCount: o.Chunks, WordCount: o.Words, SizeLabel: o.Label}
		}
		s.sendResponse(DictResponse{ID: request.ID, Status: "ok", Options: out})

	case "set_size":
		if request.ChunkCount == nil || *request.ChunkCount < 1 {
			s.sendError(request.ID, "Missing or invalid 'chunk_count' for set_size", 400)
			return
		}
		options, err := s.loader.SizeOptions()
		if err != nil {
			s.sendError(request.ID, err.Error(), 500)
			return
		}
		if len(options) == 0 {
			s.sendError(request.ID, "No chunk files available", 500)
			return
		}
		n := *request.ChunkCount
		if n > len(options) {
			n = len(options)
		}
		if err := s.loader.Resize(options[n-1].Words); err != nil {
			s.sendError(request.ID, err.Error(), 500)
			return
		}
		st := s.loader.Stats()
		s.sendResponse(DictResponse{
			ID:              request.ID,
			Status:          "ok",
			TotalWords:      st.TotalWords,
			CurrentChunks:   st.LoadedChunks,
			AvailableChunks: st.AvailableChunks,
		})

	default:
		s.sendError(request.ID, fmt.Sprintf("Unknown dict action: %s", request.Action), 400)
	}
}

// handleConfig applies the tunable ranking parameters. The new values are
// validated by building the replacement engine first, so a rejected update
// never sticks, then saved to the active config file.
func (s *Server) handleConfig(request Request) {
	if s.cfg == nil {
		s.sendError(request.ID, "No config loaded", 400)
		return
	}
	if request.TopK == nil && request.MaxCandidates == nil && request.SmoothWindow == nil &&
		request.ShapeSigma == nil && request.LocationSigma == nil {
		s.sendError(request.ID, "Config request carries no fields to update", 400)
		return
	}

	next := *s.cfg
	if err := next.Update("", request.TopK, request.MaxCandidates, request.SmoothWindow,
		request.ShapeSigma, request.LocationSigma); err != nil {
		s.sendError(request.ID, err.Error(), 500)
		return
	}

	s.mu.Lock()
	engine, err := gesture.NewEngine(s.engine.Dictionary(), s.engine.Personal(), next.EngineOptions())
	if err != nil {
		s.mu.Unlock()
		s.sendError(request.ID, err.Error(), 400)
		log.Debugf("Rejected config update: %v", err)
		return
	}
	s.engine = engine
	s.mu.Unlock()

	*s.cfg = next
	if s.cfgPath != "" {
		if err := config.SaveConfig(s.cfg, s.cfgPath); err != nil {
			log.Warnf("Failed to save config to %s: %v", s.cfgPath, err)
		}
	}

	log.Debug("Engine rebuilt with updated tuning")
	s.sendResponse(AckResponse{ID: request.ID, Status: "ok"})
}

// handleStats reports engine and loader counters plus the active layout.
func (s *Server) handleStats(request Request) {
	s.mu.RLock()
	engine, lay := s.engine, s.layout
	s.mu.RUnlock()

	stats := engine.Stats()
	if s.loader != nil {
		ls := s.loader.Stats()
		stats["loadedChunks"] = ls.LoadedChunks
		stats["availableChunks"] = ls.AvailableChunks
	}
	s.sendResponse(StatsResponse{ID: request.ID, Stats: stats, Layout: lay.Name()})
}

// sendResponse encodes one msgpack value onto the output stream and
// flushes it, so the client sees whole messages.
func (s *Server) sendResponse(response interface{}) {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		log.Errorf("Flushing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(RequestError{ID: id, Error: message, Code: code})
}

// rawPoints converts wire points into engine input.
func rawPoints(pts []TracePoint) []geometry.RawPoint {
	raw := make([]geometry.RawPoint, len(pts))
	for i, p := range pts {
		raw[i] = geometry.RawPoint{X: p.X, Y: p.Y, T: p.T}
	}
	return raw
}
