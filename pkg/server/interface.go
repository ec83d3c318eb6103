/*
Package server implements msgpack IPC for gesture prediction services.

The server package provides a minimal interface for swipe-keyboard decoding
using msgpack serialization over stdin/stdout.

The protocol uses binary msgpack encoding and supports prediction requests,
selection feedback, layout swaps, dictionary management ops, and config
updates. Messages are processed synchronously with timing info included in
prediction responses.

# IPC

The server operates on a request response model where clients send
structured messages via stdin and receive responses through stdout. Every
message carries an ID and an op field; the remaining fields depend on the
op. Values are written back to back on the pipe with no framing, msgpack
is self delimiting.

Prediction requests carry the raw trace in screen pixels:

	{"id": "req_001", "op": "predict", "pts": [{"x": 182.0, "y": 40.1, "t": 0}, ...], "l": 5}

The server responds with candidates ranked by confidence:

	{"id": "req_001", "s": [{"w": "hello", "p": 0.94, "r": 1}, {"w": "hero", "p": 0.31, "r": 2}], "c": 2, "t": 412}

Selection feedback promotes a word in the personal rankings:

	{"id": "sel_001", "op": "learn", "w": "hello"}

Dict management enables runtime adjustment of loaded word sets:

	{"id": "dict_001", "op": "dict", "action": "set_size", "chunk_count": 5}
	{"id": "dict_002", "op": "dict", "action": "get_options"}

Layout swaps replace the key geometry without a restart; keys arrive in
screen pixels and are normalized server side. Sending the builtin layout's
name with no keys switches back to it:

	{"id": "lay_001", "op": "layout", "layout": {"name": "azerty", "width": 360, "height": 240, "keys": [...]}}
	{"id": "lay_002", "op": "layout", "layout": {"name": "qwerty"}}

Response structures include status information and error details when an
op fails. Failed requests answer with {"id", "e", "c"} where c is an
HTTP-ish status code.

# Message Types

Request is the single envelope for everything inbound; op selects the
handler and unused fields stay empty on the wire.

PredictResponse carries the ranked candidate list with per-word confidence
and the decode time in microseconds.

DictResponse manages runtime dictionary operations. Supported actions
include getting current information, setting chunk count, and retrieving
available size options.

config messages adjust ranking parameters without restart; the engine is
rebuilt with the new tuning before the ack goes out.

msgpack encoding keeps trace payloads compact, a few hundred touch points
fit in a couple of KB, and parsing stays cheap enough to sit inside a
keystroke-to-screen budget.
*/
package server

// TracePoint is one raw touch sample in screen pixels. T is milliseconds
// since the finger touched down; zero is fine when the host has no clock.
type TracePoint struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
	T int64   `msgpack:"t,omitempty"`
}

// Request - envelope for all inbound ops
type Request struct {
	ID string `msgpack:"id"`
	Op string `msgpack:"op"` // "predict", "learn", "layout", "dict", "config", "stats", "health"

	// predict and learn
	Points []TracePoint `msgpack:"pts,omitempty"`
	Word   string       `msgpack:"w,omitempty"`
	Limit  int          `msgpack:"l,omitempty"`

	// layout
	Layout *LayoutSpec `msgpack:"layout,omitempty"`

	// dict
	Action     string `msgpack:"action,omitempty"`      // "get_info", "set_size", "get_options"
	ChunkCount *int   `msgpack:"chunk_count,omitempty"` // for "set_size"

	// config, nil fields keep their current value
	TopK          *int     `msgpack:"top_k,omitempty"`
	MaxCandidates *int     `msgpack:"max_candidates,omitempty"`
	SmoothWindow  *int     `msgpack:"smooth_window,omitempty"`
	ShapeSigma    *float64 `msgpack:"shape_sigma,omitempty"`
	LocationSigma *float64 `msgpack:"location_sigma,omitempty"`
}

// Candidate - one ranked prediction
type Candidate struct {
	Word       string  `msgpack:"w"`
	Confidence float64 `msgpack:"p"`
	Rank       uint16  `msgpack:"r"`
}

// PredictResponse - ranked candidates for one trace
type PredictResponse struct {
	ID        string      `msgpack:"id"`
	Words     []Candidate `msgpack:"s"`
	Count     int         `msgpack:"c"`
	TimeTaken int64       `msgpack:"t"` // microseconds
}

// KeySpec - one key of a wire layout, in screen pixels. X and Y address
// the key center.
type KeySpec struct {
	Char string  `msgpack:"c"`
	X    float64 `msgpack:"x"`
	Y    float64 `msgpack:"y"`
	W    float64 `msgpack:"w"`
	H    float64 `msgpack:"h"`
}

// LayoutSpec - full keyboard geometry for the layout op
type LayoutSpec struct {
	Name   string    `msgpack:"name"`
	Width  float64   `msgpack:"width"`
	Height float64   `msgpack:"height"`
	Keys   []KeySpec `msgpack:"keys"`
}

// AckResponse - status-only answer for learn, layout, config and health
type AckResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"error,omitempty"`
}

// DictResponse - dictionary operation response
type DictResponse struct {
	ID              string `msgpack:"id"`
	Status          string `msgpack:"status"`
	Error           string `msgpack:"error,omitempty"`
	TotalWords      int    `msgpack:"words,omitempty"`
	CurrentChunks   int    `msgpack:"current_chunks,omitempty"`
	AvailableChunks int    `msgpack:"available_chunks,omitempty"`

	Options []SizeOption `msgpack:"options,omitempty"`
}

// SizeOption - one selectable dictionary size
type SizeOption struct {
	ChunkCount int    `msgpack:"chunk_count"`
	WordCount  int    `msgpack:"word_count"`
	SizeLabel  string `msgpack:"size_label"`
}

// StatsResponse - engine and loader counters for the stats op
type StatsResponse struct {
	ID     string         `msgpack:"id"`
	Stats  map[string]int `msgpack:"stats"`
	Layout string         `msgpack:"layout"`
}

// RequestError holds basic error information for failed requests
type RequestError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
