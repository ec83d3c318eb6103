// Copyright 2025 The GlideServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the glide prediction server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

GlideServe decodes swipe-keyboard traces into ranked word candidates using
shape and location matching over word templates, with frequency and personal
ranking. It can operate as a MessagePack IPC server for integration with
keyboard hosts, or as a CLI application for testing and debugging.

The server mode uses lazy-loaded chunked dictionaries to efficiently handle
large word datasets while maintaining low memory usage. Candidates are pruned
by start/end keys and path length before scoring, so a glide is matched
against a few hundred templates instead of the whole dictionary.

# Usage

Start the server with default settings:

	glideserve

Use a custom data directory and enable debug mode:

	glideserve -data /path/to/chunks -d

Run in CLI mode for interactive testing:

	glideserve -c -limit 5

The data directory should contain chunked binary files named dict_0001.bin,
dict_0002.bin, etc. These files are generated by the glidedict tool from word
frequency lists and loaded on demand based on the configured limits.

# Configuration

Runtime configuration is managed through a TOML file covering the stroke
pipeline, pruning, scoring, server and dictionary settings:

	[engine]
	sample_count = 100
	smooth_window = 3

	[pruning]
	start_keys = 2
	end_keys = 2
	length_tolerance = 0.14

	[scoring]
	shape_sigma = 0.15
	location_sigma = 0.08
	top_k = 8

	[dict]
	max_words = 50000
	lazy_load = true
	personal_db = ""

The config file is automatically created with defaults if it doesn't exist.
The scoring values can also be adjusted over IPC without a restart.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Prediction
requests are processed synchronously with microsecond timing information
included in responses.

Send a glide trace:

	{"id": "req1", "op": "predict", "pts": [{"x": 182.0, "y": 40.1}, ...], "l": 5}

Receive candidates ranked by confidence:

	{"id": "req1", "s": [{"w": "hello", "p": 0.94, "r": 1}, {"w": "hero", "p": 0.31, "r": 2}], "c": 2, "t": 412}

Report the word the user committed, so personal ranking learns it:

	{"id": "sel1", "op": "learn", "w": "hello"}

Dictionary management requests allow runtime adjustment of loaded chunks:

	{"id": "dict1", "op": "dict", "action": "get_info"}
	{"id": "dict2", "op": "dict", "action": "set_size", "chunk_count": 5}

See the server package docs for the layout and config ops.

# Server Mode

The default mode starts a MessagePack IPC server that processes requests
from stdin and writes responses to stdout. This design enables integration
with keyboard hosts and editors through process communication; all logging
goes to stderr so the wire stays clean.

	srv := server.NewServer(engine, layout, server.Options{...})
	err := srv.Start(ctx)

The server handles request parsing, validation, and response formatting,
and swaps layouts or ranking parameters live without dropping the process.

# CLI Mode

CLI mode provides an interactive interface for testing and debugging the
prediction pipeline. It reads words from stdin, synthesizes the ideal glide
for each against the active layout, and displays the ranked candidates with
confidence values.

	inputHandler := cli.NewInputHandler(engine, layout, density, limit)
	err := inputHandler.Start()

This mode is primarily intended for development: tuning sigmas, checking
what a dictionary change does to ranking, and exercising personal learning
with the !word command.

# Prediction Engine

The core functionality is provided by the gesture package, which matches
resampled traces against word templates generated from key positions.

	engine, err := gesture.NewEngine(dict, personal, opts)
	preds, err := engine.Predict(ctx, rawPoints, layout)

Candidate enumeration walks the dictionary by plausible first letters, so
cost scales with the pruned candidate set rather than dictionary size.

# Command Line Flags

The following flags control application behavior:

	-data string
	    Directory containing binary chunk files (default "data/")
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-config string
	    Custom config file path
	-layout string
	    JSON keyboard layout file (builtin QWERTY when empty)
	-limit int
	    Number of candidates to show in CLI mode
	-density int
	    Synthetic trace points per key segment in CLI mode
	-words int
	    Maximum words to load (0 for all)
	-metrics string
	    Address to serve Prometheus metrics on (e.g. :9090)

The application automatically resolves data and config paths relative to the
executable location, supporting both development and production deployments.

# Observability

With -metrics (or metrics_addr in the config) the process exposes a
Prometheus endpoint with prediction latency histograms and request
counters, served off a side HTTP listener so the stdio transport is
unaffected. Personal selections can be persisted to a local SQLite file via
dict.personal_db; the engine seeds its in-memory counts from it at startup
and the server writes every learned selection through.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/glideserve/internal/cli"
	"github.com/bastiangx/glideserve/internal/logger"
	"github.com/bastiangx/glideserve/internal/observe"
	"github.com/bastiangx/glideserve/internal/store"
	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/geometry"
	"github.com/bastiangx/glideserve/pkg/gesture"
	"github.com/bastiangx/glideserve/pkg/server"
)

const (
	Version = "0.4.0-beta"
	AppName = "glideserve"
	gh      = "https://github.com/bastiangx/glideserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	ctx := context.Background()
	defaultConfig := config.DefaultConfig()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	binaryDir := flag.String("data", "data/", "Directory containing the binary chunk files")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Custom config file path")
	layoutFile := flag.String("layout", "", "JSON keyboard layout file (builtin QWERTY when empty)")
	limit := flag.Int("limit", defaultConfig.Scoring.TopK, "Number of candidates to show in CLI mode")
	density := flag.Int("density", 24, "Synthetic trace points per key segment in CLI mode")
	wordLimit := flag.Int("words", defaultConfig.Dict.MaxWords, "Maximum number of words to load (use 0 for all words)")
	metricsAddr := flag.String("metrics", "", "Address to serve Prometheus metrics on (disabled when empty)")

	flag.Parse()

	if *showVersion {
		vlog := logger.Default("")

		styles := log.DefaultStyles()
		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["version"] = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		vlog.SetStyles(styles)

		vlog.Print("")
		vlog.Print("[ GlideServe ] Decodes swipe traces into words, fast!")
		vlog.Print("", "version", Version)
		vlog.Print("")
		vlog.Print("use -h or --help to see available options")
		vlog.Print("Github Repo", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	// Pathfinder for bin dir
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	resolvedDataDir, err := pathResolver.GetDataDir(*binaryDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir: (%v)", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	cfg, activeConfigPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", activeConfigPath)

	// Explicit flags win over the config file.
	if *wordLimit != defaultConfig.Dict.MaxWords {
		cfg.Dict.MaxWords = *wordLimit
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *layoutFile != "" {
		cfg.Server.LayoutFile = *layoutFile
	}

	lay := geometry.QWERTY()
	if cfg.Server.LayoutFile != "" {
		custom, err := geometry.LoadLayoutFile(cfg.Server.LayoutFile)
		if err != nil {
			log.Warnf("Failed to load layout %s: %v. Falling back to builtin QWERTY...", cfg.Server.LayoutFile, err)
		} else {
			lay = custom
		}
	}
	log.Debugf("Layout '%s' with %d keys", lay.Name(), lay.Len())

	// Dictionary: lazy chunk loading keeps startup fast; eager loading keeps
	// everything else deterministic.
	var dict *dictionary.MemDict
	var loader *dictionary.ChunkLoader
	if cfg.Dict.LazyLoad {
		loader = dictionary.NewChunkLoader(resolvedDataDir, cfg.Dict.MaxWords)
		if err := loader.Start(); err != nil {
			log.Warnf("No dictionary chunks at %s: %v. Running with an empty dictionary...", resolvedDataDir, err)
			loader = nil
			dict = dictionary.NewMemDict()
		} else {
			dict = loader.Dict()
			defer loader.Stop()
		}
	} else {
		dict, err = dictionary.LoadChunkDir(resolvedDataDir, cfg.Dict.MaxWords)
		if err != nil {
			log.Warnf("Failed to load dictionary from %s: %v. Running with an empty dictionary...", resolvedDataDir, err)
			dict = dictionary.NewMemDict()
		}
	}

	// Personal frequency: in-memory always, seeded from SQLite when a path
	// is configured.
	personal := gesture.NewMemoryFrequency()
	var db *store.Store
	if cfg.Dict.PersonalDB != "" {
		db, err = store.Open(cfg.Dict.PersonalDB)
		if err != nil {
			log.Warnf("Failed to open personal store %s: %v. Selections will not persist...", cfg.Dict.PersonalDB, err)
			db = nil
		} else {
			defer db.Close()
			counts, err := db.LoadAll(ctx)
			if err != nil {
				log.Warnf("Failed to load personal frequencies: %v", err)
			} else {
				personal.Seed(counts)
				log.Debugf("Seeded %d personal words from %s", len(counts), cfg.Dict.PersonalDB)
			}
		}
	}

	engine, err := gesture.NewEngine(dict, personal, cfg.EngineOptions())
	if err != nil {
		log.Fatalf("Failed to init engine: %v", err)
	}
	log.Debug("Engine init done")

	if cfg.Server.MetricsAddr != "" {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    AppName,
			ServiceVersion: Version,
		})
		if err != nil {
			log.Warnf("Failed to init metrics provider: %v", err)
		} else {
			defer shutdown(ctx)
			observe.ServeMetrics(cfg.Server.MetricsAddr)
		}
	}

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"layout", lay.Name(),
			"density", *density,
			"limit", *limit)

		inputHandler := cli.NewInputHandler(engine, lay, *density, *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, lay, server.Options{
		Loader:         loader,
		Persist:        db,
		Config:         cfg,
		ConfigPath:     activeConfigPath,
		MaxTracePoints: cfg.Server.MaxTracePoints,
	})

	showStartupInfo(resolvedDataDir, lay.Name())

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir, layoutName string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("============")
	println(" GlideServe ")
	println("============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("layout: ( %s )", layoutName)
	log.Info("status: ready")
	println("============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
