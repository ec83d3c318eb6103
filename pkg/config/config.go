/*
Package config manages TOML config for GlideServe services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/glideserve/internal/utils"
	"github.com/bastiangx/glideserve/pkg/gesture"
)

// Config holds the entire config structure
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Pruning PruningConfig `toml:"pruning"`
	Scoring ScoringConfig `toml:"scoring"`
	Server  ServerConfig  `toml:"server"`
	Dict    DictConfig    `toml:"dict"`
}

// EngineConfig has stroke pipeline options.
type EngineConfig struct {
	SampleCount    int     `toml:"sample_count"`
	SmoothWindow   int     `toml:"smooth_window"`
	MinGlideLength float64 `toml:"min_glide_length"`
	InterPoints    int     `toml:"inter_points"`
}

// PruningConfig holds candidate pruning options.
type PruningConfig struct {
	StartKeys       int     `toml:"start_keys"`
	EndKeys         int     `toml:"end_keys"`
	LengthTolerance float64 `toml:"length_tolerance"`
	MaxCandidates   int     `toml:"max_candidates"`
}

// ScoringConfig holds scoring and ranking options.
type ScoringConfig struct {
	ShapeSigma         float64 `toml:"shape_sigma"`
	LocationSigma      float64 `toml:"location_sigma"`
	PersonalWeight     float64 `toml:"personal_weight"`
	PersonalSaturation float64 `toml:"personal_saturation"`
	TopK               int     `toml:"top_k"`
	Workers            int     `toml:"workers"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxTracePoints int    `toml:"max_trace_points"`
	MetricsAddr    string `toml:"metrics_addr"`
	LayoutFile     string `toml:"layout_file"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	MaxWords   int    `toml:"max_words"`
	ChunkSize  int    `toml:"chunk_size"`
	LazyLoad   bool   `toml:"lazy_load"`
	PersonalDB string `toml:"personal_db"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "glideserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	// Not conventional, fallback from ~/.config if not writable
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "glideserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/glideserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	var config *Config
	var err error

	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err = LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err = InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config mirroring the engine's shipped tuning.
func DefaultConfig() *Config {
	opts := gesture.DefaultOptions()
	return &Config{
		Engine: EngineConfig{
			SampleCount:    opts.SampleCount,
			SmoothWindow:   opts.SmoothWindow,
			MinGlideLength: opts.MinGlideLength,
			InterPoints:    opts.InterPoints,
		},
		Pruning: PruningConfig{
			StartKeys:       opts.StartKeys,
			EndKeys:         opts.EndKeys,
			LengthTolerance: opts.LengthTolerance,
			MaxCandidates:   opts.MaxCandidates,
		},
		Scoring: ScoringConfig{
			ShapeSigma:         opts.ShapeSigma,
			LocationSigma:      opts.LocationSigma,
			PersonalWeight:     opts.PersonalWeight,
			PersonalSaturation: opts.PersonalSaturation,
			TopK:               opts.TopK,
			Workers:            opts.Workers,
		},
		Server: ServerConfig{
			MaxTracePoints: 4096,
			MetricsAddr:    "",
			LayoutFile:     "",
		},
		Dict: DictConfig{
			MaxWords:   50000,
			ChunkSize:  10000,
			LazyLoad:   true,
			PersonalDB: "",
		},
	}
}

// EngineOptions maps the config onto engine tuning. Values are passed
// through as-is; NewEngine rejects out-of-range ones.
func (c *Config) EngineOptions() gesture.Options {
	return gesture.Options{
		SampleCount:        c.Engine.SampleCount,
		SmoothWindow:       c.Engine.SmoothWindow,
		MinGlideLength:     c.Engine.MinGlideLength,
		InterPoints:        c.Engine.InterPoints,
		StartKeys:          c.Pruning.StartKeys,
		EndKeys:            c.Pruning.EndKeys,
		LengthTolerance:    c.Pruning.LengthTolerance,
		MaxCandidates:      c.Pruning.MaxCandidates,
		ShapeSigma:         c.Scoring.ShapeSigma,
		LocationSigma:      c.Scoring.LocationSigma,
		PersonalWeight:     c.Scoring.PersonalWeight,
		PersonalSaturation: c.Scoring.PersonalSaturation,
		TopK:               c.Scoring.TopK,
		Workers:            c.Scoring.Workers,
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if engineSection, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(engineSection, &config.Engine)
	}
	if pruningSection, ok := utils.ExtractSection(tempConfig, "pruning"); ok {
		extractPruningConfig(pruningSection, &config.Pruning)
	}
	if scoringSection, ok := utils.ExtractSection(tempConfig, "scoring"); ok {
		extractScoringConfig(scoringSection, &config.Scoring)
	}
	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if dictSection, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(dictSection, &config.Dict)
	}
	return config, nil
}

// extractEngineConfig extracts engine configuration from a map
func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "sample_count"); ok {
		engine.SampleCount = val
	}
	if val, ok := utils.ExtractInt64(data, "smooth_window"); ok {
		engine.SmoothWindow = val
	}
	if val, ok := utils.ExtractFloat64(data, "min_glide_length"); ok {
		engine.MinGlideLength = val
	}
	if val, ok := utils.ExtractInt64(data, "inter_points"); ok {
		engine.InterPoints = val
	}
}

// extractPruningConfig extracts pruning configuration from a map
func extractPruningConfig(data map[string]any, pruning *PruningConfig) {
	if val, ok := utils.ExtractInt64(data, "start_keys"); ok {
		pruning.StartKeys = val
	}
	if val, ok := utils.ExtractInt64(data, "end_keys"); ok {
		pruning.EndKeys = val
	}
	if val, ok := utils.ExtractFloat64(data, "length_tolerance"); ok {
		pruning.LengthTolerance = val
	}
	if val, ok := utils.ExtractInt64(data, "max_candidates"); ok {
		pruning.MaxCandidates = val
	}
}

// extractScoringConfig extracts scoring configuration from a map
func extractScoringConfig(data map[string]any, scoring *ScoringConfig) {
	if val, ok := utils.ExtractFloat64(data, "shape_sigma"); ok {
		scoring.ShapeSigma = val
	}
	if val, ok := utils.ExtractFloat64(data, "location_sigma"); ok {
		scoring.LocationSigma = val
	}
	if val, ok := utils.ExtractFloat64(data, "personal_weight"); ok {
		scoring.PersonalWeight = val
	}
	if val, ok := utils.ExtractFloat64(data, "personal_saturation"); ok {
		scoring.PersonalSaturation = val
	}
	if val, ok := utils.ExtractInt64(data, "top_k"); ok {
		scoring.TopK = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		scoring.Workers = val
	}
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_trace_points"); ok {
		server.MaxTracePoints = val
	}
	if val, ok := utils.ExtractString(data, "metrics_addr"); ok {
		server.MetricsAddr = val
	}
	if val, ok := utils.ExtractString(data, "layout_file"); ok {
		server.LayoutFile = val
	}
}

// extractDictConfig extracts dictionary configuration from a map
func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "chunk_size"); ok {
		dict.ChunkSize = val
	}
	if val, ok := utils.ExtractBool(data, "lazy_load"); ok {
		dict.LazyLoad = val
	}
	if val, ok := utils.ExtractString(data, "personal_db"); ok {
		dict.PersonalDB = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	config := DefaultConfig()
	return utils.SaveTOMLFile(config, defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the live-tunable scoring values and, when configPath is
// not empty, saves the result to file
func (c *Config) Update(configPath string, topK, maxCandidates, smoothWindow *int, shapeSigma, locationSigma *float64) error {
	if topK != nil {
		c.Scoring.TopK = *topK
	}
	if maxCandidates != nil {
		c.Pruning.MaxCandidates = *maxCandidates
	}
	if smoothWindow != nil {
		c.Engine.SmoothWindow = *smoothWindow
	}
	if shapeSigma != nil {
		c.Scoring.ShapeSigma = *shapeSigma
	}
	if locationSigma != nil {
		c.Scoring.LocationSigma = *locationSigma
	}
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
