package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bastiangx/glideserve/pkg/gesture"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func TestDefaultConfigMatchesEngineDefaults(t *testing.T) {
	got := DefaultConfig().EngineOptions()
	want := gesture.DefaultOptions()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultConfig options drifted from engine defaults:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Scoring.TopK = 5
	cfg.Dict.MaxWords = 12000
	cfg.Server.MetricsAddr = "localhost:9090"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("roundtrip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := writeConfigFile(t, `
[scoring]
top_k = 5

[dict]
lazy_load = false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Scoring.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Scoring.TopK)
	}
	if cfg.Dict.LazyLoad {
		t.Error("expected lazy_load false")
	}
	// Untouched sections keep builtin defaults.
	def := DefaultConfig()
	if cfg.Engine != def.Engine {
		t.Errorf("engine section changed unexpectedly: %+v", cfg.Engine)
	}
	if cfg.Scoring.ShapeSigma != def.Scoring.ShapeSigma {
		t.Errorf("shape_sigma changed unexpectedly: %v", cfg.Scoring.ShapeSigma)
	}
}

func TestLoadConfigRecoversFromBadField(t *testing.T) {
	// sample_count has the wrong type, which fails strict decoding; the
	// recovery pass must still pick up the valid scoring section.
	path := writeConfigFile(t, `
[engine]
sample_count = "lots"

[scoring]
top_k = 3
shape_sigma = 0.2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Engine.SampleCount != DefaultConfig().Engine.SampleCount {
		t.Errorf("bad sample_count should fall back to default, got %d", cfg.Engine.SampleCount)
	}
	if cfg.Scoring.TopK != 3 {
		t.Errorf("expected top_k 3 from recovery, got %d", cfg.Scoring.TopK)
	}
	if cfg.Scoring.ShapeSigma != 0.2 {
		t.Errorf("expected shape_sigma 0.2 from recovery, got %v", cfg.Scoring.ShapeSigma)
	}
}

func TestLoadConfigWholeNumberFloats(t *testing.T) {
	// TOML integers must be accepted for float fields during recovery.
	path := writeConfigFile(t, `
[engine]
sample_count = "broken"

[scoring]
personal_saturation = 20
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Scoring.PersonalSaturation != 20 {
		t.Errorf("expected personal_saturation 20, got %v", cfg.Scoring.PersonalSaturation)
	}
}

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("fresh config should equal defaults, got %+v", cfg)
	}
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	topK := 4
	sigma := 0.22
	if err := cfg.Update(path, &topK, nil, nil, &sigma, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Scoring.TopK != 4 {
		t.Errorf("expected persisted top_k 4, got %d", loaded.Scoring.TopK)
	}
	if loaded.Scoring.ShapeSigma != 0.22 {
		t.Errorf("expected persisted shape_sigma 0.22, got %v", loaded.Scoring.ShapeSigma)
	}
	if loaded.Pruning.MaxCandidates != DefaultConfig().Pruning.MaxCandidates {
		t.Errorf("max_candidates should be unchanged, got %d", loaded.Pruning.MaxCandidates)
	}
}
