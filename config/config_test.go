package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/domdiff/calibrate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeFile(t, "run.yaml", "strictness: high\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strictness != "high" {
		t.Errorf("strictness: got %q", cfg.Strictness)
	}
	if cfg.ToleranceVariant != "linear" {
		t.Errorf("variant default: got %q, want linear", cfg.ToleranceVariant)
	}
	if cfg.Workers != 4 {
		t.Errorf("workers default: got %d, want 4", cfg.Workers)
	}
}

func TestLoadFile_Full(t *testing.T) {
	path := writeFile(t, "run.yaml", `
strictness: low
tolerance_variant: banded
workers: 8
move_epsilon: 1.5
observability_db: /tmp/events.db
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToleranceVariant != "banded" || cfg.Workers != 8 || cfg.MoveEpsilon != 1.5 {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeFile(t, "run.yaml", "strictness: brutal\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unknown strictness")
	}
}

func TestSettingsRoundtrip(t *testing.T) {
	s := &calibrate.Settings{
		ID:                      "cal_test",
		Iterations:              5,
		Strictness:              calibrate.StrictnessMedium,
		Variant:                 calibrate.VariantLinear,
		PixelTolerance:          12,
		PercentageTolerance:     2.5,
		TextSimilarityThreshold: 0.8,
		ConfidenceLevel:         0.55,
		IgnoreSelectors:         []string{"#ad-slot"},
		IgnoreAttributes:        []string{"text"},
	}

	for _, name := range []string{"settings.json", "settings.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := SaveSettings(path, s); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		got, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if got.ID != s.ID || got.PixelTolerance != s.PixelTolerance ||
			got.ConfidenceLevel != s.ConfidenceLevel {
			t.Errorf("%s: roundtrip mismatch: %+v", name, got)
		}
		if len(got.IgnoreSelectors) != 1 || got.IgnoreSelectors[0] != "#ad-slot" {
			t.Errorf("%s: ignore selectors: %v", name, got.IgnoreSelectors)
		}
	}
}

func TestSaveSettings_UnknownFormat(t *testing.T) {
	if err := SaveSettings(filepath.Join(t.TempDir(), "s.toml"), &calibrate.Settings{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
