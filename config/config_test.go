package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Quantum != 64 || cfg.LandscapeThreshold != 1.1 || cfg.PortraitThreshold != 0.9 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	for _, ext := range []string{".jpg", ".JPEG", ".Png", ".webp", ".bmp", ".tiff", ".gif"} {
		if !cfg.IsSupportedExt(ext) {
			t.Errorf("Expected %s supported", ext)
		}
	}
	for _, ext := range []string{".tif", ".cr2", ".txt", ""} {
		if cfg.IsSupportedExt(ext) {
			t.Errorf("Expected %s unsupported", ext)
		}
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bucketcrop.yaml")
	content := `quantum: 32
landscape_threshold: 1.25
extensions: [JPG, .png]
default_square: {width: 512, height: 512}
engine: Imaging
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvResample, "area")
	t.Setenv(EnvJPEGQuality, "80")
	t.Setenv(EnvJournal, "/tmp/journal.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Quantum != 32 || cfg.LandscapeThreshold != 1.25 || cfg.PortraitThreshold != 0.9 {
		t.Errorf("Expected file values over defaults, got %+v", cfg)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".jpg" || cfg.Extensions[1] != ".png" {
		t.Errorf("Expected normalized extensions, got %v", cfg.Extensions)
	}
	if cfg.DefaultSquare != (Size{Width: 512, Height: 512}) || cfg.DefaultLandscape != (Size{Width: 1024, Height: 768}) {
		t.Errorf("Unexpected sizes %+v %+v", cfg.DefaultSquare, cfg.DefaultLandscape)
	}
	if cfg.Engine != EngineImaging || cfg.Resample != ResampleArea || cfg.JPEGQuality != 80 || cfg.JournalPath != "/tmp/journal.db" {
		t.Errorf("Expected env overrides applied, got %+v", cfg)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv(EnvQuantum, "128")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Quantum != 128 {
		t.Errorf("Expected quantum from env, got %d", cfg.Quantum)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero quantum", func(c *Config) { c.Quantum = 0 }},
		{"thresholds out of order", func(c *Config) { c.PortraitThreshold = 1.2 }},
		{"zero portrait threshold", func(c *Config) { c.PortraitThreshold = 0 }},
		{"unknown filter", func(c *Config) { c.Resample = "nearest" }},
		{"unknown engine", func(c *Config) { c.Engine = "magick" }},
		{"quality too high", func(c *Config) { c.JPEGQuality = 101 }},
		{"empty fallback", func(c *Config) { c.FallbackExport = Size{} }},
		{"no extensions", func(c *Config) { c.Extensions = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("quantum: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Errorf("Expected error for malformed file")
	}

	t.Setenv(EnvJPEGQuality, "high")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for bad env value, got %v", err)
	}
}
