// Package config holds the tunables shared by the bucket, crop, scan and export stages.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Resample filters accepted by the export engines
const (
	ResampleLanczos = "lanczos"
	ResampleArea    = "area"
	ResampleLinear  = "linear"
)

// Export engines
const (
	EngineOpenCV  = "opencv"
	EngineImaging = "imaging"
)

// Environment overrides
const (
	EnvQuantum     = "BUCKETCROP_QUANTUM"
	EnvResample    = "BUCKETCROP_RESAMPLE"
	EnvEngine      = "BUCKETCROP_ENGINE"
	EnvJPEGQuality = "BUCKETCROP_JPEG_QUALITY"
	EnvJournal     = "BUCKETCROP_JOURNAL"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Size is a default bucket size
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is passed explicitly to every component
type Config struct {
	Quantum            int      `yaml:"quantum"`
	LandscapeThreshold float64  `yaml:"landscape_threshold"`
	PortraitThreshold  float64  `yaml:"portrait_threshold"`
	Extensions         []string `yaml:"extensions"`
	CompanionExts      []string `yaml:"companion_extensions"`
	DefaultLandscape   Size     `yaml:"default_landscape"`
	DefaultSquare      Size     `yaml:"default_square"`
	DefaultPortrait    Size     `yaml:"default_portrait"`
	FallbackExport     Size     `yaml:"fallback_export"`
	Resample           string   `yaml:"resample"`
	Engine             string   `yaml:"engine"`
	JPEGQuality        int      `yaml:"jpeg_quality"`
	JournalPath        string   `yaml:"journal"`
}

// Default returns the stock configuration
func Default() Config {
	return Config{
		Quantum:            64,
		LandscapeThreshold: 1.1,
		PortraitThreshold:  0.9,
		Extensions:         []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tiff", ".gif"},
		CompanionExts:      []string{".txt", ".json", ".caption", ".tags"},
		DefaultLandscape:   Size{Width: 1024, Height: 768},
		DefaultSquare:      Size{Width: 1024, Height: 1024},
		DefaultPortrait:    Size{Width: 768, Height: 1024},
		FallbackExport:     Size{Width: 1024, Height: 1024},
		Resample:           ResampleLanczos,
		Engine:             EngineOpenCV,
		JPEGQuality:        95,
	}
}

// Load reads an optional YAML file over the defaults, then applies
// BUCKETCROP_* environment overrides (a .env file is honoured if present).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvQuantum)); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvQuantum, v)
		}
		c.Quantum = q
	}
	if v := strings.TrimSpace(os.Getenv(EnvJPEGQuality)); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvJPEGQuality, v)
		}
		c.JPEGQuality = q
	}
	if v := strings.TrimSpace(os.Getenv(EnvResample)); v != "" {
		c.Resample = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEngine)); v != "" {
		c.Engine = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournal)); v != "" {
		c.JournalPath = v
	}
	return nil
}

// normalize lower-cases names and makes sure extensions carry a leading dot
func (c *Config) normalize() {
	c.Resample = strings.ToLower(strings.TrimSpace(c.Resample))
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	c.Extensions = normalizeExts(c.Extensions)
	c.CompanionExts = normalizeExts(c.CompanionExts)
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// Validate rejects configurations the stages cannot work with
func (c Config) Validate() error {
	if c.Quantum <= 0 {
		return fmt.Errorf("%w: quantum must be positive, got %d", ErrInvalidConfig, c.Quantum)
	}
	if c.PortraitThreshold <= 0 || c.PortraitThreshold > c.LandscapeThreshold {
		return fmt.Errorf("%w: need 0 < portrait_threshold <= landscape_threshold, got %v and %v",
			ErrInvalidConfig, c.PortraitThreshold, c.LandscapeThreshold)
	}
	for name, s := range map[string]Size{
		"default_landscape": c.DefaultLandscape,
		"default_square":    c.DefaultSquare,
		"default_portrait":  c.DefaultPortrait,
		"fallback_export":   c.FallbackExport,
	} {
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %dx%d", ErrInvalidConfig, name, s.Width, s.Height)
		}
	}
	switch c.Resample {
	case ResampleLanczos, ResampleArea, ResampleLinear:
	default:
		return fmt.Errorf("%w: unknown resample filter %q", ErrInvalidConfig, c.Resample)
	}
	switch c.Engine {
	case EngineOpenCV, EngineImaging:
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg_quality must be 1-100, got %d", ErrInvalidConfig, c.JPEGQuality)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no image extensions configured", ErrInvalidConfig)
	}
	return nil
}

// IsSupportedExt reports whether ext (any case, with dot) is in the scan allowlist
func (c Config) IsSupportedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
