package imageprocessor

import (
	"fmt"
	"image"

	"bucketcrop/config"
	"bucketcrop/types"
)

// Rendered is a cropped and resized image held in memory until saved.
// Close must be called whether or not Save succeeds.
type Rendered interface {
	Size() image.Point
	Save(dst string) error
	Close() error
}

// Engine decodes a source image, crops it and resizes it to the target size.
// The decoded source is released before Render returns.
type Engine interface {
	Name() string
	Render(src string, rect types.CropRectangle, target types.Dimensions) (Rendered, error)
}

// NewEngine returns the engine selected in cfg, using cfg's resample filter and JPEG quality
func NewEngine(cfg config.Config) (Engine, error) {
	switch cfg.Engine {
	case config.EngineOpenCV:
		return NewOpenCVEngine(cfg.Resample, cfg.JPEGQuality)
	case config.EngineImaging:
		return NewImagingEngine(cfg.Resample, cfg.JPEGQuality)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, cfg.Engine)
	}
}
