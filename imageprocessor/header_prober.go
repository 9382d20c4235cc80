package imageprocessor

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// HeaderProber reads dimensions from the image header via image.DecodeConfig
type HeaderProber struct{}

// NewHeaderProber creates a prober for the registered Go image decoders
func NewHeaderProber() *HeaderProber {
	return &HeaderProber{}
}

// CanProbe checks the extension against the known formats
func (p *HeaderProber) CanProbe(path string) bool {
	return IsImageFile(path)
}

// Probe decodes the header only
func (p *HeaderProber) Probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, classifyFSError(path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s has empty dimensions %dx%d", ErrDecode, path, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}
