package imageprocessor

import (
	"fmt"
	"sync"

	"bucketcrop/logging"

	"github.com/barasher/go-exiftool"
)

// ExiftoolProber reads ImageWidth/ImageHeight through a long-running exiftool process.
// It is only used when the header prober cannot read a file.
type ExiftoolProber struct {
	once sync.Once
	et   *exiftool.Exiftool
	err  error
	mu   sync.Mutex
}

// NewExiftoolProber creates a prober; exiftool is started on first use
func NewExiftoolProber() *ExiftoolProber {
	return &ExiftoolProber{}
}

// CanProbe accepts any existing file
func (p *ExiftoolProber) CanProbe(path string) bool {
	return checkReadable(path) == nil
}

// Probe extracts the image dimensions from exiftool metadata
func (p *ExiftoolProber) Probe(path string) (int, int, error) {
	p.once.Do(func() {
		p.et, p.err = exiftool.NewExiftool()
		if p.err != nil {
			logging.LogError("Failed to initialize exiftool: %v", p.err)
		}
	})
	if p.err != nil {
		return 0, 0, fmt.Errorf("exiftool unavailable: %w", p.err)
	}

	p.mu.Lock()
	if p.et == nil {
		p.mu.Unlock()
		return 0, 0, fmt.Errorf("exiftool prober is closed")
	}
	fileInfos := p.et.ExtractMetadata(path)
	p.mu.Unlock()

	if len(fileInfos) == 0 {
		return 0, 0, fmt.Errorf("%w: no metadata extracted for %s", ErrDecode, path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrDecode, path, fileInfo.Err)
	}

	width, err := fileInfo.GetInt("ImageWidth")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: no ImageWidth: %v", ErrDecode, path, err)
	}
	height, err := fileInfo.GetInt("ImageHeight")
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: no ImageHeight: %v", ErrDecode, path, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s has empty dimensions %dx%d", ErrDecode, path, width, height)
	}

	logging.DebugLog("exiftool probed %s: %dx%d", path, width, height)
	return int(width), int(height), nil
}

// Close stops the exiftool process if it was started
func (p *ExiftoolProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.et == nil {
		return nil
	}
	err := p.et.Close()
	p.et = nil
	return err
}
