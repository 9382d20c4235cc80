package imageprocessor

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"bucketcrop/logging"
)

// Prober reads the pixel dimensions of an image without decoding it fully
type Prober interface {
	// CanProbe determines if this prober can handle the given file
	CanProbe(path string) bool

	// Probe returns the image width and height
	Probe(path string) (width, height int, err error)
}

// ProberRegistry maintains an ordered chain of probers per extension
type ProberRegistry struct {
	probers map[string][]Prober
	mutex   sync.RWMutex
}

// NewProberRegistry creates a registry for the given extensions.
// The header prober is always registered first; exiftool is added as a
// fallback when the binary is on PATH.
func NewProberRegistry(extensions []string) *ProberRegistry {
	registry := &ProberRegistry{
		probers: make(map[string][]Prober),
	}

	header := NewHeaderProber()
	for _, ext := range extensions {
		registry.RegisterProber(ext, header)
	}

	if checkExiftoolCommandAvailable() {
		et := NewExiftoolProber()
		for _, ext := range extensions {
			registry.RegisterProber(ext, et)
		}
		logging.DebugLog("Registered exiftool fallback prober")
	}

	return registry
}

// RegisterProber appends a prober to the chain for a file extension
func (r *ProberRegistry) RegisterProber(ext string, prober Prober) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.probers[ext] = append(r.probers[ext], prober)
}

// CanProbeFile checks if any prober is registered for the file's extension
func (r *ProberRegistry) CanProbeFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.probers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Probe tries each registered prober in order and returns the first success
func (r *ProberRegistry) Probe(path string) (int, int, error) {
	r.mutex.RLock()
	chain := r.probers[strings.ToLower(filepath.Ext(path))]
	r.mutex.RUnlock()

	if len(chain) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	var errs []error
	for _, prober := range chain {
		if !prober.CanProbe(path) {
			continue
		}
		w, h, err := prober.Probe(path)
		if err == nil {
			return w, h, nil
		}
		// a missing or unreadable file will not get better with another prober
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPermission) {
			return 0, 0, err
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return 0, 0, fmt.Errorf("%w: no prober accepted %s", ErrUnsupported, path)
	}
	return 0, 0, errors.Join(errs...)
}

// Close releases probers that hold resources
func (r *ProberRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[Prober]bool)
	var errs []error
	for _, chain := range r.probers {
		for _, p := range chain {
			if seen[p] {
				continue
			}
			seen[p] = true
			if c, ok := p.(io.Closer); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

// checkExiftoolCommandAvailable checks if exiftool command is available
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
