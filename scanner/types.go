package scanner

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"bucketcrop/types"
)

// Input errors. All of them match ErrBadInput with errors.Is.
var (
	ErrBadInput       = errors.New("bad input")
	ErrFolderNotFound = fmt.Errorf("%w: folder not found", ErrBadInput)
	ErrNotDirectory   = fmt.Errorf("%w: not a directory", ErrBadInput)
	ErrNoImages       = fmt.Errorf("%w: no supported images found", ErrBadInput)
)

// Prober reads image dimensions from a file
type Prober interface {
	Probe(path string) (width, height int, err error)
}

// ScanOptions defines the options for scanning
type ScanOptions struct {
	FolderPath string
	MaxWorkers int       // header probes in flight, 8 when zero
	Progress   io.Writer // live progress line, none when nil
}

// Result is the outcome of a scan: images sorted by path, with buckets
// assigned and default crops suggested
type Result struct {
	Folder  string
	Images  []types.ImageRecord
	Buckets types.BucketSet
	Skipped []string // unreadable files, "path: reason"
}

// ProbeResult holds the result of probing one file
type ProbeResult struct {
	Path   string
	Width  int
	Height int
	Error  error
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles int
	byFormat   map[string]int
}

// ProgressTracker tracks progress of the probe phase
type ProgressTracker struct {
	processed  int
	errors     int
	totalFiles int
	out        io.Writer
	ticker     *time.Ticker
	done       chan struct{}
	finished   chan struct{}
	mu         sync.Mutex
}
