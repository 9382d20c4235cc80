// Package scanner discovers images in a folder and turns them into
// bucket-assigned records with default crop suggestions.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"bucketcrop/bucket"
	"bucketcrop/config"
	"bucketcrop/crop"
	"bucketcrop/logging"
	"bucketcrop/types"
)

const defaultMaxWorkers = 8

// Scanner runs the scan operation with a fixed configuration
type Scanner struct {
	cfg         config.Config
	prober      Prober
	classifier  bucket.Classifier
	synthesizer bucket.Synthesizer
}

// NewScanner creates a scanner that reads dimensions through prober
func NewScanner(cfg config.Config, prober Prober) *Scanner {
	return &Scanner{
		cfg:         cfg,
		prober:      prober,
		classifier:  bucket.NewClassifier(cfg),
		synthesizer: bucket.NewSynthesizer(cfg),
	}
}

// Scan walks options.FolderPath, probes every supported image, then
// classifies, synthesizes buckets, assigns images and suggests crops.
// Unreadable files are skipped with a warning. The returned images are
// sorted by path.
func (s *Scanner) Scan(ctx context.Context, options ScanOptions) (Result, error) {
	folder, err := validateFolder(options.FolderPath)
	if err != nil {
		return Result{}, err
	}
	options.FolderPath = folder

	files, stats := collectImageFiles(s.cfg, folder)
	logStartupInfo(stats, options)
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoImages, folder)
	}

	startTime := time.Now()
	probed, err := s.probeAll(ctx, files, stats, options)
	if err != nil {
		return Result{}, err
	}

	result := Result{Folder: folder}
	var records []types.ImageRecord
	for _, p := range probed.results {
		if p.Error != nil {
			logging.LogWarning("Skipping unreadable image %s: %v", p.Path, p.Error)
			result.Skipped = append(result.Skipped, fmt.Sprintf("%s: %v", p.Path, p.Error))
			continue
		}
		records = append(records, s.newRecord(p))
	}

	if len(records) == 0 {
		return Result{}, fmt.Errorf("%w in %s: %d files could not be read", ErrNoImages, folder, len(result.Skipped))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })

	buckets := s.synthesizer.Synthesize(records)
	records, buckets = bucket.Assign(records, buckets)
	result.Images = crop.Suggest(records, buckets)
	result.Buckets = buckets

	logCompletionStats(probed.tracker, startTime, result)
	return result, nil
}

// newRecord builds the image record of a successful probe
func (s *Scanner) newRecord(p ProbeResult) types.ImageRecord {
	return types.ImageRecord{
		Path:        p.Path,
		Filename:    filepath.Base(p.Path),
		Format:      GetFileFormat(p.Path),
		Width:       p.Width,
		Height:      p.Height,
		AspectRatio: bucket.AspectRatio(p.Width, p.Height),
		Orientation: s.classifier.Classify(p.Width, p.Height),
	}
}

// validateFolder checks that folder exists and is a directory
func validateFolder(folder string) (string, error) {
	if folder == "" {
		return "", fmt.Errorf("%w: empty folder path", ErrBadInput)
	}

	info, err := os.Stat(folder)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
	case err != nil:
		return "", fmt.Errorf("%w: %s: %v", ErrBadInput, folder, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, folder)
	}

	return filepath.Clean(folder), nil
}

type probeRun struct {
	results []ProbeResult
	tracker *ProgressTracker
}

// probeAll reads dimensions of every file on a bounded pool of goroutines.
// Results keep the order of files.
func (s *Scanner) probeAll(ctx context.Context, files []string, stats FileStats, options ScanOptions) (probeRun, error) {
	maxWorkers := options.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	var wg sync.WaitGroup
	results := make([]ProbeResult, len(files))
	resultsChan := make(chan ProbeResult, 100)
	semaphore := make(chan struct{}, maxWorkers)

	tracker := NewProgressTracker(stats, options.Progress, resultsChan)

	var cancelled error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = s.probeOne(path)
			resultsChan <- results[i]
		}(i, path)
	}

	wg.Wait()
	close(resultsChan)
	tracker.Stop()

	if cancelled != nil {
		return probeRun{}, fmt.Errorf("scan of %s cancelled: %w", options.FolderPath, cancelled)
	}
	return probeRun{results: results, tracker: tracker}, nil
}

// probeOne probes a single file; a panicking decoder is reported as an error
func (s *Scanner) probeOne(path string) (result ProbeResult) {
	result.Path = path

	defer func() {
		if r := recover(); r != nil {
			logging.DebugLog("Panic while probing %s: %v\n%s", path, r, debug.Stack())
			result.Error = fmt.Errorf("panic while reading header: %v", r)
		}
	}()

	w, h, err := s.prober.Probe(path)
	if err != nil {
		result.Error = err
		return result
	}
	if w <= 0 || h <= 0 {
		result.Error = fmt.Errorf("invalid dimensions %dx%d", w, h)
		return result
	}

	result.Width, result.Height = w, h
	return result
}
