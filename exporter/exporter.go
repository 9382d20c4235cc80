// Package exporter crops, resizes and writes bucketed images into an output
// directory, copying their sidecar files along.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"bucketcrop/config"
	"bucketcrop/imageprocessor"
	"bucketcrop/logging"
	"bucketcrop/types"
)

var (
	// ErrDimensionInvariant means an output size is not a multiple of the
	// quantum. It points at a defect in bucket sizing or resizing.
	ErrDimensionInvariant = errors.New("output dimensions not a multiple of the quantum")

	// ErrOutputDir is returned when the output directory cannot be used
	ErrOutputDir = errors.New("invalid output directory")
)

// Exporter runs batch exports with one engine
type Exporter struct {
	cfg    config.Config
	engine imageprocessor.Engine

	// Workers is the number of images processed at once; 1 or less is sequential.
	Workers int

	// OnItem is called once per image as it finishes. Calls never overlap.
	OnItem func(types.ItemResult)
}

// NewExporter creates a sequential exporter
func NewExporter(cfg config.Config, engine imageprocessor.Engine) *Exporter {
	return &Exporter{cfg: cfg, engine: engine, Workers: 1}
}

// DefaultWorkers returns a worker count suited to cgo-heavy image work
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()*3/4)
}

// Export writes every cropped image to outputDir resized to its bucket's
// dimensions. Per-image failures are recorded in the outcome and never stop
// the batch. The returned error is non-nil when the output directory cannot
// be created, when ctx is cancelled (remaining images count as skipped), or
// when an output broke the quantum invariant; the outcome is complete in the
// last two cases.
func (e *Exporter) Export(ctx context.Context, images []types.ImageRecord, dims map[types.BucketID]types.Dimensions, outputDir string, copyCompanions bool) (types.ExportOutcome, error) {
	if outputDir == "" {
		return types.ExportOutcome{}, fmt.Errorf("%w: empty path", ErrOutputDir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return types.ExportOutcome{}, fmt.Errorf("%w: %s: %v", ErrOutputDir, outputDir, err)
	}

	logging.LogInfo("Exporting %d images to %s with %s engine", len(images), outputDir, e.engine.Name())

	var results []types.ItemResult
	if e.Workers > 1 && len(images) > 1 {
		results = e.runParallel(ctx, images, dims, outputDir, copyCompanions)
	} else {
		results = e.runSequential(ctx, images, dims, outputDir, copyCompanions)
	}

	outcome := types.ExportOutcome{Total: len(images), OutputDir: outputDir}
	var invariantErrs []error
	for _, item := range results {
		outcome.Record(item)
		if errors.Is(item.Err, ErrDimensionInvariant) {
			invariantErrs = append(invariantErrs, item.Err)
		}
	}

	warnOverwrites(results)

	logging.LogInfo("Export finished: %d total, %d exported, %d failed, %d skipped",
		outcome.Total, outcome.Success, outcome.Failed, outcome.Skipped)

	if err := ctx.Err(); err != nil {
		return outcome, fmt.Errorf("export cancelled: %w", err)
	}
	if len(invariantErrs) > 0 {
		logging.LogError("%d exported images broke the size invariant", len(invariantErrs))
		return outcome, fmt.Errorf("%d of %d images: %w", len(invariantErrs), outcome.Total, errors.Join(invariantErrs...))
	}
	return outcome, nil
}

// warnOverwrites reports outputs written more than once in a batch. Sources
// in different subfolders can share a filename.
func warnOverwrites(results []types.ItemResult) []string {
	writers := make(map[string][]string)
	var order []string
	for _, item := range results {
		if item.Status != types.StatusSuccess {
			continue
		}
		if _, seen := writers[item.OutputPath]; !seen {
			order = append(order, item.OutputPath)
		}
		writers[item.OutputPath] = append(writers[item.OutputPath], item.Path)
	}

	var overwritten []string
	for _, dst := range order {
		srcs := writers[dst]
		if len(srcs) < 2 {
			continue
		}
		overwritten = append(overwritten, dst)
		logging.LogWarning("%s was written by %d images, only the last one written is kept: %s",
			dst, len(srcs), strings.Join(srcs, ", "))
	}
	return overwritten
}

func (e *Exporter) runSequential(ctx context.Context, images []types.ImageRecord, dims map[types.BucketID]types.Dimensions, outputDir string, copyCompanions bool) []types.ItemResult {
	results := make([]types.ItemResult, len(images))
	for i, img := range images {
		if ctx.Err() != nil {
			results[i] = cancelledItem(i, img)
		} else {
			results[i] = e.exportOne(i, img, dims, outputDir, copyCompanions)
		}
		e.notify(results[i])
	}
	return results
}

// runParallel processes images on a bounded pool. Results are indexed by
// input position so the reduction matches a sequential run.
func (e *Exporter) runParallel(ctx context.Context, images []types.ImageRecord, dims map[types.BucketID]types.Dimensions, outputDir string, copyCompanions bool) []types.ItemResult {
	var wg sync.WaitGroup
	var notifyMu sync.Mutex
	results := make([]types.ItemResult, len(images))
	semaphore := make(chan struct{}, e.Workers)

	launched := 0
	for i, img := range images {
		semaphore <- struct{}{}
		if ctx.Err() != nil {
			<-semaphore
			break
		}

		wg.Add(1)
		launched++
		go func(i int, img types.ImageRecord) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[i] = e.exportOne(i, img, dims, outputDir, copyCompanions)

			notifyMu.Lock()
			e.notify(results[i])
			notifyMu.Unlock()
		}(i, img)
	}
	wg.Wait()

	for i := launched; i < len(images); i++ {
		results[i] = cancelledItem(i, images[i])
		e.notify(results[i])
	}
	return results
}

func (e *Exporter) notify(item types.ItemResult) {
	logging.LogImageProcessed(item.Path, string(item.Status), item.Err)
	if e.OnItem != nil {
		e.OnItem(item)
	}
}

func cancelledItem(i int, img types.ImageRecord) types.ItemResult {
	return types.ItemResult{
		Index:    i,
		Path:     img.Path,
		Filename: outputName(img),
		Bucket:   img.AssignedBucket,
		Status:   types.StatusCancelled,
	}
}

// exportOne processes a single image. Any failure, including a panic in the
// engine, becomes a failed item.
func (e *Exporter) exportOne(i int, img types.ImageRecord, dims map[types.BucketID]types.Dimensions, outputDir string, copyCompanions bool) (item types.ItemResult) {
	item = types.ItemResult{
		Index:    i,
		Path:     img.Path,
		Filename: outputName(img),
		Bucket:   img.AssignedBucket,
	}

	if !img.Cropped || img.CropParams == nil {
		item.Status = types.StatusSkipped
		return item
	}

	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic while exporting %s: %v\n%s", img.Path, r, debug.Stack())
			item.Status = types.StatusFailed
			item.Err = fmt.Errorf("panic during export: %v", r)
		}
	}()

	target, ok := dims[img.AssignedBucket]
	if !ok {
		target = types.Dimensions{Width: e.cfg.FallbackExport.Width, Height: e.cfg.FallbackExport.Height}
		logging.DebugLog("No dimensions for bucket %q of %s, using %dx%d", img.AssignedBucket, img.Path, target.Width, target.Height)
	}
	item.Target = target

	rendered, err := e.engine.Render(img.Path, *img.CropParams, target)
	if err != nil {
		item.Status = types.StatusFailed
		item.Err = err
		return item
	}
	defer rendered.Close()

	if size := rendered.Size(); size.X%e.cfg.Quantum != 0 || size.Y%e.cfg.Quantum != 0 {
		item.Status = types.StatusFailed
		item.Err = fmt.Errorf("%w: %s rendered %dx%d (quantum %d)", ErrDimensionInvariant, img.Path, size.X, size.Y, e.cfg.Quantum)
		return item
	}

	dst := filepath.Join(outputDir, item.Filename)
	if err := rendered.Save(dst); err != nil {
		item.Status = types.StatusFailed
		item.Err = err
		return item
	}
	item.OutputPath = dst
	item.Status = types.StatusSuccess

	if copyCompanions {
		item.Companions = copyCompanionFiles(img.Path, outputDir, e.cfg.CompanionExts)
	}
	return item
}

// outputName is the image's original filename
func outputName(img types.ImageRecord) string {
	if img.Filename != "" {
		return filepath.Base(img.Filename)
	}
	return filepath.Base(img.Path)
}
