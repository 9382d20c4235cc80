package scanner

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"bucketcrop/logging"
)

// NewProgressTracker starts consuming probe results. The display goroutine
// only runs when out is non-nil.
func NewProgressTracker(stats FileStats, out io.Writer, resultsChan <-chan ProbeResult) *ProgressTracker {
	tracker := &ProgressTracker{
		totalFiles: stats.totalFiles,
		out:        out,
		done:       make(chan struct{}),
		finished:   make(chan struct{}),
	}

	if out != nil {
		tracker.ticker = time.NewTicker(500 * time.Millisecond)
		go tracker.displayProgress()
	}

	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			p.printLine()
			p.mu.Unlock()
		}
	}
}

func (p *ProgressTracker) printLine() {
	if p.errors > 0 {
		fmt.Fprintf(p.out, "\rProbing: %d/%d (Unreadable: %d)", p.processed, p.totalFiles, p.errors)
	} else {
		fmt.Fprintf(p.out, "\rProbing: %d/%d", p.processed, p.totalFiles)
	}
}

// processResults updates the tracker state until resultsChan is closed
func (p *ProgressTracker) processResults(resultsChan <-chan ProbeResult) {
	defer close(p.finished)
	for result := range resultsChan {
		p.mu.Lock()
		p.processed++
		if result.Error != nil {
			p.errors++
		}
		p.mu.Unlock()
	}
}

// Stop waits for the results channel to drain and ends the display
func (p *ProgressTracker) Stop() {
	<-p.finished
	if p.ticker != nil {
		p.ticker.Stop()
		close(p.done)
		p.mu.Lock()
		p.printLine()
		fmt.Fprintln(p.out)
		p.mu.Unlock()
	}
}

// Counts returns the processed and error counters
func (p *ProgressTracker) Counts() (processed, errors int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.errors
}

// logStartupInfo records what the walk found before probing starts
func logStartupInfo(stats FileStats, options ScanOptions) {
	formats := make([]string, 0, len(stats.byFormat))
	for f, n := range stats.byFormat {
		formats = append(formats, fmt.Sprintf("%s=%d", f, n))
	}
	sort.Strings(formats)

	logging.LogInfo("Scanning %s: %d image files (%s)", options.FolderPath, stats.totalFiles, strings.Join(formats, ", "))
}

// logCompletionStats records the scan summary
func logCompletionStats(tracker *ProgressTracker, startTime time.Time, result Result) {
	processed, errors := tracker.Counts()
	logging.LogInfo("Scan complete: probed %d files in %v, %d images kept, %d unreadable",
		processed, time.Since(startTime).Round(time.Millisecond), len(result.Images), errors)

	for _, b := range result.Buckets {
		logging.DebugLog("Bucket %s (%s): %dx%d ratio %.4f, %d images",
			b.ID, b.Name, b.Width, b.Height, b.AspectRatio, b.ImageCount)
	}
}
