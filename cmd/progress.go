package cmd

import (
	"fmt"
	"io"
	"time"

	"bucketcrop/types"
)

// exportProgress prints a live counter line while an export runs
type exportProgress struct {
	out       io.Writer
	total     int
	processed int
	failed    int
	skipped   int
	lastPrint time.Time
	started   time.Time
}

func newExportProgress(out io.Writer, total int) *exportProgress {
	return &exportProgress{out: out, total: total, started: time.Now()}
}

// update records one finished item. Lines are throttled except for the last one.
func (p *exportProgress) update(item types.ItemResult) {
	p.processed++
	switch item.Status {
	case types.StatusFailed:
		p.failed++
	case types.StatusSkipped, types.StatusCancelled:
		p.skipped++
	}

	if p.processed < p.total && time.Since(p.lastPrint) < 200*time.Millisecond {
		return
	}
	p.lastPrint = time.Now()
	p.print()
}

func (p *exportProgress) print() {
	if p.failed > 0 {
		fmt.Fprintf(p.out, "\rExporting: %d/%d (Failed: %d, Skipped: %d)", p.processed, p.total, p.failed, p.skipped)
	} else {
		fmt.Fprintf(p.out, "\rExporting: %d/%d (Skipped: %d)", p.processed, p.total, p.skipped)
	}
}

// finish ends the progress line
func (p *exportProgress) finish() time.Duration {
	if p.processed > 0 {
		fmt.Fprintln(p.out)
	}
	return time.Since(p.started)
}
