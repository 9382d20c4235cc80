// Package bucket derives the three orientation buckets from a scanned image set.
//
// Images are classified by fixed aspect-ratio thresholds, each class gets one
// bucket sized by the median of its members, and every bucket dimension is
// snapped to the configured grid quantum (64 by default).
package bucket

import (
	"math"
	"sort"

	"bucketcrop/config"
	"bucketcrop/types"
)

// Classifier labels images by orientation
type Classifier struct {
	landscape float64
	portrait  float64
}

// NewClassifier creates a classifier using the thresholds in cfg
func NewClassifier(cfg config.Config) Classifier {
	return Classifier{
		landscape: cfg.LandscapeThreshold,
		portrait:  cfg.PortraitThreshold,
	}
}

// Classify returns the orientation of a width x height image
func (c Classifier) Classify(width, height int) types.Orientation {
	ratio := AspectRatio(width, height)
	switch {
	case ratio > c.landscape:
		return types.Landscape
	case ratio < c.portrait:
		return types.Portrait
	default:
		return types.Square
	}
}

// AspectRatio returns width/height, or 1.0 when height is zero
func AspectRatio(width, height int) float64 {
	if height <= 0 {
		return 1.0
	}
	return float64(width) / float64(height)
}

// Snap rounds value to the nearest multiple of quantum, halves away from zero
func Snap(value float64, quantum int) int {
	q := float64(quantum)
	return int(math.Round(value/q) * q)
}

// SnapClamp snaps value and clamps the result to at least one quantum
func SnapClamp(value float64, quantum int) int {
	return max(quantum, Snap(value, quantum))
}

// ValidateSize snaps a user-supplied bucket size to the grid.
// modified reports whether either dimension changed.
func ValidateSize(width, height, quantum int) (newWidth, newHeight int, modified bool) {
	newWidth = SnapClamp(float64(width), quantum)
	newHeight = SnapClamp(float64(height), quantum)
	return newWidth, newHeight, newWidth != width || newHeight != height
}

// median returns the median of values; even-length sets average the middle pair.
// values is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// roundTo rounds v to the given number of decimal places
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
