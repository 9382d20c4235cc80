package bucket

import (
	"bucketcrop/config"
	"bucketcrop/types"
)

var bucketNames = map[types.Orientation]string{
	types.Landscape: "Landscape",
	types.Square:    "Square",
	types.Portrait:  "Portrait",
}

// Synthesizer computes one bucket per orientation class
type Synthesizer struct {
	quantum  int
	defaults map[types.Orientation]config.Size
}

// NewSynthesizer creates a synthesizer using the quantum and empty-class defaults in cfg
func NewSynthesizer(cfg config.Config) Synthesizer {
	return Synthesizer{
		quantum: cfg.Quantum,
		defaults: map[types.Orientation]config.Size{
			types.Landscape: cfg.DefaultLandscape,
			types.Square:    cfg.DefaultSquare,
			types.Portrait:  cfg.DefaultPortrait,
		},
	}
}

// Synthesize always returns exactly three buckets, whatever the input.
// Image order does not affect the result.
func (s Synthesizer) Synthesize(images []types.ImageRecord) types.BucketSet {
	groups := make(map[types.Orientation][]types.ImageRecord, 3)
	for _, img := range images {
		groups[img.Orientation] = append(groups[img.Orientation], img)
	}

	var set types.BucketSet
	for i, o := range types.Orientations {
		members := groups[o]

		var width, height int
		if o == types.Square {
			width = s.squareSize(members)
			height = width
		} else {
			width, height = s.rectSize(o, members)
		}

		set[i] = types.Bucket{
			ID:          types.BucketIDFor(o),
			Name:        bucketNames[o],
			Orientation: o,
			Width:       width,
			Height:      height,
			AspectRatio: ReportedRatio(o, width, height),
			ImageCount:  len(members),
		}
	}
	return set
}

// ReportedRatio is the aspect ratio shown for a bucket: width/height rounded
// to four decimals, or exactly 1.0 for the square bucket
func ReportedRatio(o types.Orientation, width, height int) float64 {
	if o == types.Square {
		return 1.0
	}
	return roundTo(AspectRatio(width, height), 4)
}

// rectSize takes the independent median width and height of a landscape or portrait class
func (s Synthesizer) rectSize(o types.Orientation, members []types.ImageRecord) (int, int) {
	if len(members) == 0 {
		d := s.defaults[o]
		return max(s.quantum, d.Width), max(s.quantum, d.Height)
	}

	widths := make([]float64, len(members))
	heights := make([]float64, len(members))
	for i, img := range members {
		widths[i] = float64(img.Width)
		heights[i] = float64(img.Height)
	}
	return SnapClamp(median(widths), s.quantum), SnapClamp(median(heights), s.quantum)
}

// squareSize takes the median of each member's mean side length
func (s Synthesizer) squareSize(members []types.ImageRecord) int {
	if len(members) == 0 {
		return max(s.quantum, s.defaults[types.Square].Width)
	}

	sides := make([]float64, len(members))
	for i, img := range members {
		sides[i] = float64(img.Width+img.Height) / 2
	}
	return SnapClamp(median(sides), s.quantum)
}
