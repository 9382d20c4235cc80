// Package crop computes default crop suggestions for bucketed images.
package crop

import (
	"errors"
	"fmt"
	"math"

	"bucketcrop/types"
)

// ErrInvalidCrop is returned when a rectangle does not fit its image
var ErrInvalidCrop = errors.New("invalid crop rectangle")

// Default returns the largest centred rectangle of targetRatio (width/height)
// that fits inside an imageWidth x imageHeight image.
//
// Sizes are truncated to whole pixels, so the result may miss targetRatio by
// less than one pixel along the cropped axis.
func Default(imageWidth, imageHeight int, targetRatio float64) types.CropRectangle {
	if imageWidth <= 0 || imageHeight <= 0 || targetRatio <= 0 {
		return types.CropRectangle{Width: max(imageWidth, 0), Height: max(imageHeight, 0)}
	}

	currentRatio := float64(imageWidth) / float64(imageHeight)

	if currentRatio > targetRatio {
		// too wide: keep full height, trim the sides
		cropWidth := int(math.Floor(float64(imageHeight) * targetRatio))
		return types.CropRectangle{
			X:      (imageWidth - cropWidth) / 2,
			Y:      0,
			Width:  cropWidth,
			Height: imageHeight,
		}
	}

	// too tall (or equal): keep full width, trim top and bottom
	cropHeight := min(imageHeight, int(math.Floor(float64(imageWidth)/targetRatio)))
	return types.CropRectangle{
		X:      0,
		Y:      (imageHeight - cropHeight) / 2,
		Width:  imageWidth,
		Height: cropHeight,
	}
}

// Validate checks that rect is non-empty and lies inside a width x height image
func Validate(rect types.CropRectangle, width, height int) error {
	if !rect.Within(width, height) {
		return fmt.Errorf("%w: %s does not fit %dx%d", ErrInvalidCrop, rect, width, height)
	}
	return nil
}

// Suggest returns a copy of images with DefaultCrop set from each image's bucket ratio.
// Images whose bucket is unknown fall back to the first bucket.
func Suggest(images []types.ImageRecord, buckets types.BucketSet) []types.ImageRecord {
	out := make([]types.ImageRecord, len(images))
	for i, img := range images {
		b, ok := buckets.ByID(img.AssignedBucket)
		if !ok {
			b = buckets[0]
		}
		rect := Default(img.Width, img.Height, b.TargetRatio())
		img.DefaultCrop = &rect
		out[i] = img
	}
	return out
}

// Accept commits each image's default crop as its final crop decision.
// Images that already carry a committed crop are left alone.
func Accept(images []types.ImageRecord) []types.ImageRecord {
	out := make([]types.ImageRecord, len(images))
	for i, img := range images {
		if !img.Cropped && img.DefaultCrop != nil {
			rect := *img.DefaultCrop
			img.CropParams = &rect
			img.Cropped = true
		}
		out[i] = img
	}
	return out
}
