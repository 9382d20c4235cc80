package bucket

import "bucketcrop/types"

// Assign maps every image to the bucket of its orientation and recounts bucket populations.
//
// The inputs are not modified. Every returned record has its crop state reset:
// assignment is a full re-derivation, not an incremental update.
func Assign(images []types.ImageRecord, buckets types.BucketSet) ([]types.ImageRecord, types.BucketSet) {
	assigned := make([]types.ImageRecord, len(images))
	counts := make(map[types.BucketID]int, len(buckets))

	for i, img := range images {
		id := types.BucketSquare
		if b, ok := buckets.ByOrientation(img.Orientation); ok {
			id = b.ID
		}

		img.AssignedBucket = id
		img.Cropped = false
		img.CropParams = nil
		img.DefaultCrop = nil

		assigned[i] = img
		counts[id]++
	}

	out := buckets
	for i := range out {
		out[i].ImageCount = counts[out[i].ID]
	}
	return assigned, out
}
