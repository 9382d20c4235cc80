package types

import (
	"fmt"
	"image"
)

// Orientation classifies an image by its width/height ratio
type Orientation string

const (
	Landscape Orientation = "landscape"
	Square    Orientation = "square"
	Portrait  Orientation = "portrait"
)

// Orientations lists the three classes in bucket order (A, B, C)
var Orientations = []Orientation{Landscape, Square, Portrait}

// Valid reports whether o is one of the three known classes
func (o Orientation) Valid() bool {
	switch o {
	case Landscape, Square, Portrait:
		return true
	}
	return false
}

// BucketID is the stable identifier of a bucket
type BucketID string

const (
	BucketLandscape BucketID = "A"
	BucketSquare    BucketID = "B"
	BucketPortrait  BucketID = "C"
)

// BucketIDFor returns the stable bucket id of an orientation class.
// Unknown orientations map to the square bucket.
func BucketIDFor(o Orientation) BucketID {
	switch o {
	case Landscape:
		return BucketLandscape
	case Portrait:
		return BucketPortrait
	default:
		return BucketSquare
	}
}

// CropRectangle is a crop region in native image pixel coordinates
type CropRectangle struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rect converts the crop to an image.Rectangle
func (c CropRectangle) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// Within reports whether the crop is non-empty and lies inside a width x height image
func (c CropRectangle) Within(width, height int) bool {
	if c.X < 0 || c.Y < 0 || c.Width <= 0 || c.Height <= 0 {
		return false
	}
	return c.X+c.Width <= width && c.Y+c.Height <= height
}

func (c CropRectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", c.Width, c.Height, c.X, c.Y)
}

// ImageRecord holds one discovered image and its bucket/crop state
type ImageRecord struct {
	Path           string         `json:"path" yaml:"path"`
	Filename       string         `json:"filename" yaml:"filename"`
	Format         string         `json:"format" yaml:"format"`
	Width          int            `json:"width" yaml:"width"`
	Height         int            `json:"height" yaml:"height"`
	AspectRatio    float64        `json:"aspect_ratio" yaml:"aspect_ratio"`
	Orientation    Orientation    `json:"orientation" yaml:"orientation"`
	AssignedBucket BucketID       `json:"assigned_bucket" yaml:"assigned_bucket"`
	Cropped        bool           `json:"cropped" yaml:"cropped"`
	CropParams     *CropRectangle `json:"crop_params,omitempty" yaml:"crop_params,omitempty"`
	DefaultCrop    *CropRectangle `json:"default_crop,omitempty" yaml:"default_crop,omitempty"`
}

// Bucket is the target output geometry of one orientation class
type Bucket struct {
	ID          BucketID    `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Width       int         `json:"width" yaml:"width"`
	Height      int         `json:"height" yaml:"height"`
	AspectRatio float64     `json:"aspect_ratio" yaml:"aspect_ratio"`
	ImageCount  int         `json:"image_count" yaml:"image_count"`
}

// TargetRatio is the exact width/height ratio used for crop suggestions
func (b Bucket) TargetRatio() float64 {
	if b.Height == 0 {
		return 1.0
	}
	return float64(b.Width) / float64(b.Height)
}

// Dimensions returns the bucket's output size
func (b Bucket) Dimensions() Dimensions {
	return Dimensions{Width: b.Width, Height: b.Height}
}

// Dimensions is a target output size
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// BucketSet holds exactly one bucket per orientation, in A, B, C order
type BucketSet [3]Bucket

// ByOrientation returns the bucket of the given class
func (s BucketSet) ByOrientation(o Orientation) (Bucket, bool) {
	for _, b := range s {
		if b.Orientation == o {
			return b, true
		}
	}
	return Bucket{}, false
}

// ByID returns the bucket with the given id
func (s BucketSet) ByID(id BucketID) (Bucket, bool) {
	for _, b := range s {
		if b.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}

// DimensionTable returns the bucket id -> dimensions table used by export
func (s BucketSet) DimensionTable() map[BucketID]Dimensions {
	table := make(map[BucketID]Dimensions, len(s))
	for _, b := range s {
		table[b.ID] = b.Dimensions()
	}
	return table
}

// ItemStatus is the per-image outcome of an export
type ItemStatus string

const (
	StatusSuccess   ItemStatus = "success"
	StatusFailed    ItemStatus = "failed"
	StatusSkipped   ItemStatus = "skipped"
	StatusCancelled ItemStatus = "cancelled"
)

// ItemResult holds the result of exporting one image
type ItemResult struct {
	Index      int
	Path       string
	Filename   string
	OutputPath string
	Bucket     BucketID
	Target     Dimensions
	Status     ItemStatus
	Err        error
	Companions []string
}

// ExportOutcome is the batch report of one export call
type ExportOutcome struct {
	Total     int          `json:"total" yaml:"total"`
	Success   int          `json:"success" yaml:"success"`
	Failed    int          `json:"failed" yaml:"failed"`
	Skipped   int          `json:"skipped" yaml:"skipped"`
	Errors    []string     `json:"errors" yaml:"errors"`
	OutputDir string       `json:"output_dir" yaml:"output_dir"`
	Items     []ItemResult `json:"-" yaml:"-"`
}

// Record folds one item result into the counters
func (o *ExportOutcome) Record(item ItemResult) {
	switch item.Status {
	case StatusSuccess:
		o.Success++
	case StatusFailed:
		o.Failed++
		msg := "unknown error"
		if item.Err != nil {
			msg = item.Err.Error()
		}
		o.Errors = append(o.Errors, fmt.Sprintf("%s: %s", item.Filename, msg))
	default:
		o.Skipped++
	}
	o.Items = append(o.Items, item)
}

// Balanced reports whether success+failed+skipped == total
func (o ExportOutcome) Balanced() bool {
	return o.Success+o.Failed+o.Skipped == o.Total
}
