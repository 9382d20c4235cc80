package imageprocessor

import (
	"errors"
	"fmt"
	"image"

	"bucketcrop/config"
	"bucketcrop/crop"
	"bucketcrop/types"

	"github.com/disintegration/imaging"
)

var imagingFilters = map[string]imaging.ResampleFilter{
	config.ResampleLanczos: imaging.Lanczos,
	config.ResampleArea:    imaging.Box,
	config.ResampleLinear:  imaging.Linear,
}

// ImagingEngine crops and resizes in pure Go with disintegration/imaging.
// It cannot encode WebP; such outputs fail with ErrUnsupported.
type ImagingEngine struct {
	filter  imaging.ResampleFilter
	quality int
}

// NewImagingEngine creates an engine for the named resample filter
func NewImagingEngine(resample string, quality int) (*ImagingEngine, error) {
	filter, ok := imagingFilters[resample]
	if !ok {
		return nil, fmt.Errorf("%w: unknown resample filter %q", config.ErrInvalidConfig, resample)
	}
	return &ImagingEngine{filter: filter, quality: quality}, nil
}

// Name returns the engine name
func (e *ImagingEngine) Name() string {
	return config.EngineImaging
}

// Render decodes src, crops, drops alpha and resizes
func (e *ImagingEngine) Render(src string, rect types.CropRectangle, target types.Dimensions) (Rendered, error) {
	if err := checkReadable(src); err != nil {
		return nil, err
	}

	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, src, err)
	}

	b := img.Bounds()
	if err := crop.Validate(rect, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	r := rect.Rect().Add(b.Min)
	cropped := imaging.Crop(img, r)
	dropAlpha(cropped)

	resized := imaging.Resize(cropped, target.Width, target.Height, e.filter)
	return &renderedImage{img: resized, quality: e.quality}, nil
}

// dropAlpha makes every pixel opaque while keeping its colour channels as-is.
// This flattens RGBA and paletted sources without compositing onto a background.
func dropAlpha(img *image.NRGBA) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = 0xff
		}
	}
}

type renderedImage struct {
	img     *image.NRGBA
	quality int
}

func (r *renderedImage) Size() image.Point {
	return r.img.Bounds().Size()
}

func (r *renderedImage) Save(dst string) error {
	err := imaging.Save(r.img, dst, imaging.JPEGQuality(r.quality))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return fmt.Errorf("%w: cannot encode %s", ErrUnsupported, dst)
	default:
		return fmt.Errorf("%w: %s: %v", ErrWrite, dst, err)
	}
}

func (r *renderedImage) Close() error {
	r.img = nil
	return nil
}
