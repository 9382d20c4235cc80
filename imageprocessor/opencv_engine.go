package imageprocessor

import (
	"fmt"
	"image"

	"bucketcrop/config"
	"bucketcrop/crop"
	"bucketcrop/types"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

var opencvFilters = map[string]gocv.InterpolationFlags{
	config.ResampleLanczos: gocv.InterpolationLanczos4,
	config.ResampleArea:    gocv.InterpolationArea,
	config.ResampleLinear:  gocv.InterpolationLinear,
}

// OpenCVEngine crops and resizes with gocv
type OpenCVEngine struct {
	interp  gocv.InterpolationFlags
	quality int
}

// NewOpenCVEngine creates an engine for the named resample filter
func NewOpenCVEngine(resample string, quality int) (*OpenCVEngine, error) {
	interp, ok := opencvFilters[resample]
	if !ok {
		return nil, fmt.Errorf("%w: unknown resample filter %q", config.ErrInvalidConfig, resample)
	}
	return &OpenCVEngine{interp: interp, quality: quality}, nil
}

// Name returns the engine name
func (e *OpenCVEngine) Name() string {
	return config.EngineOpenCV
}

// Render loads src as 3-channel BGR, which drops any alpha channel and expands palettes.
// The EXIF orientation tag is ignored so rect stays in stored pixel coordinates,
// the same ones the header prober reports.
func (e *OpenCVEngine) Render(src string, rect types.CropRectangle, target types.Dimensions) (Rendered, error) {
	if err := checkReadable(src); err != nil {
		return nil, err
	}

	img := gocv.IMRead(src, gocv.IMReadColor|gocv.IMReadIgnoreOrientation)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrDecode, src)
	}

	if err := crop.Validate(rect, img.Cols(), img.Rows()); err != nil {
		return nil, err
	}

	region := img.Region(rect.Rect())
	defer region.Close()

	resized := gocv.NewMat()
	gocv.Resize(region, &resized, image.Point{X: target.Width, Y: target.Height}, 0, 0, e.interp)
	if resized.Empty() {
		resized.Close()
		return nil, fmt.Errorf("%w: resize of %s to %dx%d produced no data", ErrDecode, src, target.Width, target.Height)
	}

	return &renderedMat{mat: resized, quality: e.quality}, nil
}

type renderedMat struct {
	mat     gocv.Mat
	quality int
}

func (r *renderedMat) Size() image.Point {
	return image.Point{X: r.mat.Cols(), Y: r.mat.Rows()}
}

func (r *renderedMat) Save(dst string) error {
	var params []int
	switch GetFileFormat(dst) {
	case FormatGIF:
		return r.saveGIF(dst)
	case FormatJPEG:
		params = []int{int(gocv.IMWriteJpegQuality), r.quality}
	case FormatWEBP:
		params = []int{int(gocv.IMWriteWebpQuality), r.quality}
	}

	if ok := gocv.IMWriteWithParams(dst, r.mat, params); !ok {
		return fmt.Errorf("%w: %s", ErrWrite, dst)
	}
	return nil
}

// saveGIF encodes in Go; many OpenCV builds ship without a GIF writer
func (r *renderedMat) saveGIF(dst string) error {
	img, err := r.mat.ToImage()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, dst, err)
	}
	if err := imaging.Save(img, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, dst, err)
	}
	return nil
}

func (r *renderedMat) Close() error {
	return r.mat.Close()
}
