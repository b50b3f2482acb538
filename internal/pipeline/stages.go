package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DMarby/blobcrop/internal/imaging"
)

// CropMode selects what the crop stage outputs
type CropMode int

const (
	// ModeNone returns the source canvas unchanged
	ModeNone CropMode = iota
	// ModePreview draws the blob crop area onto the source canvas
	ModePreview
	// ModeCrop crops the source canvas to the blob crop area
	ModeCrop
	// ModeBlobs renders the detected blobs and the search area
	ModeBlobs
	// ModeFilter outputs the filter result as a gray canvas
	ModeFilter
)

var modeNames = []string{"none", "preview", "crop", "blobs", "filter"}

// Errors
var (
	ErrInvalidMode = errors.New("invalid crop mode")
	ErrMissingBlob = errors.New("crop mode requires a blob result")
)

func (m CropMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "mode_" + strconv.Itoa(int(m))
	}
	return modeNames[m]
}

// ParseCropMode parses a crop mode by name or number
func ParseCropMode(s string) (CropMode, error) {
	s = strings.ToLower(s)
	for i, name := range modeNames {
		if s == name {
			return CropMode(i), nil
		}
	}

	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(modeNames) {
		return CropMode(n), nil
	}

	return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Grayscale converts a canvas to luminance
func Grayscale(src *imaging.CanvasImage) (*imaging.FilterImage, error) {
	return src.Grayscale(), nil
}

// Channel uses a single color channel as the gray value
func Channel(channel int) ColorProcess {
	return func(src *imaging.CanvasImage) (*imaging.FilterImage, error) {
		return src.GrayFromChannel(channel)
	}
}

// Color channels
var (
	Red   = Channel(0)
	Green = Channel(1)
	Blue  = Channel(2)
)

// GaussianBlur returns a blur filter
func GaussianBlur(kernelX, kernelY int, sigmaX, sigmaY float32) FilterProcess {
	return func(src *imaging.FilterImage) (*imaging.FilterImage, error) {
		return src.GaussianBlur(kernelX, kernelY, sigmaX, sigmaY)
	}
}

// Sobel returns an edge detection filter
func Sobel(kernel int) FilterProcess {
	return func(src *imaging.FilterImage) (*imaging.FilterImage, error) {
		return src.Sobel(kernel)
	}
}

// Threshold binarizes the filter image and labels its connected regions, without filtering them
func Threshold(inverse bool, threshold, maxValue float32) BlobProcess {
	return func(src *imaging.FilterImage) (*imaging.BlobImage, error) {
		blob, err := src.Blob(inverse, threshold, maxValue)
		if err != nil {
			return nil, err
		}

		return blob.DetectBlob(), nil
	}
}

// DetectOptions configures blob extraction, all values in percent
type DetectOptions struct {
	Inverse   bool
	Threshold float32
	MaxValue  float32

	MinArea float32
	MaxArea float32

	Left   float32
	Top    float32
	Right  float32
	Bottom float32

	CropWidth  float32
	CropHeight float32
}

// Detect thresholds the filter image, then detects, filters, and crops around the blobs
func Detect(opts DetectOptions) BlobProcess {
	return func(src *imaging.FilterImage) (*imaging.BlobImage, error) {
		blob, err := src.Blob(opts.Inverse, opts.Threshold, opts.MaxValue)
		if err != nil {
			return nil, err
		}

		return blob.DetectBlob().
			ExtractWithArea(opts.MinArea, opts.MaxArea).
			ExtractWithPosition(opts.Left, opts.Top, opts.Right, opts.Bottom).
			CropWithBlob(opts.CropWidth, opts.CropHeight), nil
	}
}

// BlobCrop outputs a canvas according to the crop mode
func BlobCrop(src *imaging.CanvasImage, mode CropMode, rf *imaging.BlobImage) (*imaging.CanvasImage, error) {
	switch mode {
	case ModeNone, ModeFilter:
		return src, nil
	case ModePreview, ModeCrop, ModeBlobs:
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}

	if rf == nil {
		return nil, ErrMissingBlob
	}

	switch mode {
	case ModePreview:
		preview := src.Clone()
		preview.DrawRect(rf.CropArea(), [4]uint8{255, 0, 0, 255})
		return preview, nil
	case ModeCrop:
		return src.CropTo(rf.CropArea()), nil
	default:
		return rf.Canvas(), nil
	}
}
