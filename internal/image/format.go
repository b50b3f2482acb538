package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Decoders
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/DMarby/blobcrop/internal/imaging"
)

// OutputFormat is the image format to output to
type OutputFormat int

const (
	// PNG represents the PNG format
	PNG OutputFormat = iota
	// JPEG represents the JPEG format
	JPEG
)

const jpegQuality = 90

// DefaultMaxPixels is the largest image area Decode accepts by default
const DefaultMaxPixels = 50_000_000

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidImage      = errors.New("invalid image")
	ErrImageTooLarge     = errors.New("image too large")
)

// Extension returns the file extension of the format
func (f OutputFormat) Extension() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// ContentType returns the media type of the format
func (f OutputFormat) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// FormatFromExtension returns the output format for a file extension
func FormatFromExtension(extension string) (OutputFormat, error) {
	switch extension {
	case ".png", "":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	default:
		return PNG, fmt.Errorf("%w: %s", ErrUnsupportedFormat, extension)
	}
}

// Decode decodes PNG, JPEG, GIF, WebP, BMP or TIFF data into a canvas.
// Images whose header declares more than maxPixels pixels are rejected before
// any pixel data is read. A maxPixels of 0 or less disables the check.
func Decode(data []byte, maxPixels int) (*imaging.CanvasImage, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}

	if maxPixels > 0 && int64(config.Width)*int64(config.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, config.Width, config.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}

	canvas, err := imaging.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	return canvas, nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedFormat
	}
	return fmt.Errorf("%w: %s", ErrInvalidImage, err)
}

// Encode encodes a canvas in the given format
func Encode(canvas *imaging.CanvasImage, format OutputFormat) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case JPEG:
		err = jpeg.Encode(&buf, canvas.Image(), &jpeg.Options{Quality: jpegQuality})
	case PNG:
		err = png.Encode(&buf, canvas.Image())
	default:
		err = ErrUnsupportedFormat
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
