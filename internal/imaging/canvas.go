package imaging

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Errors
var (
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrInvalidBuffer     = errors.New("buffer size does not match image dimensions")
	ErrInvalidChannel    = errors.New("invalid color channel")
)

var (
	red    = [4]uint8{255, 0, 0, 255}
	green  = [4]uint8{0, 255, 0, 255}
	yellow = [4]uint8{255, 255, 0, 255}
)

// CanvasImage is an RGBA raster with 4 bytes per pixel in row-major order
type CanvasImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewCanvasImage returns a transparent black canvas
func NewCanvasImage(width, height int) (*CanvasImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &CanvasImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}, nil
}

// NewCanvasImageFromRGBA wraps an existing RGBA buffer
func NewCanvasImageFromRGBA(width, height int, pix []uint8) (*CanvasImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	if len(pix) != 4*width*height {
		return nil, ErrInvalidBuffer
	}

	return &CanvasImage{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any decoded image into a canvas
func FromImage(src image.Image) (*CanvasImage, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidDimensions
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	return &CanvasImage{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}, nil
}

// Image returns the canvas as an *image.RGBA sharing the pixel buffer
func (c *CanvasImage) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    c.Pix,
		Stride: 4 * c.Width,
		Rect:   image.Rect(0, 0, c.Width, c.Height),
	}
}

// Clone returns a deep copy
func (c *CanvasImage) Clone() *CanvasImage {
	pix := make([]uint8, len(c.Pix))
	copy(pix, c.Pix)
	return &CanvasImage{Width: c.Width, Height: c.Height, Pix: pix}
}

// Grayscale converts the canvas to luminance using the BT.601 weights
func (c *CanvasImage) Grayscale() *FilterImage {
	gray := make([]float32, c.Width*c.Height)
	for i := range gray {
		p := c.Pix[4*i : 4*i+3]
		gray[i] = 0.299*float32(p[0]) + 0.587*float32(p[1]) + 0.114*float32(p[2])
	}

	return &FilterImage{Width: c.Width, Height: c.Height, Pix: gray}
}

// GrayFromRed uses the red channel as the gray value
func (c *CanvasImage) GrayFromRed() *FilterImage {
	f, _ := c.GrayFromChannel(0)
	return f
}

// GrayFromGreen uses the green channel as the gray value
func (c *CanvasImage) GrayFromGreen() *FilterImage {
	f, _ := c.GrayFromChannel(1)
	return f
}

// GrayFromBlue uses the blue channel as the gray value
func (c *CanvasImage) GrayFromBlue() *FilterImage {
	f, _ := c.GrayFromChannel(2)
	return f
}

// GrayFromChannel uses a single color channel (0 red, 1 green, 2 blue) as the gray value
func (c *CanvasImage) GrayFromChannel(channel int) (*FilterImage, error) {
	if channel < 0 || channel > 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}

	gray := make([]float32, c.Width*c.Height)
	for i := range gray {
		gray[i] = float32(c.Pix[4*i+channel])
	}

	return &FilterImage{Width: c.Width, Height: c.Height, Pix: gray}, nil
}

// Crop cuts out the area centered on (centerX, centerY) with a size given in percent of the canvas size.
// Pixels outside the source are left transparent.
func (c *CanvasImage) Crop(centerX, centerY, widthRate, heightRate float32) *CanvasImage {
	return c.CropTo(cropArea(c.Width, c.Height, centerX, centerY, widthRate, heightRate))
}

// CropTo cuts out the given rectangle
func (c *CanvasImage) CropTo(r Rect) *CanvasImage {
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(dst, dst.Bounds(), c.Image(), image.Pt(r.Left, r.Top), draw.Src)

	return &CanvasImage{Width: r.Width, Height: r.Height, Pix: dst.Pix}
}

// DrawCropArea draws the outline of the area Crop would cut out in red, in place
func (c *CanvasImage) DrawCropArea(centerX, centerY, widthRate, heightRate float32) *CanvasImage {
	c.DrawRect(cropArea(c.Width, c.Height, centerX, centerY, widthRate, heightRate), red)
	return c
}

// DrawRect draws a hollow rectangle in place, clipped to the canvas
func (c *CanvasImage) DrawRect(r Rect, color [4]uint8) {
	right, bottom := r.Right(), r.Bottom()

	for x := r.Left; x <= right; x++ {
		c.put(x, r.Top, color)
		c.put(x, bottom, color)
	}

	for y := r.Top; y <= bottom; y++ {
		c.put(r.Left, y, color)
		c.put(right, y, color)
	}
}

func (c *CanvasImage) put(x, y int, color [4]uint8) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}

	i := 4 * (y*c.Width + x)
	copy(c.Pix[i:i+4], color[:])
}
