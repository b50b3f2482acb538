package imaging_test

import (
	"errors"
	"image"
	"image/color"
	"math"
	"reflect"
	"testing"

	"github.com/DMarby/blobcrop/internal/imaging"
)

// canvasWithSquare returns a black canvas with a white square at (x, y) of the given size
func canvasWithSquare(t *testing.T, width, height, x, y, size int) *imaging.CanvasImage {
	t.Helper()

	c, err := imaging.NewCanvasImage(width, height)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < width*height; i++ {
		c.Pix[4*i+3] = 255
	}

	for py := y; py < y+size; py++ {
		for px := x; px < x+size; px++ {
			i := 4 * (py*width + px)
			c.Pix[i], c.Pix[i+1], c.Pix[i+2] = 255, 255, 255
		}
	}

	return c
}

func TestCanvas(t *testing.T) {
	t.Run("rejects invalid dimensions", func(t *testing.T) {
		if _, err := imaging.NewCanvasImage(0, 10); !errors.Is(err, imaging.ErrInvalidDimensions) {
			t.Errorf("wrong error %v", err)
		}

		if _, err := imaging.NewCanvasImageFromRGBA(2, 2, make([]uint8, 15)); !errors.Is(err, imaging.ErrInvalidBuffer) {
			t.Errorf("wrong error %v", err)
		}
	})

	t.Run("converts from image.Image", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
		src.Set(5, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		src.Set(6, 5, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

		c, err := imaging.FromImage(src)
		if err != nil {
			t.Fatal(err)
		}

		expected := []uint8{10, 20, 30, 255, 40, 50, 60, 255}
		if c.Width != 2 || c.Height != 1 || !reflect.DeepEqual(c.Pix, expected) {
			t.Errorf("wrong canvas %+v", c)
		}

		if c.Image().RGBAAt(1, 0) != (color.RGBA{40, 50, 60, 255}) {
			t.Error("wrong pixel in converted image")
		}
	})

	t.Run("grayscale uses luminance weights", func(t *testing.T) {
		c, _ := imaging.NewCanvasImageFromRGBA(1, 1, []uint8{100, 150, 200, 255})
		gray := c.Grayscale().Pix[0]
		expected := float32(0.299*100 + 0.587*150 + 0.114*200)
		if math.Abs(float64(gray-expected)) > 0.001 {
			t.Errorf("wrong gray value %f", gray)
		}
	})

	t.Run("gray from channel", func(t *testing.T) {
		c, _ := imaging.NewCanvasImageFromRGBA(1, 1, []uint8{1, 2, 3, 255})
		tests := []struct {
			Name     string
			Filter   *imaging.FilterImage
			Expected float32
		}{
			{"red", c.GrayFromRed(), 1},
			{"green", c.GrayFromGreen(), 2},
			{"blue", c.GrayFromBlue(), 3},
		}

		for _, test := range tests {
			if test.Filter.Pix[0] != test.Expected {
				t.Errorf("%s: wrong value %f", test.Name, test.Filter.Pix[0])
			}
		}

		if _, err := c.GrayFromChannel(3); !errors.Is(err, imaging.ErrInvalidChannel) {
			t.Errorf("wrong error %v", err)
		}
	})

	t.Run("crop is clamped to the image edges", func(t *testing.T) {
		c := canvasWithSquare(t, 100, 50, 0, 0, 1)

		cropped := c.Crop(10, 25, 50, 50)
		// Half the width would be 50, but the center is only 10 pixels from the left edge
		if cropped.Width != 20 || cropped.Height != 25 {
			t.Errorf("wrong crop size %dx%d", cropped.Width, cropped.Height)
		}

		full := c.Crop(50, 25, 100, 100)
		if full.Width != 100 || full.Height != 50 || !reflect.DeepEqual(full.Pix, c.Pix) {
			t.Error("full crop should equal the source")
		}
	})

	t.Run("crop never returns an empty image", func(t *testing.T) {
		c := canvasWithSquare(t, 10, 10, 0, 0, 1)
		cropped := c.Crop(5, 5, 0, 0)
		if cropped.Width != 1 || cropped.Height != 1 {
			t.Errorf("wrong crop size %dx%d", cropped.Width, cropped.Height)
		}
	})

	t.Run("draws the crop area outline", func(t *testing.T) {
		c := canvasWithSquare(t, 10, 10, 0, 0, 0)
		c.DrawCropArea(5, 5, 40, 40)

		// Crop area is 4x4 starting at (3, 3)
		red := color.RGBA{255, 0, 0, 255}
		img := c.Image()
		for _, pt := range []image.Point{{3, 3}, {6, 3}, {3, 6}, {6, 6}, {4, 3}} {
			if img.RGBAAt(pt.X, pt.Y) != red {
				t.Errorf("expected outline at %v", pt)
			}
		}

		if img.RGBAAt(4, 4) == red {
			t.Error("outline should be hollow")
		}
	})
}

func TestFilter(t *testing.T) {
	t.Run("canvas saturates values", func(t *testing.T) {
		f, _ := imaging.NewFilterImage(3, 1, []float32{-5, 127.9, 300})
		expected := []uint8{0, 0, 0, 255, 127, 127, 127, 255, 255, 255, 255, 255}
		if !reflect.DeepEqual(f.Canvas().Pix, expected) {
			t.Errorf("wrong pixels %v", f.Canvas().Pix)
		}
	})

	t.Run("gaussian blur preserves a constant image", func(t *testing.T) {
		pix := make([]float32, 25)
		for i := range pix {
			pix[i] = 42
		}

		f, _ := imaging.NewFilterImage(5, 5, pix)
		blurred, err := f.GaussianBlur(3, 5, 0, 1.5)
		if err != nil {
			t.Fatal(err)
		}

		for i, v := range blurred.Pix {
			if math.Abs(float64(v-42)) > 0.001 {
				t.Fatalf("pixel %d changed to %f", i, v)
			}
		}
	})

	t.Run("gaussian blur spreads a point", func(t *testing.T) {
		f, _ := imaging.NewFilterImage(5, 5, impulse(5, 5, 2, 2, 100))
		blurred, err := f.GaussianBlur(3, 3, 1, 1)
		if err != nil {
			t.Fatal(err)
		}

		var sum float32
		for _, v := range blurred.Pix {
			sum += v
		}

		if math.Abs(float64(sum-100)) > 0.01 {
			t.Errorf("blur should preserve energy, got %f", sum)
		}

		if blurred.Pix[12] >= 100 || blurred.Pix[11] <= 0 || blurred.Pix[0] != 0 {
			t.Errorf("unexpected blur result %v", blurred.Pix)
		}
	})

	t.Run("gaussian blur derives sigma from the kernel size", func(t *testing.T) {
		// A zero sigma selects the fixed binomial kernels: 1/4 1/2 1/4 for 3, 1/16 4/16 6/16 4/16 1/16 for 5
		tests := []struct {
			Name     string
			Kernel   int
			Expected map[int]float32
		}{
			{"kernel 3", 3, map[int]float32{3*7 + 3: 25, 3*7 + 2: 12.5, 2*7 + 2: 6.25, 3*7 + 1: 0}},
			{"kernel 5", 5, map[int]float32{3*7 + 3: 14.0625, 3*7 + 2: 9.375, 3*7 + 1: 2.34375, 1*7 + 1: 0.390625}},
			{"even kernel rounds up", 2, map[int]float32{3*7 + 3: 25, 3*7 + 2: 12.5}},
		}

		f, _ := imaging.NewFilterImage(7, 7, impulse(7, 7, 3, 3, 100))
		for _, test := range tests {
			blurred, err := f.GaussianBlur(test.Kernel, test.Kernel, 0, 0)
			if err != nil {
				t.Errorf("%s: %s", test.Name, err)
				continue
			}

			for i, expected := range test.Expected {
				if math.Abs(float64(blurred.Pix[i]-expected)) > 0.0001 {
					t.Errorf("%s: pixel %d is %f, expected %f", test.Name, i, blurred.Pix[i], expected)
				}
			}
		}
	})

	t.Run("gaussian blur with a kernel of one is the identity", func(t *testing.T) {
		f, _ := imaging.NewFilterImage(2, 2, []float32{1, 2, 3, 4})
		blurred, err := f.GaussianBlur(0, -3, 0, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(blurred.Pix, f.Pix) {
			t.Error("image changed")
		}
	})

	t.Run("sobel detects a vertical edge", func(t *testing.T) {
		f, _ := imaging.NewFilterImage(6, 6, verticalEdge(6, 6, 3, 10))
		for _, kernel := range []int{1, 3, 5, 9} {
			edges, err := f.Sobel(kernel)
			if err != nil {
				t.Errorf("kernel %d: %s", kernel, err)
				continue
			}

			if edges.Pix[2*6+0] != 0 || edges.Pix[2*6+5] != 0 {
				t.Errorf("kernel %d: flat areas should have no gradient", kernel)
			}

			if edges.Pix[2*6+2] <= 0 || edges.Pix[2*6+3] <= 0 {
				t.Errorf("kernel %d: expected gradient at the edge", kernel)
			}
		}
	})

	t.Run("sobel kernel sizes", func(t *testing.T) {
		// Step of 10 between columns 2 and 3. The 3x3 operator weighs the step by 4 (1+2+1),
		// the 5x5 one by 16 (1+4+6+4+1) times the derivative taps, and reaches one column further.
		tests := []struct {
			Name     string
			Kernel   int
			Expected []float32 // columns 0 to 5 of row 2
		}{
			{"kernel 1 is 3x3", 1, []float32{0, 0, 40, 40, 0, 0}},
			{"kernel 3", 3, []float32{0, 0, 40, 40, 0, 0}},
			{"kernel 4 is 3x3", 4, []float32{0, 0, 40, 40, 0, 0}},
			{"kernel 5", 5, []float32{0, 160, 480, 480, 160, 0}},
			{"kernel 7 is 5x5", 7, []float32{0, 160, 480, 480, 160, 0}},
		}

		f, _ := imaging.NewFilterImage(6, 6, verticalEdge(6, 6, 3, 10))
		for _, test := range tests {
			edges, err := f.Sobel(test.Kernel)
			if err != nil {
				t.Errorf("%s: %s", test.Name, err)
				continue
			}

			row := edges.Pix[2*6 : 3*6]
			for x, expected := range test.Expected {
				if math.Abs(float64(row[x]-expected)) > 0.001 {
					t.Errorf("%s: wrong row %v", test.Name, row)
					break
				}
			}
		}
	})

	t.Run("threshold and inverse threshold", func(t *testing.T) {
		f, _ := imaging.NewFilterImage(4, 1, []float32{0, 100, 200, 255})

		tests := []struct {
			Name          string
			Inverse       bool
			MaxValue      float32
			ExpectedBlobs [][]imaging.Point
		}{
			{"binary", false, 255, [][]imaging.Point{{{X: 2, Y: 0}, {X: 3, Y: 0}}}},
			{"inverse", true, 255, [][]imaging.Point{{{X: 0, Y: 0}, {X: 1, Y: 0}}}},
			{"max value of 0", false, 0, [][]imaging.Point{}},
		}

		for _, test := range tests {
			blob, err := f.Blob(test.Inverse, 150, test.MaxValue)
			if err != nil {
				t.Errorf("%s: %s", test.Name, err)
				continue
			}

			if blobs := blob.DetectBlob().Blobs(); !reflect.DeepEqual(blobs, test.ExpectedBlobs) {
				t.Errorf("%s: wrong blobs %v", test.Name, blobs)
			}
		}
	})
}

// impulse returns a zero buffer with a single pixel set
func impulse(width, height, x, y int, value float32) []float32 {
	pix := make([]float32, width*height)
	pix[y*width+x] = value
	return pix
}

// verticalEdge returns a buffer that is 0 left of column x and value from column x on
func verticalEdge(width, height, x int, value float32) []float32 {
	pix := make([]float32, width*height)
	for py := 0; py < height; py++ {
		for px := x; px < width; px++ {
			pix[py*width+px] = value
		}
	}
	return pix
}

func TestBlob(t *testing.T) {
	// Two separate blobs: a 2x2 square in the top left and a diagonal line touching only by corners
	gray := []uint8{
		1, 1, 0, 0, 0, 0,
		1, 1, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0,
		0, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 0,
	}

	b, err := imaging.NewBlobImage(6, 6, gray)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("rejects invalid buffers", func(t *testing.T) {
		if _, err := imaging.NewBlobImage(6, 6, gray[1:]); !errors.Is(err, imaging.ErrInvalidBuffer) {
			t.Errorf("wrong error %v", err)
		}
	})

	t.Run("labels 8-connected regions", func(t *testing.T) {
		if b.Labels() != 2 {
			t.Errorf("wrong label count %d", b.Labels())
		}

		blobs := b.DetectBlob().Blobs()
		if len(blobs) != 2 || len(blobs[0]) != 4 || len(blobs[1]) != 2 {
			t.Errorf("wrong blobs %v", blobs)
		}
	})

	t.Run("extract with area", func(t *testing.T) {
		// 36 pixels, so 5% is 1.8 and 10% is 3.6 pixels
		blobs := b.DetectBlob().ExtractWithArea(5, 10).Blobs()
		if len(blobs) != 1 || len(blobs[0]) != 2 {
			t.Errorf("wrong blobs %v", blobs)
		}

		// Max is clamped to min
		if blobs := b.DetectBlob().ExtractWithArea(50, 10).Blobs(); len(blobs) != 0 {
			t.Errorf("wrong blobs %v", blobs)
		}
	})

	t.Run("extract with position", func(t *testing.T) {
		extracted := b.DetectBlob().ExtractWithPosition(20, 20, 100, 100)
		blobs := extracted.Blobs()
		if len(blobs) != 1 || blobs[0][0] != (imaging.Point{X: 3, Y: 3}) {
			t.Errorf("wrong blobs %v", blobs)
		}

		expected := imaging.Rect{Left: 1, Top: 1, Width: 5, Height: 5}
		if extracted.SearchArea() != expected {
			t.Errorf("wrong search area %+v", extracted.SearchArea())
		}
	})

	t.Run("crop with blob centers on the centroid", func(t *testing.T) {
		cropped := b.DetectBlob().ExtractWithArea(5, 10).CropWithBlob(50, 50)

		center := cropped.BlobCenter()
		if center != (imaging.Center{X: 3.5, Y: 3.5}) {
			t.Errorf("wrong center %+v", center)
		}

		expected := imaging.CropRect{Left: 2, Top: 2, Width: 3, Height: 3}
		if cropped.CropRect() != expected {
			t.Errorf("wrong crop rect %+v", cropped.CropRect())
		}
	})

	t.Run("crop without blobs centers on the image", func(t *testing.T) {
		cropped := b.DetectBlob().ExtractWithArea(90, 100).CropWithBlob(50, 50)

		if center := cropped.BlobCenter(); center != (imaging.Center{}) {
			t.Errorf("wrong center %+v", center)
		}

		expected := imaging.CropRect{Left: 1, Top: 1, Width: 3, Height: 3}
		if cropped.CropRect() != expected {
			t.Errorf("wrong crop rect %+v", cropped.CropRect())
		}
	})

	t.Run("renders blobs and the search area", func(t *testing.T) {
		c := b.DetectBlob().ExtractWithPosition(20, 20, 100, 100).Canvas()
		img := c.Image()

		if img.RGBAAt(3, 3) != (color.RGBA{0, 255, 0, 255}) {
			t.Error("expected blob pixel")
		}

		if img.RGBAAt(1, 2) != (color.RGBA{255, 255, 0, 255}) {
			t.Error("expected search area outline")
		}

		if img.RGBAAt(0, 0) != (color.RGBA{}) {
			t.Error("expected transparent background")
		}
	})
}
