package imaging

import (
	"image"

	"gocv.io/x/gocv"
)

// FilterImage is a single channel float image, usually an intermediate result between color conversion and thresholding
type FilterImage struct {
	Width  int
	Height int
	Pix    []float32
}

// NewFilterImage wraps an existing float buffer
func NewFilterImage(width, height int, pix []float32) (*FilterImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	if len(pix) != width*height {
		return nil, ErrInvalidBuffer
	}

	return &FilterImage{Width: width, Height: height, Pix: pix}, nil
}

// Clone returns a deep copy
func (f *FilterImage) Clone() *FilterImage {
	pix := make([]float32, len(f.Pix))
	copy(pix, f.Pix)
	return &FilterImage{Width: f.Width, Height: f.Height, Pix: pix}
}

// Canvas renders the filter image as an opaque gray canvas
func (f *FilterImage) Canvas() *CanvasImage {
	pix := make([]uint8, 4*len(f.Pix))
	for i, v := range f.Pix {
		g := saturate(v)
		pix[4*i], pix[4*i+1], pix[4*i+2], pix[4*i+3] = g, g, g, 255
	}

	return &CanvasImage{Width: f.Width, Height: f.Height, Pix: pix}
}

// Blob thresholds the image and labels the connected regions of the result.
// Values above threshold become maxValue (or 0 when inverse is set), everything else the opposite.
func (f *FilterImage) Blob(inverse bool, threshold, maxValue float32) (*BlobImage, error) {
	threshold = clampf(threshold, 0, 255)
	maxValue = float32(saturate(maxValue))

	typ := gocv.ThresholdBinary
	if inverse {
		typ = gocv.ThresholdBinaryInv
	}

	src, err := floatMat(f.Width, f.Height, f.Pix)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(src, &binary, threshold, maxValue, typ)

	mask := gocv.NewMat()
	defer mask.Close()
	binary.ConvertTo(&mask, gocv.MatTypeCV8U)

	return labelMat(mask)
}

// GaussianBlur applies a gaussian blur with replicated borders.
// Kernel sizes are raised to the next odd size. A sigma of 0 is derived from the kernel size,
// and a zero sigmaY follows sigmaX.
func (f *FilterImage) GaussianBlur(kernelX, kernelY int, sigmaX, sigmaY float32) (*FilterImage, error) {
	src, err := floatMat(f.Width, f.Height, f.Pix)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	ksize := image.Pt(oddKernel(kernelX), oddKernel(kernelY))
	gocv.GaussianBlur(src, &dst, ksize, float64(maxf(sigmaX, 0)), float64(maxf(sigmaY, 0)), gocv.BorderReplicate)

	return filterFromMat(dst)
}

// Sobel computes the gradient magnitude using a 5x5 operator for kernels of 5 and up, 3x3 otherwise
func (f *FilterImage) Sobel(kernel int) (*FilterImage, error) {
	ksize := 3
	if kernel >= 5 {
		ksize = 5
	}

	src, err := floatMat(f.Width, f.Height, f.Pix)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gx, gy, magnitude := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer gx.Close()
	defer gy.Close()
	defer magnitude.Close()

	gocv.Sobel(src, &gx, gocv.MatTypeCV32F, 1, 0, ksize, 1, 0, gocv.BorderReplicate)
	gocv.Sobel(src, &gy, gocv.MatTypeCV32F, 0, 1, ksize, 1, 0, gocv.BorderReplicate)
	gocv.Magnitude(gx, gy, &magnitude)

	return filterFromMat(magnitude)
}

func oddKernel(k int) int {
	if k < 1 {
		return 1
	}
	if k%2 == 0 {
		return k + 1
	}
	return k
}
