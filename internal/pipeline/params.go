package pipeline

// ColorSource selects the color stage
type ColorSource int

// Color sources
const (
	ColorLuminance ColorSource = iota
	ColorRed
	ColorGreen
	ColorBlue
)

var colorNames = []string{"gray", "red", "green", "blue"}

func (c ColorSource) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return "gray"
	}
	return colorNames[c]
}

// Blur contains the gaussian blur parameters
type Blur struct {
	KernelX int
	KernelY int
	SigmaX  float32
	SigmaY  float32
}

// Params describes a pipeline declaratively, so that it can be parsed from a request and used as a cache key
type Params struct {
	Color  ColorSource
	Blur   *Blur
	Sobel  int // 0 disables the sobel filter
	Detect DetectOptions
	Mode   CropMode
}

// DefaultParams returns the parameters used when a request doesn't override them
func DefaultParams() Params {
	return Params{
		Color: ColorLuminance,
		Detect: DetectOptions{
			Threshold:  128,
			MaxValue:   255,
			MinArea:    0,
			MaxArea:    100,
			Left:       0,
			Top:        0,
			Right:      100,
			Bottom:     100,
			CropWidth:  100,
			CropHeight: 100,
		},
		Mode: ModeCrop,
	}
}

// Build creates a pipeline from the parameters.
// The blob stage is only included when the crop mode needs it.
func (p Params) Build() *Pipeline {
	pipe := &Pipeline{
		Color: colorProcess(p.Color),
		Mode:  p.Mode,
		Crop:  BlobCrop,
	}

	if p.Blur != nil {
		pipe.Filters = append(pipe.Filters, GaussianBlur(p.Blur.KernelX, p.Blur.KernelY, p.Blur.SigmaX, p.Blur.SigmaY))
	}

	if p.Sobel > 0 {
		pipe.Filters = append(pipe.Filters, Sobel(p.Sobel))
	}

	switch p.Mode {
	case ModePreview, ModeCrop, ModeBlobs:
		pipe.Blob = Detect(p.Detect)
	}

	return pipe
}

// BuildAnalysis creates a pipeline that always detects blobs and doesn't render an output canvas
func (p Params) BuildAnalysis() *Pipeline {
	pipe := p.Build()
	pipe.Blob = Detect(p.Detect)
	pipe.Crop = nil
	return pipe
}

func colorProcess(c ColorSource) ColorProcess {
	switch c {
	case ColorRed:
		return Red
	case ColorGreen:
		return Green
	case ColorBlue:
		return Blue
	default:
		return nil
	}
}
