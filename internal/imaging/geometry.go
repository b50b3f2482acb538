package imaging

import "math"

// Point is a pixel coordinate
type Point struct {
	X int
	Y int
}

// Rect is an axis aligned rectangle. Left and Top may be negative, Width and Height are at least 1
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Right returns the rightmost column covered by the rectangle
func (r Rect) Right() int {
	return r.Left + r.Width - 1
}

// Bottom returns the bottommost row covered by the rectangle
func (r Rect) Bottom() int {
	return r.Top + r.Height - 1
}

// CropRect is a crop rectangle clamped to the image origin
type CropRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center is the centroid of a set of blobs
type Center struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func fullRect(width, height int) Rect {
	return Rect{Left: 0, Top: 0, Width: width, Height: height}
}

// cropArea computes a rectangle centered on (centerX, centerY), sized by percentage rates of the image,
// and shrunk so that it never extends past the image edges
func cropArea(width, height int, centerX, centerY, widthRate, heightRate float32) Rect {
	widthRate = clampf(widthRate, 0, 100)
	heightRate = clampf(heightRate, 0, 100)

	imgWidth := float32(width)
	imgHeight := float32(height)

	w := minf(minf(imgWidth*widthRate/100, 2*centerX), 2*(imgWidth-centerX))
	h := minf(minf(imgHeight*heightRate/100, 2*centerY), 2*(imgHeight-centerY))

	left := truncate(centerX - w/2)
	top := truncate(centerY - h/2)

	return Rect{
		Left:   left,
		Top:    top,
		Width:  truncate(maxf(w, 1)),
		Height: truncate(maxf(h, 1)),
	}
}

func clampf(v, lo, hi float32) float32 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// truncate converts towards zero, saturating at the int32 range and mapping NaN to 0
func truncate(v float32) int {
	switch {
	case v != v:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// saturate converts a float to a byte the same way a saturating cast does
func saturate(v float32) uint8 {
	switch {
	case v != v, v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
