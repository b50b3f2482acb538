package imaging

// BlobImage holds the connected component labelling of a binary image,
// the blobs that survived extraction, and the search and crop areas derived from them
type BlobImage struct {
	width      int
	height     int
	labels     []uint32
	blobs      [][]Point
	searchArea Rect
	cropArea   Rect
}

// NewBlobImage labels the 8-connected non-zero regions of a gray buffer
func NewBlobImage(width, height int, gray []uint8) (*BlobImage, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}

	if len(gray) != width*height {
		return nil, ErrInvalidBuffer
	}

	mask, err := grayMat(width, height, gray)
	if err != nil {
		return nil, err
	}
	defer mask.Close()

	return labelMat(mask)
}

// Width returns the width of the labelled image
func (b *BlobImage) Width() int { return b.width }

// Height returns the height of the labelled image
func (b *BlobImage) Height() int { return b.height }

// Labels returns the number of labelled regions
func (b *BlobImage) Labels() int {
	var max uint32
	for _, l := range b.labels {
		if l > max {
			max = l
		}
	}
	return int(max)
}

// Blobs returns the blobs currently selected
func (b *BlobImage) Blobs() [][]Point {
	return b.blobs
}

// SearchArea returns the area blobs were extracted from
func (b *BlobImage) SearchArea() Rect {
	return b.searchArea
}

// CropArea returns the crop area as computed by CropWithBlob
func (b *BlobImage) CropArea() Rect {
	return b.cropArea
}

// DetectBlob collects the points of every labelled region and resets the search and crop areas
func (b *BlobImage) DetectBlob() *BlobImage {
	blobs := make([][]Point, b.Labels())
	for i, l := range b.labels {
		if l == 0 {
			continue
		}
		blobs[l-1] = append(blobs[l-1], Point{X: i % b.width, Y: i / b.width})
	}

	return &BlobImage{
		width:      b.width,
		height:     b.height,
		labels:     b.labels,
		blobs:      blobs,
		searchArea: fullRect(b.width, b.height),
		cropArea:   fullRect(b.width, b.height),
	}
}

// ExtractWithArea keeps blobs whose pixel count lies strictly between minRate and maxRate percent of the image area
func (b *BlobImage) ExtractWithArea(minRate, maxRate float32) *BlobImage {
	minRate = clampf(minRate, 0, 100)
	maxRate = clampf(maxRate, minRate, 100)

	area := float32(b.width * b.height)
	min := area * minRate / 100
	max := area * maxRate / 100

	blobs := make([][]Point, 0, len(b.blobs))
	for _, blob := range b.blobs {
		size := float32(len(blob))
		if min < size && size < max {
			blobs = append(blobs, blob)
		}
	}

	return b.with(blobs, b.searchArea, b.cropArea)
}

// ExtractWithPosition keeps blobs lying strictly inside the rectangle given in percent of the image size,
// and records that rectangle as the search area
func (b *BlobImage) ExtractWithPosition(leftRate, topRate, rightRate, bottomRate float32) *BlobImage {
	leftRate = clampf(leftRate, 0, 100)
	topRate = clampf(topRate, 0, 100)
	rightRate = clampf(rightRate, leftRate, 100)
	bottomRate = clampf(bottomRate, topRate, 100)

	maxX := float32(b.width - 1)
	maxY := float32(b.height - 1)

	left := maxX * leftRate / 100
	top := maxY * topRate / 100
	right := maxX * rightRate / 100
	bottom := maxY * bottomRate / 100

	blobs := make([][]Point, 0, len(b.blobs))
	for _, blob := range b.blobs {
		inside := true
		for _, pt := range blob {
			x, y := float32(pt.X), float32(pt.Y)
			if !(left < x && x < right && top < y && y < bottom) {
				inside = false
				break
			}
		}

		if inside {
			blobs = append(blobs, blob)
		}
	}

	search := Rect{
		Left:   truncate(left),
		Top:    truncate(top),
		Width:  truncate(right - left + 1),
		Height: truncate(bottom - top + 1),
	}

	return b.with(blobs, search, b.cropArea)
}

// CropWithBlob centers the crop area on the centroid of the selected blobs, or on the image center without blobs
func (b *BlobImage) CropWithBlob(widthRate, heightRate float32) *BlobImage {
	cx, cy, ok := b.centroid()
	if !ok {
		cx, cy = float32(b.width)/2, float32(b.height)/2
	}

	return b.with(b.blobs, b.searchArea, cropArea(b.width, b.height, cx, cy, widthRate, heightRate))
}

// CropRect returns the crop area clamped to the image origin with a minimum size of one pixel
func (b *BlobImage) CropRect() CropRect {
	r := b.cropArea
	return CropRect{
		Left:   max(r.Left, 0),
		Top:    max(r.Top, 0),
		Width:  max(r.Width, 1),
		Height: max(r.Height, 1),
	}
}

// BlobCenter returns the centroid of all selected blob points, or the origin without blobs
func (b *BlobImage) BlobCenter() Center {
	cx, cy, _ := b.centroid()
	return Center{X: cx, Y: cy}
}

// Canvas renders the selected blobs in green and the search area outline in yellow on a transparent canvas
func (b *BlobImage) Canvas() *CanvasImage {
	c := &CanvasImage{Width: b.width, Height: b.height, Pix: make([]uint8, 4*b.width*b.height)}

	for _, blob := range b.blobs {
		for _, pt := range blob {
			c.put(pt.X, pt.Y, green)
		}
	}

	c.DrawRect(b.searchArea, yellow)
	return c
}

func (b *BlobImage) centroid() (float32, float32, bool) {
	var count, sx, sy float32
	for _, blob := range b.blobs {
		for _, pt := range blob {
			count++
			sx += float32(pt.X)
			sy += float32(pt.Y)
		}
	}

	if count == 0 {
		return 0, 0, false
	}

	return sx / count, sy / count, true
}

func (b *BlobImage) with(blobs [][]Point, search, crop Rect) *BlobImage {
	return &BlobImage{
		width:      b.width,
		height:     b.height,
		labels:     b.labels,
		blobs:      blobs,
		searchArea: search,
		cropArea:   crop,
	}
}
