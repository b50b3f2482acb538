package imaging

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Mat conversion helpers. Every Mat returned here must be closed by the caller.

func floatMat(width, height int, pix []float32) (gocv.Mat, error) {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV32F)
	data, err := m.DataPtrFloat32()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("error creating float mat: %w", err)
	}

	copy(data, pix)
	return m, nil
}

func grayMat(width, height int, gray []uint8) (gocv.Mat, error) {
	m := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	data, err := m.DataPtrUint8()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("error creating gray mat: %w", err)
	}

	copy(data, gray)
	return m, nil
}

func filterFromMat(m gocv.Mat) (*FilterImage, error) {
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("error reading float mat: %w", err)
	}

	pix := make([]float32, len(data))
	copy(pix, data)

	return &FilterImage{Width: m.Cols(), Height: m.Rows(), Pix: pix}, nil
}

// labelMat labels the 8-connected non-zero regions of a single channel 8 bit mat.
// CCL_WU numbers the regions in raster order of their first pixel.
func labelMat(mask gocv.Mat) (*BlobImage, error) {
	labels := gocv.NewMat()
	defer labels.Close()

	gocv.ConnectedComponentsWithParams(mask, &labels, 8, gocv.MatTypeCV32S, gocv.CCL_WU)

	data, err := labels.DataPtrInt32()
	if err != nil {
		return nil, fmt.Errorf("error reading label mat: %w", err)
	}

	width, height := mask.Cols(), mask.Rows()
	out := make([]uint32, len(data))
	for i, l := range data {
		out[i] = uint32(l)
	}

	return &BlobImage{
		width:      width,
		height:     height,
		labels:     out,
		searchArea: fullRect(width, height),
		cropArea:   fullRect(width, height),
	}, nil
}
