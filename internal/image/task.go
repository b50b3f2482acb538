package image

import (
	"github.com/DMarby/blobcrop/internal/imaging"
	"github.com/DMarby/blobcrop/internal/pipeline"
)

// Task is an image processing task
type Task struct {
	ImageID      string
	Source       []byte // Uploaded image data, when set ImageID is only used for naming
	Params       pipeline.Params
	OutputFormat OutputFormat
}

// NewTask creates a task processing a stored image
func NewTask(imageID string, params pipeline.Params, format OutputFormat) *Task {
	return &Task{
		ImageID:      imageID,
		Params:       params,
		OutputFormat: format,
	}
}

// NewUploadTask creates a task processing uploaded image data
func NewUploadTask(imageID string, source []byte, params pipeline.Params, format OutputFormat) *Task {
	return &Task{
		ImageID:      imageID,
		Source:       source,
		Params:       params,
		OutputFormat: format,
	}
}

// Mode sets the crop mode
func (t *Task) Mode(mode pipeline.CropMode) *Task {
	t.Params.Mode = mode
	return t
}

// Blur adds a gaussian blur with a square kernel
func (t *Task) Blur(kernel int) *Task {
	t.Params.Blur = &pipeline.Blur{KernelX: kernel, KernelY: kernel}
	return t
}

// Sobel adds edge detection
func (t *Task) Sobel(kernel int) *Task {
	t.Params.Sobel = kernel
	return t
}

// Analysis is the blob detection summary for an image
type Analysis struct {
	Width  int              `json:"width"`
	Height int              `json:"height"`
	Blobs  int              `json:"blobs"`
	Crop   imaging.CropRect `json:"crop"`
	Center imaging.Center   `json:"center"`
}
