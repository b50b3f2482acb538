package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/blobcrop/internal/image"
)

// Processor implements a mock image processor that always fails
type Processor struct {
}

// ProcessImage returns an error instead of processing an image
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	return nil, fmt.Errorf("processing error")
}

// Analyze returns an error instead of analyzing an image
func (p *Processor) Analyze(ctx context.Context, task *image.Task) (*image.Analysis, error) {
	return nil, fmt.Errorf("processing error")
}
