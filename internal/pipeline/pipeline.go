// Package pipeline composes the color, filter, blob and crop stages of an image processing run.
// Every stage is optional; a nil stage is skipped or replaced by its default.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/DMarby/blobcrop/internal/imaging"
)

// ColorProcess turns a canvas into a single channel filter image
type ColorProcess func(src *imaging.CanvasImage) (*imaging.FilterImage, error)

// FilterProcess transforms a filter image
type FilterProcess func(src *imaging.FilterImage) (*imaging.FilterImage, error)

// BlobProcess segments a filter image into blobs
type BlobProcess func(src *imaging.FilterImage) (*imaging.BlobImage, error)

// CropProcess produces the output canvas from the source canvas, a crop mode, and the blob result if any
type CropProcess func(src *imaging.CanvasImage, mode CropMode, rf *imaging.BlobImage) (*imaging.CanvasImage, error)

// Stage names, used for metrics and tracing
const (
	StageColor  = "color"
	StageFilter = "filter"
	StageBlob   = "blob"
	StageCrop   = "crop"
)

// Pipeline is a sequence of optional stages
type Pipeline struct {
	Color   ColorProcess
	Filters []FilterProcess
	Blob    BlobProcess
	Crop    CropProcess
	Mode    CropMode

	// Observe, if set, is called with the duration of every stage that ran
	Observe func(stage string, elapsed time.Duration)
}

// Result holds the output canvas and the intermediate results it was derived from
type Result struct {
	Canvas *imaging.CanvasImage
	Filter *imaging.FilterImage
	Blob   *imaging.BlobImage
}

// Run executes the pipeline on src.
// Without a color stage the canvas is converted to luminance. Without a crop stage the source canvas is returned.
func (p *Pipeline) Run(ctx context.Context, src *imaging.CanvasImage) (*Result, error) {
	color := p.Color
	if color == nil {
		color = Grayscale
	}

	var filtered *imaging.FilterImage
	err := p.stage(ctx, StageColor, func() (err error) {
		filtered, err = color(src)
		return
	})
	if err != nil {
		return nil, err
	}

	for _, filter := range p.Filters {
		if filter == nil {
			continue
		}

		err := p.stage(ctx, StageFilter, func() (err error) {
			filtered, err = filter(filtered)
			return
		})
		if err != nil {
			return nil, err
		}
	}

	var blob *imaging.BlobImage
	if p.Blob != nil {
		err := p.stage(ctx, StageBlob, func() (err error) {
			blob, err = p.Blob(filtered)
			return
		})
		if err != nil {
			return nil, err
		}
	}

	canvas := src
	if p.Crop != nil {
		input := src
		if p.Mode == ModeFilter {
			input = filtered.Canvas()
		}

		err := p.stage(ctx, StageCrop, func() (err error) {
			canvas, err = p.Crop(input, p.Mode, blob)
			return
		})
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Canvas: canvas,
		Filter: filtered,
		Blob:   blob,
	}, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, f func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if err := f(); err != nil {
		return fmt.Errorf("%s stage: %w", name, err)
	}

	if p.Observe != nil {
		p.Observe(name, time.Since(start))
	}

	return nil
}
