package engine

import (
	"context"
	"expvar"
	"fmt"
	"time"

	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/pipeline"
	"github.com/DMarby/blobcrop/internal/queue"
	"github.com/DMarby/blobcrop/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Processor runs image pipelines on a fixed pool of workers
type Processor struct {
	queue  *queue.Queue
	tracer *tracing.Tracer
}

var (
	queueSize       = expvar.NewInt("gauge_image_processor_queue_size")
	processedImages = expvar.NewMap("counter_labelmap_mode_image_processor_processed_images")

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blobcrop",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(stageDuration)
}

type job struct {
	task    *image.Task
	analyze bool
}

// New initializes a new processor instance and starts its workers.
// Source images larger than maxPixels are rejected with image.ErrImageTooLarge.
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, maxPixels int, cache *image.Cache) (*Processor, error) {
	if workers < 1 {
		return nil, fmt.Errorf("invalid number of workers: %d", workers)
	}

	workerQueue := queue.New(ctx, workers, taskProcessor(tracer, maxPixels, cache))
	instance := &Processor{
		queue:  workerQueue,
		tracer: tracer,
	}

	go workerQueue.Run()
	log.Infof("starting image worker queue with %d workers", workers)

	return instance, nil
}

// ProcessImage runs the task pipeline and returns the encoded output image
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) ([]byte, error) {
	ctx, span := p.tracer.Start(ctx, "engine.ProcessImage", trace.WithAttributes(
		attribute.String("image.id", task.ImageID),
		attribute.String("image.mode", task.Params.Mode.String()),
	))
	defer span.End()

	defer processedImages.Add(task.Params.Mode.String(), 1)

	result, err := p.process(ctx, job{task: task})
	if err != nil {
		return nil, err
	}

	buffer, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return buffer, nil
}

// Analyze runs blob detection for the task and returns a summary
func (p *Processor) Analyze(ctx context.Context, task *image.Task) (*image.Analysis, error) {
	ctx, span := p.tracer.Start(ctx, "engine.Analyze", trace.WithAttributes(
		attribute.String("image.id", task.ImageID),
	))
	defer span.End()

	defer processedImages.Add("analysis", 1)

	result, err := p.process(ctx, job{task: task, analyze: true})
	if err != nil {
		return nil, err
	}

	analysis, ok := result.(*image.Analysis)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return analysis, nil
}

func (p *Processor) process(ctx context.Context, j job) (interface{}, error) {
	queueSize.Add(1)
	defer queueSize.Add(-1)

	result, err := p.queue.Process(ctx, j)
	if err != nil {
		tracing.SetError(ctx, err)
	}

	return result, err
}

func observeStage(stage string, elapsed time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func taskProcessor(tracer *tracing.Tracer, maxPixels int, cache *image.Cache) queue.HandlerFunc {
	return func(ctx context.Context, data interface{}) (interface{}, error) {
		j, ok := data.(job)
		if !ok {
			return nil, fmt.Errorf("invalid data")
		}
		task := j.task

		source := task.Source
		if source == nil {
			var err error
			source, err = cache.Get(ctx, task.ImageID)
			if err != nil {
				return nil, fmt.Errorf("error getting image from cache: %w", err)
			}
		}

		ctx, span := tracer.Start(ctx, "engine.pipeline")
		defer span.End()

		canvas, err := image.Decode(source, maxPixels)
		if err != nil {
			return nil, err
		}

		var pipe *pipeline.Pipeline
		if j.analyze {
			pipe = task.Params.BuildAnalysis()
		} else {
			pipe = task.Params.Build()
		}
		pipe.Observe = observeStage

		result, err := pipe.Run(ctx, canvas)
		if err != nil {
			return nil, err
		}

		if j.analyze {
			return &image.Analysis{
				Width:  canvas.Width,
				Height: canvas.Height,
				Blobs:  len(result.Blob.Blobs()),
				Crop:   result.Blob.CropRect(),
				Center: result.Blob.BlobCenter(),
			}, nil
		}

		return image.Encode(result.Canvas, task.OutputFormat)
	}
}
