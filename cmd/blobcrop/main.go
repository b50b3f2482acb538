package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/image/engine"
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/params"
	"github.com/DMarby/blobcrop/internal/tracing"
	"github.com/jamiealquiza/envy"
	"go.uber.org/zap"
)

// Comandline flags
var (
	in       = flag.String("in", "", "source image (png, jpeg, gif, webp, bmp, tiff)")
	out      = flag.String("out", "", "output image, the extension selects the format (.png, .jpg)")
	query    = flag.String("query", "", "processing parameters, in the same form as the http api query string")
	analyze  = flag.Bool("analyze", false, "print the blob analysis as json")
	loglevel = zap.LevelFlag("log-level", zap.WarnLevel, "log level (default \"warn\") (debug, info, warn, error, dpanic, panic, fatal)")
)

func main() {
	envy.Parse("BLOBCROP")
	flag.Parse()

	log := logger.New(*loglevel)
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorf("%s", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	if *in == "" || (*out == "" && !*analyze) {
		return fmt.Errorf("usage: blobcrop -in <image> [-out <image>] [-query <params>] [-analyze]")
	}

	values, err := url.ParseQuery(strings.TrimPrefix(*query, "?"))
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	pipelineParams, err := params.FromQuery(values)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer := tracing.Noop(log, "blobcrop")
	processor, err := engine.New(ctx, log, tracer, 1, image.DefaultMaxPixels, nil)
	if err != nil {
		return err
	}

	id := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))

	if *out != "" {
		format, err := image.FormatFromExtension(strings.ToLower(filepath.Ext(*out)))
		if err != nil {
			return err
		}

		processed, err := processor.ProcessImage(ctx, image.NewUploadTask(id, source, pipelineParams, format))
		if err != nil {
			return err
		}

		if err := os.WriteFile(*out, processed, 0644); err != nil {
			return err
		}
	}

	if *analyze {
		analysis, err := processor.Analyze(ctx, image.NewUploadTask(id, source, pipelineParams, image.PNG))
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analysis)
	}

	return nil
}
