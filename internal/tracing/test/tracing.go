// Package test provides a tracer for tests
package test

import (
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/tracing"
)

// Tracer returns a tracer that discards all spans
func Tracer(log *logger.Logger) *tracing.Tracer {
	return tracing.Noop(log, "test")
}
