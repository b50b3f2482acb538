package imageapi

import (
	"net/http"
	"time"

	"github.com/DMarby/blobcrop/internal/handler"
	"github.com/DMarby/blobcrop/internal/health"
	"github.com/DMarby/blobcrop/internal/hmac"
	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/tracing"
	"github.com/gorilla/mux"
)

// DefaultMaxUploadSize is the largest accepted upload when API.MaxUploadSize is unset
const DefaultMaxUploadSize = 20 << 20

// IDHeader is the response header carrying the id of the processed image
const IDHeader = "Blobcrop-ID"

// API is a http api
type API struct {
	ImageProcessor image.Processor
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	HandlerTimeout time.Duration
	HMAC           *hmac.HMAC
	MaxUploadSize  int64
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	if a.HealthChecker != nil {
		router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")
	}

	// Stored images, signed with ?hmac
	router.Handle("/id/{id}/process{extension:(?:\\..*)?}", handler.Handler(a.imageHandler)).Methods("GET")
	router.Handle("/id/{id}/analysis", handler.Handler(a.analysisHandler)).Methods("GET")

	// Uploaded images
	router.Handle("/process{extension:(?:\\..*)?}", handler.Handler(a.uploadHandler)).Methods("POST")
	router.Handle("/analysis", handler.Handler(a.uploadAnalysisHandler)).Methods("POST")

	// Query parameters:
	// ?color={gray,red,green,blue} - Color stage
	// ?blur, ?blur={k}, ?blur={kx},{ky}, ?blur={kx},{ky},{sx},{sy} - Gaussian blur
	// ?sobel, ?sobel={k} - Sobel edge detection
	// ?threshold={t}&max={m}&inverse - Binarization
	// ?area={min},{max} - Blob area filter, percent of the image
	// ?position={left},{top},{right},{bottom} - Blob search area, percent of the image
	// ?crop={width},{height} - Crop size, percent of the image
	// ?mode={none,preview,crop,blobs,filter} - Output mode

	// ?hmac - HMAC signature of the path and URL parameters

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, tracing, metrics, request logging, setting CORS headers, and handler execution timeout
	var h http.Handler = handler.CORS([]string{IDHeader}, http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out."))
	h = handler.Logger(a.Log, h)
	h = handler.Metrics(h, routeMatcher)
	if a.Tracer != nil {
		h = handler.Tracer(a.Tracer, h, routeMatcher)
	}

	return handler.AddRequestID(handler.Recovery(a.Log, h))
}

func (a *API) maxUploadSize() int64 {
	if a.MaxUploadSize > 0 {
		return a.MaxUploadSize
	}

	return DefaultMaxUploadSize
}

// Handle not found errors
var notFoundError = handler.NotFound("page not found")

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}
