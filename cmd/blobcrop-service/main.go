package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/DMarby/blobcrop/internal/cache"
	"github.com/DMarby/blobcrop/internal/cache/memory"
	"github.com/DMarby/blobcrop/internal/cache/redis"
	"github.com/DMarby/blobcrop/internal/cmd"
	"github.com/DMarby/blobcrop/internal/health"
	"github.com/DMarby/blobcrop/internal/hmac"
	"github.com/DMarby/blobcrop/internal/image"
	"github.com/DMarby/blobcrop/internal/image/engine"
	"github.com/DMarby/blobcrop/internal/logger"
	"github.com/DMarby/blobcrop/internal/metrics"
	"github.com/DMarby/blobcrop/internal/storage"
	fileStorage "github.com/DMarby/blobcrop/internal/storage/file"
	"github.com/DMarby/blobcrop/internal/storage/spaces"
	"github.com/DMarby/blobcrop/internal/tracing"

	api "github.com/DMarby/blobcrop/internal/imageapi"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Processing
	workers       = flag.Int("workers", 3, "number of concurrent image processing workers")
	maxUploadSize = flag.Int64("max-upload-size", api.DefaultMaxUploadSize, "largest accepted upload in bytes")
	maxPixels     = flag.Int("max-pixels", image.DefaultMaxPixels, "largest accepted image area in pixels, 0 for unbounded")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./images", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesPrefix         = flag.String("storage-spaces-prefix", "", "object key prefix of the source images")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use (memory, redis)")

	// Cache - Memory
	cacheMemoryMaxBytes = flag.Int64("cache-memory-max-bytes", 512<<20, "largest total size of the cached source images, 0 for unbounded")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long source images stay in redis, 0 for no expiry")

	// Healthcheck
	healthCheckImageID = flag.String("health-check-image-id", "1", "image ID to request from the storage to check storage health")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key used to sign image urls")

	// Tracing
	tracingEnabled = flag.Bool("tracing", false, "export traces over OTLP, configured through the OTEL_EXPORTER_OTLP_* environment variables")
)

func main() {
	// Parse environment variables
	envy.Parse("BLOBCROP")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
		log.Warnf("error setting GOMAXPROCS: %s", err)
	}

	if *hmacKey == "" {
		log.Fatalf("missing hmac key")
	}

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer, err := setupTracer(shutdownCtx, log)
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storage, cache, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	// Initialize the image processor
	imageProcessorCtx, imageProcessorCancel := context.WithCancel(context.Background())
	defer imageProcessorCancel()

	imageProcessor, err := engine.New(imageProcessorCtx, log, tracer, *workers, *maxPixels, image.NewCache(tracer, cache, storage))
	if err != nil {
		log.Fatalf("error initializing image processor %s", err.Error())
	}

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Storage: storage,
		ImageID: *healthCheckImageID,
		Cache:   cache,
		Log:     log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		ImageProcessor: imageProcessor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		HandlerTimeout: cmd.HandlerTimeout,
		HMAC: &hmac.HMAC{
			Key: []byte(*hmacKey),
		},
		MaxUploadSize: *maxUploadSize,
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	// Wait for shutdown or error
	if err := cmd.Serve(shutdownCtx, log, server); err != nil {
		log.Errorf("error running http server: %s", err)
	}
}

func setupTracer(ctx context.Context, log *logger.Logger) (*tracing.Tracer, error) {
	if !*tracingEnabled {
		return tracing.Noop(log, "blobcrop-service"), nil
	}

	return tracing.New(ctx, log, "blobcrop-service")
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(*storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesPrefix, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		cache = memory.NewWithLimit(*cacheMemoryMaxBytes)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}
