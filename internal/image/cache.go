package image

import (
	"context"

	"github.com/DMarby/blobcrop/internal/cache"
	"github.com/DMarby/blobcrop/internal/storage"
	"github.com/DMarby/blobcrop/internal/tracing"
)

// Cache is a source image cache
type Cache = cache.Auto

// NewCache instantiates a cache that loads missing source images from storage
func NewCache(tracer *tracing.Tracer, cacheProvider cache.Provider, storageProvider storage.Provider) *Cache {
	return &Cache{
		Tracer:   tracer,
		Provider: cacheProvider,
		Loader: func(ctx context.Context, key string) (data []byte, err error) {
			ctx, span := tracer.Start(ctx, "image.Cache.Loader")
			defer span.End()

			return storageProvider.Get(ctx, key)
		},
	}
}
