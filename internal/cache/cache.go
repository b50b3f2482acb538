package cache

import (
	"context"
	"errors"
	"time"

	"github.com/DMarby/blobcrop/internal/tracing"
	"golang.org/x/sync/singleflight"
)

// Provider is an interface for getting and setting cached objects
type Provider interface {
	Get(ctx context.Context, key string) (data []byte, err error)
	Set(ctx context.Context, key string, data []byte) (err error)
	Shutdown()
}

// LoaderFunc is a function for loading data into a cache
type LoaderFunc func(ctx context.Context, key string) (data []byte, err error)

// DefaultLoadTimeout bounds a single load when Auto.LoadTimeout is unset
const DefaultLoadTimeout = time.Minute

// Auto is a cache that loads objects on a miss, collapsing concurrent loads of the same key.
// A load is detached from the cancellation of the caller that started it,
// so callers that give up don't fail the others waiting on the same key.
type Auto struct {
	Tracer      *tracing.Tracer
	Provider    Provider
	Loader      LoaderFunc
	LoadTimeout time.Duration
	lookupGroup singleflight.Group
}

// Get returns an object from the cache if it exists, otherwise it loads it into the cache and returns it
func (a *Auto) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := a.Tracer.Start(ctx, "cache.Auto.Get")
	defer span.End()

	data, err = a.Provider.Get(ctx, key)
	// A hit, or a cache failure that loading won't fix
	if !errors.Is(err, ErrNotFound) {
		return
	}

	result := a.lookupGroup.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.loadTimeout())
		defer cancel()

		data, err := a.Loader(loadCtx, key)
		if err != nil {
			return nil, err
		}

		if err := a.Provider.Set(loadCtx, key, data); err != nil {
			return nil, err
		}

		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}

		data, _ = res.Val.([]byte)
		return data, nil
	}
}

func (a *Auto) loadTimeout() time.Duration {
	if a.LoadTimeout <= 0 {
		return DefaultLoadTimeout
	}
	return a.LoadTimeout
}

// Errors
var (
	ErrNotFound = errors.New("not found in cache")
)
