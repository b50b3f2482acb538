package mock

import (
	"context"
	"fmt"

	"github.com/DMarby/blobcrop/internal/cache"
)

// Provider is a mock cache.
// "notfound", "notfounderr" and "seterror" miss, "error" and "healthcheck" fail, everything else hits with the key as data.
type Provider struct{}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	switch key {
	case "notfound", "notfounderr", "seterror":
		return nil, cache.ErrNotFound
	case "error", "healthcheck":
		return nil, fmt.Errorf("error")
	}

	return []byte(key), nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == "seterror" {
		return fmt.Errorf("seterror")
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
