package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/DMarby/blobcrop/internal/cache"
)

// Provider implements an in-memory cache, optionally bounded by the total size of the stored objects.
// When bounded, the least recently used objects are evicted first.
type Provider struct {
	maxBytes int64
	size     int64
	items    map[string]*list.Element
	order    *list.List
	mutex    sync.Mutex
}

type entry struct {
	key  string
	data []byte
}

// New returns an unbounded Provider instance
func New() *Provider {
	return NewWithLimit(0)
}

// NewWithLimit returns a Provider that holds at most maxBytes of data, 0 meaning unbounded
func NewWithLimit(maxBytes int64) *Provider {
	return &Provider{
		maxBytes: maxBytes,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	element, exists := p.items[key]
	if !exists {
		return nil, cache.ErrNotFound
	}

	p.order.MoveToFront(element)
	return element.Value.(*entry).data, nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Objects larger than the whole cache are never stored
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil
	}

	if element, exists := p.items[key]; exists {
		e := element.Value.(*entry)
		p.size += int64(len(data) - len(e.data))
		e.data = data
		p.order.MoveToFront(element)
	} else {
		p.items[key] = p.order.PushFront(&entry{key: key, data: data})
		p.size += int64(len(data))
	}

	for p.maxBytes > 0 && p.size > p.maxBytes {
		oldest := p.order.Back()
		e := oldest.Value.(*entry)
		p.order.Remove(oldest)
		delete(p.items, e.key)
		p.size -= int64(len(e.data))
	}

	return nil
}

// Size returns the total size of the cached objects
func (p *Provider) Size() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.size
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
