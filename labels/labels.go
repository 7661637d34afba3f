// Package labels caches the per-period label annotations shown next to a
// month's data. Writes are write-through, like the department map.
package labels

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Backend is the slice of the API the cache needs.
type Backend interface {
	GetLabels(ctx context.Context) (map[string]string, error)
	SetLabel(ctx context.Context, periodKey, label string) error
}

// Cache holds the period → label mapping.
type Cache struct {
	backend Backend

	mu     sync.RWMutex
	values map[string]string
}

// NewCache creates an empty Cache backed by backend.
func NewCache(backend Backend) (*Cache, error) {
	if backend == nil {
		return nil, errors.New("[NewCache] backend is required")
	}
	return &Cache{
		backend: backend,
		values:  make(map[string]string),
	}, nil
}

// Load replaces the cache with the backend's labels.
func (c *Cache) Load(ctx context.Context) error {
	data, err := c.backend.GetLabels(ctx)
	if err != nil {
		return errors.Wrap(err, "[Cache.Load] GetLabels")
	}

	c.mu.Lock()
	c.values = data
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.mu.Unlock()
	return nil
}

// Get returns a period's label, "" when none is set.
func (c *Cache) Get(periodKey string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[periodKey]
}

// Set persists a period's label and then updates the cache. An empty
// label clears the annotation. A failed write leaves the cache unchanged.
func (c *Cache) Set(ctx context.Context, periodKey, label string) error {
	if err := c.backend.SetLabel(ctx, periodKey, label); err != nil {
		return errors.Wrap(err, "[Cache.Set] SetLabel")
	}

	c.mu.Lock()
	if label == "" {
		delete(c.values, periodKey)
	} else {
		c.values[periodKey] = label
	}
	c.mu.Unlock()
	return nil
}

// All returns a copy of every label.
func (c *Cache) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
