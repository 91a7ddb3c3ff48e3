package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Loader fetches the model to serve from durable storage.
type Loader func(ctx context.Context) (*strength.TeamStrength, error)

// ModelCache holds the active model. It is loaded on first use, shared
// read-only by all predictions, and replaced only by Reload or Swap.
type ModelCache struct {
	current atomic.Pointer[strength.TeamStrength]
	group   singleflight.Group
	load    Loader
}

// NewModelCache creates an empty cache backed by load.
func NewModelCache(load Loader) *ModelCache {
	return &ModelCache{load: load}
}

// Get returns the active model, loading it once if the cache is empty.
// Concurrent callers share a single load.
func (c *ModelCache) Get(ctx context.Context) (*strength.TeamStrength, error) {
	if ts := c.current.Load(); ts != nil {
		return ts, nil
	}
	v, err, _ := c.group.Do("load", func() (any, error) {
		if ts := c.current.Load(); ts != nil {
			return ts, nil
		}
		ts, err := c.load(ctx)
		if err != nil {
			return nil, err
		}
		c.current.CompareAndSwap(nil, ts)
		return c.current.Load(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	return v.(*strength.TeamStrength), nil
}

// Reload fetches the model again and atomically replaces the active one.
// On failure the previous model stays active.
func (c *ModelCache) Reload(ctx context.Context) (*strength.TeamStrength, error) {
	v, err, _ := c.group.Do("reload", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		metrics.RecordModelReload("error")
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	ts := v.(*strength.TeamStrength)
	c.Swap(ts)
	metrics.RecordModelReload("ok")
	return ts, nil
}

// Swap makes ts the active model.
func (c *ModelCache) Swap(ts *strength.TeamStrength) {
	if ts == nil {
		return
	}
	c.current.Store(ts)
	metrics.UpdateModelTeams(ts.Len())
}

// Current returns the active model without loading, or nil.
func (c *ModelCache) Current() *strength.TeamStrength {
	return c.current.Load()
}
