package loader

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Caching wraps a Loader with a TTL cache keyed by URL. Concurrent loads of
// the same URL share one call to the wrapped loader, and cancelling one
// caller does not fail the others. Failures are not cached.
type Caching struct {
	loader Loader
	cache  *gocache.Cache
	group  singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCaching creates a caching wrapper. A non-positive ttl keeps documents
// until they are forgotten.
func NewCaching(l Loader, ttl time.Duration) *Caching {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = gocache.NoExpiration
		cleanup = 0
	}
	return &Caching{
		loader: l,
		cache:  gocache.New(expiration, cleanup),
	}
}

// Load checks the cache first, then calls the wrapped loader.
func (c *Caching) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	if doc, ok := c.cache.Get(url); ok {
		c.hits.Add(1)
		return doc.(*RemoteDocument), nil
	}
	c.misses.Add(1)

	// The shared call outlives any one caller; each caller waits only on its
	// own ctx. The wrapped loader's own timeout bounds the call.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(url, func() (any, error) {
		doc, err := c.loader.Load(shared, url)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(url, doc)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RemoteDocument), nil
	}
}

// Forget drops url from the cache.
func (c *Caching) Forget(url string) {
	c.cache.Delete(url)
}

// Flush drops every cached document.
func (c *Caching) Flush() {
	c.cache.Flush()
}

// Len returns the number of cached documents.
func (c *Caching) Len() int {
	return c.cache.ItemCount()
}

// Stats returns the cache hit and miss counts.
func (c *Caching) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
