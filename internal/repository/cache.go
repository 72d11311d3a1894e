package repository

import (
	"context"
	"fmt"
	"sync"
)

// ConnCache shares established store connections between Repository instances
// keyed by region and collection, so that repeated Init calls in the same
// process reuse a single client per endpoint/collection pair.
type ConnCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	client     Client
	collection Collection
}

// NewConnCache returns an empty connection cache.
func NewConnCache() *ConnCache {
	return &ConnCache{entries: map[string]*cacheEntry{}}
}

func cacheKey(region, collection string) string {
	return fmt.Sprintf("%s::%s", region, collection)
}

// GetOrConnect returns the cached client and collection handle for the given
// region/collection pair, establishing the connection on first use. Concurrent
// callers for the same key share one connection attempt.
func (c *ConnCache) GetOrConnect(ctx context.Context, driver Driver, region, collection string) (Client, Collection, error) {
	key := cacheKey(region, collection)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		return entry.client, entry.collection, nil
	}

	client, coll, err := connect(ctx, driver, region, collection)
	if err != nil {
		return nil, nil, err
	}

	c.entries[key] = &cacheEntry{client: client, collection: coll}
	return client, coll, nil
}

// EvictClient drops every cache entry holding the given client. It does not
// close the client; the caller owns teardown.
func (c *ConnCache) EvictClient(client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.client == client {
			delete(c.entries, key)
		}
	}
}

func connect(ctx context.Context, driver Driver, region, collection string) (Client, Collection, error) {
	store, err := driver.Init(ctx, Options{Region: region})
	if err != nil {
		return nil, nil, fmt.Errorf("init store for region %q: %w", region, err)
	}
	client, err := store.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to region %q: %w", region, err)
	}
	coll, err := client.Collection(ctx, collection)
	if err != nil {
		_ = client.Close(ctx)
		return nil, nil, fmt.Errorf("open collection %q: %w", collection, err)
	}
	return client, coll, nil
}
