package jsonbind

import (
	"context"
	"fmt"
	"reflect"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the default number of cached metadata entries.
const DefaultCacheSize = 1024

// part identifies which piece of a type's metadata a cache entry holds.
type part int

const (
	partReaders part = iota
	partWriters
	partCreator
	partType
)

func (p part) String() string {
	switch p {
	case partReaders:
		return "readers"
	case partWriters:
		return "writers"
	case partCreator:
		return "creator"
	case partType:
		return "type"
	default:
		return fmt.Sprintf("part(%d)", int(p))
	}
}

var parts = []part{partReaders, partWriters, partCreator, partType}

type cacheKey struct {
	typ  reflect.Type
	part part
}

// metadataCache memoizes resolved metadata per type. Concurrent first
// requests for one entry share a single build; failed builds are not cached.
type metadataCache struct {
	entries *lru.Cache
	flight  singleflight.Group
}

func newMetadataCache(size int) (*metadataCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.NewWithEvict(size, func(key, _ any) {
		if k, ok := key.(cacheKey); ok {
			emitCacheEvicted(context.Background(), k.typ, k.part)
		}
	})
	if err != nil {
		return nil, err
	}
	return &metadataCache{entries: entries}, nil
}

// load returns the cached entry for (t, p), building it if absent.
func (c *metadataCache) load(t reflect.Type, p part, build func() (any, error)) (any, error) {
	key := cacheKey{typ: t, part: p}
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.flight.Do(flightKey(key), func() (any, error) {
		// A flight that finished between Get and Do already stored the entry.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		start := time.Now()
		v, err := build()
		emitTypeResolved(context.Background(), t, p, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	return v, err
}

// loadAs is load with a typed result.
func loadAs[V any](c *metadataCache, t reflect.Type, p part, build func() (V, error)) (V, error) {
	v, err := c.load(t, p, func() (any, error) { return build() })
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// evict drops every entry of t.
func (c *metadataCache) evict(t reflect.Type) {
	for _, p := range parts {
		c.entries.Remove(cacheKey{typ: t, part: p})
	}
}

// purge drops every entry.
func (c *metadataCache) purge() {
	c.entries.Purge()
}

// len returns the number of cached entries.
func (c *metadataCache) len() int {
	return c.entries.Len()
}

func flightKey(k cacheKey) string {
	return fmt.Sprintf("%d/%p/%s", k.part, k.typ, k.typ)
}
