// Package cache provides a bounded, expiring in-memory cache.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 1024

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a goroutine-safe LRU whose entries expire after the cache TTL or
// an earlier per-entry TTL.
type Cache[K comparable, V any] struct {
	lru *expirable.LRU[K, item[V]]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache with room for defaultSize entries.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return NewWithSize[K, V](defaultSize, ttl)
}

// NewWithSize creates a cache bounded to size entries.
func NewWithSize[K comparable, V any](size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, item[V]](size, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached value for key if present and fresh.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	it, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !it.expiresAt.IsZero() && c.now().After(it.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key. A ttl of zero uses the cache TTL.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	it := item[V]{value: value}
	if ttl > 0 && (c.ttl <= 0 || ttl < c.ttl) {
		it.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, it)
}

// Delete removes key.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.lru.Remove(key)
}

// Len returns the number of entries, including ones not yet evicted.
func (c *Cache[K, V]) Len() int {
	return c.lru.Len()
}

// Close drops every entry.
func (c *Cache[K, V]) Close() {
	c.lru.Purge()
}
