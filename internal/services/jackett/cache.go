// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Searcher is anything that turns a query into a raw Torznab feed.
type Searcher interface {
	Search(ctx context.Context, query string) ([]byte, error)
}

type cachedFeed struct {
	payload   []byte
	fetchedAt time.Time
}

// CachedSearcher memoises feeds per normalised query and collapses concurrent
// identical searches into one upstream request. Failures are never cached.
type CachedSearcher struct {
	next  Searcher
	ttl   time.Duration
	cache *ttlcache.Cache[string, cachedFeed]
	group singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedSearcher wraps next. A non-positive ttl returns next unchanged.
func NewCachedSearcher(next Searcher, ttl time.Duration) Searcher {
	if ttl <= 0 {
		return next
	}
	return &CachedSearcher{
		next: next,
		ttl:  ttl,
		cache: ttlcache.New(ttlcache.Options[string, cachedFeed]{}.
			SetDefaultTTL(ttl)),
	}
}

func (c *CachedSearcher) Search(ctx context.Context, query string) ([]byte, error) {
	key := cacheKey(query)

	if entry, ok := c.cache.Get(key); ok && time.Since(entry.fetchedAt) < c.ttl {
		c.hits.Add(1)
		log.Trace().Str("query", query).Msg("Serving search from cache")
		return entry.payload, nil
	}
	c.misses.Add(1)

	// The shared request outlives any single caller; each caller stops
	// waiting on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		if entry, ok := c.cache.Get(key); ok && time.Since(entry.fetchedAt) < c.ttl {
			return entry.payload, nil
		}
		payload, err := c.next.Search(context.WithoutCancel(ctx), query)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, cachedFeed{payload: payload, fetchedAt: time.Now()}, ttlcache.DefaultTTL)
		return payload, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		log.Trace().Str("query", query).Msg("Joined in-flight search")
	}

	return res.Val.([]byte), nil
}

// Invalidate drops the cached feed for query.
func (c *CachedSearcher) Invalidate(query string) {
	c.cache.Delete(cacheKey(query))
}

// Stats returns cache hits and misses since start.
func (c *CachedSearcher) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
