// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stagecms/stagecms/internal/model"
)

// pageKeyPrefix namespaces published-page entries within the shared cache.
const pageKeyPrefix = "page:"

// PageSource fetches the published view of a page. Satisfied by the
// version store.
type PageSource interface {
	FetchForPublicRead(ctx context.Context, slug string) (*model.PublicPage, error)
}

// PageCache is a read-through cache for published pages, keyed by slug.
// Entries are invalidated on publish; the TTL is a backstop for writers
// in other processes.
type PageCache struct {
	cache  Cache
	source PageSource
	ttl    time.Duration
}

// NewPageCache creates a page cache over the given backend and source.
func NewPageCache(c Cache, source PageSource, ttl time.Duration) *PageCache {
	return &PageCache{cache: c, source: source, ttl: ttl}
}

// GetBySlug returns the published page for slug, consulting the cache first.
// Source errors (including not-found) pass through to the caller and are
// never cached.
func (c *PageCache) GetBySlug(ctx context.Context, slug string) (*model.PublicPage, error) {
	key := pageKeyPrefix + slug

	// Backend trouble is not a reason to fail the read, so any Get error
	// falls through to the source.
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var page model.PublicPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return &page, nil
		}
		// Corrupt entry: drop it and fall through to the source
		_ = c.cache.Delete(ctx, key)
	}

	page, err := c.source.FetchForPublicRead(ctx, slug)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(page); err == nil {
		_ = c.cache.Set(ctx, key, raw, c.ttl)
	}
	return page, nil
}

// Invalidate drops the cached entry for slug. Called after every publish.
func (c *PageCache) Invalidate(ctx context.Context, slug string) {
	_ = c.cache.Delete(ctx, pageKeyPrefix+slug)
}
