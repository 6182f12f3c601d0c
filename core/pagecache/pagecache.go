// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package pagecache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
of rendered pages.

Template views render the same bytes for the same path, so their output can be
reused between requests. When created with compression enabled via [New], page bodies
are stored zstd-compressed whenever that saves space and are transparently
decompressed by [Cache.Get].
*/
package pagecache

import (
	"container/list"
	"errors"
	"net/http"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Page is a rendered response.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Cache is a fixed-capacity, least-recently-used cache of pages that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex

	compress bool
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder

	hits, misses uint64
}

// entry holds the key and the stored form of a page.
type entry struct {
	key        string
	page       Page
	compressed bool
}

// New creates a cache holding at most size pages.
//
// It returns an error if size is not a positive integer.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		compress:  compress,
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add stores page under key, making it the most recently used.
//
// Add reports whether an older page was evicted to make room.
func (c *Cache) Add(key string, page Page) bool {
	// Compress before taking the lock; EncodeAll is safe for concurrent use.
	stored, compressed := c.prepare(page)

	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)

		e := ent.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
		e.page = stored
		e.compressed = compressed

		return false
	}

	c.items[key] = c.evictList.PushFront(&entry{key: key, page: stored, compressed: compressed})

	evicted := c.evictList.Len() > c.size
	if evicted {
		if oldest := c.evictList.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	return evicted
}

// Get returns the page stored under key and marks it as most recently used.
//
// The returned page owns its Body and Header and may be modified by the caller.
func (c *Cache) Get(key string) (Page, bool) {
	c.lock.Lock()

	ent, ok := c.items[key]
	if !ok {
		c.misses++
		c.lock.Unlock()

		return Page{}, false
	}

	c.hits++
	c.evictList.MoveToFront(ent)

	e := ent.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
	stored, compressed := e.page, e.compressed

	c.lock.Unlock()

	return c.realize(stored, compressed)
}

// Remove deletes key from the cache and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)

		return true
	}

	return false
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	clear(c.items)
}

// Keys returns all keys, from the oldest to the newest.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
	}

	return keys
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

// Stats returns the number of hits and misses seen by Get.
func (c *Cache) Stats() (hits, misses uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.hits, c.misses
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	delete(c.items, e.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
}

// prepare copies page so callers cannot mutate the cache, compressing the body
// when enabled and worthwhile.
func (c *Cache) prepare(page Page) (Page, bool) {
	stored := Page{StatusCode: page.StatusCode, Header: page.Header.Clone()}

	if c.compress && len(page.Body) > 0 {
		if compressedBody := c.zstdEnc.EncodeAll(page.Body, nil); len(compressedBody) < len(page.Body) {
			stored.Body = compressedBody

			return stored, true
		}
	}

	stored.Body = append([]byte(nil), page.Body...)

	return stored, false
}

// realize returns a caller-owned copy of a stored page.
//
// If decompression fails (which should be extremely rare), the page is considered unavailable.
func (c *Cache) realize(stored Page, compressed bool) (Page, bool) {
	page := Page{StatusCode: stored.StatusCode, Header: stored.Header.Clone()}

	if !compressed {
		page.Body = append([]byte(nil), stored.Body...)

		return page, true
	}

	if c.zstdDec == nil {
		return Page{}, false
	}

	body, err := c.zstdDec.DecodeAll(stored.Body, nil)
	if err != nil {
		return Page{}, false
	}

	page.Body = body

	return page, true
}
