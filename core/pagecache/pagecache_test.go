// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package pagecache

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(body string) Page {
	return Page{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte(body),
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(0, false)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(-1, true)
	require.ErrorIs(t, err, ErrInvalidSize)

	c, err := New(3, true)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	c, err := New(2, false)
	require.NoError(t, err)

	assert.False(t, c.Add("a", page("A")))
	assert.False(t, c.Add("b", page("B")))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", string(got.Body))

	// "b" is now the least recently used.
	assert.True(t, c.Add("c", page("C")))

	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "c"}, c.Keys())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestAddExistingKey(t *testing.T) {
	t.Parallel()

	c, err := New(2, false)
	require.NoError(t, err)

	c.Add("a", page("old"))
	c.Add("a", page("new"))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", string(got.Body))
	assert.Equal(t, 1, c.Len())
}

func TestCallerCannotMutateCache(t *testing.T) {
	t.Parallel()

	c, err := New(1, false)
	require.NoError(t, err)

	p := page("original")
	c.Add("a", p)

	p.Body[0] = 'X'
	p.Header.Set("Content-Type", "text/plain")

	got, _ := c.Get("a")
	assert.Equal(t, "original", string(got.Body))
	assert.Equal(t, "text/html; charset=utf-8", got.Header.Get("Content-Type"))

	got.Body[0] = 'Y'

	again, _ := c.Get("a")
	assert.Equal(t, "original", string(again.Body))
}

func TestCompression(t *testing.T) {
	t.Parallel()

	c, err := New(2, true)
	require.NoError(t, err)

	body := bytes.Repeat([]byte("<p>0x52908400098527886E0F7030069857D2E4169EE7</p>"), 200)
	c.Add("big", Page{StatusCode: http.StatusOK, Body: body})

	// The stored form must be smaller than the original.
	c.lock.Lock()
	stored := c.items["big"].Value.(*entry)
	c.lock.Unlock()

	assert.True(t, stored.compressed)
	assert.Less(t, len(stored.page.Body), len(body))

	got, ok := c.Get("big")
	require.True(t, ok)
	assert.Equal(t, body, got.Body)
}

func TestCompressionSkippedWhenIneffective(t *testing.T) {
	t.Parallel()

	c, err := New(1, true)
	require.NoError(t, err)

	c.Add("tiny", page("x"))

	c.lock.Lock()
	stored := c.items["tiny"].Value.(*entry)
	c.lock.Unlock()

	assert.False(t, stored.compressed)
}

func TestRemoveAndPurge(t *testing.T) {
	t.Parallel()

	c, err := New(3, false)
	require.NoError(t, err)

	c.Add("a", page("A"))
	c.Add("b", page("B"))

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := New(16, true)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 100 {
				key := fmt.Sprintf("k%d", (i+j)%32)
				c.Add(key, page(key))

				if got, ok := c.Get(key); ok {
					assert.Equal(t, key, string(got.Body))
				}
			}
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
