package esi

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// errNotModified signals a 304 response on a conditional request.
var errNotModified = errors.New("not modified")

// orderCacheEntry holds cached orders together with HTTP caching metadata.
type orderCacheEntry struct {
	orders  []Order
	etag    string    // ETag from ESI response (page 1)
	expires time.Time // parsed Expires header
}

// OrderCache is a thread-safe in-memory cache for region order books.
// It honors ETag/Expires headers from ESI to avoid re-downloading unchanged
// data, and coalesces duplicate in-flight fetches with singleflight.
type OrderCache struct {
	mu      sync.RWMutex
	entries map[int32]*orderCacheEntry
	group   singleflight.Group
}

// NewOrderCache creates an empty order cache.
func NewOrderCache() *OrderCache {
	return &OrderCache{entries: make(map[int32]*orderCacheEntry)}
}

// Get returns cached orders if they exist and have not expired.
// Returns (orders, etag, hit).
func (oc *OrderCache) Get(regionID int32) ([]Order, string, bool) {
	oc.mu.RLock()
	defer oc.mu.RUnlock()

	e, ok := oc.entries[regionID]
	if !ok {
		return nil, "", false
	}
	if time.Now().After(e.expires) {
		// Expired. Return the etag so the caller can do a conditional
		// request, but signal a miss.
		return nil, e.etag, false
	}
	return e.orders, e.etag, true
}

// Put stores orders in the cache with the given etag and expiry.
func (oc *OrderCache) Put(regionID int32, orders []Order, etag string, expires time.Time) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.entries[regionID] = &orderCacheEntry{orders: orders, etag: etag, expires: expires}
}

// Touch updates the expiry of an existing entry (used on 304 Not Modified).
func (oc *OrderCache) Touch(regionID int32, expires time.Time) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if e, ok := oc.entries[regionID]; ok {
		e.expires = expires
	}
}

// fetchRegionOrdersCached fetches region orders with full caching support:
//  1. cached and not expired → instant return
//  2. expired with an ETag → conditional request (If-None-Match)
//     - 304: touch expiry, return cached data (no body transfer)
//     - 200: full re-fetch, update cache
//  3. miss → full fetch, populate cache
func (c *Client) fetchRegionOrdersCached(regionID int32) ([]Order, error) {
	sfKey := strconv.Itoa(int(regionID))
	result, err, _ := c.orderCache.group.Do(sfKey, func() (interface{}, error) {
		return c.fetchRegionOrdersWithCache(regionID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Order), nil
}

func (c *Client) fetchRegionOrdersWithCache(regionID int32) ([]Order, error) {
	orders, etag, hit := c.orderCache.Get(regionID)
	if hit {
		return orders, nil
	}

	url := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=all", baseURL, regionID)

	if etag != "" {
		_, _, _, newExpires, err := fetchPage[Order](c, url, 1, etag)
		if errors.Is(err, errNotModified) {
			c.orderCache.Touch(regionID, newExpires)
			if cached, _, ok := c.orderCache.Get(regionID); ok {
				return cached, nil
			}
		}
		// ETag miss or error, fall through to a full fetch.
	}

	page1, totalPages, respEtag, respExpires, err := fetchPage[Order](c, url, 1, "")
	if err != nil {
		return nil, err
	}
	all := page1
	for p := 2; p <= totalPages; p++ {
		data, _, _, _, err := fetchPage[Order](c, url, p, "")
		if err != nil {
			return nil, err
		}
		all = append(all, data...)
	}

	c.orderCache.Put(regionID, all, respEtag, respExpires)
	return all, nil
}
