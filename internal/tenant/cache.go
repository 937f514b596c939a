// internal/tenant/cache.go
//
// Host-header site resolution with lazy loading and eviction.
//
// Context
// -------
// Every request carries a Host header; this cache turns it into a *Site.
// Hosts are normalized (port and "www." stripped, lowercased) before
// lookup, loads are collapsed through singleflight, and resolved sites
// sit in a sync.Map until the evictor removes them on idle TTL or LRU
// pressure.
//
// Notes
// -----
// Get never fails.  A host with no catalog row, or a row the store cannot
// read, resolves to the default configuration.  The default is returned
// uncached so a freshly parked domain goes live on its next request.
package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/metrics"
	"github.com/gentpan/NameDeal/internal/settings"
)

// Static defaults.  Override via the constructor if desired.
const (
	IdleTTL       = 5 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
)

// Cache lazily resolves hosts to sites, stores them in a sync.Map, and
// evicts them on idle TTL or LRU pressure.
type Cache struct {
	store       *domain.Store
	settings    *settings.Store
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	maxEntries  int
}

// New constructs a Cache and starts the background evictor.
func New(store *domain.Store, st *settings.Store, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		store:      store,
		settings:   st,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get resolves host to its Site, loading it on demand.
func (c *Cache) Get(host string) *Site {
	key := domain.Normalize(host)

	if v, ok := c.m.Load(key); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.site
	}

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(key); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.site, nil
		}
		rec, err := c.store.ByDomain(context.Background(), key)
		if err != nil {
			return nil, err
		}
		site := newSite(key, rec, c.settings)
		ent := &entry{
			site:     site,
			lastSeen: time.Now().UnixNano(),
		}
		c.m.Store(key, ent)
		metrics.SiteLoadTotal.Inc()
		metrics.ActiveSites.Inc()
		return site, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			zap.L().Warn("site load failed, serving default",
				zap.String("host", key),
				zap.Error(err))
		}
		metrics.SiteDefaultTotal.Inc()
		return Default(key, c.settings)
	}
	return v.(*Site)
}

// Invalidate drops the cached entry for domain so the next request reloads
// it from the catalog.  Admin mutations call this after every write.
func (c *Cache) Invalidate(dom string) {
	key := domain.Normalize(dom)
	if _, ok := c.m.LoadAndDelete(key); ok {
		metrics.ActiveSites.Dec()
	}
}

// Close stops the evictor ticker.
func (c *Cache) Close() {
	if c.evictTicker != nil {
		c.evictTicker.Stop()
	}
}
