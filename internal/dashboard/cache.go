package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultCacheTTL is how long a loaded table is served before the next
// access queries the database again.
const DefaultCacheTTL = 10 * time.Minute

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regsido_dashboard_cache_hits_total",
		Help: "Registration table lookups served from memory.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regsido_dashboard_cache_misses_total",
		Help: "Registration table lookups that queried the database.",
	})
)

const tableKey = "registrations"

// Cache holds the most recently loaded Table until its TTL runs out.
// Expiry is the only invalidation.
type Cache struct {
	loader Loader
	lru    *expirable.LRU[string, *Table]
	// serializes loads so concurrent misses query once
	mu sync.Mutex
}

func NewCache(loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		loader: loader,
		lru:    expirable.NewLRU[string, *Table](1, nil, ttl),
	}
}

// Table returns the cached table, loading it on first access or after expiry.
func (c *Cache) Table(ctx context.Context) (*Table, error) {
	if t, ok := c.lru.Get(tableKey); ok {
		cacheHitsTotal.Inc()
		return t, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.lru.Get(tableKey); ok {
		cacheHitsTotal.Inc()
		return t, nil
	}
	cacheMissesTotal.Inc()

	rows, err := c.loader.LoadRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	t := NewTable(rows)
	c.lru.Add(tableKey, t)
	return t, nil
}
