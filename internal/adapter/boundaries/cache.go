package boundaries

import (
	"context"
	"sync"

	"github.com/couchcryptid/exposure-analytics-service/internal/domain"
	"github.com/couchcryptid/exposure-analytics-service/internal/observability"
)

// CachedProvider wraps a BoundaryProvider with a process-lifetime cache.
// Boundary data is effectively static, so entries are written once per set
// and never invalidated. Failed fetches are not cached, so a transient
// outage is retried on the next request.
type CachedProvider struct {
	inner   domain.BoundaryProvider
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[domain.BoundarySet][]domain.BoundaryFeature
}

// NewCachedProvider creates a cache decorator around a boundary provider.
func NewCachedProvider(inner domain.BoundaryProvider, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		metrics: metrics,
		entries: make(map[domain.BoundarySet][]domain.BoundaryFeature),
	}
}

// Boundaries returns the cached polygon set, fetching it on first use.
// The mutex is held across the fetch so concurrent first requests for the
// same set do not duplicate the download.
func (c *CachedProvider) Boundaries(ctx context.Context, set domain.BoundarySet) ([]domain.BoundaryFeature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if features, ok := c.entries[set]; ok {
		c.metrics.BoundaryCache.WithLabelValues(string(set), "hit").Inc()
		return features, nil
	}
	c.metrics.BoundaryCache.WithLabelValues(string(set), "miss").Inc()

	features, err := c.inner.Boundaries(ctx, set)
	if err != nil {
		return nil, err
	}
	c.entries[set] = features
	return features, nil
}
