package gemini

import (
	"context"
	"fmt"

	"github.com/couchcryptid/meteor-impact-service/internal/cache"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
)

// CachedNarrator memoizes narratives per location and meteor parameters.
type CachedNarrator struct {
	inner   domain.Narrator
	cache   *cache.LRU[string]
	metrics *observability.Metrics
}

// NewCachedNarrator creates a cache decorator around a narrator.
func NewCachedNarrator(inner domain.Narrator, maxEntries int, metrics *observability.Metrics) *CachedNarrator {
	return &CachedNarrator{
		inner:   inner,
		cache:   cache.NewLRU[string](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedNarrator) Generate(ctx context.Context, req domain.NarrativeRequest) (string, error) {
	key := narrativeKey(req)
	if text, ok := c.cache.Get(key); ok {
		c.metrics.NarrativeCache.WithLabelValues("hit").Inc()
		return text, nil
	}
	c.metrics.NarrativeCache.WithLabelValues("miss").Inc()

	text, err := c.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	c.cache.Put(key, text)
	return text, nil
}

func narrativeKey(req domain.NarrativeRequest) string {
	p := req.Parameters
	return fmt.Sprintf("%s|%s|%g|%g|%g|%g",
		req.Location, req.Material, p.DiameterMeters, p.VelocityKmPerSec, p.ImpactAngleDegrees, p.DensityKgPerM3)
}
