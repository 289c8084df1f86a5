package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/infra/fingerprint"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

type VerdictCache interface {
	// Get returns a live verdict with Cached set.
	Get(ctx context.Context, fp fingerprint.Fingerprint) (verdict.Verdict, bool)
	Put(ctx context.Context, fp fingerprint.Fingerprint, v verdict.Verdict, ttl time.Duration)
	Backend() string
}

type verdictCache struct {
	logger       *logrus.Logger
	local        Store
	remote       Store
	fellBack     atomic.Bool
	fallbackOnce sync.Once
}

// NewVerdictCache serves verdicts from remote when it is reachable and from
// local otherwise. The first remote failure, at construction or later,
// switches the cache to local for the rest of the process lifetime.
func NewVerdictCache(ctx context.Context, logger *logrus.Logger, local *TTLMap, remote Store) VerdictCache {
	c := &verdictCache{
		logger: logger,
		local:  NewLocalStore(local),
		remote: remote,
	}
	if remote == nil {
		c.fellBack.Store(true)
		return c
	}
	if err := remote.Ping(ctx); err != nil {
		c.fallback(err)
	} else {
		logger.WithField("backend", remote.Name()).Info("verdict cache connected to shared store")
	}
	return c
}

func (c *verdictCache) active() Store {
	if c.fellBack.Load() {
		return c.local
	}
	return c.remote
}

func (c *verdictCache) Backend() string {
	return c.active().Name()
}

func (c *verdictCache) fallback(err error) {
	c.fellBack.Store(true)
	c.fallbackOnce.Do(func() {
		prometheus.CacheFallbacks.Inc()
		c.logger.WithFields(logrus.Fields{
			"backend": c.remote.Name(),
			"error":   err.Error(),
		}).Warn("shared verdict store unavailable, using local cache for the rest of the process lifetime")
	})
}

func (c *verdictCache) Get(ctx context.Context, fp fingerprint.Fingerprint) (verdict.Verdict, bool) {
	store := c.active()
	v, ok, err := store.Get(ctx, fp.String())
	if err != nil {
		c.fallback(err)
		store = c.local
		v, ok, _ = store.Get(ctx, fp.String())
	}

	result := "miss"
	if ok {
		result = "hit"
		v.Cached = true
	}
	prometheus.CacheLookups.WithLabelValues(store.Name(), result).Inc()
	return v, ok
}

func (c *verdictCache) Put(ctx context.Context, fp fingerprint.Fingerprint, v verdict.Verdict, ttl time.Duration) {
	v.Cached = false
	if err := c.active().Set(ctx, fp.String(), v, ttl); err != nil {
		c.fallback(err)
		_ = c.local.Set(ctx, fp.String(), v, ttl)
	}
}
