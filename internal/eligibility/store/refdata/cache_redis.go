package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/circuit"
)

const (
	cacheKeyPrefix  = "refdata:"
	defaultCacheTTL = 10 * time.Minute
)

// Source is the reference data a Cached store reads through to.
type Source interface {
	FindRulepack(ctx context.Context, operatorCode string) (*models.OperatorRulepack, error)
	BandTable(ctx context.Context, scheme compensation.Scheme) (*compensation.Table, error)
	FindSeatedEquivalent(ctx context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error)
}

// Cached is a Redis read-through cache in front of a Source. Redis failures
// trip a circuit breaker; while open, lookups go straight to the source and
// cache writes act as probes that close the circuit again.
type Cached struct {
	source  Source
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type CachedOption func(*Cached)

func WithTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithBreaker(b *circuit.Breaker) CachedOption {
	return func(c *Cached) {
		c.breaker = b
	}
}

func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *Cached) {
		c.logger = logger
	}
}

func WithCacheMetrics(m *metrics.Metrics) CachedOption {
	return func(c *Cached) {
		c.metrics = m
	}
}

func NewCached(source Source, client *redis.Client, opts ...CachedOption) *Cached {
	c := &Cached{
		source:  source,
		client:  client,
		ttl:     defaultCacheTTL,
		breaker: circuit.New("refdata-redis"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Cached) FindRulepack(ctx context.Context, operatorCode string) (*models.OperatorRulepack, error) {
	code := strings.ToUpper(operatorCode)
	return readThrough(ctx, c, "rulepack", "rulepack:"+code, func(ctx context.Context) (*models.OperatorRulepack, error) {
		return c.source.FindRulepack(ctx, code)
	})
}

func (c *Cached) BandTable(ctx context.Context, scheme compensation.Scheme) (*compensation.Table, error) {
	bands, err := readThrough(ctx, c, "bands", "bands:"+scheme.String(), func(ctx context.Context) ([]compensation.Band, error) {
		t, err := c.source.BandTable(ctx, scheme)
		if err != nil {
			return nil, err
		}
		return t.Bands(), nil
	})
	if err != nil {
		return nil, err
	}
	return compensation.NewTable(scheme, bands)
}

func (c *Cached) FindSeatedEquivalent(ctx context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error) {
	route, sleeperClass = strings.ToUpper(route), strings.ToUpper(sleeperClass)
	key := fmt.Sprintf("seated:%s:%s:%s", route, sleeperClass, models.DateOnly(date).Format(seedDateLayout))
	return readThrough(ctx, c, "seated", key, func(ctx context.Context) (*models.SeatedFareEquivalent, error) {
		return c.source.FindSeatedEquivalent(ctx, route, sleeperClass, date)
	})
}

// readThrough serves key from Redis when the circuit is closed, otherwise
// loads it from the source. Concurrent misses for the same key share one load.
// Source errors, including not found, are returned uncached.
func readThrough[T any](ctx context.Context, c *Cached, kind, key string, load func(context.Context) (T, error)) (T, error) {
	key = cacheKeyPrefix + key
	if !c.breaker.IsOpen() {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
				c.recordSuccess(ctx)
				c.metrics.IncrementCache(kind, "hit")
				return v, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
		case errors.Is(err, redis.Nil):
			c.recordSuccess(ctx)
			c.metrics.IncrementCache(kind, "miss")
		default:
			c.recordFailure(ctx, err)
		}
	} else {
		c.metrics.IncrementCache(kind, "fallback")
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(ctx, key, v)
	return v.(T), nil
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
		return
	}
	c.recordSuccess(ctx)
}

func (c *Cached) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "reference data cache circuit opened; reading from source",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

func (c *Cached) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "reference data cache circuit closed",
			"breaker", c.breaker.Name(),
		)
	}
}
