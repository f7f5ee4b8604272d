package refdata

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/circuit"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

type countingSource struct {
	*InMemory
	mu    sync.Mutex
	calls int
}

func (s *countingSource) FindRulepack(ctx context.Context, code string) (*models.OperatorRulepack, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.InMemory.FindRulepack(ctx, code)
}

// unreachableRedis points at a port nothing listens on so every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCached_FallsBackToSourceWhenRedisIsDown(t *testing.T) {
	source := &countingSource{InMemory: NewInMemory(DefaultDataset())}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2))
	cache := NewCached(source, unreachableRedis(t),
		WithBreaker(breaker),
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	ctx := context.Background()

	for range 3 {
		rp, err := cache.FindRulepack(ctx, "gw")
		require.NoError(t, err)
		assert.Equal(t, compensation.SchemeDR15, rp.Scheme)
	}
	assert.Equal(t, 3, source.calls)
	assert.True(t, breaker.IsOpen())

	table, err := cache.BandTable(ctx, compensation.SchemeDR30)
	require.NoError(t, err)
	assert.Equal(t, 30, table.LowestThreshold())
}

func TestCached_SourceNotFoundPassesThrough(t *testing.T) {
	cache := NewCached(NewInMemory(DefaultDataset()), unreachableRedis(t),
		WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err := cache.FindRulepack(context.Background(), "ZZ")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = cache.FindSeatedEquivalent(context.Background(), "NOWHERE", "CLASSIC", time.Now())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
