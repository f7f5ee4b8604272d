//go:build integration

package refdata_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/refdata"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/testutil/containers"
)

type RefdataSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	store    *refdata.PostgresStore
}

func TestRefdataSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RefdataSuite))
}

func (s *RefdataSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.store = refdata.NewPostgres(s.postgres.DB)
}

func (s *RefdataSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "operator_rulepacks", "compensation_bands", "seated_fare_equivalents"))
	s.Require().NoError(s.redis.FlushAll(ctx))
	s.Require().NoError(s.store.Apply(ctx, refdata.DefaultDataset()))
}

func date(v string) time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		panic(err)
	}
	return t
}

func (s *RefdataSuite) TestLookupsAfterApply() {
	ctx := context.Background()

	gw, err := s.store.FindRulepack(ctx, "gw")
	s.Require().NoError(err)
	s.Equal(compensation.SchemeDR15, gw.Scheme)

	le, err := s.store.FindRulepack(ctx, "LE")
	s.Require().NoError(err)
	s.False(le.Active)

	_, err = s.store.FindRulepack(ctx, "ZZ")
	s.ErrorIs(err, sentinel.ErrNotFound)

	table, err := s.store.BandTable(ctx, compensation.SchemeDR30)
	s.Require().NoError(err)
	s.Equal(compensation.DefaultTable(compensation.SchemeDR30).Bands(), table.Bands())

	row, err := s.store.FindSeatedEquivalent(ctx, "EUS-ABD", "CLASSIC", date("2024-06-01"))
	s.Require().NoError(err)
	s.Equal(int64(7800), row.SeatedFarePence)

	row, err = s.store.FindSeatedEquivalent(ctx, "eus-abd", "classic", date("2025-03-01"))
	s.Require().NoError(err)
	s.Equal(int64(8200), row.SeatedFarePence)
}

func (s *RefdataSuite) TestApplyIsRepeatable() {
	ctx := context.Background()
	s.Require().NoError(s.store.Apply(ctx, refdata.DefaultDataset()))

	ds, err := refdata.Parse(strings.NewReader(`
operators:
  - {code: GW, name: Great Western Railway, scheme: DR30}
`))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Apply(ctx, ds))

	gw, err := s.store.FindRulepack(ctx, "GW")
	s.Require().NoError(err)
	s.Equal(compensation.SchemeDR30, gw.Scheme)
}

// countingSource records how often the cache falls through to Postgres.
type countingSource struct {
	refdata.Source
	rulepackLoads atomic.Int32
}

func (c *countingSource) FindRulepack(ctx context.Context, code string) (*models.OperatorRulepack, error) {
	c.rulepackLoads.Add(1)
	return c.Source.FindRulepack(ctx, code)
}

func (s *RefdataSuite) TestRedisCacheServesRepeatLookups() {
	ctx := context.Background()
	source := &countingSource{Source: s.store}
	cached := refdata.NewCached(source, s.redis.Client,
		refdata.WithTTL(time.Minute),
		refdata.WithCacheMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)

	for i := 0; i < 3; i++ {
		rp, err := cached.FindRulepack(ctx, "VT")
		s.Require().NoError(err)
		s.Equal("VT", rp.OperatorCode)
	}
	s.Equal(int32(1), source.rulepackLoads.Load())

	ttl, err := s.redis.Client.TTL(ctx, "refdata:rulepack:VT").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	table, err := cached.BandTable(ctx, compensation.SchemeDR15)
	s.Require().NoError(err)
	again, err := cached.BandTable(ctx, compensation.SchemeDR15)
	s.Require().NoError(err)
	s.Equal(table.Bands(), again.Bands())

	_, err = cached.FindRulepack(ctx, "ZZ")
	s.ErrorIs(err, sentinel.ErrNotFound)
	exists, err := s.redis.Client.Exists(ctx, "refdata:rulepack:ZZ").Result()
	s.Require().NoError(err)
	s.Zero(exists)
}
