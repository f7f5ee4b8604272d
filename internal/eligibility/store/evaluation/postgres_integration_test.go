//go:build integration

package evaluation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/evaluation"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *evaluation.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = evaluation.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "outbox", "eligibility_evaluations")
	s.Require().NoError(err)
}

func newTestEvaluation(journeyID string) *models.Evaluation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Evaluation{
		ID:                     uuid.NewString(),
		JourneyID:              journeyID,
		OperatorCode:           "XC",
		Scheme:                 "DR30",
		DelayMinutes:           35,
		Eligible:               true,
		CompensationPercentage: 50,
		CompensationPence:      1499,
		FarePence:              3000,
		Reasons:                []string{"segment 1 (GW) qualifies", "segment 2 (XC) qualifies"},
		AppliedRules:           []string{"DR15_30MIN_50PCT", "MULTI_OPERATOR_APPORTIONED"},
		Segments: []models.SegmentResult{
			{OperatorCode: "GW", Order: 1, Scheme: "DR15", FarePortionPence: 1999, Eligible: true, CompensationPercentage: 50, CompensationPence: 999, AppliedRule: "DR15_30MIN_50PCT"},
			{OperatorCode: "XC", Order: 2, Scheme: "DR30", FarePortionPence: 1001, Eligible: true, CompensationPercentage: 50, CompensationPence: 500, AppliedRule: "DR30_30MIN_50PCT"},
		},
		CorrelationID: "corr-1",
		EvaluatedAt:   now,
		CreatedAt:     now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrips() {
	ctx := context.Background()
	e := newTestEvaluation("J-" + uuid.NewString())

	s.Require().NoError(s.store.Create(ctx, e))

	found, err := s.store.FindByJourneyID(ctx, e.JourneyID)
	s.Require().NoError(err)
	s.Equal(e, found)
}

func (s *PostgresStoreSuite) TestEmptyOptionalFieldsRoundTrip() {
	ctx := context.Background()
	e := newTestEvaluation("J-" + uuid.NewString())
	e.Segments = nil
	e.CorrelationID = ""
	e.Reasons = []string{}

	s.Require().NoError(s.store.Create(ctx, e))

	found, err := s.store.FindByJourneyID(ctx, e.JourneyID)
	s.Require().NoError(err)
	s.Empty(found.Segments)
	s.Empty(found.CorrelationID)
	s.Empty(found.Reasons)
}

func (s *PostgresStoreSuite) TestFindUnknownJourney() {
	_, err := s.store.FindByJourneyID(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreateSameJourney verifies the unique journey_id constraint
// lets exactly one writer win.
func (s *PostgresStoreSuite) TestConcurrentCreateSameJourney() {
	ctx := context.Background()
	journeyID := "J-" + uuid.NewString()
	const goroutines = 25

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestEvaluation(journeyID))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}
