package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

type EvaluationStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *EvaluationStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestEvaluationStoreSuite(t *testing.T) {
	suite.Run(t, new(EvaluationStoreSuite))
}

func newEvaluation(journeyID string) *models.Evaluation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Evaluation{
		ID:                     uuid.NewString(),
		JourneyID:              journeyID,
		OperatorCode:           "GW",
		Scheme:                 "DR15",
		DelayMinutes:           31,
		Eligible:               true,
		CompensationPercentage: 50,
		CompensationPence:      1000,
		FarePence:              2000,
		Reasons:                []string{"delay of 31 minutes qualifies for 50% compensation under DR15"},
		AppliedRules:           []string{"DR15_30MIN_50PCT"},
		EvaluatedAt:            now,
		CreatedAt:              now,
	}
}

func (s *EvaluationStoreSuite) TestCreateAndFind() {
	s.Run("round trips an evaluation", func() {
		e := newEvaluation("J-1")
		s.Require().NoError(s.store.Create(s.ctx, e))

		found, err := s.store.FindByJourneyID(s.ctx, "J-1")
		s.Require().NoError(err)
		s.Equal(e, found)
	})

	s.Run("returns ErrNotFound for unknown journey", func() {
		_, err := s.store.FindByJourneyID(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *EvaluationStoreSuite) TestDuplicateJourneyConflicts() {
	s.Require().NoError(s.store.Create(s.ctx, newEvaluation("J-2")))

	err := s.store.Create(s.ctx, newEvaluation("J-2"))
	s.ErrorIs(err, sentinel.ErrConflict)
	s.Equal(1, s.store.Count())
}

func (s *EvaluationStoreSuite) TestStoredRecordIsImmutable() {
	e := newEvaluation("J-3")
	s.Require().NoError(s.store.Create(s.ctx, e))

	e.Reasons[0] = "mutated"
	found, err := s.store.FindByJourneyID(s.ctx, "J-3")
	s.Require().NoError(err)
	s.NotEqual("mutated", found.Reasons[0])

	found.AppliedRules[0] = "mutated"
	again, err := s.store.FindByJourneyID(s.ctx, "J-3")
	s.Require().NoError(err)
	s.Equal("DR15_30MIN_50PCT", again.AppliedRules[0])
}
