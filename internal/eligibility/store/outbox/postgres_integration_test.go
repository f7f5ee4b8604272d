//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/outbox"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outbox.PostgresStore
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
	s.store = outbox.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *PostgresStoreSuite) TestAppendIsUnpublished() {
	ctx := context.Background()
	event := &models.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: models.AggregateTypeEvaluation,
		AggregateID:   "J-1",
		EventType:     models.EventTypeEvaluated,
		Payload:       []byte(`{"journey_id":"J-1","eligible":true}`),
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListByAggregateID(ctx, "J-1")
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	got := events[0]
	s.Equal(event.ID, got.ID)
	s.Equal(models.EventTypeEvaluated, got.EventType)
	s.Nil(got.PublishedAt)

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(got.Payload, &payload))
	s.Equal("J-1", payload["journey_id"])
}
