package service

import (
	"context"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
)

type EvaluationReader interface {
	FindByJourneyID(ctx context.Context, journeyID string) (*models.Evaluation, error)
}

// EvaluationWriter returns sentinel.ErrConflict when the journey already has
// an evaluation.
type EvaluationWriter interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
}

type OutboxWriter interface {
	Append(ctx context.Context, event *models.OutboxEvent) error
}

// ReferenceData returns sentinel.ErrNotFound for unknown keys.
type ReferenceData interface {
	FindRulepack(ctx context.Context, operatorCode string) (*models.OperatorRulepack, error)
	BandTable(ctx context.Context, scheme compensation.Scheme) (*compensation.Table, error)
	FindSeatedEquivalent(ctx context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error)
}

// TxStores are the writers bound to one transaction.
type TxStores struct {
	Evaluations EvaluationWriter
	Outbox      OutboxWriter
}

// Tx runs fn atomically; any error returned by fn rolls back every write.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}
