package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
)

type evaluatedPayload struct {
	EvaluationID           string                 `json:"evaluation_id"`
	JourneyID              string                 `json:"journey_id"`
	OperatorCode           string                 `json:"operator_code"`
	Scheme                 string                 `json:"scheme"`
	DelayMinutes           int                    `json:"delay_minutes"`
	FarePence              int64                  `json:"fare_pence"`
	Eligible               bool                   `json:"eligible"`
	CompensationPercentage int                    `json:"compensation_percentage"`
	CompensationPence      int64                  `json:"compensation_pence"`
	Reasons                []string               `json:"reasons"`
	AppliedRules           []string               `json:"applied_rules"`
	Segments               []models.SegmentResult `json:"segments,omitempty"`
	EvaluatedAt            time.Time              `json:"evaluated_at"`
	CorrelationID          string                 `json:"correlation_id,omitempty"`
}

func newOutboxEvent(e *models.Evaluation) (*models.OutboxEvent, error) {
	payload, err := json.Marshal(evaluatedPayload{
		EvaluationID:           e.ID,
		JourneyID:              e.JourneyID,
		OperatorCode:           e.OperatorCode,
		Scheme:                 e.Scheme,
		DelayMinutes:           e.DelayMinutes,
		FarePence:              e.FarePence,
		Eligible:               e.Eligible,
		CompensationPercentage: e.CompensationPercentage,
		CompensationPence:      e.CompensationPence,
		Reasons:                e.Reasons,
		AppliedRules:           e.AppliedRules,
		Segments:               e.Segments,
		EvaluatedAt:            e.EvaluatedAt,
		CorrelationID:          e.CorrelationID,
	})
	if err != nil {
		return nil, err
	}
	return &models.OutboxEvent{
		ID:            uuid.NewString(),
		AggregateType: models.AggregateTypeEvaluation,
		AggregateID:   e.ID,
		EventType:     models.EventTypeEvaluated,
		Payload:       payload,
		CreatedAt:     e.CreatedAt,
	}, nil
}
