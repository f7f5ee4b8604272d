// Package consumer feeds delay confirmations from Kafka into the asynchronous
// evaluation path.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/kafka/consumer"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/requestcontext"
)

const headerCorrelationID = "X-Correlation-ID"

// Evaluator is the slice of the eligibility service this handler needs.
type Evaluator interface {
	EvaluateDelayConfirmation(ctx context.Context, confirmation models.DelayConfirmation) (*models.Evaluation, error)
}

// DelayHandler processes delay.confirmed records.
type DelayHandler struct {
	evaluator Evaluator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewDelayHandler(evaluator Evaluator, logger *slog.Logger, m *metrics.Metrics) *DelayHandler {
	return &DelayHandler{
		evaluator: evaluator,
		logger:    logger,
		metrics:   m,
	}
}

// delayPayload matches the JSON published on delay.confirmed.
type delayPayload struct {
	JourneyID        string     `json:"journey_id"`
	OperatorCode     string     `json:"operator_code"`
	ScheduledArrival *time.Time `json:"scheduled_arrival"`
	ActualArrival    *time.Time `json:"actual_arrival"`
	DelayMinutes     *int       `json:"delay_minutes"`
	FarePence        int64      `json:"fare_pence"`
	CorrelationID    string     `json:"correlation_id"`
}

// Handle evaluates one confirmation. Records that can never succeed are
// committed; storage failures are returned so the record is retried.
func (h *DelayHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var payload delayPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.WarnContext(ctx, "dropping malformed delay confirmation",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		h.metrics.IncrementDelayConfirmation("malformed")
		return nil
	}
	if payload.JourneyID == "" {
		payload.JourneyID = strings.TrimSpace(string(msg.Key))
	}
	if payload.CorrelationID == "" {
		payload.CorrelationID = msg.Header(headerCorrelationID)
	}
	if payload.CorrelationID != "" {
		ctx = requestcontext.WithCorrelationID(ctx, payload.CorrelationID)
	}

	evaluation, err := h.evaluator.EvaluateDelayConfirmation(ctx, models.DelayConfirmation{
		JourneyID:        payload.JourneyID,
		OperatorCode:     payload.OperatorCode,
		ScheduledArrival: payload.ScheduledArrival,
		ActualArrival:    payload.ActualArrival,
		DelayMinutes:     payload.DelayMinutes,
		FarePence:        payload.FarePence,
		CorrelationID:    payload.CorrelationID,
	})
	if err != nil {
		if dErrors.Retryable(err) {
			h.metrics.IncrementDelayConfirmation("retry")
			return fmt.Errorf("evaluate delay confirmation %s: %w", payload.JourneyID, err)
		}
		h.logger.WarnContext(ctx, "rejecting delay confirmation",
			"journey_id", payload.JourneyID,
			"operator_code", payload.OperatorCode,
			"correlation_id", payload.CorrelationID,
			"error", err,
		)
		h.metrics.IncrementDelayConfirmation("rejected")
		return nil
	}

	h.logger.InfoContext(ctx, "delay confirmation evaluated",
		"journey_id", evaluation.JourneyID,
		"eligible", evaluation.Eligible,
		"compensation_pence", evaluation.CompensationPence,
		"correlation_id", payload.CorrelationID,
	)
	h.metrics.IncrementDelayConfirmation("processed")
	return nil
}
