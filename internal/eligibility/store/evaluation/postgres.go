package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
	txcontext "github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists evaluations. Writes join the transaction carried
// in the context when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the evaluation, returning sentinel.ErrConflict when the
// journey already has one.
func (s *PostgresStore) Create(ctx context.Context, e *models.Evaluation) error {
	segments, err := marshalSegments(e.Segments)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO eligibility_evaluations (
			id, journey_id, operator_code, scheme, delay_minutes, eligible,
			compensation_percentage, compensation_pence, fare_pence,
			reasons, applied_rules, segments, correlation_id, evaluated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (journey_id) DO NOTHING
		RETURNING id
	`
	var id string
	err = txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		e.ID,
		e.JourneyID,
		e.OperatorCode,
		e.Scheme,
		e.DelayMinutes,
		e.Eligible,
		e.CompensationPercentage,
		e.CompensationPence,
		e.FarePence,
		pq.Array(e.Reasons),
		pq.Array(e.AppliedRules),
		segments,
		nullString(e.CorrelationID),
		e.EvaluatedAt,
		e.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("evaluation for journey %s: %w", e.JourneyID, sentinel.ErrConflict)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("evaluation for journey %s: %w", e.JourneyID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByJourneyID(ctx context.Context, journeyID string) (*models.Evaluation, error) {
	query := `
		SELECT id, journey_id, operator_code, scheme, delay_minutes, eligible,
			compensation_percentage, compensation_pence, fare_pence,
			reasons, applied_rules, segments, correlation_id, evaluated_at, created_at
		FROM eligibility_evaluations
		WHERE journey_id = $1
	`
	var (
		e             models.Evaluation
		segments      []byte
		correlationID sql.NullString
	)
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, journeyID).Scan(
		&e.ID,
		&e.JourneyID,
		&e.OperatorCode,
		&e.Scheme,
		&e.DelayMinutes,
		&e.Eligible,
		&e.CompensationPercentage,
		&e.CompensationPence,
		&e.FarePence,
		pq.Array(&e.Reasons),
		pq.Array(&e.AppliedRules),
		&segments,
		&correlationID,
		&e.EvaluatedAt,
		&e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evaluation for journey %s: %w", journeyID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find evaluation: %w", err)
	}
	if len(segments) > 0 {
		if err := json.Unmarshal(segments, &e.Segments); err != nil {
			return nil, fmt.Errorf("decode evaluation segments: %w", err)
		}
	}
	if e.Reasons == nil {
		e.Reasons = []string{}
	}
	if e.AppliedRules == nil {
		e.AppliedRules = []string{}
	}
	e.CorrelationID = correlationID.String
	e.EvaluatedAt = e.EvaluatedAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func marshalSegments(segments []models.SegmentResult) (any, error) {
	if len(segments) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("encode evaluation segments: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
