package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	txcontext "github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/tx"
)

// PostgresStore writes events to the outbox table for an external relay to
// publish. Rows are inserted with a null published_at.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event *models.OutboxEvent) error {
	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		string(event.Payload),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByAggregateID returns the events recorded for one aggregate, oldest first.
func (s *PostgresStore) ListByAggregateID(ctx context.Context, aggregateID string) ([]*models.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, published_at
		FROM outbox
		WHERE aggregate_id = $1
		ORDER BY created_at, id
	`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("list outbox entries: %w", err)
	}
	defer rows.Close()

	var events []*models.OutboxEvent
	for rows.Next() {
		var (
			e           models.OutboxEvent
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time.UTC()
			e.PublishedAt = &t
		}
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, &e)
	}
	return events, rows.Err()
}
