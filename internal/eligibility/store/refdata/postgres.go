package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

// PostgresStore reads reference data from Postgres. Apply loads a seed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindRulepack(ctx context.Context, operatorCode string) (*models.OperatorRulepack, error) {
	query := `SELECT operator_code, name, scheme, active FROM operator_rulepacks WHERE operator_code = $1`
	var (
		rp     models.OperatorRulepack
		scheme string
	)
	err := s.db.QueryRowContext(ctx, query, strings.ToUpper(operatorCode)).Scan(&rp.OperatorCode, &rp.Name, &scheme, &rp.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rulepack for operator %s: %w", operatorCode, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find rulepack: %w", err)
	}
	if rp.Scheme, err = compensation.ParseScheme(scheme); err != nil {
		return nil, fmt.Errorf("rulepack for operator %s: %w", operatorCode, err)
	}
	return &rp, nil
}

func (s *PostgresStore) BandTable(ctx context.Context, scheme compensation.Scheme) (*compensation.Table, error) {
	query := `
		SELECT threshold_minutes, percentage
		FROM compensation_bands
		WHERE scheme = $1
		ORDER BY threshold_minutes
	`
	rows, err := s.db.QueryContext(ctx, query, scheme.String())
	if err != nil {
		return nil, fmt.Errorf("list compensation bands: %w", err)
	}
	defer rows.Close()

	var bands []compensation.Band
	for rows.Next() {
		var b compensation.Band
		if err := rows.Scan(&b.Threshold, &b.Percentage); err != nil {
			return nil, fmt.Errorf("scan compensation band: %w", err)
		}
		bands = append(bands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list compensation bands: %w", err)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("bands for scheme %s: %w", scheme, sentinel.ErrNotFound)
	}
	return compensation.NewTable(scheme, bands)
}

func (s *PostgresStore) FindSeatedEquivalent(ctx context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error) {
	// Rows covering the date sort first; otherwise the latest earlier row is
	// returned so the caller can tell the range has ended.
	query := `
		SELECT route, sleeper_class, seated_fare_pence, effective_from, effective_to
		FROM seated_fare_equivalents
		WHERE route = $1 AND sleeper_class = $2 AND effective_from <= $3::date
		ORDER BY (effective_to IS NULL OR effective_to >= $3::date) DESC, effective_from DESC
		LIMIT 1
	`
	var (
		row models.SeatedFareEquivalent
		to  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query,
		strings.ToUpper(route),
		strings.ToUpper(sleeperClass),
		models.DateOnly(date).Format(seedDateLayout),
	).Scan(&row.Route, &row.SleeperClass, &row.SeatedFarePence, &row.EffectiveFrom, &to)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("seated equivalent for %s %s: %w", route, sleeperClass, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find seated equivalent: %w", err)
	}
	row.EffectiveFrom = models.DateOnly(row.EffectiveFrom)
	if to.Valid {
		t := models.DateOnly(to.Time)
		row.EffectiveTo = &t
	}
	return &row, nil
}

// Apply upserts a dataset in one transaction. Band tables for each scheme
// in the dataset are replaced wholesale.
func (s *PostgresStore) Apply(ctx context.Context, ds *Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reference data tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rp := range ds.Rulepacks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO operator_rulepacks (operator_code, name, scheme, active, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (operator_code) DO UPDATE
			SET name = EXCLUDED.name, scheme = EXCLUDED.scheme, active = EXCLUDED.active, updated_at = now()
		`, rp.OperatorCode, rp.Name, rp.Scheme.String(), rp.Active)
		if err != nil {
			return fmt.Errorf("upsert rulepack %s: %w", rp.OperatorCode, err)
		}
	}

	for scheme, table := range ds.Tables {
		if _, err = tx.ExecContext(ctx, `DELETE FROM compensation_bands WHERE scheme = $1`, scheme.String()); err != nil {
			return fmt.Errorf("clear bands for %s: %w", scheme, err)
		}
		for _, b := range table.Bands() {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO compensation_bands (scheme, threshold_minutes, percentage)
				VALUES ($1, $2, $3)
			`, scheme.String(), b.Threshold, b.Percentage)
			if err != nil {
				return fmt.Errorf("insert band %s: %w", b.RuleID(scheme), err)
			}
		}
	}

	for _, row := range ds.SeatedFares {
		var to any
		if row.EffectiveTo != nil {
			to = row.EffectiveTo.Format(seedDateLayout)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO seated_fare_equivalents (route, sleeper_class, seated_fare_pence, effective_from, effective_to)
			VALUES ($1, $2, $3, $4::date, $5::date)
			ON CONFLICT (route, sleeper_class, effective_from) DO UPDATE
			SET seated_fare_pence = EXCLUDED.seated_fare_pence, effective_to = EXCLUDED.effective_to
		`, row.Route, row.SleeperClass, row.SeatedFarePence, row.EffectiveFrom.Format(seedDateLayout), to)
		if err != nil {
			return fmt.Errorf("upsert seated fare %s %s: %w", row.Route, row.SleeperClass, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reference data: %w", err)
	}
	return nil
}
