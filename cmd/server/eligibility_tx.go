package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/service"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	txcontext "github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/tx"
)

const defaultEligibilityTxTimeout = 5 * time.Second

// eligibilityPostgresTx runs the evaluation and outbox inserts in one SQL
// transaction. Stores join it through the context.
type eligibilityPostgresTx struct {
	db      *sql.DB
	stores  service.TxStores
	timeout time.Duration
}

func newEligibilityPostgresTx(db *sql.DB, stores service.TxStores, timeout time.Duration) *eligibilityPostgresTx {
	return &eligibilityPostgresTx{db: db, stores: stores, timeout: timeout}
}

func (t *eligibilityPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultEligibilityTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return timeoutOr(ctx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return timeoutOr(ctx, err)
	}
	if err := tx.Commit(); err != nil {
		return timeoutOr(ctx, err)
	}
	return nil
}

func timeoutOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return err
}
