package service

import (
	"context"
	"sync"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

// defaultTxTimeout is the maximum duration for an evaluation transaction.
const defaultTxTimeout = 5 * time.Second

type evaluationStore interface {
	EvaluationReader
	EvaluationWriter
}

// InMemoryTx gives the memory stores transactional semantics with a coarse
// lock: writes are staged while fn runs and applied only if fn succeeds.
type InMemoryTx struct {
	mu          sync.Mutex
	evaluations evaluationStore
	outbox      OutboxWriter
	timeout     time.Duration
}

func NewInMemoryTx(evaluations evaluationStore, outbox OutboxWriter, timeout time.Duration) *InMemoryTx {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &InMemoryTx{evaluations: evaluations, outbox: outbox, timeout: timeout}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	staged := &stagedWrites{}
	if err := fn(ctx, TxStores{Evaluations: staged, Outbox: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Every writer goes through this lock, so checking before applying keeps
	// a conflict from leaving half the writes behind.
	for _, e := range staged.evaluations {
		if _, err := t.evaluations.FindByJourneyID(ctx, e.JourneyID); err == nil {
			return sentinel.ErrConflict
		}
	}
	for _, e := range staged.evaluations {
		if err := t.evaluations.Create(ctx, e); err != nil {
			return err
		}
	}
	for _, ev := range staged.events {
		if err := t.outbox.Append(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

type stagedWrites struct {
	evaluations []*models.Evaluation
	events      []*models.OutboxEvent
}

func (w *stagedWrites) Create(_ context.Context, e *models.Evaluation) error {
	for _, existing := range w.evaluations {
		if existing.JourneyID == e.JourneyID {
			return sentinel.ErrConflict
		}
	}
	w.evaluations = append(w.evaluations, e)
	return nil
}

func (w *stagedWrites) Append(_ context.Context, ev *models.OutboxEvent) error {
	w.events = append(w.events, ev)
	return nil
}
