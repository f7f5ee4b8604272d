package evaluation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

// InMemory stores evaluations in memory for tests and local runs. Records are
// copied on the way in and out so callers cannot mutate stored evaluations.
type InMemory struct {
	mu          sync.RWMutex
	evaluations map[string]*models.Evaluation
}

func NewInMemory() *InMemory {
	return &InMemory{evaluations: make(map[string]*models.Evaluation)}
}

func (s *InMemory) Create(_ context.Context, e *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.evaluations[e.JourneyID]; ok {
		return fmt.Errorf("evaluation for journey %s: %w", e.JourneyID, sentinel.ErrConflict)
	}
	s.evaluations[e.JourneyID] = clone(e)
	return nil
}

func (s *InMemory) FindByJourneyID(_ context.Context, journeyID string) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.evaluations[journeyID]; ok {
		return clone(e), nil
	}
	return nil, fmt.Errorf("evaluation for journey %s: %w", journeyID, sentinel.ErrNotFound)
}

// Count returns the number of stored evaluations.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.evaluations)
}

func clone(e *models.Evaluation) *models.Evaluation {
	c := *e
	c.Reasons = slices.Clone(e.Reasons)
	c.AppliedRules = slices.Clone(e.AppliedRules)
	c.Segments = slices.Clone(e.Segments)
	return &c
}
