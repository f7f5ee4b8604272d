package outbox

import (
	"context"
	"sync"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
)

// InMemory keeps outbox events in append order.
type InMemory struct {
	mu     sync.RWMutex
	events []*models.OutboxEvent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event *models.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *event
	s.events = append(s.events, &c)
	return nil
}

// ListByAggregateID returns the events recorded for one aggregate, oldest first.
func (s *InMemory) ListByAggregateID(_ context.Context, aggregateID string) ([]*models.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OutboxEvent
	for _, e := range s.events {
		if e.AggregateID == aggregateID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
