// Package refdata provides the read-only reference data the evaluation
// engine consults: operator rulepacks, compensation bands and sleeper seated
// fare equivalents.
package refdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

type seatedKey struct {
	route, class string
}

// InMemory serves reference data from memory. It is safe for concurrent reads
// and may be reloaded with Load.
type InMemory struct {
	mu        sync.RWMutex
	rulepacks map[string]models.OperatorRulepack
	tables    map[compensation.Scheme]*compensation.Table
	seated    map[seatedKey][]models.SeatedFareEquivalent
}

func NewInMemory(ds *Dataset) *InMemory {
	s := &InMemory{}
	s.Load(ds)
	return s
}

// Load replaces the stored reference data.
func (s *InMemory) Load(ds *Dataset) {
	rulepacks := make(map[string]models.OperatorRulepack, len(ds.Rulepacks))
	for _, rp := range ds.Rulepacks {
		rulepacks[rp.OperatorCode] = rp
	}
	tables := make(map[compensation.Scheme]*compensation.Table, len(ds.Tables))
	for k, v := range ds.Tables {
		tables[k] = v
	}
	seated := make(map[seatedKey][]models.SeatedFareEquivalent)
	for _, row := range ds.SeatedFares {
		k := seatedKey{row.Route, row.SleeperClass}
		seated[k] = append(seated[k], row)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rulepacks = rulepacks
	s.tables = tables
	s.seated = seated
}

func (s *InMemory) FindRulepack(_ context.Context, operatorCode string) (*models.OperatorRulepack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.rulepacks[strings.ToUpper(operatorCode)]
	if !ok {
		return nil, fmt.Errorf("rulepack for operator %s: %w", operatorCode, sentinel.ErrNotFound)
	}
	return &rp, nil
}

func (s *InMemory) BandTable(_ context.Context, scheme compensation.Scheme) (*compensation.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[scheme]
	if !ok {
		return nil, fmt.Errorf("bands for scheme %s: %w", scheme, sentinel.ErrNotFound)
	}
	return t, nil
}

func (s *InMemory) FindSeatedEquivalent(_ context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error) {
	s.mu.RLock()
	rows := s.seated[seatedKey{strings.ToUpper(route), strings.ToUpper(sleeperClass)}]
	s.mu.RUnlock()

	row, ok := selectSeated(rows, date)
	if !ok {
		return nil, fmt.Errorf("seated equivalent for %s %s: %w", route, sleeperClass, sentinel.ErrNotFound)
	}
	return &row, nil
}

// selectSeated picks the row covering date with the latest effective_from.
// When no row covers date it falls back to the latest row that started on or
// before it, so the caller can report that the range has ended.
func selectSeated(rows []models.SeatedFareEquivalent, date time.Time) (models.SeatedFareEquivalent, bool) {
	day := models.DateOnly(date)
	var (
		covering, latest       models.SeatedFareEquivalent
		hasCovering, hasLatest bool
	)
	for _, row := range rows {
		if models.DateOnly(row.EffectiveFrom).After(day) {
			continue
		}
		if !hasLatest || row.EffectiveFrom.After(latest.EffectiveFrom) {
			latest, hasLatest = row, true
		}
		if row.Covers(day) && (!hasCovering || row.EffectiveFrom.After(covering.EffectiveFrom)) {
			covering, hasCovering = row, true
		}
	}
	if hasCovering {
		return covering, true
	}
	return latest, hasLatest
}
