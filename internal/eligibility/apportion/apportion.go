// Package apportion evaluates each operator's share of a multi-operator
// journey independently against that operator's own scheme.
package apportion

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

// RuleID is recorded on evaluations that were split across operators.
const RuleID = "MULTI_OPERATOR_APPORTIONED"

const maxConcurrentLookups = 8

// ReferenceData is the subset of reference data the apportioner reads.
type ReferenceData interface {
	FindRulepack(ctx context.Context, operatorCode string) (*models.OperatorRulepack, error)
	BandTable(ctx context.Context, scheme compensation.Scheme) (*compensation.Table, error)
}

type Result struct {
	Segments               []models.SegmentResult
	TotalCompensationPence int64
}

type Apportioner struct {
	refdata ReferenceData
}

func New(refdata ReferenceData) *Apportioner {
	return &Apportioner{refdata: refdata}
}

// Apportion checks preconditions before any lookup: at least one segment,
// non-negative portions, and portions summing exactly to totalFarePence.
func (a *Apportioner) Apportion(ctx context.Context, journeyID string, delayMinutes int, totalFarePence int64, segments []models.JourneySegment) (*Result, error) {
	if len(segments) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one journey segment is required")
	}
	var sum int64
	for _, seg := range segments {
		if seg.FarePortionPence < 0 {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("segment %d fare portion must not be negative", seg.Order))
		}
		sum += seg.FarePortionPence
	}
	if sum != totalFarePence {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("journey %s segment fare portions sum to %d, expected %d", journeyID, sum, totalFarePence))
	}

	tables, packs, err := a.loadReferenceData(ctx, segments)
	if err != nil {
		return nil, err
	}

	ordered := slices.Clone(segments)
	slices.SortStableFunc(ordered, func(x, y models.JourneySegment) int { return x.Order - y.Order })

	res := &Result{Segments: make([]models.SegmentResult, 0, len(ordered))}
	for _, seg := range ordered {
		sr := evaluateSegment(seg, packs[seg.OperatorCode], tables, delayMinutes)
		res.TotalCompensationPence += sr.CompensationPence
		res.Segments = append(res.Segments, sr)
	}
	return res, nil
}

func evaluateSegment(seg models.JourneySegment, pack *models.OperatorRulepack, tables map[compensation.Scheme]*compensation.Table, delay int) models.SegmentResult {
	sr := models.SegmentResult{
		OperatorCode:     seg.OperatorCode,
		Order:            seg.Order,
		FarePortionPence: seg.FarePortionPence,
	}
	if pack == nil {
		sr.Note = fmt.Sprintf("operator %s not recognised", seg.OperatorCode)
		return sr
	}
	sr.Scheme = pack.Scheme.String()
	if !pack.Active {
		sr.Note = fmt.Sprintf("operator %s is not active", seg.OperatorCode)
		return sr
	}
	band, ok := tables[pack.Scheme].Resolve(delay)
	if !ok {
		sr.Note = fmt.Sprintf("delay of %d minutes is below the %s threshold", delay, pack.Scheme)
		return sr
	}
	sr.Eligible = true
	sr.CompensationPercentage = band.Percentage
	sr.CompensationPence = compensation.Amount(seg.FarePortionPence, band.Percentage)
	sr.AppliedRule = band.RuleID(pack.Scheme)
	return sr
}

// loadReferenceData fetches one rulepack per distinct operator concurrently,
// then the band table of every scheme in use. Unknown operators map to nil.
func (a *Apportioner) loadReferenceData(ctx context.Context, segments []models.JourneySegment) (map[compensation.Scheme]*compensation.Table, map[string]*models.OperatorRulepack, error) {
	var operators []string
	for _, seg := range segments {
		if !slices.Contains(operators, seg.OperatorCode) {
			operators = append(operators, seg.OperatorCode)
		}
	}

	found := make([]*models.OperatorRulepack, len(operators))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, code := range operators {
		g.Go(func() error {
			pack, err := a.refdata.FindRulepack(gctx, code)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operator rulepack")
			}
			found[i] = pack
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	packs := make(map[string]*models.OperatorRulepack, len(operators))
	tables := make(map[compensation.Scheme]*compensation.Table)
	for i, code := range operators {
		packs[code] = found[i]
		if found[i] == nil || !found[i].Active {
			continue
		}
		if _, ok := tables[found[i].Scheme]; ok {
			continue
		}
		table, err := a.refdata.BandTable(ctx, found[i].Scheme)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load compensation bands")
		}
		tables[found[i].Scheme] = table
	}
	return tables, packs, nil
}
