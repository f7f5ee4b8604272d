// Package sleeper bounds sleeper-ticket compensation by the seated fare
// equivalent for the same route.
package sleeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
)

// RuleID is recorded on evaluations whose compensation was capped.
const RuleID = "SLEEPER_SEATED_CAP"

// SeatedFareLookup finds the seated equivalent row for a route and class.
// It returns the row covering date if any, otherwise the most recent row that
// started on or before date, or sentinel.ErrNotFound.
type SeatedFareLookup interface {
	FindSeatedEquivalent(ctx context.Context, route, sleeperClass string, date time.Time) (*models.SeatedFareEquivalent, error)
}

type CapRequest struct {
	Route                       string
	SleeperClass                string
	SleeperFarePence            int64
	CalculatedCompensationPence int64
	JourneyDate                 time.Time
	// Percentage is the band percentage already applied to the sleeper fare.
	Percentage *int
}

type CappedResult struct {
	CompensationPence         int64
	OriginalCompensationPence int64
	SeatedEquivalentPence     int64
	CapApplied                bool
	Note                      string
}

type Capper struct {
	lookup SeatedFareLookup
}

func New(lookup SeatedFareLookup) *Capper {
	return &Capper{lookup: lookup}
}

func (c *Capper) Cap(ctx context.Context, req CapRequest) (CappedResult, error) {
	res := CappedResult{
		CompensationPence:         req.CalculatedCompensationPence,
		OriginalCompensationPence: req.CalculatedCompensationPence,
	}

	row, err := c.lookup.FindSeatedEquivalent(ctx, req.Route, req.SleeperClass, req.JourneyDate)
	if errors.Is(err, sentinel.ErrNotFound) {
		res.Note = fmt.Sprintf("no seated fare equivalent for %s %s; cap not applied", req.Route, req.SleeperClass)
		return res, nil
	}
	if err != nil {
		return CappedResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up seated fare equivalent")
	}
	if !row.Covers(req.JourneyDate) {
		res.Note = fmt.Sprintf("seated fare equivalent for %s %s ended before %s; cap not applied",
			req.Route, req.SleeperClass, req.JourneyDate.Format("2006-01-02"))
		return res, nil
	}
	res.SeatedEquivalentPence = row.SeatedFarePence

	if req.Percentage != nil {
		res.CompensationPence = row.SeatedFarePence * int64(*req.Percentage) / 100
		res.CapApplied = true
		res.Note = fmt.Sprintf("capped at %d%% of seated equivalent %d", *req.Percentage, row.SeatedFarePence)
		return res, nil
	}

	if req.CalculatedCompensationPence <= row.SeatedFarePence {
		res.Note = "compensation within seated equivalent; cap not applied"
		return res, nil
	}
	if req.SleeperFarePence <= 0 {
		return CappedResult{}, dErrors.New(dErrors.CodeValidation, "sleeper fare must be positive to derive a cap")
	}
	res.CompensationPence = row.SeatedFarePence * req.CalculatedCompensationPence / req.SleeperFarePence
	res.CapApplied = true
	res.Note = fmt.Sprintf("capped proportionally to seated equivalent %d", row.SeatedFarePence)
	return res, nil
}
