package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
)

const maxJourneyIDLength = 128

// EvaluateRequest is the transport-independent input of an evaluation.
// Either DelayMinutes or both arrival timestamps must be supplied.
type EvaluateRequest struct {
	JourneyID        string
	OperatorCode     string
	DelayMinutes     *int
	ScheduledArrival *time.Time
	ActualArrival    *time.Time
	FarePence        int64
	TicketClass      string
	TicketType       string
	RestrictionCodes []string
	JourneyDate      string
	DepartureTime    string
	IsSleeper        bool
	Route            string
	SleeperClass     string
	Segments         []JourneySegment
	CorrelationID    string
}

// Normalize trims identifiers and upper-cases operator codes. Segments are
// copied first so the caller's slice is left untouched.
func (r *EvaluateRequest) Normalize() {
	r.JourneyID = strings.TrimSpace(r.JourneyID)
	r.OperatorCode = strings.ToUpper(strings.TrimSpace(r.OperatorCode))
	r.Route = strings.ToUpper(strings.TrimSpace(r.Route))
	r.SleeperClass = strings.ToUpper(strings.TrimSpace(r.SleeperClass))
	r.JourneyDate = strings.TrimSpace(r.JourneyDate)
	r.DepartureTime = strings.TrimSpace(r.DepartureTime)
	r.Segments = slices.Clone(r.Segments)
	for i := range r.Segments {
		r.Segments[i].OperatorCode = strings.ToUpper(strings.TrimSpace(r.Segments[i].OperatorCode))
	}
}

// Validate checks the fields every evaluation path needs. Segment fare sums
// are checked by the apportioner, not here.
func (r *EvaluateRequest) Validate() error {
	if r.JourneyID == "" {
		return dErrors.New(dErrors.CodeValidation, "journey_id is required")
	}
	if len(r.JourneyID) > maxJourneyIDLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("journey_id must be at most %d characters", maxJourneyIDLength))
	}
	if r.OperatorCode == "" {
		return dErrors.New(dErrors.CodeValidation, "operator_code is required")
	}
	if r.DelayMinutes == nil {
		if r.ScheduledArrival == nil || r.ActualArrival == nil {
			return dErrors.New(dErrors.CodeValidation, "delay_minutes or both scheduled_arrival and actual_arrival are required")
		}
	}
	if r.FarePence < 0 {
		return dErrors.New(dErrors.CodeValidation, "fare_pence must not be negative")
	}
	if len(r.RestrictionCodes) > 0 && (r.JourneyDate == "" || r.DepartureTime == "") {
		return dErrors.New(dErrors.CodeValidation, "journey_date and departure_time are required with restriction_codes")
	}
	for _, seg := range r.Segments {
		if seg.OperatorCode == "" {
			return dErrors.New(dErrors.CodeValidation, "segment operator_code is required")
		}
	}
	return nil
}

// ResolveDelayMinutes returns the non-negative delay used for evaluation.
func (r *EvaluateRequest) ResolveDelayMinutes() int {
	if r.DelayMinutes != nil {
		return max(0, *r.DelayMinutes)
	}
	return DelayMinutes(*r.ScheduledArrival, *r.ActualArrival)
}

// DelayMinutes is max(0, floor((actual - scheduled) in minutes)). Early and
// on-time arrivals are zero.
func DelayMinutes(scheduled, actual time.Time) int {
	diff := actual.Sub(scheduled)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}

// DelayConfirmation is the asynchronous notification that a journey's delay
// has been confirmed upstream.
type DelayConfirmation struct {
	JourneyID        string
	OperatorCode     string
	ScheduledArrival *time.Time
	ActualArrival    *time.Time
	DelayMinutes     *int
	FarePence        int64
	CorrelationID    string
}

// ToEvaluateRequest adapts the notification to the evaluation input.
func (d DelayConfirmation) ToEvaluateRequest() EvaluateRequest {
	return EvaluateRequest{
		JourneyID:        d.JourneyID,
		OperatorCode:     d.OperatorCode,
		DelayMinutes:     d.DelayMinutes,
		ScheduledArrival: d.ScheduledArrival,
		ActualArrival:    d.ActualArrival,
		FarePence:        d.FarePence,
		CorrelationID:    d.CorrelationID,
	}
}
