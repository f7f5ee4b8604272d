package handler

import (
	"strings"
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /eligibility/evaluate.
type EvaluateRequest struct {
	JourneyID        string           `json:"journey_id"`
	OperatorCode     string           `json:"operator_code"`
	DelayMinutes     *int             `json:"delay_minutes,omitempty"`
	ScheduledArrival *time.Time       `json:"scheduled_arrival,omitempty"`
	ActualArrival    *time.Time       `json:"actual_arrival,omitempty"`
	FarePence        int64            `json:"fare_pence"`
	TicketClass      string           `json:"ticket_class,omitempty"`
	TicketType       string           `json:"ticket_type,omitempty"`
	RestrictionCodes []string         `json:"restriction_codes,omitempty"`
	JourneyDate      string           `json:"journey_date,omitempty"`
	DepartureTime    string           `json:"departure_time,omitempty"`
	IsSleeper        bool             `json:"is_sleeper,omitempty"`
	Route            string           `json:"route,omitempty"`
	SleeperClass     string           `json:"sleeper_class,omitempty"`
	Segments         []SegmentRequest `json:"segments,omitempty"`

	parsed models.EvaluateRequest
}

// SegmentRequest is one leg of a multi-operator journey.
type SegmentRequest struct {
	OperatorCode     string `json:"operator_code"`
	FarePortionPence int64  `json:"fare_portion_pence"`
	Order            int    `json:"order"`
}

// Validate builds the domain request and validates it.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	req := models.EvaluateRequest{
		JourneyID:        r.JourneyID,
		OperatorCode:     r.OperatorCode,
		DelayMinutes:     r.DelayMinutes,
		ScheduledArrival: r.ScheduledArrival,
		ActualArrival:    r.ActualArrival,
		FarePence:        r.FarePence,
		TicketClass:      strings.TrimSpace(r.TicketClass),
		TicketType:       strings.TrimSpace(r.TicketType),
		RestrictionCodes: r.RestrictionCodes,
		JourneyDate:      r.JourneyDate,
		DepartureTime:    r.DepartureTime,
		IsSleeper:        r.IsSleeper,
		Route:            r.Route,
		SleeperClass:     r.SleeperClass,
	}
	if len(r.Segments) > 0 {
		req.Segments = make([]models.JourneySegment, len(r.Segments))
		for i, seg := range r.Segments {
			req.Segments[i] = models.JourneySegment{
				OperatorCode:     seg.OperatorCode,
				FarePortionPence: seg.FarePortionPence,
				Order:            seg.Order,
			}
		}
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	r.parsed = req
	return nil
}

// Parsed returns the validated domain request.
func (r *EvaluateRequest) Parsed() models.EvaluateRequest {
	return r.parsed
}

// ValidateRestrictionsRequest is the body of POST /eligibility/restrictions/validate.
type ValidateRestrictionsRequest struct {
	RestrictionCodes []string `json:"restriction_codes"`
	JourneyDate      string   `json:"journey_date"`
	DepartureTime    string   `json:"departure_time"`
}

func (r *ValidateRestrictionsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.JourneyDate = strings.TrimSpace(r.JourneyDate)
	r.DepartureTime = strings.TrimSpace(r.DepartureTime)
	if r.JourneyDate == "" || r.DepartureTime == "" {
		return dErrors.New(dErrors.CodeValidation, "journey_date and departure_time are required")
	}
	return nil
}
