package handler

import (
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/restriction"
)

// EvaluationResponse is returned by both the evaluate and fetch endpoints.
type EvaluationResponse struct {
	JourneyID              string                 `json:"journey_id"`
	OperatorCode           string                 `json:"operator_code"`
	Eligible               bool                   `json:"eligible"`
	Scheme                 string                 `json:"scheme"`
	DelayMinutes           int                    `json:"delay_minutes"`
	CompensationPercentage int                    `json:"compensation_percentage"`
	CompensationPence      int64                  `json:"compensation_pence"`
	FarePence              int64                  `json:"fare_pence"`
	Reasons                []string               `json:"reasons"`
	AppliedRules           []string               `json:"applied_rules"`
	Segments               []models.SegmentResult `json:"segments,omitempty"`
	CorrelationID          string                 `json:"correlation_id,omitempty"`
	EvaluatedAt            time.Time              `json:"evaluated_at"`
}

// FromEvaluation converts a stored evaluation into its HTTP shape.
func FromEvaluation(e *models.Evaluation) *EvaluationResponse {
	resp := &EvaluationResponse{
		JourneyID:              e.JourneyID,
		OperatorCode:           e.OperatorCode,
		Eligible:               e.Eligible,
		Scheme:                 e.Scheme,
		DelayMinutes:           e.DelayMinutes,
		CompensationPercentage: e.CompensationPercentage,
		CompensationPence:      e.CompensationPence,
		FarePence:              e.FarePence,
		Reasons:                e.Reasons,
		AppliedRules:           e.AppliedRules,
		Segments:               e.Segments,
		CorrelationID:          e.CorrelationID,
		EvaluatedAt:            e.EvaluatedAt,
	}
	if resp.Reasons == nil {
		resp.Reasons = []string{}
	}
	if resp.AppliedRules == nil {
		resp.AppliedRules = []string{}
	}
	return resp
}

type RestrictionResponse struct {
	Valid        bool     `json:"valid"`
	CodesChecked []string `json:"codes_checked"`
	BlockingCode string   `json:"blocking_code,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	Notes        []string `json:"notes,omitempty"`
}

func FromRestrictionResult(r restriction.Result) *RestrictionResponse {
	resp := &RestrictionResponse{
		Valid:        r.Valid,
		CodesChecked: r.CodesChecked,
		BlockingCode: r.BlockingCode,
		Reason:       r.Reason,
		Notes:        r.Notes,
	}
	if resp.CodesChecked == nil {
		resp.CodesChecked = []string{}
	}
	return resp
}
