package models

import (
	"time"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
)

// OperatorRulepack assigns a train operator to a compensation scheme.
// Exactly one rulepack exists per operator code.
type OperatorRulepack struct {
	OperatorCode string
	Name         string
	Scheme       compensation.Scheme
	Active       bool
}

// SeatedFareEquivalent caps sleeper compensation on a route. EffectiveTo is
// inclusive; nil means the row is still current.
type SeatedFareEquivalent struct {
	Route           string
	SleeperClass    string
	SeatedFarePence int64
	EffectiveFrom   time.Time
	EffectiveTo     *time.Time
}

// Covers reports whether the row's effective range contains date.
func (s SeatedFareEquivalent) Covers(date time.Time) bool {
	d := DateOnly(date)
	if d.Before(DateOnly(s.EffectiveFrom)) {
		return false
	}
	return !s.EndedBefore(d)
}

// EndedBefore reports whether the row's range closed before date.
func (s SeatedFareEquivalent) EndedBefore(date time.Time) bool {
	return s.EffectiveTo != nil && DateOnly(*s.EffectiveTo).Before(DateOnly(date))
}

// JourneySegment is one operator's leg of a multi-operator journey.
type JourneySegment struct {
	OperatorCode     string
	FarePortionPence int64
	Order            int
}

// SegmentResult is the independent evaluation of one segment.
type SegmentResult struct {
	OperatorCode           string `json:"operator_code"`
	Order                  int    `json:"order"`
	Scheme                 string `json:"scheme,omitempty"`
	FarePortionPence       int64  `json:"fare_portion_pence"`
	Eligible               bool   `json:"eligible"`
	CompensationPercentage int    `json:"compensation_percentage"`
	CompensationPence      int64  `json:"compensation_pence"`
	AppliedRule            string `json:"applied_rule,omitempty"`
	Note                   string `json:"note,omitempty"`
}

// Evaluation is the immutable compensation decision for one journey.
type Evaluation struct {
	ID                     string
	JourneyID              string
	OperatorCode           string
	Scheme                 string
	DelayMinutes           int
	Eligible               bool
	CompensationPercentage int
	CompensationPence      int64
	FarePence              int64
	Reasons                []string
	AppliedRules           []string
	Segments               []SegmentResult
	CorrelationID          string
	EvaluatedAt            time.Time
	CreatedAt              time.Time
}

// OutboxEvent is a not-yet-published record of an evaluation, written in the
// same transaction as the evaluation it describes.
type OutboxEvent struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

const (
	AggregateTypeEvaluation = "eligibility_evaluation"
	EventTypeEvaluated      = "eligibility.evaluated"
)

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
