// Package service orchestrates eligibility evaluation: idempotency, rule
// evaluation, and the paired evaluation and outbox writes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/apportion"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/compensation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/metrics"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/restriction"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/sleeper"
	dErrors "github.com/loloatlo/railrepay-eligibility-engine/pkg/domain-errors"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/sentinel"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/requestcontext"
)

const (
	RuleUnknownOperator  = "UNKNOWN_OPERATOR"
	RuleOperatorInactive = "OPERATOR_INACTIVE"
	restrictionRuleIDFmt = "RESTRICTION_%s"
)

// path distinguishes the synchronous call contract from the event-driven one.
// They differ only in how unknown and inactive operators are handled.
type path string

const (
	pathSync  path = "sync"
	pathAsync path = "async"
)

// Service evaluates journeys against operator compensation schemes.
type Service struct {
	evaluations EvaluationReader
	refdata     ReferenceData
	tx          Tx
	validator   *restriction.Validator
	capper      *sleeper.Capper
	apportioner *apportion.Apportioner
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithRestrictionValidator replaces the default bank holiday calendar and
// peak windows.
func WithRestrictionValidator(v *restriction.Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// WithClock overrides the request time carried in the context.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(evaluations EvaluationReader, refdata ReferenceData, tx Tx, opts ...Option) *Service {
	s := &Service{
		evaluations: evaluations,
		refdata:     refdata,
		tx:          tx,
		capper:      sleeper.New(refdata),
		apportioner: apportion.New(refdata),
		logger:      slog.Default(),
		tracer:      otel.Tracer("railrepay/eligibility"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = restriction.New()
	}
	return s
}

// Evaluate is the synchronous path. Unknown and inactive operators are
// reported to the caller as errors.
func (s *Service) Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.Evaluation, error) {
	return s.run(ctx, req, pathSync)
}

// EvaluateDelayConfirmation is the event-driven path. Unknown and inactive
// operators are recorded as ineligible evaluations so the event is never
// redelivered forever.
func (s *Service) EvaluateDelayConfirmation(ctx context.Context, confirmation models.DelayConfirmation) (*models.Evaluation, error) {
	return s.run(ctx, confirmation.ToEvaluateRequest(), pathAsync)
}

// Get returns the stored evaluation for a journey.
func (s *Service) Get(ctx context.Context, journeyID string) (*models.Evaluation, error) {
	journeyID = strings.TrimSpace(journeyID)
	if journeyID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "journey_id is required")
	}
	evaluation, err := s.evaluations.FindByJourneyID(ctx, journeyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "evaluation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evaluation")
	}
	return evaluation, nil
}

// ValidateRestrictions checks ticket restriction codes without evaluating a journey.
func (s *Service) ValidateRestrictions(_ context.Context, codes []string, journeyDate, departureTime string) (restriction.Result, error) {
	return s.validator.Validate(codes, journeyDate, departureTime)
}

func (s *Service) run(ctx context.Context, req models.EvaluateRequest, p path) (_ *models.Evaluation, err error) {
	ctx, span := s.tracer.Start(ctx, "eligibility.evaluate", trace.WithAttributes(
		attribute.String("eligibility.path", string(p)),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("eligibility.journey_id", req.JourneyID),
		attribute.String("eligibility.operator_code", req.OperatorCode),
	)

	existing, err := s.evaluations.FindByJourneyID(ctx, req.JourneyID)
	switch {
	case err == nil:
		s.metrics.IncrementIdempotentHit()
		s.logger.DebugContext(ctx, "evaluation already exists",
			"journey_id", req.JourneyID,
		)
		return existing, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing evaluation")
	}

	evaluation, err := s.evaluate(ctx, req, p)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, evaluation, p)
}

func (s *Service) evaluate(ctx context.Context, req models.EvaluateRequest, p path) (*models.Evaluation, error) {
	delay := req.ResolveDelayMinutes()

	pack, err := s.refdata.FindRulepack(ctx, req.OperatorCode)
	if errors.Is(err, sentinel.ErrNotFound) {
		if p == pathSync {
			return nil, dErrors.New(dErrors.CodeUnknownOperator, fmt.Sprintf("operator %s is not recognised", req.OperatorCode))
		}
		e := s.newEvaluation(ctx, req, "", delay)
		e.Reasons = append(e.Reasons, fmt.Sprintf("operator %s is not recognised", req.OperatorCode))
		e.AppliedRules = append(e.AppliedRules, RuleUnknownOperator)
		return e, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load operator rulepack")
	}
	if !pack.Active {
		if p == pathSync {
			return nil, dErrors.New(dErrors.CodeOperatorInactive, fmt.Sprintf("operator %s is not active", req.OperatorCode))
		}
		e := s.newEvaluation(ctx, req, pack.Scheme.String(), delay)
		e.Reasons = append(e.Reasons, fmt.Sprintf("operator %s is not active", req.OperatorCode))
		e.AppliedRules = append(e.AppliedRules, RuleOperatorInactive)
		return e, nil
	}

	e := s.newEvaluation(ctx, req, pack.Scheme.String(), delay)
	if len(req.Segments) == 0 {
		if err := s.applyBand(ctx, e, pack.Scheme); err != nil {
			return nil, err
		}
	}

	blocked, err := s.applyRestrictions(e, req)
	if err != nil {
		return nil, err
	}
	if blocked {
		return e, nil
	}

	if len(req.Segments) > 0 {
		return e, s.applyApportionment(ctx, e, req)
	}
	if e.Eligible && req.IsSleeper && req.Route != "" && req.SleeperClass != "" {
		if err := s.applySleeperCap(ctx, e, req); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (s *Service) applyBand(ctx context.Context, e *models.Evaluation, scheme compensation.Scheme) error {
	table, err := s.refdata.BandTable(ctx, scheme)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load compensation bands")
	}
	band, ok := table.Resolve(e.DelayMinutes)
	if !ok {
		e.Reasons = append(e.Reasons, fmt.Sprintf("delay of %d minutes is below the %d minute %s threshold",
			e.DelayMinutes, table.LowestThreshold(), scheme))
		e.AppliedRules = append(e.AppliedRules, scheme.String()+"_BELOW_THRESHOLD")
		return nil
	}
	e.Eligible = true
	e.CompensationPercentage = band.Percentage
	e.CompensationPence = compensation.Amount(e.FarePence, band.Percentage)
	e.Reasons = append(e.Reasons, fmt.Sprintf("delay of %d minutes qualifies for %d%% compensation under %s",
		e.DelayMinutes, band.Percentage, scheme))
	e.AppliedRules = append(e.AppliedRules, band.RuleID(scheme))
	return nil
}

// applyRestrictions marks the evaluation ineligible when a restriction code
// blocks travel. Unrecognised-code notes are kept as reasons.
func (s *Service) applyRestrictions(e *models.Evaluation, req models.EvaluateRequest) (bool, error) {
	if len(req.RestrictionCodes) == 0 {
		return false, nil
	}
	res, err := s.validator.Validate(req.RestrictionCodes, req.JourneyDate, req.DepartureTime)
	if err != nil {
		return false, err
	}
	e.Reasons = append(e.Reasons, res.Notes...)
	if res.Valid {
		return false, nil
	}
	e.Eligible = false
	e.CompensationPercentage = 0
	e.CompensationPence = 0
	e.Reasons = append(e.Reasons, res.Reason)
	e.AppliedRules = append(e.AppliedRules, fmt.Sprintf(restrictionRuleIDFmt, res.BlockingCode))
	return true, nil
}

// applyApportionment builds the decision from the independently evaluated
// segments; the lead operator's band plays no part. The journey percentage is
// the one every paying segment shares, or 0 when they differ or none pays.
func (s *Service) applyApportionment(ctx context.Context, e *models.Evaluation, req models.EvaluateRequest) error {
	res, err := s.apportioner.Apportion(ctx, req.JourneyID, e.DelayMinutes, req.FarePence, req.Segments)
	if err != nil {
		return err
	}
	e.Segments = res.Segments
	e.CompensationPence = res.TotalCompensationPence
	e.Eligible = false
	e.CompensationPercentage = 0

	shared := -1
	for _, seg := range res.Segments {
		if seg.Note != "" {
			e.Reasons = append(e.Reasons, seg.Note)
		}
		if !seg.Eligible {
			continue
		}
		e.Eligible = true
		e.Reasons = append(e.Reasons, fmt.Sprintf("segment %d (%s) qualifies for %d%% compensation under %s",
			seg.Order, seg.OperatorCode, seg.CompensationPercentage, seg.Scheme))
		if !slices.Contains(e.AppliedRules, seg.AppliedRule) {
			e.AppliedRules = append(e.AppliedRules, seg.AppliedRule)
		}
		switch shared {
		case -1:
			shared = seg.CompensationPercentage
		case seg.CompensationPercentage:
		default:
			shared = 0
		}
	}
	if shared > 0 {
		e.CompensationPercentage = shared
	}
	if !e.Eligible {
		e.Reasons = append(e.Reasons, fmt.Sprintf("no segment qualifies for compensation at a delay of %d minutes", e.DelayMinutes))
	}
	e.Reasons = append(e.Reasons, fmt.Sprintf("fare apportioned across %d segments", len(res.Segments)))
	e.AppliedRules = append(e.AppliedRules, apportion.RuleID)
	return nil
}

func (s *Service) applySleeperCap(ctx context.Context, e *models.Evaluation, req models.EvaluateRequest) error {
	pct := e.CompensationPercentage
	res, err := s.capper.Cap(ctx, sleeper.CapRequest{
		Route:                       req.Route,
		SleeperClass:                req.SleeperClass,
		SleeperFarePence:            req.FarePence,
		CalculatedCompensationPence: e.CompensationPence,
		JourneyDate:                 s.journeyDate(ctx, req),
		Percentage:                  &pct,
	})
	if err != nil {
		return err
	}
	if res.Note != "" {
		e.Reasons = append(e.Reasons, res.Note)
	}
	if res.CapApplied {
		e.CompensationPence = res.CompensationPence
		e.AppliedRules = append(e.AppliedRules, sleeper.RuleID)
	}
	return nil
}

func (s *Service) clock(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

// journeyDate prefers the explicit journey date, then the scheduled arrival,
// then today.
func (s *Service) journeyDate(ctx context.Context, req models.EvaluateRequest) time.Time {
	if req.JourneyDate != "" {
		if d, err := restriction.ParseDate(req.JourneyDate); err == nil {
			return d
		}
	}
	if req.ScheduledArrival != nil {
		return models.DateOnly(req.ScheduledArrival.UTC())
	}
	return models.DateOnly(s.clock(ctx).UTC())
}

func (s *Service) newEvaluation(ctx context.Context, req models.EvaluateRequest, scheme string, delay int) *models.Evaluation {
	now := s.clock(ctx).UTC().Truncate(time.Microsecond)
	return &models.Evaluation{
		ID:            uuid.NewString(),
		JourneyID:     req.JourneyID,
		OperatorCode:  req.OperatorCode,
		Scheme:        scheme,
		DelayMinutes:  delay,
		FarePence:     req.FarePence,
		Reasons:       []string{},
		AppliedRules:  []string{},
		CorrelationID: req.CorrelationID,
		EvaluatedAt:   now,
		CreatedAt:     now,
	}
}

// persist writes the evaluation and its outbox event in one transaction. A
// lost race for the journey id returns the committed winner instead.
func (s *Service) persist(ctx context.Context, e *models.Evaluation, p path) (*models.Evaluation, error) {
	event, err := newOutboxEvent(e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build outbox event")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, stores TxStores) error {
		if err := stores.Evaluations.Create(ctx, e); err != nil {
			return err
		}
		return stores.Outbox.Append(ctx, event)
	})
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncrementInsertConflict()
		winner, findErr := s.evaluations.FindByJourneyID(ctx, e.JourneyID)
		if findErr != nil {
			return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to load concurrent evaluation")
		}
		s.logger.InfoContext(ctx, "evaluation created concurrently; returning existing record",
			"journey_id", e.JourneyID,
			"evaluation_id", winner.ID,
		)
		return winner, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist evaluation",
			"journey_id", e.JourneyID,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist evaluation")
	}

	outcome := "ineligible"
	if e.Eligible {
		outcome = "eligible"
	}
	s.metrics.IncrementEvaluation(string(p), outcome)
	s.logger.InfoContext(ctx, "evaluation recorded",
		"journey_id", e.JourneyID,
		"operator_code", e.OperatorCode,
		"eligible", e.Eligible,
		"compensation_pence", e.CompensationPence,
		"correlation_id", e.CorrelationID,
	)
	return e, nil
}
