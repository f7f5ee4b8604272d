package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/models"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/restriction"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/platform/httputil"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/requestcontext"
)

// Service defines the eligibility operations exposed over HTTP.
type Service interface {
	Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.Evaluation, error)
	Get(ctx context.Context, journeyID string) (*models.Evaluation, error)
	ValidateRestrictions(ctx context.Context, codes []string, journeyDate, departureTime string) (restriction.Result, error)
}

// Handler wires eligibility endpoints to the eligibility service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts eligibility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/eligibility/evaluate", h.HandleEvaluate)
	r.Post("/eligibility/restrictions/validate", h.HandleValidateRestrictions)
	r.Get("/eligibility/{journeyID}", h.HandleGet)
}

// HandleEvaluate handles POST /eligibility/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	domainReq := req.Parsed()
	domainReq.CorrelationID = requestcontext.CorrelationID(ctx)

	evaluation, err := h.service.Evaluate(ctx, domainReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility evaluation failed",
			"request_id", requestID,
			"journey_id", domainReq.JourneyID,
			"operator_code", domainReq.OperatorCode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "eligibility evaluated",
		"request_id", requestID,
		"journey_id", evaluation.JourneyID,
		"eligible", evaluation.Eligible,
		"compensation_pence", evaluation.CompensationPence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromEvaluation(evaluation))
}

// HandleGet handles GET /eligibility/{journeyID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	journeyID := chi.URLParam(r, "journeyID")

	evaluation, err := h.service.Get(ctx, journeyID)
	if err != nil {
		h.logger.WarnContext(ctx, "eligibility lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"journey_id", journeyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvaluation(evaluation))
}

// HandleValidateRestrictions handles POST /eligibility/restrictions/validate.
func (h *Handler) HandleValidateRestrictions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateRestrictionsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.ValidateRestrictions(ctx, req.RestrictionCodes, req.JourneyDate, req.DepartureTime)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRestrictionResult(result))
}
