package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/service"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/evaluation"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/outbox"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/eligibility/store/refdata"
	"github.com/loloatlo/railrepay-eligibility-engine/internal/platform/middleware"
	"github.com/loloatlo/railrepay-eligibility-engine/pkg/testutil"
)

type fixture struct {
	router http.Handler
	evals  *evaluation.InMemory
	outbox *outbox.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	evals := evaluation.NewInMemory()
	events := outbox.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.New(evals, refdata.NewInMemory(refdata.DefaultDataset()),
		service.NewInMemoryTx(evals, events, time.Second),
		service.WithLogger(logger),
	)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CorrelationID)
	New(svc, logger).Register(r)
	return &fixture{router: r, evals: evals, outbox: events}
}

func TestEvaluateEligibleJourney(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/evaluate", map[string]any{
		"journey_id":    "J-100",
		"operator_code": "gw",
		"delay_minutes": 20,
		"fare_pence":    1999,
	})
	req.Header.Set(middleware.HeaderCorrelationID, "corr-1")
	requestTime := time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC)
	rec := testutil.DoRequest(f.router, testutil.WithRequestTime(req, requestTime))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := testutil.DecodeJSON[EvaluationResponse](t, rec)
	assert.True(t, resp.Eligible)
	assert.Equal(t, "DR15", resp.Scheme)
	assert.Equal(t, 25, resp.CompensationPercentage)
	assert.Equal(t, int64(499), resp.CompensationPence)
	assert.Equal(t, "corr-1", resp.CorrelationID)
	assert.True(t, requestTime.Equal(resp.EvaluatedAt))
	assert.Equal(t, 1, f.outbox.Count())
}

func TestEvaluateThenFetchReturnsSameRecord(t *testing.T) {
	f := newFixture(t)

	body := map[string]any{
		"journey_id":        "J-200",
		"operator_code":     "VT",
		"scheduled_arrival": "2025-06-02T10:00:00Z",
		"actual_arrival":    "2025-06-02T10:45:00Z",
		"fare_pence":        4000,
	}
	first := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/evaluate", body))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	created := testutil.DecodeJSON[EvaluationResponse](t, first)
	assert.Equal(t, 45, created.DelayMinutes)

	got := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/eligibility/J-200"))
	require.Equal(t, http.StatusOK, got.Code)
	fetched := testutil.DecodeJSON[EvaluationResponse](t, got)
	assert.Equal(t, created, fetched)

	again := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/evaluate", body))
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, created, testutil.DecodeJSON[EvaluationResponse](t, again))
	assert.Equal(t, 1, f.evals.Count())
}

func TestEvaluateErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"journey_id":`, http.StatusBadRequest, "bad_request"},
		{"missing journey id", `{"operator_code":"GW","delay_minutes":10}`, http.StatusBadRequest, "validation_error"},
		{"missing delay", `{"journey_id":"J-1","operator_code":"GW"}`, http.StatusBadRequest, "validation_error"},
		{"unknown operator", `{"journey_id":"J-2","operator_code":"ZZ","delay_minutes":40,"fare_pence":100}`, http.StatusUnprocessableEntity, "unknown_operator"},
		{"inactive operator", `{"journey_id":"J-3","operator_code":"LE","delay_minutes":40,"fare_pence":100}`, http.StatusUnprocessableEntity, "operator_inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/eligibility/evaluate", tt.body))
			testutil.AssertError(t, rec, tt.status, tt.code)
		})
	}
	assert.Equal(t, 0, f.evals.Count())
}

func TestGetUnknownJourney(t *testing.T) {
	f := newFixture(t)

	rec := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/eligibility/J-missing"))
	testutil.AssertError(t, rec, http.StatusNotFound, "not_found")
}

func TestValidateRestrictions(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "an off-peak ticket on a Monday", func(t *testing.T) {
		testutil.When(t, "travel starts inside the evening peak", func(t *testing.T) {
			rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/restrictions/validate", map[string]any{
				"restriction_codes": []string{"op"},
				"journey_date":      "2025-06-02",
				"departure_time":    "18:59",
			}))
			testutil.Then(t, "the restriction blocks", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				resp := testutil.DecodeJSON[RestrictionResponse](t, rec)
				assert.False(t, resp.Valid)
				assert.Equal(t, "OP", resp.BlockingCode)
				testutil.And(t, "the reason names the departure time", func(t *testing.T) {
					assert.Contains(t, resp.Reason, "18:59")
				})
			})
		})
		testutil.When(t, "travel starts at the end of the peak", func(t *testing.T) {
			rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/restrictions/validate", map[string]any{
				"restriction_codes": []string{"OP"},
				"journey_date":      "2025-06-02",
				"departure_time":    "19:00",
			}))
			testutil.Then(t, "the restriction passes", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				assert.True(t, testutil.DecodeJSON[RestrictionResponse](t, rec).Valid)
			})
		})
	})

	rec := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/eligibility/restrictions/validate", map[string]any{
		"restriction_codes": []string{"OP"},
		"journey_date":      "2025-02-29",
		"departure_time":    "10:00",
	}))
	testutil.AssertError(t, rec, http.StatusBadRequest, "validation_error")
}
