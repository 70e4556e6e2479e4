package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulsecrm/pulsecrm/internal/analytics"
	"github.com/pulsecrm/pulsecrm/internal/api/response"
	"github.com/pulsecrm/pulsecrm/internal/engine"
	"github.com/pulsecrm/pulsecrm/internal/store"
)

// Analytics defines the pipeline operations the handlers depend on.
type Analytics interface {
	UpdateHealthScore(ctx context.Context, customerID uuid.UUID) (*analytics.ScoreResult, error)
	GenerateInsights(ctx context.Context, customerID uuid.UUID) (*analytics.InsightResult, error)
	GeneratePredictions(ctx context.Context, customerID uuid.UUID) (*analytics.PredictionResult, error)
	AnalyzeCustomer(ctx context.Context, customerID uuid.UUID) (*analytics.CustomerAnalysis, error)
	AnalyzeAll(ctx context.Context) (*analytics.BatchResult, error)
}

// NewScoreHandler returns an http.HandlerFunc for
// POST /api/v1/customers/{customerID}/score.
func NewScoreHandler(svc Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		result, err := svc.UpdateHealthScore(r.Context(), customerID)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewInsightsHandler returns an http.HandlerFunc for
// POST /api/v1/customers/{customerID}/insights.
func NewInsightsHandler(svc Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		result, err := svc.GenerateInsights(r.Context(), customerID)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewPredictionsHandler returns an http.HandlerFunc for
// POST /api/v1/customers/{customerID}/predictions.
func NewPredictionsHandler(svc Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		result, err := svc.GeneratePredictions(r.Context(), customerID)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewAnalyzeCustomerHandler returns an http.HandlerFunc for
// POST /api/v1/customers/{customerID}/analyze. It runs all three pipelines;
// partial failures are reported in step_errors rather than failing the call.
func NewAnalyzeCustomerHandler(svc Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		analysis, err := svc.AnalyzeCustomer(r.Context(), customerID)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, analysis)
	}
}

// NewBatchAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// The batch runs synchronously and responds with the aggregate result.
func NewBatchAnalyzeHandler(svc Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.AnalyzeAll(r.Context())
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

func customerIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "customerID")
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"customerID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeAnalyticsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND",
			"No customer exists with the given ID", nil)
	case errors.Is(err, engine.ErrScoreOutOfRange):
		response.Error(w, http.StatusUnprocessableEntity, "SCORE_OUT_OF_RANGE",
			"Computed health score fell outside the valid range", nil)
	case store.IsTransient(err):
		response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"The data store is temporarily unavailable", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
