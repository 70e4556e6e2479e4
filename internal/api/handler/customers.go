package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pulsecrm/pulsecrm/internal/api/response"
	"github.com/pulsecrm/pulsecrm/internal/store"
	"github.com/pulsecrm/pulsecrm/pkg/models"
)

// ProfileReader reads customer profiles from the store.
type ProfileReader interface {
	GetCustomerProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error)
	ListCustomerProfiles(ctx context.Context, filter store.ProfileFilter) ([]*models.CustomerProfile, int, error)
}

// InsightReader reads stored insights, typically through the service cache.
type InsightReader interface {
	ListInsights(ctx context.Context, filter store.InsightFilter) ([]*models.CustomerInsight, int, error)
}

// PredictionReader reads stored predictions, typically through the service cache.
type PredictionReader interface {
	ListPredictions(ctx context.Context, filter store.PredictionFilter) ([]*models.CustomerPrediction, int, error)
}

// NewGetCustomerHandler returns an http.HandlerFunc for
// GET /api/v1/customers/{customerID}.
func NewGetCustomerHandler(reader ProfileReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		profile, err := reader.GetCustomerProfile(r.Context(), customerID)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.JSON(w, profile)
	}
}

// NewListCustomersHandler returns an http.HandlerFunc for GET /api/v1/customers.
func NewListCustomersHandler(reader ProfileReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.ProfileFilter{
			Tier:     r.URL.Query().Get("tier"),
			Industry: r.URL.Query().Get("industry"),
		}
		filter.Page, filter.Limit = pagination(r)

		if filter.Tier != "" && !validTier(filter.Tier) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"tier must be one of standard, professional, enterprise", nil)
			return
		}

		profiles, total, err := reader.ListCustomerProfiles(r.Context(), filter)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.Collection(w, profiles, paginationMeta(filter.Page, filter.Limit, total))
	}
}

// NewListInsightsHandler returns an http.HandlerFunc for
// GET /api/v1/customers/{customerID}/insights.
func NewListInsightsHandler(reader InsightReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		filter := store.InsightFilter{
			CustomerID:  customerID,
			InsightType: r.URL.Query().Get("type"),
		}
		filter.Page, filter.Limit = pagination(r)

		since, ok := sinceParam(w, r)
		if !ok {
			return
		}
		filter.Since = since

		if filter.InsightType != "" && !validInsightType(filter.InsightType) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"type must be one of risk_factor, growth_opportunity, behavior_pattern", nil)
			return
		}

		insights, total, err := reader.ListInsights(r.Context(), filter)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.Collection(w, insights, paginationMeta(filter.Page, filter.Limit, total))
	}
}

// NewListPredictionsHandler returns an http.HandlerFunc for
// GET /api/v1/customers/{customerID}/predictions.
func NewListPredictionsHandler(reader PredictionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, ok := customerIDParam(w, r)
		if !ok {
			return
		}

		filter := store.PredictionFilter{
			CustomerID:     customerID,
			PredictionType: r.URL.Query().Get("type"),
		}
		filter.Page, filter.Limit = pagination(r)

		since, ok := sinceParam(w, r)
		if !ok {
			return
		}
		filter.Since = since

		if filter.PredictionType != "" && !validPredictionType(filter.PredictionType) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"type must be one of churn_risk, expansion_opportunity", nil)
			return
		}

		predictions, total, err := reader.ListPredictions(r.Context(), filter)
		if err != nil {
			writeAnalyticsError(w, err)
			return
		}
		response.Collection(w, predictions, paginationMeta(filter.Page, filter.Limit, total))
	}
}

func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func paginationMeta(page, limit, total int) response.PaginationMeta {
	return response.PaginationMeta{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: page*limit < total,
	}
}

func sinceParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"since must be a valid RFC3339 timestamp", nil)
		return time.Time{}, false
	}
	return since, true
}

func validTier(tier string) bool {
	switch tier {
	case models.TierStandard, models.TierProfessional, models.TierEnterprise:
		return true
	}
	return false
}

func validInsightType(t string) bool {
	switch t {
	case models.InsightRiskFactor, models.InsightGrowthOpportunity, models.InsightBehaviorPattern:
		return true
	}
	return false
}

func validPredictionType(t string) bool {
	switch t {
	case models.PredictionChurnRisk, models.PredictionExpansionOpportunity:
		return true
	}
	return false
}
