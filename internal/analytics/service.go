// Package analytics orchestrates the customer analytics pipelines: it loads
// customer snapshots, runs the engine rules, and persists results. Each of
// the three pipelines (health score, insights, predictions) writes in its own
// transaction and fails independently of the others.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pulsecrm/pulsecrm/internal/cache"
	"github.com/pulsecrm/pulsecrm/internal/engine"
	"github.com/pulsecrm/pulsecrm/internal/store"
	"github.com/pulsecrm/pulsecrm/pkg/models"
)

const defaultConcurrency = 8

// Service runs the analytics pipelines against the store.
type Service struct {
	store store.Store
	cache cache.Cache
	model engine.ModelConfig

	concurrency     int
	retryMaxElapsed time.Duration
	cacheTTL        time.Duration
	now             func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithConcurrency bounds the batch worker pool.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRetryMaxElapsed caps the backoff applied to transient store failures.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryMaxElapsed = d
		}
	}
}

// WithResultCacheTTL sets how long read results may be served from cache.
func WithResultCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithClock overrides the wall clock, pinning generation dates in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service running the given rule configuration.
func NewService(st store.Store, ca cache.Cache, model engine.ModelConfig, opts ...Option) *Service {
	s := &Service{
		store:           st,
		cache:           ca,
		model:           model,
		concurrency:     defaultConcurrency,
		retryMaxElapsed: 10 * time.Second,
		cacheTTL:        5 * time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreResult is the output of a health score update.
type ScoreResult struct {
	CustomerID     uuid.UUID              `json:"customer_id"`
	NewHealthScore float64                `json:"new_health_score"`
	Breakdown      engine.HealthBreakdown `json:"breakdown"`
}

// InsightResult is the output of an insight generation run.
type InsightResult struct {
	CustomerID        uuid.UUID                 `json:"customer_id"`
	InsightsGenerated int                       `json:"insights_generated"`
	Insights          []*models.CustomerInsight `json:"insights"`
}

// PredictionResult is the output of a prediction generation run.
type PredictionResult struct {
	CustomerID          uuid.UUID                    `json:"customer_id"`
	PredictionsMade     int                          `json:"predictions_made"`
	ChurnRisk           float64                      `json:"churn_risk"`
	ExpansionLikelihood float64                      `json:"expansion_likelihood"`
	Predictions         []*models.CustomerPrediction `json:"predictions"`
}

// UpdateHealthScore recomputes the composite health score for one customer
// and overwrites the profile's health_score and updated_at. No write occurs
// when the customer is unknown or the computed score escapes [0,1].
func (s *Service) UpdateHealthScore(ctx context.Context, customerID uuid.UUID) (*ScoreResult, error) {
	snap, err := s.loadSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	breakdown, err := engine.HealthScore(*snap, s.model)
	if err != nil {
		return nil, fmt.Errorf("health score for %s: %w", customerID, err)
	}

	now := s.now().UTC()
	err = s.withRetry(ctx, func() error {
		return s.store.UpdateHealthScore(ctx, customerID, breakdown.Composite, now)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.ProfileKey(customerID))

	slog.Info("health score updated",
		"customer_id", customerID,
		"health_score", breakdown.Composite,
		"model_version", s.model.Version,
	)
	return &ScoreResult{
		CustomerID:     customerID,
		NewHealthScore: breakdown.Composite,
		Breakdown:      breakdown,
	}, nil
}

// GenerateInsights evaluates the insight rules for one customer and upserts
// whatever fired under today's (customer, type, date) identity.
func (s *Service) GenerateInsights(ctx context.Context, customerID uuid.UUID) (*InsightResult, error) {
	snap, err := s.loadSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	drafts := engine.Insights(*snap, s.model)

	insights := make([]*models.CustomerInsight, 0, len(drafts))
	for _, d := range drafts {
		insights = append(insights, &models.CustomerInsight{
			ID:                 uuid.New(),
			CustomerID:         customerID,
			InsightType:        d.Type,
			GenerationDate:     dateOnly(now),
			Title:              d.Title,
			Description:        d.Description,
			ConfidenceScore:    d.Confidence,
			ImpactScore:        d.Impact,
			Evidence:           d.Evidence,
			RecommendedActions: d.RecommendedActions,
			CreatedAt:          now,
		})
	}

	err = s.withRetry(ctx, func() error {
		return s.store.UpsertInsights(ctx, insights)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.InsightsKey(customerID))

	slog.Info("insights generated",
		"customer_id", customerID,
		"count", len(insights),
		"model_version", s.model.Version,
	)
	return &InsightResult{
		CustomerID:        customerID,
		InsightsGenerated: len(insights),
		Insights:          insights,
	}, nil
}

// GeneratePredictions computes the churn and expansion predictions for one
// customer and upserts the pair in a single transaction.
func (s *Service) GeneratePredictions(ctx context.Context, customerID uuid.UUID) (*PredictionResult, error) {
	snap, err := s.loadSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	drafts := engine.Predictions(*snap, s.model)

	result := &PredictionResult{CustomerID: customerID, PredictionsMade: len(drafts)}
	predictions := make([]*models.CustomerPrediction, 0, len(drafts))
	for _, d := range drafts {
		predictions = append(predictions, &models.CustomerPrediction{
			ID:              uuid.New(),
			CustomerID:      customerID,
			PredictionType:  d.Type,
			GenerationDate:  dateOnly(now),
			PredictionValue: d.Value,
			Confidence:      d.Confidence,
			Factors:         d.Factors,
			HorizonDays:     d.HorizonDays,
			ModelVersion:    d.ModelVersion,
			CreatedAt:       now,
		})
		switch d.Type {
		case models.PredictionChurnRisk:
			result.ChurnRisk = d.Value
		case models.PredictionExpansionOpportunity:
			result.ExpansionLikelihood = d.Value
		}
	}

	err = s.withRetry(ctx, func() error {
		return s.store.UpsertPredictions(ctx, predictions)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, cache.PredictionsKey(customerID))

	slog.Info("predictions generated",
		"customer_id", customerID,
		"churn_risk", result.ChurnRisk,
		"expansion_likelihood", result.ExpansionLikelihood,
		"model_version", s.model.Version,
	)
	result.Predictions = predictions
	return result, nil
}

// cachedListing is the serialized form stored for read-through listings.
type cachedListing[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListInsights returns stored insights for a customer. The unfiltered first
// page is served read-through from cache; generation invalidates it.
func (s *Service) ListInsights(ctx context.Context, filter store.InsightFilter) ([]*models.CustomerInsight, int, error) {
	key := cache.InsightsKey(filter.CustomerID)
	cacheable := filter.InsightType == "" && filter.Since.IsZero() && filter.Page <= 1

	if cacheable {
		if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
			var c cachedListing[*models.CustomerInsight]
			if json.Unmarshal(raw, &c) == nil {
				return c.Items, c.Total, nil
			}
		}
	}

	insights, total, err := s.store.ListInsights(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if raw, err := json.Marshal(cachedListing[*models.CustomerInsight]{Items: insights, Total: total}); err == nil {
			_ = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return insights, total, nil
}

// ListPredictions returns stored predictions for a customer with the same
// read-through caching as ListInsights.
func (s *Service) ListPredictions(ctx context.Context, filter store.PredictionFilter) ([]*models.CustomerPrediction, int, error) {
	key := cache.PredictionsKey(filter.CustomerID)
	cacheable := filter.PredictionType == "" && filter.Since.IsZero() && filter.Page <= 1

	if cacheable {
		if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
			var c cachedListing[*models.CustomerPrediction]
			if json.Unmarshal(raw, &c) == nil {
				return c.Items, c.Total, nil
			}
		}
	}

	predictions, total, err := s.store.ListPredictions(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if raw, err := json.Marshal(cachedListing[*models.CustomerPrediction]{Items: predictions, Total: total}); err == nil {
			_ = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return predictions, total, nil
}

// loadSnapshot reads the profile plus the trailing interaction window,
// retrying transient store failures.
func (s *Service) loadSnapshot(ctx context.Context, customerID uuid.UUID) (*engine.Snapshot, error) {
	now := s.now().UTC()
	since := now.AddDate(0, 0, -s.model.InteractionWindowDays)

	var snap engine.Snapshot
	err := s.withRetry(ctx, func() error {
		profile, err := s.store.GetCustomerProfile(ctx, customerID)
		if err != nil {
			return err
		}
		interactions, err := s.store.ListInteractionsSince(ctx, customerID, since)
		if err != nil {
			return err
		}
		snap = engine.Snapshot{Profile: *profile, Interactions: interactions, Now: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// withRetry applies exponential backoff to transient store failures. Logical
// failures (unknown customer, validation) are permanent and surface at once.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.retryMaxElapsed

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if store.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}

// dateOnly truncates a timestamp to its UTC calendar date, the generation
// identity for insights and predictions.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
