package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pulsecrm/pulsecrm/internal/store"
	"golang.org/x/sync/errgroup"
)

// CustomerAnalysis is the outcome of running the full pipeline for one
// customer. StepErrors records sub-pipeline failures; the three pipelines are
// independent, so a failed step never blocks the remaining ones.
type CustomerAnalysis struct {
	CustomerID          uuid.UUID `json:"customer_id"`
	HealthScore         *float64  `json:"health_score,omitempty"`
	InsightsGenerated   int       `json:"insights_generated"`
	PredictionsMade     int       `json:"predictions_made"`
	ChurnRisk           float64   `json:"churn_risk"`
	ExpansionLikelihood float64   `json:"expansion_likelihood"`
	StepErrors          []string  `json:"step_errors,omitempty"`
}

// BatchResult summarizes a batch run over all customers.
type BatchResult struct {
	CustomersProcessed int            `json:"customers_processed"`
	CustomersFailed    int            `json:"customers_failed"`
	InsightsGenerated  int            `json:"insights_generated"`
	PredictionsMade    int            `json:"predictions_made"`
	Failures           []BatchFailure `json:"failures,omitempty"`
}

// BatchFailure pairs a customer with the failure that ended its run.
type BatchFailure struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Message    string    `json:"message"`
}

// AnalyzeCustomer runs the three pipelines for one customer in order: score,
// insights, predictions. The initial profile load failing (unknown customer)
// is terminal; after that each step fails independently and the run carries
// on, collecting step errors.
func (s *Service) AnalyzeCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerAnalysis, error) {
	analysis := &CustomerAnalysis{CustomerID: customerID}

	score, err := s.UpdateHealthScore(ctx, customerID)
	if err != nil {
		// An unknown customer fails every pipeline identically; bail out.
		if errors.Is(err, store.ErrNotFound) || ctx.Err() != nil {
			return nil, err
		}
		analysis.StepErrors = append(analysis.StepErrors, "health score: "+err.Error())
	} else {
		analysis.HealthScore = &score.NewHealthScore
	}

	if insights, err := s.GenerateInsights(ctx, customerID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		analysis.StepErrors = append(analysis.StepErrors, "insights: "+err.Error())
	} else {
		analysis.InsightsGenerated = insights.InsightsGenerated
	}

	if predictions, err := s.GeneratePredictions(ctx, customerID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		analysis.StepErrors = append(analysis.StepErrors, "predictions: "+err.Error())
	} else {
		analysis.PredictionsMade = predictions.PredictionsMade
		analysis.ChurnRisk = predictions.ChurnRisk
		analysis.ExpansionLikelihood = predictions.ExpansionLikelihood
	}

	return analysis, nil
}

// AnalyzeAll runs the full pipeline for every customer through a bounded
// worker pool. Customers are independent: one failing run is recorded and the
// rest continue. Cancelling the context abandons in-flight customers.
func (s *Service) AnalyzeAll(ctx context.Context) (*BatchResult, error) {
	var ids []uuid.UUID
	err := s.withRetry(ctx, func() error {
		var err error
		ids, err = s.store.ListCustomerIDs(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			analysis, err := s.AnalyzeCustomer(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.CustomersFailed++
				result.Failures = append(result.Failures, BatchFailure{
					CustomerID: id,
					Message:    err.Error(),
				})
				slog.Warn("customer analysis failed", "customer_id", id, "error", err)
				return nil
			}
			result.CustomersProcessed++
			result.InsightsGenerated += analysis.InsightsGenerated
			result.PredictionsMade += analysis.PredictionsMade
			if len(analysis.StepErrors) > 0 {
				slog.Warn("customer analysis completed with step errors",
					"customer_id", id, "step_errors", analysis.StepErrors)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("batch analysis finished",
		"processed", result.CustomersProcessed,
		"failed", result.CustomersFailed,
		"insights", result.InsightsGenerated,
		"predictions", result.PredictionsMade,
	)
	return &result, nil
}
