package engine

import (
	"fmt"

	"github.com/pulsecrm/pulsecrm/pkg/models"
)

// InsightDraft is a rule-triggered insight before it is given an identity and
// persisted. Evidence and RecommendedActions preserve insertion order.
type InsightDraft struct {
	Type               string
	Title              string
	Description        string
	Confidence         float64
	Impact             float64
	Evidence           []string
	RecommendedActions []string
}

// Insights evaluates the three independent insight rules against a snapshot.
// Any subset may fire; all comparisons are strict, so boundary values fire
// nothing. The snapshot's profile is assumed to carry a freshly computed
// health score.
func Insights(snap Snapshot, cfg ModelConfig) []InsightDraft {
	var drafts []InsightDraft

	hs := snap.Profile.HealthScore

	if hs < cfg.RiskHealthBelow {
		drafts = append(drafts, InsightDraft{
			Type:        models.InsightRiskFactor,
			Title:       cfg.RiskInsight.Title,
			Description: "Composite health indicators point to elevated churn risk for this account.",
			Confidence:  cfg.RiskInsight.Confidence,
			Impact:      cfg.RiskInsight.Impact,
			Evidence: []string{
				fmt.Sprintf("Health score %.2f is below the %.2f risk threshold", hs, cfg.RiskHealthBelow),
			},
			RecommendedActions: cfg.RiskInsight.RecommendedActions,
		})
	}

	if hs > cfg.OpportunityHealthAbove {
		drafts = append(drafts, InsightDraft{
			Type:        models.InsightGrowthOpportunity,
			Title:       cfg.OpportunityInsight.Title,
			Description: "Strong engagement signals suggest this account is ready for expansion conversations.",
			Confidence:  cfg.OpportunityInsight.Confidence,
			Impact:      cfg.OpportunityInsight.Impact,
			Evidence: []string{
				fmt.Sprintf("Health score %.2f is above the %.2f opportunity threshold", hs, cfg.OpportunityHealthAbove),
			},
			RecommendedActions: cfg.OpportunityInsight.RecommendedActions,
		})
	}

	if avg, ok := snap.AvgSentiment(); ok && avg < cfg.NegativeSentimentBelow {
		drafts = append(drafts, InsightDraft{
			Type:        models.InsightBehaviorPattern,
			Title:       cfg.BehaviorInsight.Title,
			Description: fmt.Sprintf("Interaction sentiment over the last %d days trends negative.", cfg.InteractionWindowDays),
			Confidence:  cfg.BehaviorInsight.Confidence,
			Impact:      cfg.BehaviorInsight.Impact,
			Evidence: []string{
				fmt.Sprintf("Average sentiment %.2f over %d days is below the %.2f threshold",
					avg, cfg.InteractionWindowDays, cfg.NegativeSentimentBelow),
			},
			RecommendedActions: cfg.BehaviorInsight.RecommendedActions,
		})
	}

	return drafts
}
