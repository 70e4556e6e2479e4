package engine

import "github.com/pulsecrm/pulsecrm/pkg/models"

// PredictionDraft is a prediction before it is given an identity and
// persisted. Factors preserve the order in which rule terms applied.
type PredictionDraft struct {
	Type         string
	Value        float64
	Confidence   float64
	Factors      []string
	HorizonDays  int
	ModelVersion string
}

// Predictions always returns exactly two drafts: churn risk and expansion
// opportunity, in that order.
func Predictions(snap Snapshot, cfg ModelConfig) []PredictionDraft {
	return []PredictionDraft{
		ChurnRisk(snap, cfg),
		ExpansionOpportunity(snap, cfg),
	}
}

// ChurnRisk computes the churn risk prediction for a snapshot. A customer
// that has never interacted counts as exceeding the silence threshold.
func ChurnRisk(snap Snapshot, cfg ModelConfig) PredictionDraft {
	rule := cfg.Churn
	value := rule.Baseline
	var factors []string

	if snap.Profile.HealthScore < cfg.RiskHealthBelow {
		value += rule.LowHealthBoost
		factors = append(factors, rule.LowHealthFactor)
	}
	if avg, ok := snap.AvgSentiment(); ok && avg < cfg.NegativeSentimentBelow {
		value += rule.NegativeSentimentBoost
		factors = append(factors, rule.NegativeSentimentFactor)
	}
	days, interacted := snap.DaysSinceLastInteraction()
	if !interacted || days > rule.SilenceDays {
		value += rule.SilenceBoost
		factors = append(factors, rule.SilenceFactor)
	}

	return PredictionDraft{
		Type:         models.PredictionChurnRisk,
		Value:        capValue(value, cfg.PredictionCap),
		Confidence:   rule.Confidence,
		Factors:      factors,
		HorizonDays:  rule.HorizonDays,
		ModelVersion: cfg.Version,
	}
}

// ExpansionOpportunity computes the expansion likelihood prediction.
func ExpansionOpportunity(snap Snapshot, cfg ModelConfig) PredictionDraft {
	rule := cfg.Expansion
	value := rule.Baseline
	var factors []string

	if snap.Profile.HealthScore > cfg.OpportunityHealthAbove {
		value += rule.HighHealthBoost
		factors = append(factors, rule.HighHealthFactor)
	}
	if avg, ok := snap.AvgSentiment(); ok && avg > rule.PositiveSentimentAbove {
		value += rule.PositiveSentimentBoost
		factors = append(factors, rule.PositiveSentimentFactor)
	}
	if snap.Profile.Tier == models.TierEnterprise {
		value += rule.EnterpriseBoost
		factors = append(factors, rule.EnterpriseFactor)
	}

	return PredictionDraft{
		Type:         models.PredictionExpansionOpportunity,
		Value:        capValue(value, cfg.PredictionCap),
		Confidence:   rule.Confidence,
		Factors:      factors,
		HorizonDays:  rule.HorizonDays,
		ModelVersion: cfg.Version,
	}
}

func capValue(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < 0 {
		return 0
	}
	return v
}
