// Package engine implements the deterministic customer analytics rules:
// health scoring, insight generation, and churn/expansion predictions.
// Everything in this package is a pure function over a customer snapshot and
// a versioned ModelConfig; persistence lives elsewhere.
package engine

import "fmt"

// RecencyTier maps "at most MaxDays since last interaction" to a sub-score.
type RecencyTier struct {
	MaxDays int
	Score   float64
}

// RevenueTier maps "at least MinRevenue total revenue" to a sub-score.
type RevenueTier struct {
	MinRevenue float64
	Score      float64
}

// InsightRule holds the fixed narrative parts of a single insight rule.
type InsightRule struct {
	Title              string
	Confidence         float64
	Impact             float64
	RecommendedActions []string
}

// ChurnRule holds the weights and factor labels for the churn risk prediction.
type ChurnRule struct {
	Baseline float64

	LowHealthBoost  float64
	LowHealthFactor string

	NegativeSentimentBoost  float64
	NegativeSentimentFactor string

	SilenceBoost  float64
	SilenceDays   int
	SilenceFactor string

	Confidence  float64
	HorizonDays int
}

// ExpansionRule holds the weights and factor labels for the expansion
// opportunity prediction.
type ExpansionRule struct {
	Baseline float64

	HighHealthBoost  float64
	HighHealthFactor string

	PositiveSentimentAbove  float64
	PositiveSentimentBoost  float64
	PositiveSentimentFactor string

	EnterpriseBoost  float64
	EnterpriseFactor string

	Confidence  float64
	HorizonDays int
}

// ModelConfig bundles every weight, threshold, cap, and narrative template the
// rules use, keyed by Version. A comparison and the evidence string describing
// it always read the same field, so the two cannot drift apart.
type ModelConfig struct {
	Version string

	// Composite health score weights. Expected to sum to 1.
	RecencyWeight   float64
	SentimentWeight float64
	FrequencyWeight float64
	RevenueWeight   float64

	// Recency tiers ordered from most recent to least. RecencyFloor applies
	// beyond the last tier and to customers that have never interacted.
	RecencyTiers []RecencyTier
	RecencyFloor float64

	// RevenueTiers ordered from highest MinRevenue down. RevenueFloor applies
	// below the last tier.
	RevenueTiers []RevenueTier
	RevenueFloor float64

	// Trailing windows, in days.
	InteractionWindowDays int
	FrequencyWindowDays   int

	FrequencyPerInteraction float64

	// Sentiment sub-score used when the window holds no interactions.
	DefaultSentimentScore float64

	// Insight thresholds. All comparisons are strict, so a health score of
	// exactly RiskHealthBelow fires nothing.
	RiskHealthBelow        float64
	OpportunityHealthAbove float64
	NegativeSentimentBelow float64

	RiskInsight        InsightRule
	OpportunityInsight InsightRule
	BehaviorInsight    InsightRule

	Churn     ChurnRule
	Expansion ExpansionRule

	// Upper bound applied to both prediction values.
	PredictionCap float64
}

// ModelV1 is the initial rule configuration.
var ModelV1 = ModelConfig{
	Version: "v1.0",

	RecencyWeight:   0.3,
	SentimentWeight: 0.4,
	FrequencyWeight: 0.2,
	RevenueWeight:   0.1,

	RecencyTiers: []RecencyTier{
		{MaxDays: 7, Score: 1.0},
		{MaxDays: 30, Score: 0.8},
		{MaxDays: 60, Score: 0.5},
	},
	RecencyFloor: 0.2,

	RevenueTiers: []RevenueTier{
		{MinRevenue: 100_000, Score: 1.0},
		{MinRevenue: 50_000, Score: 0.8},
		{MinRevenue: 25_000, Score: 0.6},
		{MinRevenue: 10_000, Score: 0.4},
	},
	RevenueFloor: 0.2,

	InteractionWindowDays:   90,
	FrequencyWindowDays:     30,
	FrequencyPerInteraction: 0.1,
	DefaultSentimentScore:   0.5,

	RiskHealthBelow:        0.3,
	OpportunityHealthAbove: 0.8,
	NegativeSentimentBelow: -0.2,

	RiskInsight: InsightRule{
		Title:      "Customer at risk",
		Confidence: 0.85,
		Impact:     0.75,
		RecommendedActions: []string{
			"Schedule immediate check-in call",
			"Review recent support tickets",
			"Analyze usage patterns",
		},
	},
	OpportunityInsight: InsightRule{
		Title:      "Growth opportunity",
		Confidence: 0.78,
		Impact:     0.82,
		RecommendedActions: []string{
			"Present upsell opportunities",
			"Schedule strategic account review",
			"Explore new use cases",
		},
	},
	BehaviorInsight: InsightRule{
		Title:      "Negative sentiment pattern",
		Confidence: 0.82,
		Impact:     0.70,
		RecommendedActions: []string{
			"Immediate customer-success intervention",
			"Review support case history",
			"Schedule feedback session",
		},
	},

	Churn: ChurnRule{
		Baseline:                0.5,
		LowHealthBoost:          0.3,
		LowHealthFactor:         "Low health score",
		NegativeSentimentBoost:  0.2,
		NegativeSentimentFactor: "Negative sentiment trend",
		SilenceBoost:            0.2,
		SilenceDays:             60,
		SilenceFactor:           "Extended silence period",
		Confidence:              0.75,
		HorizonDays:             90,
	},
	Expansion: ExpansionRule{
		Baseline:                0.2,
		HighHealthBoost:         0.4,
		HighHealthFactor:        "High health score",
		PositiveSentimentAbove:  0.3,
		PositiveSentimentBoost:  0.3,
		PositiveSentimentFactor: "Positive sentiment",
		EnterpriseBoost:         0.2,
		EnterpriseFactor:        "Enterprise tier customer",
		Confidence:              0.70,
		HorizonDays:             60,
	},

	PredictionCap: 0.95,
}

var modelsByVersion = map[string]ModelConfig{
	ModelV1.Version: ModelV1,
}

// ModelByVersion returns the rule configuration registered under version.
func ModelByVersion(version string) (ModelConfig, error) {
	m, ok := modelsByVersion[version]
	if !ok {
		return ModelConfig{}, fmt.Errorf("unknown model version %q", version)
	}
	return m, nil
}
