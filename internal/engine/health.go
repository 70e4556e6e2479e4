package engine

import "errors"

// ErrScoreOutOfRange reports a computed score that escaped its declared
// bounds. Callers must abort the run and keep the last persisted value.
var ErrScoreOutOfRange = errors.New("computed score out of range")

// HealthBreakdown carries the four sub-scores and their weighted composite.
type HealthBreakdown struct {
	Recency   float64
	Sentiment float64
	Frequency float64
	Revenue   float64
	Composite float64
}

// HealthScore computes the composite health score for a customer snapshot.
// The composite is guaranteed to lie in [0,1] when the config weights sum to
// 1 and each sub-score is in [0,1]; the bound is still checked defensively.
func HealthScore(snap Snapshot, cfg ModelConfig) (HealthBreakdown, error) {
	b := HealthBreakdown{
		Recency:   recencyScore(snap, cfg),
		Sentiment: sentimentScore(snap, cfg),
		Frequency: frequencyScore(snap, cfg),
		Revenue:   revenueScore(snap.Profile.TotalRevenue, cfg),
	}
	b.Composite = cfg.RecencyWeight*b.Recency +
		cfg.SentimentWeight*b.Sentiment +
		cfg.FrequencyWeight*b.Frequency +
		cfg.RevenueWeight*b.Revenue

	if b.Composite < 0 || b.Composite > 1 {
		return HealthBreakdown{}, ErrScoreOutOfRange
	}
	return b, nil
}

// recencyScore walks the tiers from most recent to least. A customer with no
// last interaction at all is treated as maximally stale.
func recencyScore(snap Snapshot, cfg ModelConfig) float64 {
	days, ok := snap.DaysSinceLastInteraction()
	if !ok {
		return cfg.RecencyFloor
	}
	for _, tier := range cfg.RecencyTiers {
		if days <= tier.MaxDays {
			return tier.Score
		}
	}
	return cfg.RecencyFloor
}

// sentimentScore maps the window average from [-1,1] to [0,1].
func sentimentScore(snap Snapshot, cfg ModelConfig) float64 {
	avg, ok := snap.AvgSentiment()
	if !ok {
		return cfg.DefaultSentimentScore
	}
	return (avg + 1) / 2
}

func frequencyScore(snap Snapshot, cfg ModelConfig) float64 {
	score := float64(snap.CountWithinDays(cfg.FrequencyWindowDays)) * cfg.FrequencyPerInteraction
	if score > 1.0 {
		return 1.0
	}
	return score
}

func revenueScore(totalRevenue float64, cfg ModelConfig) float64 {
	for _, tier := range cfg.RevenueTiers {
		if totalRevenue >= tier.MinRevenue {
			return tier.Score
		}
	}
	return cfg.RevenueFloor
}
