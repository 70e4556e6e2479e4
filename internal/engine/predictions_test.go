package engine

import (
	"testing"
	"time"

	"github.com/pulsecrm/pulsecrm/pkg/models"
)

func predictionSnapshot(health float64, tier string, last *time.Time, interactions []models.CustomerInteraction) Snapshot {
	return Snapshot{
		Profile: models.CustomerProfile{
			HealthScore:         health,
			Tier:                tier,
			LastInteractionDate: last,
		},
		Interactions: interactions,
		Now:          testNow,
	}
}

func TestPredictions_AlwaysEmitsBoth(t *testing.T) {
	drafts := Predictions(predictionSnapshot(0.5, models.TierStandard, nil, nil), ModelV1)

	if len(drafts) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(drafts))
	}
	if drafts[0].Type != models.PredictionChurnRisk {
		t.Errorf("expected churn_risk first, got %s", drafts[0].Type)
	}
	if drafts[1].Type != models.PredictionExpansionOpportunity {
		t.Errorf("expected expansion_opportunity second, got %s", drafts[1].Type)
	}
	for _, d := range drafts {
		if d.ModelVersion != "v1.0" {
			t.Errorf("%s: expected model version v1.0, got %s", d.Type, d.ModelVersion)
		}
	}
}

// --- churn risk ---

func TestChurnRisk_BaselineOnly(t *testing.T) {
	last := daysAgo(5)
	d := ChurnRisk(predictionSnapshot(0.6, models.TierStandard, &last, interactionsAt(0.5, 5)), ModelV1)

	if d.Value != 0.5 {
		t.Errorf("expected baseline 0.5, got %v", d.Value)
	}
	if len(d.Factors) != 0 {
		t.Errorf("expected no factors, got %v", d.Factors)
	}
	if d.Confidence != 0.75 {
		t.Errorf("expected confidence 0.75, got %v", d.Confidence)
	}
	if d.HorizonDays != 90 {
		t.Errorf("expected horizon 90, got %d", d.HorizonDays)
	}
}

// Scenario: stale, low-health, silent customer. 0.5 + 0.3 + 0.2 caps at 0.95.
func TestChurnRisk_AllBoostsCapAt095(t *testing.T) {
	last := daysAgo(120)
	d := ChurnRisk(predictionSnapshot(0.27, models.TierStandard, &last, nil), ModelV1)

	if d.Value != 0.95 {
		t.Errorf("expected cap 0.95, got %v", d.Value)
	}
	expectFactors(t, d, "Low health score", "Extended silence period")
}

func TestChurnRisk_NegativeSentimentBoost(t *testing.T) {
	last := daysAgo(10)
	d := ChurnRisk(predictionSnapshot(0.6, models.TierStandard, &last, interactionsAt(-0.5, 10, 20)), ModelV1)

	if d.Value != 0.7 {
		t.Errorf("expected 0.5 + 0.2, got %v", d.Value)
	}
	expectFactors(t, d, "Negative sentiment trend")
}

func TestChurnRisk_NeverInteractedCountsAsSilence(t *testing.T) {
	d := ChurnRisk(predictionSnapshot(0.6, models.TierStandard, nil, nil), ModelV1)

	if d.Value != 0.7 {
		t.Errorf("expected 0.5 + 0.2 silence boost, got %v", d.Value)
	}
	expectFactors(t, d, "Extended silence period")
}

func TestChurnRisk_SilenceBoundaryIsStrict(t *testing.T) {
	last := daysAgo(60)
	d := ChurnRisk(predictionSnapshot(0.6, models.TierStandard, &last, nil), ModelV1)

	if len(d.Factors) != 0 {
		t.Errorf("exactly 60 days of silence should not fire, got %v", d.Factors)
	}
}

// --- expansion opportunity ---

func TestExpansion_BaselineOnly(t *testing.T) {
	d := ExpansionOpportunity(predictionSnapshot(0.5, models.TierStandard, nil, nil), ModelV1)

	if d.Value != 0.2 {
		t.Errorf("expected baseline 0.2, got %v", d.Value)
	}
	if d.Confidence != 0.70 {
		t.Errorf("expected confidence 0.70, got %v", d.Confidence)
	}
	if d.HorizonDays != 60 {
		t.Errorf("expected horizon 60, got %d", d.HorizonDays)
	}
}

// Scenario: health 0.85, avg sentiment 0.4, enterprise tier.
// 0.2 + 0.4 + 0.3 + 0.2 = 1.1 caps at 0.95.
func TestExpansion_AllBoostsCapAt095(t *testing.T) {
	last := daysAgo(2)
	d := ExpansionOpportunity(
		predictionSnapshot(0.85, models.TierEnterprise, &last, interactionsAt(0.4, 2, 9, 20)), ModelV1)

	if d.Value != 0.95 {
		t.Errorf("expected cap 0.95, got %v", d.Value)
	}
	expectFactors(t, d, "High health score", "Positive sentiment", "Enterprise tier customer")
}

func TestExpansion_EnterpriseTierBoost(t *testing.T) {
	d := ExpansionOpportunity(predictionSnapshot(0.5, models.TierEnterprise, nil, nil), ModelV1)

	if !almostEqual(d.Value, 0.4) {
		t.Errorf("expected 0.2 + 0.2 enterprise boost, got %v", d.Value)
	}
	expectFactors(t, d, "Enterprise tier customer")
}

func TestExpansion_BoundaryValuesFireNothing(t *testing.T) {
	// Health exactly 0.8 and sentiment exactly 0.3 are strict boundaries.
	d := ExpansionOpportunity(
		predictionSnapshot(0.8, models.TierStandard, nil, interactionsAt(0.3, 5)), ModelV1)

	if d.Value != 0.2 {
		t.Errorf("expected baseline only at boundaries, got %v", d.Value)
	}
	if len(d.Factors) != 0 {
		t.Errorf("expected no factors, got %v", d.Factors)
	}
}

func TestPredictions_ValuesWithinDeclaredBounds(t *testing.T) {
	last := daysAgo(200)
	snapshots := []Snapshot{
		predictionSnapshot(0.0, models.TierStandard, nil, interactionsAt(-1.0, 1)),
		predictionSnapshot(1.0, models.TierEnterprise, &last, interactionsAt(1.0, 1, 2, 3)),
		predictionSnapshot(0.5, models.TierProfessional, nil, nil),
	}

	for i, snap := range snapshots {
		for _, d := range Predictions(snap, ModelV1) {
			if d.Value < 0 || d.Value > 0.95 {
				t.Errorf("snapshot %d %s: value %v outside [0, 0.95]", i, d.Type, d.Value)
			}
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Errorf("snapshot %d %s: confidence %v outside [0,1]", i, d.Type, d.Confidence)
			}
		}
	}
}

func TestPredictions_Deterministic(t *testing.T) {
	last := daysAgo(45)
	snap := predictionSnapshot(0.42, models.TierProfessional, &last, interactionsAt(-0.3, 10, 40))

	first := Predictions(snap, ModelV1)
	for i := 0; i < 5; i++ {
		again := Predictions(snap, ModelV1)
		for j := range first {
			if again[j].Value != first[j].Value || len(again[j].Factors) != len(first[j].Factors) {
				t.Fatalf("run %d: prediction %s changed", i, first[j].Type)
			}
		}
	}
}

func expectFactors(t *testing.T, d PredictionDraft, want ...string) {
	t.Helper()
	if len(d.Factors) != len(want) {
		t.Fatalf("%s: expected factors %v, got %v", d.Type, want, d.Factors)
	}
	for i := range want {
		if d.Factors[i] != want[i] {
			t.Errorf("%s: factor %d: expected %q, got %q", d.Type, i, want[i], d.Factors[i])
		}
	}
}
