package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction types emitted by the prediction engine.
const (
	PredictionChurnRisk            = "churn_risk"
	PredictionExpansionOpportunity = "expansion_opportunity"
)

// CustomerPrediction is a probability-like forward-looking estimate with its
// contributing factors and validity horizon. Identity is (customer_id,
// prediction_type, generation_date), same-day upsert semantics as insights.
// ModelVersion records which rule configuration produced the value.
type CustomerPrediction struct {
	ID              uuid.UUID `db:"id"               json:"id"`
	CustomerID      uuid.UUID `db:"customer_id"      json:"customer_id"`
	PredictionType  string    `db:"prediction_type"  json:"prediction_type"`
	GenerationDate  time.Time `db:"generation_date"  json:"generation_date"`
	PredictionValue float64   `db:"prediction_value" json:"prediction_value"`
	Confidence      float64   `db:"confidence"       json:"confidence"`
	Factors         []string  `db:"factors"          json:"factors"`
	HorizonDays     int       `db:"horizon_days"     json:"horizon_days"`
	ModelVersion    string    `db:"model_version"    json:"model_version"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
}
