package models

import (
	"time"

	"github.com/google/uuid"
)

// Insight types emitted by the insight generator.
const (
	InsightRiskFactor        = "risk_factor"
	InsightGrowthOpportunity = "growth_opportunity"
	InsightBehaviorPattern   = "behavior_pattern"
)

// CustomerInsight is a qualitative, rule-triggered observation about a
// customer. Identity is (customer_id, insight_type, generation_date): re-running
// analysis the same day overwrites the existing record for that type.
type CustomerInsight struct {
	ID                 uuid.UUID `db:"id"                  json:"id"`
	CustomerID         uuid.UUID `db:"customer_id"         json:"customer_id"`
	InsightType        string    `db:"insight_type"        json:"insight_type"`
	GenerationDate     time.Time `db:"generation_date"     json:"generation_date"`
	Title              string    `db:"title"               json:"title"`
	Description        string    `db:"description"         json:"description"`
	ConfidenceScore    float64   `db:"confidence_score"    json:"confidence_score"`
	ImpactScore        float64   `db:"impact_score"        json:"impact_score"`
	Evidence           []string  `db:"evidence"            json:"evidence"`
	RecommendedActions []string  `db:"recommended_actions" json:"recommended_actions"`
	CreatedAt          time.Time `db:"created_at"          json:"created_at"`
}
