// Package models contains shared data models used across the CustomerPulse codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer tiers.
const (
	TierStandard     = "standard"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// CustomerProfile is the master record for a customer. All fields except
// HealthScore and UpdatedAt are owned by the ingestion pipeline; the analytics
// engine only ever writes those two.
type CustomerProfile struct {
	CustomerID          uuid.UUID  `db:"customer_id"           json:"customer_id"`
	Name                string     `db:"name"                  json:"name"`
	Company             string     `db:"company"               json:"company"`
	Industry            string     `db:"industry"              json:"industry"`
	Tier                string     `db:"tier"                  json:"tier"`
	TotalRevenue        float64    `db:"total_revenue"         json:"total_revenue"`
	HealthScore         float64    `db:"health_score"          json:"health_score"`
	LastInteractionDate *time.Time `db:"last_interaction_date" json:"last_interaction_date,omitempty"`
	CreatedAt           time.Time  `db:"created_at"            json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"            json:"updated_at"`
}
