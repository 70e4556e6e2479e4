package models

import (
	"time"

	"github.com/google/uuid"
)

// Interaction types recorded by the ingestion pipeline.
const (
	InteractionEmail         = "email"
	InteractionCall          = "call"
	InteractionMeeting       = "meeting"
	InteractionSupportTicket = "support_ticket"
	InteractionChat          = "chat"
)

// CustomerInteraction is a single touchpoint with a customer. Read-only to the
// analytics engine; written exclusively by the ingestion pipeline.
type CustomerInteraction struct {
	InteractionID   uuid.UUID `db:"interaction_id"   json:"interaction_id"`
	CustomerID      uuid.UUID `db:"customer_id"      json:"customer_id"`
	InteractionDate time.Time `db:"interaction_date" json:"interaction_date"`
	InteractionType string    `db:"interaction_type" json:"interaction_type"`
	SentimentScore  float64   `db:"sentiment_score"  json:"sentiment_score"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
}
