package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pulsecrm/pulsecrm/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetCustomerProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error)
	ListCustomerProfiles(ctx context.Context, filter ProfileFilter) ([]*models.CustomerProfile, int, error)
	ListCustomerIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateHealthScore(ctx context.Context, customerID uuid.UUID, score float64, updatedAt time.Time) error

	ListInteractionsSince(ctx context.Context, customerID uuid.UUID, since time.Time) ([]models.CustomerInteraction, error)

	UpsertInsights(ctx context.Context, insights []*models.CustomerInsight) error
	ListInsights(ctx context.Context, filter InsightFilter) ([]*models.CustomerInsight, int, error)

	UpsertPredictions(ctx context.Context, predictions []*models.CustomerPrediction) error
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.CustomerPrediction, int, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

// ProfileFilter narrows and paginates customer profile listings.
type ProfileFilter struct {
	Tier     string
	Industry string
	Page     int
	Limit    int
}

// InsightFilter narrows and paginates insight listings for one customer.
type InsightFilter struct {
	CustomerID  uuid.UUID
	InsightType string
	Since       time.Time
	Page        int
	Limit       int
}

// PredictionFilter narrows and paginates prediction listings for one customer.
type PredictionFilter struct {
	CustomerID     uuid.UUID
	PredictionType string
	Since          time.Time
	Page           int
	Limit          int
}
