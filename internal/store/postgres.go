package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pulsecrm/pulsecrm/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// MaxConns exposes the pool's connection limit for sizing worker pools.
func (s *PostgresStore) MaxConns() int {
	return int(s.pool.Config().MaxConns)
}

// --- Customer profiles ---

const profileColumns = `customer_id, name, company, industry, tier, total_revenue, health_score, last_interaction_date, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.CustomerProfile, error) {
	var p models.CustomerProfile
	err := row.Scan(&p.CustomerID, &p.Name, &p.Company, &p.Industry, &p.Tier,
		&p.TotalRevenue, &p.HealthScore, &p.LastInteractionDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan customer profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetCustomerProfile(ctx context.Context, customerID uuid.UUID) (*models.CustomerProfile, error) {
	return scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM customers WHERE customer_id = $1`, customerID))
}

func (s *PostgresStore) ListCustomerProfiles(ctx context.Context, filter ProfileFilter) ([]*models.CustomerProfile, int, error) {
	// Build WHERE clause dynamically
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.Industry != "" {
		conditions = append(conditions, fmt.Sprintf("industry = $%d", argIdx))
		args = append(args, filter.Industry)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM customers WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	limit, offset := normalizePagination(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM customers WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		profileColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var profiles []*models.CustomerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (s *PostgresStore) ListCustomerIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT customer_id FROM customers ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("list customer ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan customer id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateHealthScore overwrites the profile's health_score and updated_at in a
// single statement. Returns ErrNotFound when the customer does not exist.
func (s *PostgresStore) UpdateHealthScore(ctx context.Context, customerID uuid.UUID, score float64, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE customers SET health_score = $2, updated_at = $3 WHERE customer_id = $1`,
		customerID, score, updatedAt)
	if err != nil {
		return fmt.Errorf("update health score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Interactions ---

func (s *PostgresStore) ListInteractionsSince(ctx context.Context, customerID uuid.UUID, since time.Time) ([]models.CustomerInteraction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT interaction_id, customer_id, interaction_date, interaction_type, sentiment_score, created_at
		 FROM customer_interactions
		 WHERE customer_id = $1 AND interaction_date >= $2
		 ORDER BY interaction_date DESC`, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []models.CustomerInteraction
	for rows.Next() {
		var it models.CustomerInteraction
		if err := rows.Scan(&it.InteractionID, &it.CustomerID, &it.InteractionDate,
			&it.InteractionType, &it.SentimentScore, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, it)
	}
	return interactions, rows.Err()
}

// --- Insights ---

// UpsertInsights writes a batch of insights in one transaction. Identity is
// (customer_id, insight_type, generation_date): a rerun the same day replaces
// the existing record instead of duplicating it.
func (s *PostgresStore) UpsertInsights(ctx context.Context, insights []*models.CustomerInsight) error {
	if len(insights) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, in := range insights {
			_, err := tx.Exec(ctx,
				`INSERT INTO customer_insights
				   (id, customer_id, insight_type, generation_date, title, description,
				    confidence_score, impact_score, evidence, recommended_actions, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				 ON CONFLICT (customer_id, insight_type, generation_date) DO UPDATE SET
				   title = EXCLUDED.title,
				   description = EXCLUDED.description,
				   confidence_score = EXCLUDED.confidence_score,
				   impact_score = EXCLUDED.impact_score,
				   evidence = EXCLUDED.evidence,
				   recommended_actions = EXCLUDED.recommended_actions,
				   created_at = EXCLUDED.created_at`,
				in.ID, in.CustomerID, in.InsightType, in.GenerationDate, in.Title, in.Description,
				in.ConfidenceScore, in.ImpactScore, in.Evidence, in.RecommendedActions, in.CreatedAt)
			if err != nil {
				return fmt.Errorf("upsert insight %s: %w", in.InsightType, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert insights: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListInsights(ctx context.Context, filter InsightFilter) ([]*models.CustomerInsight, int, error) {
	conditions := []string{"customer_id = $1"}
	args := []any{filter.CustomerID}
	argIdx := 2

	if filter.InsightType != "" {
		conditions = append(conditions, fmt.Sprintf("insight_type = $%d", argIdx))
		args = append(args, filter.InsightType)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("generation_date >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM customer_insights WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count insights: %w", err)
	}

	limit, offset := normalizePagination(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT id, customer_id, insight_type, generation_date, title, description,
		        confidence_score, impact_score, evidence, recommended_actions, created_at
		 FROM customer_insights WHERE %s
		 ORDER BY generation_date DESC, insight_type ASC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var insights []*models.CustomerInsight
	for rows.Next() {
		var in models.CustomerInsight
		if err := rows.Scan(&in.ID, &in.CustomerID, &in.InsightType, &in.GenerationDate,
			&in.Title, &in.Description, &in.ConfidenceScore, &in.ImpactScore,
			&in.Evidence, &in.RecommendedActions, &in.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, &in)
	}
	return insights, total, rows.Err()
}

// --- Predictions ---

// UpsertPredictions writes a batch of predictions in one transaction, with the
// same per-day identity semantics as insights.
func (s *PostgresStore) UpsertPredictions(ctx context.Context, predictions []*models.CustomerPrediction) error {
	if len(predictions) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, p := range predictions {
			_, err := tx.Exec(ctx,
				`INSERT INTO customer_predictions
				   (id, customer_id, prediction_type, generation_date, prediction_value,
				    confidence, factors, horizon_days, model_version, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				 ON CONFLICT (customer_id, prediction_type, generation_date) DO UPDATE SET
				   prediction_value = EXCLUDED.prediction_value,
				   confidence = EXCLUDED.confidence,
				   factors = EXCLUDED.factors,
				   horizon_days = EXCLUDED.horizon_days,
				   model_version = EXCLUDED.model_version,
				   created_at = EXCLUDED.created_at`,
				p.ID, p.CustomerID, p.PredictionType, p.GenerationDate, p.PredictionValue,
				p.Confidence, p.Factors, p.HorizonDays, p.ModelVersion, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("upsert prediction %s: %w", p.PredictionType, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert predictions: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context, filter PredictionFilter) ([]*models.CustomerPrediction, int, error) {
	conditions := []string{"customer_id = $1"}
	args := []any{filter.CustomerID}
	argIdx := 2

	if filter.PredictionType != "" {
		conditions = append(conditions, fmt.Sprintf("prediction_type = $%d", argIdx))
		args = append(args, filter.PredictionType)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("generation_date >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM customer_predictions WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count predictions: %w", err)
	}

	limit, offset := normalizePagination(filter.Page, filter.Limit)
	dataQuery := fmt.Sprintf(
		`SELECT id, customer_id, prediction_type, generation_date, prediction_value,
		        confidence, factors, horizon_days, model_version, created_at
		 FROM customer_predictions WHERE %s
		 ORDER BY generation_date DESC, prediction_type ASC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.CustomerPrediction
	for rows.Next() {
		var p models.CustomerPrediction
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.PredictionType, &p.GenerationDate,
			&p.PredictionValue, &p.Confidence, &p.Factors, &p.HorizonDays,
			&p.ModelVersion, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan prediction: %w", err)
		}
		predictions = append(predictions, &p)
	}
	return predictions, total, rows.Err()
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- helpers ---

func normalizePagination(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
