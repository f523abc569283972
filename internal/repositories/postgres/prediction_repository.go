package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/retentia/churnsight/internal/models"
)

// PredictionRepository is the database sink for scoring runs: predictions,
// recommendations, and reported outcomes land in their own tables.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

func NewPredictionRepository(pool *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

func (r *PredictionRepository) SavePrediction(ctx context.Context, prediction *models.ChurnPrediction) error {
	factors, err := json.Marshal(prediction.TopFactors)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(prediction.RecommendedActions)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO churn_predictions (
            customer_id, churn_probability, risk_level, confidence,
            top_factors, recommended_actions, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, now())`,
		prediction.CustomerID,
		prediction.ChurnProbability,
		prediction.RiskLevel,
		prediction.Confidence,
		factors,
		actions,
	)
	return err
}

func (r *PredictionRepository) SaveRecommendation(ctx context.Context, customerID int, rec *models.InterventionRecommendation) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO intervention_recommendations (
            customer_id, intervention_type, priority, estimated_success,
            estimated_revenue_saved, description, reasoning, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		customerID,
		rec.Type,
		rec.Priority,
		rec.EstimatedSuccess,
		rec.EstimatedRevenueSaved,
		rec.Description,
		rec.Reasoning,
	)
	return err
}

func (r *PredictionRepository) SaveOutcome(ctx context.Context, outcome *models.InterventionOutcome) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO intervention_outcomes (
            customer_id, intervention_type, success, revenue_impact, created_at
        ) VALUES ($1, $2, $3, $4, now())`,
		outcome.CustomerID,
		outcome.InterventionType,
		outcome.Success,
		outcome.RevenueImpact,
	)
	return err
}
