package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/lucsky/cuid"
	"github.com/retentia/churnsight/internal/engine"
	"github.com/retentia/churnsight/internal/models"
	"github.com/retentia/churnsight/internal/repositories"
	"github.com/schollz/progressbar/v3"
)

// Runner drives one batch scoring pass: train the engine, score every
// customer, emit prediction and recommendation events, and optionally feed
// simulated outcomes back into the policy.
type Runner struct {
	Config      *models.Config
	Engine      *engine.Engine
	Customers   repositories.CustomerRepository
	Predictions repositories.PredictionRepository // optional database sink

	rng *rand.Rand
	out OutputDestination
}

func NewRunner(cfg *models.Config, eng *engine.Engine, customers repositories.CustomerRepository) *Runner {
	return &Runner{
		Config:    cfg,
		Engine:    eng,
		Customers: customers,
		rng:       rand.New(rand.NewSource(int64(cfg.Seed))),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	out, err := r.determineOutputDestination()
	if err != nil {
		return err
	}
	r.out = out
	defer func() {
		if err := r.out.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
	}()

	log.Printf("Initializing churn engine (seed %d, %d trees)", r.Config.Seed, r.Config.NumTrees)
	if err := r.Engine.Initialize(ctx); err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}

	ids, err := r.customerIDs(ctx)
	if err != nil {
		return err
	}

	now := r.referenceTime()
	riskCounts := make(map[string]int)

	bar := progressbar.Default(int64(len(ids)), "scoring customers")
	for _, id := range ids {
		if err := r.scoreCustomer(ctx, id, now, riskCounts); err != nil {
			return err
		}
		bar.Add(1)
	}

	if err := r.emitImportances(ctx, now); err != nil {
		return err
	}

	log.Printf("Scored %d customers: %d high risk, %d medium, %d low",
		len(ids), riskCounts[models.RiskLevelHigh], riskCounts[models.RiskLevelMedium], riskCounts[models.RiskLevelLow])
	return nil
}

func (r *Runner) scoreCustomer(ctx context.Context, id int, now time.Time, riskCounts map[string]int) error {
	prediction, err := r.Engine.PredictChurn(ctx, id)
	if err != nil {
		return fmt.Errorf("predicting customer %d: %w", id, err)
	}
	riskCounts[prediction.RiskLevel]++

	factors, err := json.Marshal(prediction.TopFactors)
	if err != nil {
		return err
	}
	actions, err := json.Marshal(prediction.RecommendedActions)
	if err != nil {
		return err
	}

	if err := r.emit(TopicPredictions, ChurnPredictionEvent{
		BaseEvent:          NewBaseEvent(TopicPredictions, id, now),
		ChurnProbability:   prediction.ChurnProbability,
		RiskLevel:          prediction.RiskLevel,
		Confidence:         prediction.Confidence,
		TopFactors:         string(factors),
		RecommendedActions: string(actions),
	}); err != nil {
		return err
	}

	rec, err := r.Engine.RecommendIntervention(ctx, id)
	if err != nil {
		return fmt.Errorf("recommending for customer %d: %w", id, err)
	}

	if err := r.emit(TopicRecommendations, InterventionRecommendationEvent{
		BaseEvent:             NewBaseEvent(TopicRecommendations, id, now),
		RecommendationID:      cuid.New(),
		InterventionType:      rec.Type,
		Priority:              rec.Priority,
		EstimatedSuccess:      rec.EstimatedSuccess,
		EstimatedRevenueSaved: rec.EstimatedRevenueSaved,
		Description:           rec.Description,
		Reasoning:             rec.Reasoning,
	}); err != nil {
		return err
	}

	if r.Predictions != nil {
		if err := r.Predictions.SavePrediction(ctx, prediction); err != nil {
			return err
		}
		if err := r.Predictions.SaveRecommendation(ctx, id, rec); err != nil {
			return err
		}
	}

	if r.Config.SimulateOutcomes {
		return r.simulateOutcome(ctx, id, rec, now)
	}
	return nil
}

// simulateOutcome plays the recommendation back as a reported outcome, with
// success drawn at the recommendation's own estimated rate, so demo runs
// exercise the policy update path.
func (r *Runner) simulateOutcome(ctx context.Context, id int, rec *models.InterventionRecommendation, now time.Time) error {
	success := r.rng.Float64() < rec.EstimatedSuccess
	var revenueImpact float64
	if success {
		revenueImpact = rec.EstimatedRevenueSaved
	}

	if err := r.Engine.UpdateInterventionOutcome(ctx, id, rec.Type, success, revenueImpact); err != nil {
		return fmt.Errorf("updating outcome for customer %d: %w", id, err)
	}

	outcome := &models.InterventionOutcome{
		CustomerID:       id,
		InterventionType: rec.Type,
		Success:          success,
		RevenueImpact:    revenueImpact,
	}
	if r.Predictions != nil {
		if err := r.Predictions.SaveOutcome(ctx, outcome); err != nil {
			return err
		}
	}

	return r.emit(TopicOutcomes, InterventionOutcomeEvent{
		BaseEvent:        NewBaseEvent(TopicOutcomes, id, now),
		OutcomeID:        cuid.New(),
		InterventionType: rec.Type,
		Success:          success,
		RevenueImpact:    revenueImpact,
	})
}

func (r *Runner) emitImportances(ctx context.Context, now time.Time) error {
	importances, err := r.Engine.FeatureImportances()
	if err != nil {
		return err
	}
	for _, imp := range importances {
		if err := r.emit(TopicImportances, FeatureImportanceEvent{
			Timestamp:       now.Unix(),
			EventType:       TopicImportances,
			Feature:         imp.Feature,
			DisplayName:     imp.DisplayName,
			Importance:      imp.Importance,
			Impact:          imp.Impact,
			ConfidenceLevel: imp.ConfidenceLevel,
			Actionability:   imp.Actionability,
		}); err != nil {
			return err
		}
	}
	return nil
}

// customerIDs resolves the ids to score: the stored dataset when one exists,
// otherwise a synthetic id range.
func (r *Runner) customerIDs(ctx context.Context) ([]int, error) {
	if r.Customers != nil {
		customers, err := r.Customers.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(customers) > 0 {
			ids := make([]int, len(customers))
			for i, c := range customers {
				ids[i] = c.ID
			}
			return ids, nil
		}
	}

	n := r.Config.InitialCustomers
	if n <= 0 {
		n = 100
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids, nil
}

func (r *Runner) referenceTime() time.Time {
	if !r.Config.ReferenceTime.IsZero() {
		return r.Config.ReferenceTime
	}
	return time.Now()
}

func (r *Runner) emit(topic string, event interface{}) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.out.WriteMessage(topic, msg)
}
