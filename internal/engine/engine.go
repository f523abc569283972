package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/retentia/churnsight/internal/models"
	"github.com/retentia/churnsight/internal/repositories"
)

var (
	// ErrNotInitialized is returned by predict, recommend, and importance
	// calls before Initialize has trained the predictor.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrCustomerNotFound is returned when a configured real dataset does
	// not contain the requested id. It never fires in synthetic mode, where
	// features are a pure function of the id.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrMalformedTrainingInput is returned for mismatched or empty
	// training pairs, before any tree is built.
	ErrMalformedTrainingInput = errors.New("malformed training input")
)

// Engine is the scoring facade. It owns the trained ensemble and the
// recommendation policy; construct one per composition root and pass it
// explicitly rather than sharing a global.
//
// Train and policy updates take the write lock; predictions and
// recommendations against a stable trained model run under the read lock.
type Engine struct {
	mu sync.RWMutex

	cfg       *models.Config
	customers repositories.CustomerRepository
	sessions  repositories.SessionRepository

	extractor *FeatureExtractor
	predictor *EnsemblePredictor
	agent     *RecommendationAgent

	rng         *rand.Rand
	initialized bool
	hasDataset  bool
}

// New builds an engine. Both repositories may be nil; the engine then runs in
// pure synthetic mode.
func New(cfg *models.Config, customers repositories.CustomerRepository, sessions repositories.SessionRepository) *Engine {
	return &Engine{
		cfg:       cfg,
		customers: customers,
		sessions:  sessions,
		extractor: NewFeatureExtractor(cfg.ReferenceTime),
		rng:       rand.New(rand.NewSource(int64(cfg.Seed))),
	}
}

// Initialize trains the predictor and reseeds the agent. It is idempotent:
// calling it again retrains from scratch, discarding all learned state. When
// no dataset is available it trains on synthetic pairs labeled by a linear
// risk heuristic.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.predictor = NewEnsemblePredictor(e.cfg.NumTrees, e.cfg.MaxTreeDepth, e.cfg.MinSamplesSplit, int64(e.cfg.Seed))
	e.agent = NewRecommendationAgent(e.cfg.ExplorationRate, e.cfg.LearningRate, e.cfg.DiscountFactor, int64(e.cfg.Seed))

	features, labels, err := e.trainingSet(ctx)
	if err != nil {
		return err
	}

	if err := e.predictor.Train(features, labels); err != nil {
		return err
	}

	e.initialized = true
	return nil
}

// trainingSet resolves the configured dataset, falling back to synthetic
// pairs when no customers are available. Real records are labeled by their
// own churn_risk field; synthetic ones by the linear heuristic.
func (e *Engine) trainingSet(ctx context.Context) ([]models.CustomerFeatures, []float64, error) {
	e.hasDataset = false

	if e.customers != nil {
		customers, err := e.customers.GetAll(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("loading customers: %w", err)
		}
		if len(customers) > 0 {
			e.hasDataset = true
			features := make([]models.CustomerFeatures, len(customers))
			labels := make([]float64, len(customers))
			for i, c := range customers {
				sessions, err := e.customerSessions(ctx, c.ID)
				if err != nil {
					return nil, nil, err
				}
				features[i] = e.extractor.Extract(c, sessions)
				labels[i] = clamp01(c.ChurnRisk)
			}
			return features, labels, nil
		}
	}

	n := e.cfg.TrainingSamples
	if n <= 0 {
		n = 100
	}
	features := make([]models.CustomerFeatures, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		features[i] = e.randomFeatures()
		labels[i] = syntheticLabel(features[i])
	}
	return features, labels, nil
}

// randomFeatures samples each field uniformly within its plausible range.
func (e *Engine) randomFeatures() models.CustomerFeatures {
	sessionCount := float64(e.rng.Intn(50))
	return models.CustomerFeatures{
		HealthScore:        e.rng.Float64() * 100,
		NPSScore:           e.rng.Float64() * 10,
		SupportTickets:     float64(e.rng.Intn(15)),
		FeatureUsageTotal:  e.rng.Float64() * 300,
		DaysSinceSignup:    float64(e.rng.Intn(1000)),
		DaysSinceLastLogin: float64(e.rng.Intn(60)),
		MRR:                50 + e.rng.Float64()*2000,
		PlanValue:          float64(1 + e.rng.Intn(3)),
		SessionCount:       sessionCount,
		AvgSessionDuration: e.rng.Float64() * 45,
		TotalPagesViewed:   sessionCount * float64(e.rng.Intn(12)),
	}
}

// syntheticLabel is the hand-authored linear risk heuristic used when no real
// churn_risk labels exist: low health, heavy support load, and long
// inactivity push the label toward 1.
func syntheticLabel(f models.CustomerFeatures) float64 {
	tickets := f.SupportTickets
	if tickets > 10 {
		tickets = 10
	}
	idle := f.DaysSinceLastLogin
	if idle > 30 {
		idle = 30
	}
	return clamp01(0.5*(100-f.HealthScore)/100 + 0.3*tickets/10 + 0.2*idle/30)
}

// PredictChurn scores one customer and stamps the id onto the result.
func (e *Engine) PredictChurn(ctx context.Context, customerID int) (*models.ChurnPrediction, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return nil, fmt.Errorf("%w: call Initialize first", ErrNotInitialized)
	}

	features, err := e.resolveFeatures(ctx, customerID)
	if err != nil {
		return nil, err
	}

	prediction, err := e.predictor.Predict(features)
	if err != nil {
		return nil, err
	}
	prediction.CustomerID = customerID
	return prediction, nil
}

func (e *Engine) RecommendIntervention(ctx context.Context, customerID int) (*models.InterventionRecommendation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, fmt.Errorf("%w: call Initialize first", ErrNotInitialized)
	}

	features, err := e.resolveFeatures(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return e.agent.SelectAction(features), nil
}

// UpdateInterventionOutcome shapes the reported outcome into a reward and
// feeds it to the agent as a terminal transition.
func (e *Engine) UpdateInterventionOutcome(ctx context.Context, customerID int, interventionType string, success bool, revenueImpact float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return fmt.Errorf("%w: call Initialize first", ErrNotInitialized)
	}

	features, err := e.resolveFeatures(ctx, customerID)
	if err != nil {
		return err
	}

	e.agent.UpdatePolicy(features, interventionType, outcomeReward(success, revenueImpact), nil)
	return nil
}

func (e *Engine) FeatureImportances() ([]models.FeatureImportance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return nil, fmt.Errorf("%w: call Initialize first", ErrNotInitialized)
	}
	return e.predictor.FeatureImportances()
}

// resolveFeatures extracts features from the configured dataset, or derives
// synthetic ones when no dataset is configured at all. A configured dataset
// that lacks the id is a lookup failure, never a silent synthetic substitute.
func (e *Engine) resolveFeatures(ctx context.Context, customerID int) (models.CustomerFeatures, error) {
	if !e.hasDataset {
		return e.extractor.Synthetic(customerID), nil
	}

	customer, err := e.customers.GetByID(ctx, customerID)
	if err != nil {
		return models.CustomerFeatures{}, fmt.Errorf("looking up customer %d: %w", customerID, err)
	}
	if customer == nil {
		return models.CustomerFeatures{}, fmt.Errorf("%w: id %d", ErrCustomerNotFound, customerID)
	}

	sessions, err := e.customerSessions(ctx, customerID)
	if err != nil {
		return models.CustomerFeatures{}, err
	}
	return e.extractor.Extract(customer, sessions), nil
}

func (e *Engine) customerSessions(ctx context.Context, customerID int) ([]*models.Session, error) {
	if e.sessions == nil {
		return nil, nil
	}
	sessions, err := e.sessions.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for customer %d: %w", customerID, err)
	}
	return sessions, nil
}
