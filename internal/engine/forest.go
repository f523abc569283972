package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/retentia/churnsight/internal/models"
	"github.com/schollz/progressbar/v3"
)

// EnsemblePredictor is a bagged collection of regression trees over churn
// risk labels in [0,1]. Trees are independent: each trains on its own
// bootstrap sample and keeps no shared state.
type EnsemblePredictor struct {
	numTrees        int
	maxDepth        int
	minSamplesSplit int

	trees       []*treeNode
	importances map[int]float64 // mean gain credit per feature index across trees
	rng         *rand.Rand
	trained     bool
}

func NewEnsemblePredictor(numTrees, maxDepth, minSamplesSplit int, seed int64) *EnsemblePredictor {
	if numTrees <= 0 {
		numTrees = 10
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if minSamplesSplit <= 0 {
		minSamplesSplit = 5
	}
	return &EnsemblePredictor{
		numTrees:        numTrees,
		maxDepth:        maxDepth,
		minSamplesSplit: minSamplesSplit,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// Train builds the forest from feature/label pairs. Previous trees and
// importance credit are discarded, not merged.
func (ep *EnsemblePredictor) Train(features []models.CustomerFeatures, labels []float64) error {
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d feature vectors vs %d labels", ErrMalformedTrainingInput, len(features), len(labels))
	}
	if len(features) == 0 {
		return fmt.Errorf("%w: empty training set", ErrMalformedTrainingInput)
	}

	data := make([]sample, len(features))
	for i, f := range features {
		data[i] = sample{features: f.Vector(), label: labels[i]}
	}

	ep.trees = make([]*treeNode, 0, ep.numTrees)
	ep.importances = make(map[int]float64)

	bar := progressbar.Default(int64(ep.numTrees), "training trees")
	for t := 0; t < ep.numTrees; t++ {
		boot := ep.bootstrapSample(data)
		tree, deltas := buildTree(boot, 0, ep.maxDepth, ep.minSamplesSplit)
		ep.trees = append(ep.trees, tree)
		for idx, gain := range deltas {
			ep.importances[idx] += gain
		}
		bar.Add(1)
	}

	// average the accumulated credit over the ensemble
	for idx := range ep.importances {
		ep.importances[idx] /= float64(ep.numTrees)
	}

	ep.trained = true
	return nil
}

// bootstrapSample resamples with replacement to the same size as the input.
func (ep *EnsemblePredictor) bootstrapSample(data []sample) []sample {
	boot := make([]sample, len(data))
	for i := range data {
		boot[i] = data[ep.rng.Intn(len(data))]
	}
	return boot
}

func (ep *EnsemblePredictor) Predict(features models.CustomerFeatures) (*models.ChurnPrediction, error) {
	if !ep.trained {
		return nil, fmt.Errorf("%w: predict called on untrained model", ErrNotInitialized)
	}

	vector := features.Vector()
	predictions := make([]float64, len(ep.trees))
	var sum float64
	for i, tree := range ep.trees {
		predictions[i] = tree.predict(vector)
		sum += predictions[i]
	}

	probability := clamp01(sum / float64(len(ep.trees)))

	var variance float64
	for _, p := range predictions {
		d := p - probability
		variance += d * d
	}
	variance /= float64(len(predictions))
	confidence := clamp01(1 - math.Sqrt(variance))

	topFactors := ep.topFactors(features, 3)

	return &models.ChurnPrediction{
		ChurnProbability:   probability,
		RiskLevel:          riskLevel(probability),
		Confidence:         confidence,
		TopFactors:         topFactors,
		RecommendedActions: recommendedActions(riskLevel(probability), topFactors),
	}, nil
}

// FeatureImportances reports the top 8 features, normalized so the returned
// importances sum to 100, sorted descending.
func (ep *EnsemblePredictor) FeatureImportances() ([]models.FeatureImportance, error) {
	if !ep.trained {
		return nil, fmt.Errorf("%w: feature importances requested before training", ErrNotInitialized)
	}

	ranked := ep.rankedFeatures()
	if len(ranked) > 8 {
		ranked = ranked[:8]
	}

	var total float64
	for _, r := range ranked {
		total += r.gain
	}

	result := make([]models.FeatureImportance, 0, len(ranked))
	for _, r := range ranked {
		pct := 100.0 / float64(len(ranked))
		if total > 0 {
			pct = r.gain / total * 100
		}
		name := models.FeatureNames[r.index]
		result = append(result, models.FeatureImportance{
			Feature:         name,
			DisplayName:     featureDisplayNames[name],
			Importance:      pct,
			Impact:          featureImpact(name),
			Description:     featureDescriptions[name],
			ConfidenceLevel: importanceConfidence(pct),
			Actionability:   featureActionability(name),
		})
	}

	return result, nil
}

type rankedFeature struct {
	index int
	gain  float64
}

func (ep *EnsemblePredictor) rankedFeatures() []rankedFeature {
	ranked := make([]rankedFeature, 0, len(models.FeatureNames))
	for idx := range models.FeatureNames {
		ranked = append(ranked, rankedFeature{index: idx, gain: ep.importances[idx]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].gain > ranked[j].gain })
	return ranked
}

func (ep *EnsemblePredictor) topFactors(features models.CustomerFeatures, n int) []models.TopFactor {
	ranked := ep.rankedFeatures()
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	vector := features.Vector()
	factors := make([]models.TopFactor, 0, len(ranked))
	for _, r := range ranked {
		name := models.FeatureNames[r.index]
		factors = append(factors, models.TopFactor{
			Feature:     name,
			Importance:  r.gain,
			Impact:      featureImpact(name),
			Description: fmt.Sprintf("%s is %.1f for this customer", featureDisplayNames[name], vector[r.index]),
		})
	}
	return factors
}

func riskLevel(probability float64) string {
	switch {
	case probability > 0.7:
		return models.RiskLevelHigh
	case probability > 0.4:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

// recommendedActions builds a short action list from the risk level and
// which of the top factors are support, usage, or health related. Capped at
// three entries.
func recommendedActions(risk string, topFactors []models.TopFactor) []string {
	var actions []string
	if risk == models.RiskLevelHigh {
		actions = append(actions, "Schedule an immediate customer success outreach")
	}

	seen := make(map[string]bool)
	for _, factor := range topFactors {
		var action string
		switch factor.Feature {
		case "support_tickets":
			action = "Escalate and resolve open support tickets"
		case "feature_usage_total", "session_count", "avg_session_duration", "total_pages_viewed", "days_since_last_login":
			action = "Set up a product training session to lift usage"
		case "health_score", "nps_score":
			action = "Run a health check call and collect feedback"
		}
		if action != "" && !seen[action] {
			seen[action] = true
			actions = append(actions, action)
		}
	}

	if len(actions) == 0 {
		actions = append(actions, "Continue monitoring usage trends")
	}
	if len(actions) > 3 {
		actions = actions[:3]
	}
	return actions
}

var featureDisplayNames = map[string]string{
	"health_score":          "Health Score",
	"nps_score":             "NPS Score",
	"support_tickets":       "Support Tickets",
	"feature_usage_total":   "Feature Usage",
	"days_since_signup":     "Account Age",
	"days_since_last_login": "Days Since Last Login",
	"mrr":                   "Monthly Recurring Revenue",
	"plan_value":            "Plan Tier",
	"session_count":         "Session Count",
	"avg_session_duration":  "Average Session Duration",
	"total_pages_viewed":    "Pages Viewed",
}

var featureDescriptions = map[string]string{
	"health_score":          "Composite account health from product and billing signals",
	"nps_score":             "Latest net promoter survey response",
	"support_tickets":       "Open and recently filed support tickets",
	"feature_usage_total":   "Weighted total of feature usage counters",
	"days_since_signup":     "Days since the account was created",
	"days_since_last_login": "Days since anyone from the account logged in",
	"mrr":                   "Monthly recurring revenue for the account",
	"plan_value":            "Ordinal plan tier (starter, pro, enterprise)",
	"session_count":         "Number of recorded product sessions",
	"avg_session_duration":  "Mean session length in minutes",
	"total_pages_viewed":    "Pages viewed across all recorded sessions",
}

// Hand-authored impact directions: these three rise with churn risk, the
// rest indicate retention when high.
var riskIncreasingFeatures = map[string]bool{
	"support_tickets":       true,
	"days_since_last_login": true,
	"days_since_signup":     true,
}

var highActionabilityFeatures = map[string]bool{
	"support_tickets":       true,
	"days_since_last_login": true,
	"feature_usage_total":   true,
	"health_score":          true,
}

var mediumActionabilityFeatures = map[string]bool{
	"nps_score":            true,
	"session_count":        true,
	"avg_session_duration": true,
	"total_pages_viewed":   true,
}

func featureImpact(name string) string {
	if riskIncreasingFeatures[name] {
		return models.ImpactNegative
	}
	return models.ImpactPositive
}

func featureActionability(name string) string {
	switch {
	case highActionabilityFeatures[name]:
		return "high"
	case mediumActionabilityFeatures[name]:
		return "medium"
	default:
		return "low"
	}
}

func importanceConfidence(importance float64) string {
	switch {
	case importance >= 20:
		return "high"
	case importance >= 10:
		return "medium"
	default:
		return "low"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
