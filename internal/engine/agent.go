package engine

import (
	"fmt"
	"math/rand"

	"github.com/retentia/churnsight/internal/models"
)

// RecommendationAgent maps a coarse customer state to an intervention via an
// epsilon-greedy policy over a tabular Q-function. The table is persistent
// associative memory: it grows lazily as new encoded states show up and is
// updated incrementally from reported outcomes.
type RecommendationAgent struct {
	epsilon float64
	alpha   float64
	gamma   float64

	qTable map[string]map[string]float64
	rng    *rand.Rand
}

// Canonical states seeded at construction so the cold-start policy is not
// uniformly zero.
var seedStates = []string{
	"low_high_low",
	"low_medium_low",
	"medium_medium_medium",
	"high_low_high",
	"high_low_medium",
}

var actionBaseSuccess = map[string]float64{
	models.ActionPersonalOutreach: 0.55,
	models.ActionDiscountOffer:    0.65,
	models.ActionTrainingSession:  0.50,
	models.ActionPrioritySupport:  0.60,
	models.ActionExecutiveReview:  0.45,
}

var actionDescriptions = map[string]string{
	models.ActionPersonalOutreach: "Personal outreach call from the customer success manager",
	models.ActionDiscountOffer:    "Time-limited renewal discount offer",
	models.ActionTrainingSession:  "Guided product training session for the account team",
	models.ActionPrioritySupport:  "Priority support queue placement and ticket review",
	models.ActionExecutiveReview:  "Executive business review with account leadership",
}

func NewRecommendationAgent(epsilon, alpha, gamma float64, seed int64) *RecommendationAgent {
	ra := &RecommendationAgent{
		epsilon: epsilon,
		alpha:   alpha,
		gamma:   gamma,
		rng:     rand.New(rand.NewSource(seed)),
	}
	ra.Reset()
	return ra
}

// Reset discards the learned policy and reseeds the canonical states with
// small random Q-values.
func (ra *RecommendationAgent) Reset() {
	ra.qTable = make(map[string]map[string]float64, len(seedStates))
	for _, state := range seedStates {
		values := make(map[string]float64, len(models.InterventionActions))
		for _, action := range models.InterventionActions {
			values[action] = ra.rng.Float64() * 0.1
		}
		ra.qTable[state] = values
	}
}

// SelectAction picks an intervention for the encoded state: with probability
// epsilon a uniformly random action, otherwise the highest-valued one. An
// unseen state exploits the first action in the fixed list.
func (ra *RecommendationAgent) SelectAction(features models.CustomerFeatures) *models.InterventionRecommendation {
	state := encodeState(features)

	var action string
	explored := ra.rng.Float64() < ra.epsilon
	if explored {
		action = models.InterventionActions[ra.rng.Intn(len(models.InterventionActions))]
	} else {
		action = ra.bestAction(state)
	}

	success := estimatedSuccess(action, features)
	priority := priorityFor(priorityScore(features))

	reasoning := fmt.Sprintf("policy chose %s for state %s", action, state)
	if explored {
		reasoning = fmt.Sprintf("exploring %s for state %s", action, state)
	}

	return &models.InterventionRecommendation{
		Type:                  action,
		Priority:              priority,
		EstimatedSuccess:      success,
		EstimatedRevenueSaved: features.MRR * 12 * success,
		Description:           actionDescriptions[action],
		Reasoning:             reasoning,
	}
}

// UpdatePolicy applies the tabular Q-learning update
// Q(s,a) += alpha * (reward + gamma*max_a' Q(s',a') - Q(s,a)).
// A nil next state is a terminal transition: the future term is zero.
func (ra *RecommendationAgent) UpdatePolicy(state models.CustomerFeatures, action string, reward float64, nextState *models.CustomerFeatures) {
	encoded := encodeState(state)
	values, ok := ra.qTable[encoded]
	if !ok {
		values = make(map[string]float64, len(models.InterventionActions))
		for _, a := range models.InterventionActions {
			values[a] = 0
		}
		ra.qTable[encoded] = values
	}

	var future float64
	if nextState != nil {
		future = ra.maxQ(encodeState(*nextState))
	}

	current := values[action]
	values[action] = current + ra.alpha*(reward+ra.gamma*future-current)
}

// QValue reports the current value of a (state, action) pair.
func (ra *RecommendationAgent) QValue(features models.CustomerFeatures, action string) float64 {
	return ra.qTable[encodeState(features)][action]
}

func (ra *RecommendationAgent) bestAction(state string) string {
	values, ok := ra.qTable[state]
	if !ok {
		return models.InterventionActions[0]
	}
	best := models.InterventionActions[0]
	bestValue := values[best]
	for _, action := range models.InterventionActions[1:] {
		if values[action] > bestValue {
			best = action
			bestValue = values[action]
		}
	}
	return best
}

func (ra *RecommendationAgent) maxQ(state string) float64 {
	values, ok := ra.qTable[state]
	if !ok || len(values) == 0 {
		return 0
	}
	first := true
	var max float64
	for _, v := range values {
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

// encodeState buckets health, support load, and engagement into three tiers
// each, producing keys like "low_high_medium".
func encodeState(f models.CustomerFeatures) string {
	var health string
	switch {
	case f.HealthScore < 40:
		health = "low"
	case f.HealthScore < 70:
		health = "medium"
	default:
		health = "high"
	}

	var support string
	switch {
	case f.SupportTickets > 5:
		support = "high"
	case f.SupportTickets > 2:
		support = "medium"
	default:
		support = "low"
	}

	var engagement string
	switch {
	case f.DaysSinceLastLogin > 14:
		engagement = "low"
	case f.DaysSinceLastLogin > 7:
		engagement = "medium"
	default:
		engagement = "high"
	}

	return fmt.Sprintf("%s_%s_%s", health, support, engagement)
}

// priorityScore is a weighted risk score independent of the ensemble's risk
// level; the two may disagree, which is a documented characteristic of the
// system, not a bug.
func priorityScore(f models.CustomerFeatures) float64 {
	return (100-f.HealthScore)*0.3 + f.SupportTickets*5 + (f.DaysSinceLastLogin/30)*20
}

func priorityFor(score float64) string {
	switch {
	case score > 60:
		return models.PriorityHigh
	case score > 30:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// estimatedSuccess adjusts the per-action base rate by small bonuses for
// healthy, happy, low-ticket accounts, clamped to [0.1, 0.95].
func estimatedSuccess(action string, f models.CustomerFeatures) float64 {
	success := actionBaseSuccess[action]
	if f.HealthScore > 70 {
		success += 0.10
	}
	if f.NPSScore > 7 {
		success += 0.05
	}
	if f.SupportTickets < 3 {
		success += 0.05
	}

	if success < 0.1 {
		success = 0.1
	}
	if success > 0.95 {
		success = 0.95
	}
	return success
}

// outcomeReward shapes the reported outcome into a scalar reward: success is
// 1.0, failure -0.5, with a capped bonus for reported revenue impact.
func outcomeReward(success bool, revenueImpact float64) float64 {
	reward := -0.5
	if success {
		reward = 1.0
	}
	if revenueImpact > 0 {
		bonus := revenueImpact / 10000
		if bonus > 0.5 {
			bonus = 0.5
		}
		reward += bonus
	}
	return reward
}
