package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/retentia/churnsight/internal/models"
)

// unseenState encodes to high_high_high, which is not among the seeded
// canonical states, so its Q-values start at exactly zero.
func unseenState() models.CustomerFeatures {
	return models.CustomerFeatures{HealthScore: 90, SupportTickets: 6, DaysSinceLastLogin: 0}
}

func TestEncodeState(t *testing.T) {
	cases := []struct {
		features models.CustomerFeatures
		want     string
	}{
		{models.CustomerFeatures{HealthScore: 39, SupportTickets: 6, DaysSinceLastLogin: 15}, "low_high_low"},
		{models.CustomerFeatures{HealthScore: 40, SupportTickets: 3, DaysSinceLastLogin: 8}, "medium_medium_medium"},
		{models.CustomerFeatures{HealthScore: 70, SupportTickets: 2, DaysSinceLastLogin: 7}, "high_low_high"},
		{models.CustomerFeatures{HealthScore: 69.9, SupportTickets: 5, DaysSinceLastLogin: 14}, "medium_medium_medium"},
	}
	for _, tc := range cases {
		if got := encodeState(tc.features); got != tc.want {
			t.Errorf("encodeState(%+v) = %q, want %q", tc.features, got, tc.want)
		}
	}
}

func TestUpdatePolicyTerminal(t *testing.T) {
	ra := NewRecommendationAgent(0, 0.1, 0.9, 1)
	f := unseenState()

	ra.UpdatePolicy(f, models.ActionDiscountOffer, 1.0, nil)
	if got := ra.QValue(f, models.ActionDiscountOffer); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("Q after first terminal update = %v, want 0.1", got)
	}

	ra.UpdatePolicy(f, models.ActionDiscountOffer, 1.0, nil)
	if got := ra.QValue(f, models.ActionDiscountOffer); math.Abs(got-0.19) > 1e-9 {
		t.Fatalf("Q after second terminal update = %v, want 0.19", got)
	}
}

func TestUpdatePolicyBootstrapsFromNextState(t *testing.T) {
	ra := NewRecommendationAgent(0, 0.1, 0.9, 1)
	current := unseenState()
	// low_high_high: also unseen, used as the successor
	next := models.CustomerFeatures{HealthScore: 10, SupportTickets: 9, DaysSinceLastLogin: 0}

	ra.UpdatePolicy(next, models.ActionTrainingSession, 1.0, nil) // maxQ(next) becomes 0.1
	ra.UpdatePolicy(current, models.ActionDiscountOffer, 0, &next)

	// 0 + 0.1*(0 + 0.9*0.1 - 0)
	if got := ra.QValue(current, models.ActionDiscountOffer); math.Abs(got-0.009) > 1e-9 {
		t.Fatalf("bootstrapped Q = %v, want 0.009", got)
	}
}

func TestSelectActionExploits(t *testing.T) {
	ra := NewRecommendationAgent(0, 0.1, 0.9, 1)
	f := unseenState()

	rec := ra.SelectAction(f)
	if rec.Type != models.InterventionActions[0] {
		t.Fatalf("unseen state should default to %q, got %q", models.InterventionActions[0], rec.Type)
	}
	if !strings.HasPrefix(rec.Reasoning, "policy chose") {
		t.Errorf("exploit reasoning = %q", rec.Reasoning)
	}

	ra.UpdatePolicy(f, models.ActionTrainingSession, 1.0, nil)
	if rec := ra.SelectAction(f); rec.Type != models.ActionTrainingSession {
		t.Fatalf("after reward the greedy pick should follow the Q-table, got %q", rec.Type)
	}
}

func TestSelectActionExplores(t *testing.T) {
	ra := NewRecommendationAgent(1, 0.1, 0.9, 3)
	f := unseenState()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		rec := ra.SelectAction(f)
		seen[rec.Type] = true
		if !strings.HasPrefix(rec.Reasoning, "exploring") {
			t.Fatalf("epsilon 1 should always explore, reasoning = %q", rec.Reasoning)
		}
	}
	if len(seen) != len(models.InterventionActions) {
		t.Fatalf("exploration covered %d of %d actions", len(seen), len(models.InterventionActions))
	}
}

func TestSelectActionRevenueEstimate(t *testing.T) {
	ra := NewRecommendationAgent(0, 0.1, 0.9, 1)
	f := unseenState()
	f.MRR = 500

	rec := ra.SelectAction(f)
	want := 500 * 12 * rec.EstimatedSuccess
	if math.Abs(rec.EstimatedRevenueSaved-want) > 1e-9 {
		t.Fatalf("EstimatedRevenueSaved = %v, want %v", rec.EstimatedRevenueSaved, want)
	}
	if rec.Description == "" {
		t.Errorf("recommendation should carry a description")
	}
}

func TestResetReseedsCanonicalStates(t *testing.T) {
	ra := NewRecommendationAgent(0, 0.1, 0.9, 1)
	f := unseenState()
	ra.UpdatePolicy(f, models.ActionDiscountOffer, 1.0, nil)

	ra.Reset()
	if got := ra.QValue(f, models.ActionDiscountOffer); got != 0 {
		t.Fatalf("Reset should drop learned state, Q = %v", got)
	}
	for _, state := range seedStates {
		values, ok := ra.qTable[state]
		if !ok {
			t.Fatalf("canonical state %q missing after Reset", state)
		}
		for action, v := range values {
			if v < 0 || v >= 0.1 {
				t.Fatalf("seed Q for %s/%s = %v, want [0, 0.1)", state, action, v)
			}
		}
	}
}

func TestPriorityScore(t *testing.T) {
	f := models.CustomerFeatures{HealthScore: 30, SupportTickets: 4, DaysSinceLastLogin: 15}
	// (100-30)*0.3 + 4*5 + (15/30)*20
	want := 51.0
	if got := priorityScore(f); math.Abs(got-want) > 1e-9 {
		t.Fatalf("priorityScore = %v, want %v", got, want)
	}
}

func TestPriorityFor(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{61, models.PriorityHigh},
		{60, models.PriorityMedium},
		{31, models.PriorityMedium},
		{30, models.PriorityLow},
		{0, models.PriorityLow},
	}
	for _, tc := range cases {
		if got := priorityFor(tc.score); got != tc.want {
			t.Errorf("priorityFor(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestEstimatedSuccess(t *testing.T) {
	// base 0.65 + health + nps + ticket bonuses
	happy := models.CustomerFeatures{HealthScore: 80, NPSScore: 8, SupportTickets: 0}
	if got := estimatedSuccess(models.ActionDiscountOffer, happy); math.Abs(got-0.85) > 1e-9 {
		t.Errorf("all bonuses: got %v, want 0.85", got)
	}

	grumpy := models.CustomerFeatures{HealthScore: 20, NPSScore: 2, SupportTickets: 9}
	if got := estimatedSuccess(models.ActionExecutiveReview, grumpy); math.Abs(got-0.45) > 1e-9 {
		t.Errorf("no bonuses: got %v, want base 0.45", got)
	}

	if got := estimatedSuccess("unknown_action", grumpy); got != 0.1 {
		t.Errorf("floor: got %v, want 0.1", got)
	}
}

func TestOutcomeReward(t *testing.T) {
	cases := []struct {
		success bool
		revenue float64
		want    float64
	}{
		{true, 0, 1.0},
		{false, 0, -0.5},
		{true, 3000, 1.3},
		{true, 20000, 1.5},  // revenue bonus capped at 0.5
		{false, 20000, 0.0}, // cap applies to failures too
	}
	for _, tc := range cases {
		if got := outcomeReward(tc.success, tc.revenue); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("outcomeReward(%v, %v) = %v, want %v", tc.success, tc.revenue, got, tc.want)
		}
	}
}
