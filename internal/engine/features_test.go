package engine

import (
	"testing"
	"time"

	"github.com/retentia/churnsight/internal/models"
)

func TestSyntheticIsDeterministic(t *testing.T) {
	fe := NewFeatureExtractor(time.Time{})

	a := fe.Synthetic(17)
	b := fe.Synthetic(17)
	if a != b {
		t.Fatalf("same id produced different features: %+v vs %+v", a, b)
	}

	c := fe.Synthetic(18)
	if a == c {
		t.Fatalf("different ids produced identical features")
	}
}

func TestSyntheticNegativeID(t *testing.T) {
	fe := NewFeatureExtractor(time.Time{})
	if fe.Synthetic(-7) != fe.Synthetic(7) {
		t.Fatalf("negative id should mirror its absolute value")
	}
}

func TestExtract(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fe := NewFeatureExtractor(reference)

	customer := &models.Customer{
		ID:             1,
		Plan:           "Enterprise",
		MRR:            500,
		HealthScore:    62,
		NPSScore:       8,
		SupportTickets: 4,
		SignupDate:     reference.AddDate(0, 0, -100),
		FeatureUsage: map[string]float64{
			"logins":            10,
			"claims_count":      2,
			"late_payment_days": 4,
		},
	}
	sessions := []*models.Session{
		{CustomerID: 1, StartedAt: reference.Add(-2 * time.Hour), EndedAt: reference.Add(-90 * time.Minute), PagesViewed: 10},
		{CustomerID: 1, StartedAt: reference.Add(-26 * time.Hour), EndedAt: reference.Add(-25 * time.Hour), PagesViewed: 20},
	}

	f := fe.Extract(customer, sessions)

	if f.HealthScore != 62 || f.NPSScore != 8 || f.SupportTickets != 4 || f.MRR != 500 {
		t.Fatalf("direct fields not carried over: %+v", f)
	}
	if f.PlanValue != 3 {
		t.Fatalf("PlanValue = %v, want 3 for enterprise", f.PlanValue)
	}
	// logins 10 + claims 2*5 + late payments 4*0.5
	if f.FeatureUsageTotal != 22 {
		t.Fatalf("FeatureUsageTotal = %v, want 22", f.FeatureUsageTotal)
	}
	if f.DaysSinceSignup != 100 {
		t.Fatalf("DaysSinceSignup = %v, want 100", f.DaysSinceSignup)
	}
	if f.DaysSinceLastLogin != neverLoggedInDays {
		t.Fatalf("zero LastLogin should default to %d days, got %v", neverLoggedInDays, f.DaysSinceLastLogin)
	}
	if f.SessionCount != 2 {
		t.Fatalf("SessionCount = %v, want 2", f.SessionCount)
	}
	if f.AvgSessionDuration != 45 {
		t.Fatalf("AvgSessionDuration = %v, want 45", f.AvgSessionDuration)
	}
	if f.TotalPagesViewed != 30 {
		t.Fatalf("TotalPagesViewed = %v, want 30", f.TotalPagesViewed)
	}
}

func TestExtractNoSessions(t *testing.T) {
	reference := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fe := NewFeatureExtractor(reference)

	f := fe.Extract(&models.Customer{ID: 2, LastLogin: reference.AddDate(0, 0, -3)}, nil)
	if f.SessionCount != 0 || f.AvgSessionDuration != 0 || f.TotalPagesViewed != 0 {
		t.Fatalf("empty session history should yield zero session features: %+v", f)
	}
	if f.DaysSinceLastLogin != 3 {
		t.Fatalf("DaysSinceLastLogin = %v, want 3", f.DaysSinceLastLogin)
	}
}

func TestPlanValue(t *testing.T) {
	cases := map[string]int{
		"enterprise":   3,
		"Enterprise":   3,
		"pro":          2,
		"professional": 2,
		"starter":      1,
		"free":         1,
		"":             1,
	}
	for plan, want := range cases {
		if got := planValue(plan); got != want {
			t.Errorf("planValue(%q) = %d, want %d", plan, got, want)
		}
	}
}

func TestDaysBetweenClampsNegative(t *testing.T) {
	now := time.Now()
	if got := daysBetween(now.Add(24*time.Hour), now); got != 0 {
		t.Fatalf("future timestamp should clamp to 0 days, got %v", got)
	}
}
