package factories

import (
	"testing"
	"time"

	"github.com/retentia/churnsight/internal/models"
)

func TestCreateCustomerDeterministicForSeed(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a := NewCustomerFactory(42, now).CreateCustomer(1)
	b := NewCustomerFactory(42, now).CreateCustomer(1)

	if a.Plan != b.Plan || a.MRR != b.MRR || a.HealthScore != b.HealthScore ||
		a.SupportTickets != b.SupportTickets || a.ChurnRisk != b.ChurnRisk {
		t.Fatalf("same seed produced different customers:\n%+v\n%+v", a, b)
	}
}

func TestCreateCustomerStaysInBounds(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	factory := NewCustomerFactory(7, now)

	plans := make(map[string]bool)
	for id := 1; id <= 200; id++ {
		c := factory.CreateCustomer(id)
		if c.HealthScore < 5 || c.HealthScore > 95 {
			t.Fatalf("health score out of segment bounds: %v", c.HealthScore)
		}
		if c.ChurnRisk < 0.02 || c.ChurnRisk > 0.98 {
			t.Fatalf("churn risk out of bounds: %v", c.ChurnRisk)
		}
		if c.MRR < 100 {
			t.Fatalf("MRR below floor: %v", c.MRR)
		}
		if c.SignupDate.After(c.LastLogin) && now.Sub(c.LastLogin) < 30*24*time.Hour {
			t.Fatalf("recently active customer signed up after last login: %+v", c)
		}
		plans[c.Plan] = true
	}

	for _, plan := range []string{models.PlanStarter, models.PlanPro, models.PlanEnterprise} {
		if !plans[plan] {
			t.Errorf("200 customers never landed on plan %q", plan)
		}
	}
}

func TestCreateSessionsMatchEngagement(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	factory := NewCustomerFactory(11, now)

	active := &models.Customer{
		ID:         1,
		SignupDate: now.AddDate(-1, 0, 0),
		LastLogin:  now.AddDate(0, 0, -2),
	}
	dormant := &models.Customer{
		ID:         2,
		SignupDate: now.AddDate(-1, 0, 0),
		LastLogin:  now.AddDate(0, 0, -30),
	}

	activeSessions := factory.CreateSessions(active)
	if len(activeSessions) < 10 {
		t.Errorf("active customer got %d sessions, want at least 10", len(activeSessions))
	}
	for _, s := range activeSessions {
		if s.CustomerID != active.ID {
			t.Fatalf("session assigned to wrong customer: %+v", s)
		}
		if !s.EndedAt.After(s.StartedAt) {
			t.Fatalf("session ends before it starts: %+v", s)
		}
		if s.PagesViewed < 1 {
			t.Fatalf("session with no pages viewed: %+v", s)
		}
	}

	if dormantSessions := factory.CreateSessions(dormant); len(dormantSessions) > 3 {
		t.Errorf("dormant customer got %d sessions, want at most 3", len(dormantSessions))
	}
}
