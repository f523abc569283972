package factories

import (
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/retentia/churnsight/internal/models"
)

var fake = faker.New()

// CustomerFactory generates plausible demo customers and session histories.
// Records carry a hand-set churn_risk so the seeded dataset works as a
// training set the same way an imported one does.
type CustomerFactory struct {
	rng *rand.Rand
	now time.Time
}

func NewCustomerFactory(seed int64, now time.Time) *CustomerFactory {
	if now.IsZero() {
		now = time.Now()
	}
	return &CustomerFactory{
		rng: rand.New(rand.NewSource(seed)),
		now: now,
	}
}

func (cf *CustomerFactory) assignSegment() string {
	r := cf.rng.Float64()

	if r < models.DefaultCustomerSegments["healthy"].Ratio {
		return "healthy"
	} else if r < models.DefaultCustomerSegments["healthy"].Ratio+models.DefaultCustomerSegments["at_risk"].Ratio {
		return "at_risk"
	}
	return "critical"
}

func (cf *CustomerFactory) CreateCustomer(id int) *models.Customer {
	segment := cf.assignSegment()
	profile := models.DefaultCustomerSegments[segment]

	health := profile.MinHealth + cf.rng.Float64()*(profile.MaxHealth-profile.MinHealth)

	// unhealthy accounts skew toward more tickets and longer inactivity
	tickets := cf.rng.Intn(4)
	idleDays := cf.rng.Intn(7)
	if segment == "at_risk" {
		tickets = 2 + cf.rng.Intn(5)
		idleDays = 5 + cf.rng.Intn(12)
	} else if segment == "critical" {
		tickets = 4 + cf.rng.Intn(8)
		idleDays = 12 + cf.rng.Intn(40)
	}

	plan := models.PlanStarter
	switch cf.rng.Intn(10) {
	case 0, 1:
		plan = models.PlanEnterprise
	case 2, 3, 4:
		plan = models.PlanPro
	}

	mrr := 100 + cf.rng.Float64()*400
	if plan == models.PlanPro {
		mrr = 400 + cf.rng.Float64()*800
	} else if plan == models.PlanEnterprise {
		mrr = 1500 + cf.rng.Float64()*4000
	}

	churnRisk := profile.ChurnRiskBase + (cf.rng.Float64()-0.5)*0.2
	if churnRisk < 0.02 {
		churnRisk = 0.02
	}
	if churnRisk > 0.98 {
		churnRisk = 0.98
	}

	return &models.Customer{
		ID:             id,
		Name:           fake.Person().Name(),
		Email:          fake.Internet().Email(),
		Company:        fake.Company().Name(),
		Plan:           plan,
		MRR:            mrr,
		HealthScore:    health,
		NPSScore:       float64(cf.rng.Intn(11)),
		SupportTickets: tickets,
		FeatureUsage: map[string]float64{
			"logins":            float64(cf.rng.Intn(60)),
			"reports_created":   float64(cf.rng.Intn(25)),
			"claims_count":      float64(cf.rng.Intn(4)),
			"late_payment_days": float64(cf.rng.Intn(20)),
		},
		SignupDate: fake.Time().TimeBetween(cf.now.AddDate(-3, 0, 0), cf.now.AddDate(0, -1, 0)),
		LastLogin:  cf.now.AddDate(0, 0, -idleDays),
		ChurnRisk:  churnRisk,
	}
}

// CreateSessions generates session history proportional to engagement:
// recently active accounts get more and longer sessions.
func (cf *CustomerFactory) CreateSessions(customer *models.Customer) []*models.Session {
	idle := cf.now.Sub(customer.LastLogin).Hours() / 24

	count := 10 + cf.rng.Intn(30)
	if idle > 14 {
		count = cf.rng.Intn(4)
	} else if idle > 7 {
		count = 3 + cf.rng.Intn(10)
	}

	sessions := make([]*models.Session, 0, count)
	for i := 0; i < count; i++ {
		start := fake.Time().TimeBetween(customer.SignupDate, customer.LastLogin)
		duration := time.Duration(3+cf.rng.Intn(40)) * time.Minute
		sessions = append(sessions, &models.Session{
			CustomerID:  customer.ID,
			StartedAt:   start,
			EndedAt:     start.Add(duration),
			PagesViewed: 1 + cf.rng.Intn(25),
		})
	}
	return sessions
}
