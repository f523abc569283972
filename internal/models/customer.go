package models

import (
	"time"
)

type Customer struct {
	ID             int                `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Company        string             `json:"company"`
	Plan           string             `json:"plan"`
	MRR            float64            `json:"mrr"`
	HealthScore    float64            `json:"health_score"`
	NPSScore       float64            `json:"nps_score"`
	SupportTickets int                `json:"support_tickets"`
	FeatureUsage   map[string]float64 `json:"feature_usage"`
	SignupDate     time.Time          `json:"signup_date"`
	LastLogin      time.Time          `json:"last_login"` // zero when the customer never logged in
	ChurnRisk      float64            `json:"churn_risk"`
}

type Session struct {
	CustomerID  int       `json:"customer_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	PagesViewed int       `json:"pages_viewed"`
}

// CustomerFeatures is the fixed-arity numeric summary of a customer used as
// model input. Every field is always set; missing source data is defaulted,
// never left null, because the tree logic indexes features positionally.
type CustomerFeatures struct {
	HealthScore        float64 `json:"health_score"`
	NPSScore           float64 `json:"nps_score"`
	SupportTickets     float64 `json:"support_tickets"`
	FeatureUsageTotal  float64 `json:"feature_usage_total"`
	DaysSinceSignup    float64 `json:"days_since_signup"`
	DaysSinceLastLogin float64 `json:"days_since_last_login"`
	MRR                float64 `json:"mrr"`
	PlanValue          float64 `json:"plan_value"`
	SessionCount       float64 `json:"session_count"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	TotalPagesViewed   float64 `json:"total_pages_viewed"`
}

// FeatureNames lists feature vector positions. The order must match Vector.
var FeatureNames = []string{
	"health_score",
	"nps_score",
	"support_tickets",
	"feature_usage_total",
	"days_since_signup",
	"days_since_last_login",
	"mrr",
	"plan_value",
	"session_count",
	"avg_session_duration",
	"total_pages_viewed",
}

func (f CustomerFeatures) Vector() []float64 {
	return []float64{
		f.HealthScore,
		f.NPSScore,
		f.SupportTickets,
		f.FeatureUsageTotal,
		f.DaysSinceSignup,
		f.DaysSinceLastLogin,
		f.MRR,
		f.PlanValue,
		f.SessionCount,
		f.AvgSessionDuration,
		f.TotalPagesViewed,
	}
}
