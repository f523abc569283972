package models

const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	ImpactPositive = "positive"
	ImpactNegative = "negative"

	ActionDiscountOffer    = "discount_offer"
	ActionPersonalOutreach = "personal_outreach"
	ActionTrainingSession  = "training_session"
	ActionPrioritySupport  = "priority_support"
	ActionExecutiveReview  = "executive_review"

	PlanEnterprise = "enterprise"
	PlanPro        = "pro"
	PlanStarter    = "starter"
)

// InterventionActions is the closed action set of the recommendation agent.
// Order matters: the first entry is the default for unseen states.
var InterventionActions = []string{
	ActionPersonalOutreach,
	ActionDiscountOffer,
	ActionTrainingSession,
	ActionPrioritySupport,
	ActionExecutiveReview,
}

type CustomerSegment struct {
	Ratio         float64
	MinHealth     float64
	MaxHealth     float64
	ChurnRiskBase float64
}

// DefaultCustomerSegments drives demo data generation: ratios sum to 1 and
// health ranges overlap on purpose.
var DefaultCustomerSegments = map[string]CustomerSegment{
	"healthy":  {Ratio: 0.5, MinHealth: 65, MaxHealth: 95, ChurnRiskBase: 0.15},
	"at_risk":  {Ratio: 0.3, MinHealth: 35, MaxHealth: 70, ChurnRiskBase: 0.45},
	"critical": {Ratio: 0.2, MinHealth: 5, MaxHealth: 40, ChurnRiskBase: 0.75},
}
