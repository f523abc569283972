package models

// TopFactor annotates one of the globally most important features with this
// customer's own reading of it.
type TopFactor struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Impact      string  `json:"impact"`
	Description string  `json:"description"`
}

type ChurnPrediction struct {
	CustomerID         int         `json:"customer_id"`
	ChurnProbability   float64     `json:"churn_probability"`
	RiskLevel          string      `json:"risk_level"`
	Confidence         float64     `json:"confidence"`
	TopFactors         []TopFactor `json:"top_factors"`
	RecommendedActions []string    `json:"recommended_actions"`
}

// FeatureImportance is one entry of the global importance report. Importance
// values are percentages that sum to 100 across the returned set.
type FeatureImportance struct {
	Feature         string  `json:"feature"`
	DisplayName     string  `json:"display_name"`
	Importance      float64 `json:"importance"`
	Impact          string  `json:"impact"`
	Description     string  `json:"description"`
	ConfidenceLevel string  `json:"confidence_level"`
	Actionability   string  `json:"actionability"`
}

type InterventionRecommendation struct {
	Type                  string  `json:"type"`
	Priority              string  `json:"priority"`
	EstimatedSuccess      float64 `json:"estimated_success"`
	EstimatedRevenueSaved float64 `json:"estimated_revenue_saved"`
	Description           string  `json:"description"`
	Reasoning             string  `json:"reasoning"`
}

// InterventionOutcome is the caller-reported result of an intervention,
// consumed by the policy update path.
type InterventionOutcome struct {
	CustomerID       int     `json:"customer_id"`
	InterventionType string  `json:"intervention_type"`
	Success          bool    `json:"success"`
	RevenueImpact    float64 `json:"revenue_impact"`
}
