package scoring

import (
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go/schema"
)

const (
	TopicPredictions     = "churn_prediction_events"
	TopicRecommendations = "intervention_recommendation_events"
	TopicImportances     = "feature_importance_events"
	TopicOutcomes        = "intervention_outcome_events"
)

// BaseEvent is the common structure for all scoring events
type BaseEvent struct {
	Timestamp  int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType  string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerID int64  `json:"customerId" parquet:"name=customerId,type=INT64"`
}

// ChurnPredictionEvent carries one scored customer
type ChurnPredictionEvent struct {
	BaseEvent
	ChurnProbability   float64 `json:"churnProbability" parquet:"name=churnProbability,type=DOUBLE"`
	RiskLevel          string  `json:"riskLevel" parquet:"name=riskLevel,type=BYTE_ARRAY,convertedtype=UTF8"`
	Confidence         float64 `json:"confidence" parquet:"name=confidence,type=DOUBLE"`
	TopFactors         string  `json:"topFactors" parquet:"name=topFactors,type=BYTE_ARRAY,convertedtype=UTF8"`
	RecommendedActions string  `json:"recommendedActions" parquet:"name=recommendedActions,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// InterventionRecommendationEvent carries the agent's pick for one customer
type InterventionRecommendationEvent struct {
	BaseEvent
	RecommendationID      string  `json:"recommendationId" parquet:"name=recommendationId,type=BYTE_ARRAY,convertedtype=UTF8"`
	InterventionType      string  `json:"interventionType" parquet:"name=interventionType,type=BYTE_ARRAY,convertedtype=UTF8"`
	Priority              string  `json:"priority" parquet:"name=priority,type=BYTE_ARRAY,convertedtype=UTF8"`
	EstimatedSuccess      float64 `json:"estimatedSuccess" parquet:"name=estimatedSuccess,type=DOUBLE"`
	EstimatedRevenueSaved float64 `json:"estimatedRevenueSaved" parquet:"name=estimatedRevenueSaved,type=DOUBLE"`
	Description           string  `json:"description" parquet:"name=description,type=BYTE_ARRAY,convertedtype=UTF8"`
	Reasoning             string  `json:"reasoning" parquet:"name=reasoning,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// FeatureImportanceEvent is one row of the global importance report
type FeatureImportanceEvent struct {
	Timestamp       int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType       string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	Feature         string  `json:"feature" parquet:"name=feature,type=BYTE_ARRAY,convertedtype=UTF8"`
	DisplayName     string  `json:"displayName" parquet:"name=displayName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Importance      float64 `json:"importance" parquet:"name=importance,type=DOUBLE"`
	Impact          string  `json:"impact" parquet:"name=impact,type=BYTE_ARRAY,convertedtype=UTF8"`
	ConfidenceLevel string  `json:"confidenceLevel" parquet:"name=confidenceLevel,type=BYTE_ARRAY,convertedtype=UTF8"`
	Actionability   string  `json:"actionability" parquet:"name=actionability,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// InterventionOutcomeEvent records a simulated or reported outcome
type InterventionOutcomeEvent struct {
	BaseEvent
	OutcomeID        string  `json:"outcomeId" parquet:"name=outcomeId,type=BYTE_ARRAY,convertedtype=UTF8"`
	InterventionType string  `json:"interventionType" parquet:"name=interventionType,type=BYTE_ARRAY,convertedtype=UTF8"`
	Success          bool    `json:"success" parquet:"name=success,type=BOOLEAN"`
	RevenueImpact    float64 `json:"revenueImpact" parquet:"name=revenueImpact,type=DOUBLE"`
}

func GetSchema(eventType string) (*schema.SchemaHandler, error) {
	var sh *schema.SchemaHandler
	var err error

	switch eventType {
	case TopicPredictions:
		sh, err = schema.NewSchemaHandlerFromStruct(new(ChurnPredictionEvent))
	case TopicRecommendations:
		sh, err = schema.NewSchemaHandlerFromStruct(new(InterventionRecommendationEvent))
	case TopicImportances:
		sh, err = schema.NewSchemaHandlerFromStruct(new(FeatureImportanceEvent))
	case TopicOutcomes:
		sh, err = schema.NewSchemaHandlerFromStruct(new(InterventionOutcomeEvent))
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating schema for %s: %w", eventType, err)
	}

	return sh, nil
}

func NewBaseEvent(eventType string, customerID int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		Timestamp:  timestamp.Unix(),
		EventType:  eventType,
		CustomerID: int64(customerID),
	}
}
