package repositories

import (
	"context"

	"github.com/retentia/churnsight/internal/models"
)

// CustomerRepository stores the customer dataset. GetByID returns (nil, nil)
// when the id is unknown; callers decide whether that is an error.
type CustomerRepository interface {
	BulkCreate(ctx context.Context, customers []*models.Customer) error
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int) (*models.Customer, error)
	GetAll(ctx context.Context) ([]*models.Customer, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type SessionRepository interface {
	BulkCreate(ctx context.Context, sessions []*models.Session) error
	GetByCustomerID(ctx context.Context, customerID int) ([]*models.Session, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// PredictionRepository is the scoring sink for runs that keep results.
type PredictionRepository interface {
	SavePrediction(ctx context.Context, prediction *models.ChurnPrediction) error
	SaveRecommendation(ctx context.Context, customerID int, rec *models.InterventionRecommendation) error
	SaveOutcome(ctx context.Context, outcome *models.InterventionOutcome) error
}
