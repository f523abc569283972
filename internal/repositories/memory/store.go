package memory

import (
	"context"
	"sync"

	"github.com/retentia/churnsight/internal/models"
)

// Store is the transient in-memory implementation of the repository
// interfaces. All data is lost when the process exits, which is the default
// storage contract for demo runs.
type Store struct {
	mu        sync.RWMutex
	customers map[int]*models.Customer
}

func NewStore() *Store {
	return &Store{customers: make(map[int]*models.Customer)}
}

func (s *Store) BulkCreate(ctx context.Context, customers []*models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	return nil
}

func (s *Store) Create(ctx context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customer.ID] = customer
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers[id], nil
}

func (s *Store) GetAll(ctx context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	return customers, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = make(map[int]*models.Customer)
	return nil
}

// SessionStore is the in-memory session history keyed by customer id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int][]*models.Session
	count    int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int][]*models.Session)}
}

func (s *SessionStore) BulkCreate(ctx context.Context, sessions []*models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		s.sessions[sess.CustomerID] = append(s.sessions[sess.CustomerID], sess)
		s.count++
	}
	return nil
}

func (s *SessionStore) GetByCustomerID(ctx context.Context, customerID int) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[customerID], nil
}

func (s *SessionStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

func (s *SessionStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[int][]*models.Session)
	s.count = 0
	return nil
}

// PredictionStore keeps scoring results for inspection in tests and demo
// runs.
type PredictionStore struct {
	mu              sync.Mutex
	predictions     []*models.ChurnPrediction
	recommendations map[int][]*models.InterventionRecommendation
	outcomes        []*models.InterventionOutcome
}

func NewPredictionStore() *PredictionStore {
	return &PredictionStore{recommendations: make(map[int][]*models.InterventionRecommendation)}
}

func (s *PredictionStore) SavePrediction(ctx context.Context, prediction *models.ChurnPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions = append(s.predictions, prediction)
	return nil
}

func (s *PredictionStore) SaveRecommendation(ctx context.Context, customerID int, rec *models.InterventionRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations[customerID] = append(s.recommendations[customerID], rec)
	return nil
}

func (s *PredictionStore) SaveOutcome(ctx context.Context, outcome *models.InterventionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *PredictionStore) Predictions() []*models.ChurnPrediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.ChurnPrediction(nil), s.predictions...)
}
