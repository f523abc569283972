package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/retentia/churnsight/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) BulkCreate(ctx context.Context, sessions []*models.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	stmt := `
        INSERT INTO sessions (customer_id, started_at, ended_at, pages_viewed)
        VALUES ($1, $2, $3, $4)`

	for _, s := range sessions {
		_, err = tx.Exec(ctx, stmt, s.CustomerID, s.StartedAt, s.EndedAt, s.PagesViewed)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *SessionRepository) GetByCustomerID(ctx context.Context, customerID int) ([]*models.Session, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT customer_id, started_at, ended_at, pages_viewed
        FROM sessions WHERE customer_id = $1 ORDER BY started_at`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.CustomerID, &s.StartedAt, &s.EndedAt, &s.PagesViewed); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM sessions")
	return err
}
