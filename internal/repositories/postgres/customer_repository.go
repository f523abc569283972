package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/retentia/churnsight/internal/models"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const insertCustomer = `
        INSERT INTO customers (
            id, name, email, company, plan, mrr, health_score, nps_score,
            support_tickets, feature_usage, signup_date, last_login, churn_risk
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
        )`

func (r *CustomerRepository) BulkCreate(ctx context.Context, customers []*models.Customer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range customers {
		_, err = tx.Exec(ctx, insertCustomer,
			c.ID,
			c.Name,
			c.Email,
			c.Company,
			c.Plan,
			c.MRR,
			c.HealthScore,
			c.NPSScore,
			c.SupportTickets,
			c.FeatureUsage,
			c.SignupDate,
			nullableTime(c.LastLogin),
			c.ChurnRisk,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomer,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Company,
		customer.Plan,
		customer.MRR,
		customer.HealthScore,
		customer.NPSScore,
		customer.SupportTickets,
		customer.FeatureUsage,
		customer.SignupDate,
		nullableTime(customer.LastLogin),
		customer.ChurnRisk,
	)
	return err
}

const selectCustomer = `
        SELECT id, name, email, company, plan, mrr, health_score, nps_score,
               support_tickets, feature_usage, signup_date,
               COALESCE(last_login, 'epoch'::timestamptz), churn_risk
        FROM customers`

func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*models.Customer, error) {
	row := r.pool.QueryRow(ctx, selectCustomer+" WHERE id = $1", id)
	customer, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return customer, err
}

func (r *CustomerRepository) GetAll(ctx context.Context) ([]*models.Customer, error) {
	rows, err := r.pool.Query(ctx, selectCustomer+" ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count)
	return count, err
}

func (r *CustomerRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM customers")
	return err
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Company,
		&c.Plan,
		&c.MRR,
		&c.HealthScore,
		&c.NPSScore,
		&c.SupportTickets,
		&c.FeatureUsage,
		&c.SignupDate,
		&c.LastLogin,
		&c.ChurnRisk,
	)
	if err != nil {
		return nil, err
	}
	if c.LastLogin.Unix() == 0 {
		c.LastLogin = timeZero
	}
	return c, nil
}
