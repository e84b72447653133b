package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/pool"
)

const paymentColumns = `
	p.payment_id, p.amount, p.type, p.payment_date, p.description,
	p.category_id, p.status_id, p.created_by_user_id, p.team_id,
	s.status_name, c.category_name
`

const paymentFrom = `
	FROM payments p
	JOIN status s ON p.status_id = s.status_id
	JOIN categories c ON p.category_id = c.category_id
`

type postgresPaymentRepository struct {
	pool *pool.Pool
}

// NewPaymentRepository creates a payment repository backed by the pool.
func NewPaymentRepository(p *pool.Pool) PaymentRepository {
	return &postgresPaymentRepository{pool: p}
}

// Save inserts the payment and fills in its generated id. The payment date
// defaults to now when not set by the caller.
func (r *postgresPaymentRepository) Save(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (amount, type, payment_date, description, category_id, status_id, created_by_user_id, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING payment_id
	`

	if payment.Date.IsZero() {
		payment.Date = time.Now().UTC()
	}

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.QueryRowxContext(ctx, query,
			payment.Amount, payment.Type, payment.Date, payment.Description,
			payment.CategoryID, payment.StatusID, payment.CreatedBy, payment.TeamID,
		).Scan(&payment.ID)
		if err != nil {
			return storageErr("save payment", err)
		}
		return nil
	})
}

func (r *postgresPaymentRepository) FindByID(ctx context.Context, id int64) (*models.Payment, error) {
	query := `SELECT` + paymentColumns + paymentFrom + `WHERE p.payment_id = $1`

	var payment models.Payment
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &payment, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Payment not found
		}
		return nil, storageErr("find payment by id", err)
	}

	return &payment, nil
}

func (r *postgresPaymentRepository) FindAll(ctx context.Context) ([]models.Payment, error) {
	query := `SELECT` + paymentColumns + paymentFrom + `ORDER BY p.payment_date DESC`

	var payments []models.Payment
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &payments, query)
	})
	if err != nil {
		return nil, storageErr("find all payments", err)
	}

	return payments, nil
}

func (r *postgresPaymentRepository) FindByCreator(ctx context.Context, userID int64) ([]models.Payment, error) {
	query := `SELECT` + paymentColumns + paymentFrom + `WHERE p.created_by_user_id = $1 ORDER BY p.payment_date DESC`

	var payments []models.Payment
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &payments, query, userID)
	})
	if err != nil {
		return nil, storageErr("find payments by creator", err)
	}

	return payments, nil
}

// UpdateStatus overwrites the payment's status. There is no precondition on
// the current status: concurrent approve/reject on the same payment resolve
// as last write wins.
func (r *postgresPaymentRepository) UpdateStatus(ctx context.Context, paymentID, statusID int64) error {
	query := `UPDATE payments SET status_id = $1 WHERE payment_id = $2`

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		if _, err := conn.ExecContext(ctx, query, statusID, paymentID); err != nil {
			return storageErr("update payment status", err)
		}
		return nil
	})
}

func (r *postgresPaymentRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM payments WHERE payment_id = $1`

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		if _, err := conn.ExecContext(ctx, query, id); err != nil {
			return storageErr("delete payment", err)
		}
		return nil
	})
}

// ExistsSalaryForUserInPeriod reports whether a SALARY payment created by the
// user already falls inside [from, to]. Used as the batch idempotency check.
func (r *postgresPaymentRepository) ExistsSalaryForUserInPeriod(ctx context.Context, userID int64, from, to time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM payments
		WHERE created_by_user_id = $1
		AND type = 'SALARY'
		AND payment_date >= $2
		AND payment_date <= $3
	`

	var count int
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &count, query, userID, from, to)
	})
	if err != nil {
		return false, storageErr("check salary payment in period", err)
	}

	return count > 0, nil
}
