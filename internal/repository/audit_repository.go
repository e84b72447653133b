package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/pool"
)

type postgresAuditTrailRepository struct {
	pool *pool.Pool
}

// NewAuditTrailRepository creates an audit trail repository backed by the pool.
func NewAuditTrailRepository(p *pool.Pool) AuditTrailRepository {
	return &postgresAuditTrailRepository{pool: p}
}

func (r *postgresAuditTrailRepository) Save(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_trail (payment_id, user_id, action, change_timestamp, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING audit_id
	`

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.QueryRowxContext(ctx, query,
			entry.PaymentID, entry.UserID, entry.Action,
			entry.Timestamp, entry.OldValue, entry.NewValue,
		).Scan(&entry.ID)
		if err != nil {
			return storageErr("save audit entry", err)
		}
		return nil
	})
}

// FindByPaymentID returns the payment's history newest-first. The audit id
// breaks ties between entries written within the same timestamp tick.
func (r *postgresAuditTrailRepository) FindByPaymentID(ctx context.Context, paymentID int64) ([]models.AuditEntry, error) {
	query := `
		SELECT audit_id, payment_id, user_id, action, change_timestamp, old_value, new_value
		FROM audit_trail
		WHERE payment_id = $1
		ORDER BY change_timestamp DESC, audit_id DESC
	`

	var entries []models.AuditEntry
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &entries, query, paymentID)
	})
	if err != nil {
		return nil, storageErr("find audit entries by payment", err)
	}

	return entries, nil
}
