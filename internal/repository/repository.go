package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
)

// PaymentRepository defines storage operations on payments.
type PaymentRepository interface {
	Save(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id int64) (*models.Payment, error)
	FindAll(ctx context.Context) ([]models.Payment, error)
	FindByCreator(ctx context.Context, userID int64) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, paymentID, statusID int64) error
	DeleteByID(ctx context.Context, id int64) error
	ExistsSalaryForUserInPeriod(ctx context.Context, userID int64, from, to time.Time) (bool, error)
}

// UserRepository defines storage operations on users.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	FindWithSalary(ctx context.Context) ([]models.User, error)
	UpdateSalary(ctx context.Context, userID int64, salary decimal.Decimal, effectiveDate time.Time) error
	RoleIDByName(ctx context.Context, role models.Role) (int64, error)
}

// TeamRepository defines storage operations on teams.
type TeamRepository interface {
	Save(ctx context.Context, team *models.Team) error
	FindByID(ctx context.Context, id int64) (*models.Team, error)
	FindAll(ctx context.Context) ([]models.Team, error)
}

// CategoryRepository defines storage operations on payment categories.
type CategoryRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	GetOrCreate(ctx context.Context, name string) (*models.Category, error)
}

// StatusRepository defines storage operations on the status lookup table.
type StatusRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Status, error)
	FindByName(ctx context.Context, name string) (*models.Status, error)
	FindAll(ctx context.Context) ([]models.Status, error)
}

// AuditTrailRepository defines storage operations on the audit trail.
// The trail is append-only: there are no update or delete operations.
type AuditTrailRepository interface {
	Save(ctx context.Context, entry *models.AuditEntry) error
	FindByPaymentID(ctx context.Context, paymentID int64) ([]models.AuditEntry, error)
}

// The postgres implementations below all follow the same contract: every
// method runs inside one scoped pool acquisition, the connection is held for
// exactly one statement (or one transaction for multi-statement writes), and
// it is released on every exit path. Data-access failures are wrapped in a
// StorageError; a missing row is returned as (nil, nil) and categorized by
// the service layer.

func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}
