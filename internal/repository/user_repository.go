package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/pool"
)

// pqUniqueViolation is the PostgreSQL error code for a unique constraint hit.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

const userColumns = `
	u.user_id, u.name, u.email, u.password_hash, u.role_id, u.team_id,
	u.monthly_salary, u.salary_effective_date, r.role_name
`

const userFrom = `
	FROM users u
	JOIN roles r ON u.role_id = r.role_id
`

type postgresUserRepository struct {
	pool *pool.Pool
}

// NewUserRepository creates a user repository backed by the pool.
func NewUserRepository(p *pool.Pool) UserRepository {
	return &postgresUserRepository{pool: p}
}

func (r *postgresUserRepository) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role_id, team_id, monthly_salary, salary_effective_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id
	`

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.QueryRowxContext(ctx, query,
			user.Name, user.Email, user.PasswordHash, user.RoleID,
			user.TeamID, user.MonthlySalary, user.SalaryEffectiveDate,
		).Scan(&user.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ValidationError{Field: "email", Reason: "already registered"}
			}
			return storageErr("save user", err)
		}
		return nil
	})
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT` + userColumns + userFrom + `WHERE u.user_id = $1`

	var user models.User
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &user, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, storageErr("find user by id", err)
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + userFrom + `WHERE u.email = $1`

	var user models.User
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &user, query, email)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, storageErr("find user by email", err)
	}

	return &user, nil
}

func (r *postgresUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT` + userColumns + userFrom + `ORDER BY u.name`

	var users []models.User
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &users, query)
	})
	if err != nil {
		return nil, storageErr("find all users", err)
	}

	return users, nil
}

// FindWithSalary returns users carrying a positive salary and an effective
// date, the candidate set for the monthly batch.
func (r *postgresUserRepository) FindWithSalary(ctx context.Context) ([]models.User, error) {
	query := `SELECT` + userColumns + userFrom + `
		WHERE u.monthly_salary > 0 AND u.salary_effective_date IS NOT NULL
		ORDER BY u.name`

	var users []models.User
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &users, query)
	})
	if err != nil {
		return nil, storageErr("find users with salary", err)
	}

	return users, nil
}

// RoleIDByName resolves a role name to its seeded lookup row id.
func (r *postgresUserRepository) RoleIDByName(ctx context.Context, role models.Role) (int64, error) {
	query := `SELECT role_id FROM roles WHERE role_name = $1`

	var roleID int64
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &roleID, query, string(role))
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &domain.NotFoundError{Entity: "role", Name: string(role)}
		}
		return 0, storageErr("find role by name", err)
	}

	return roleID, nil
}

// UpdateSalary sets the user's monthly salary and its effective date. The
// effective date is stored without a time component.
func (r *postgresUserRepository) UpdateSalary(ctx context.Context, userID int64, salary decimal.Decimal, effectiveDate time.Time) error {
	query := `UPDATE users SET monthly_salary = $1, salary_effective_date = $2 WHERE user_id = $3`

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		if _, err := conn.ExecContext(ctx, query, salary, effectiveDate.Format("2006-01-02"), userID); err != nil {
			return storageErr("update user salary", err)
		}
		return nil
	})
}
