package config

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/orgpay/payment-server/internal/auth"
)

// Default administrator created on first run. The password is meant to be
// rotated immediately after setup.
const (
	DefaultAdminEmail    = "admin@admin.tech"
	defaultAdminPassword = "admin@123"
)

// SetupDatabase initializes the database connection and bootstraps the
// schema, seed rows, and the default administrator on first run.
func SetupDatabase(cfg *Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The fixed connection pool checks out exactly PoolSize connections, so
	// the driver must be allowed to hold that many open.
	db.SetMaxOpenConns(cfg.Database.PoolSize)
	db.SetMaxIdleConns(cfg.Database.PoolSize)

	// Create tables if they don't exist
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := seedLookups(db); err != nil {
		return nil, fmt.Errorf("failed to seed lookup tables: %w", err)
	}

	if err := createDefaultAdmin(db, logger); err != nil {
		return nil, fmt.Errorf("failed to create default admin: %w", err)
	}

	return db, nil
}

// createSchema creates the necessary tables in the database
func createSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			role_id SERIAL PRIMARY KEY,
			role_name VARCHAR(50) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			team_id SERIAL PRIMARY KEY,
			team_name VARCHAR(100) NOT NULL UNIQUE,
			created_by_user_id INTEGER NOT NULL,
			created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role_id INTEGER NOT NULL REFERENCES roles(role_id),
			team_id INTEGER REFERENCES teams(team_id),
			monthly_salary DECIMAL(15,2) NOT NULL DEFAULT 0.00,
			salary_effective_date DATE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			category_id SERIAL PRIMARY KEY,
			category_name VARCHAR(100) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS status (
			status_id SERIAL PRIMARY KEY,
			status_name VARCHAR(50) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			payment_id SERIAL PRIMARY KEY,
			amount DECIMAL(15,2) NOT NULL,
			type VARCHAR(50) NOT NULL,
			payment_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			description TEXT NOT NULL DEFAULT '',
			category_id INTEGER NOT NULL REFERENCES categories(category_id),
			status_id INTEGER NOT NULL REFERENCES status(status_id),
			created_by_user_id INTEGER NOT NULL REFERENCES users(user_id),
			team_id INTEGER REFERENCES teams(team_id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_trail (
			audit_id SERIAL PRIMARY KEY,
			payment_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			action VARCHAR(50) NOT NULL,
			change_timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			old_value TEXT,
			new_value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_created_by ON payments(created_by_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(payment_date)",
		"CREATE INDEX IF NOT EXISTS idx_audit_trail_payment ON audit_trail(payment_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// Indexes are not critical, keep going
			continue
		}
	}

	return nil
}

// seedLookups inserts the fixed roles and statuses and the default
// categories, leaving existing rows untouched.
func seedLookups(db *sqlx.DB) error {
	seeds := []string{
		`INSERT INTO roles (role_name) VALUES
			('admin'), ('finance_manager'), ('viewer')
			ON CONFLICT (role_name) DO NOTHING`,
		`INSERT INTO categories (category_name) VALUES
			('Office Supplies'), ('Travel'), ('Equipment'), ('Software'), ('Utilities')
			ON CONFLICT (category_name) DO NOTHING`,
		`INSERT INTO status (status_name) VALUES
			('PENDING'), ('APPROVED'), ('REJECTED')
			ON CONFLICT (status_name) DO NOTHING`,
	}

	for _, stmt := range seeds {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func createDefaultAdmin(db *sqlx.DB, logger *zap.Logger) error {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM users WHERE email = $1`, DefaultAdminEmail); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO users (name, email, password_hash, role_id)
		SELECT 'System Administrator', $1, $2, role_id FROM roles WHERE role_name = 'admin'
	`, DefaultAdminEmail, hash)
	if err != nil {
		return err
	}

	logger.Warn("default administrator created, rotate its password immediately",
		zap.String("email", DefaultAdminEmail))

	return nil
}
