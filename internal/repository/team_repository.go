package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orgpay/payment-server/internal/domain"
	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/pool"
)

type postgresTeamRepository struct {
	pool *pool.Pool
}

// NewTeamRepository creates a team repository backed by the pool.
func NewTeamRepository(p *pool.Pool) TeamRepository {
	return &postgresTeamRepository{pool: p}
}

// Save inserts the team. Name uniqueness is enforced by the database; a
// duplicate surfaces as a ValidationError rather than a StorageError.
func (r *postgresTeamRepository) Save(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (team_name, created_by_user_id, created_date)
		VALUES ($1, $2, $3)
		RETURNING team_id
	`

	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}

	return r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.QueryRowxContext(ctx, query, team.Name, team.CreatedBy, team.CreatedAt).Scan(&team.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.ValidationError{Field: "team name", Reason: "already exists"}
			}
			return storageErr("save team", err)
		}
		return nil
	})
}

func (r *postgresTeamRepository) FindByID(ctx context.Context, id int64) (*models.Team, error) {
	query := `SELECT team_id, team_name, created_by_user_id, created_date FROM teams WHERE team_id = $1`

	var team models.Team
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &team, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Team not found
		}
		return nil, storageErr("find team by id", err)
	}

	return &team, nil
}

func (r *postgresTeamRepository) FindAll(ctx context.Context) ([]models.Team, error) {
	query := `SELECT team_id, team_name, created_by_user_id, created_date FROM teams ORDER BY team_name`

	var teams []models.Team
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &teams, query)
	})
	if err != nil {
		return nil, storageErr("find all teams", err)
	}

	return teams, nil
}
