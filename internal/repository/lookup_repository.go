package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/pool"
)

type postgresCategoryRepository struct {
	pool *pool.Pool
}

// NewCategoryRepository creates a category repository backed by the pool.
func NewCategoryRepository(p *pool.Pool) CategoryRepository {
	return &postgresCategoryRepository{pool: p}
}

func (r *postgresCategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	query := `SELECT category_id, category_name FROM categories WHERE category_id = $1`

	var category models.Category
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &category, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Category not found
		}
		return nil, storageErr("find category by id", err)
	}

	return &category, nil
}

func (r *postgresCategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	query := `SELECT category_id, category_name FROM categories WHERE category_name = $1`

	var category models.Category
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &category, query, name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Category not found
		}
		return nil, storageErr("find category by name", err)
	}

	return &category, nil
}

func (r *postgresCategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	query := `SELECT category_id, category_name FROM categories ORDER BY category_name`

	var categories []models.Category
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &categories, query)
	})
	if err != nil {
		return nil, storageErr("find all categories", err)
	}

	return categories, nil
}

// GetOrCreate looks the category up by name and inserts it when absent,
// inside one transaction so concurrent callers cannot double-insert.
func (r *postgresCategoryRepository) GetOrCreate(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category

	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return storageErr("begin category transaction", err)
		}

		defer func() {
			if err != nil {
				tx.Rollback()
			}
		}()

		err = tx.GetContext(ctx, &category,
			`SELECT category_id, category_name FROM categories WHERE category_name = $1`, name)
		if err == nil {
			return tx.Commit()
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storageErr("find category by name", err)
		}

		err = tx.QueryRowxContext(ctx,
			`INSERT INTO categories (category_name) VALUES ($1)
			 ON CONFLICT (category_name) DO UPDATE SET category_name = EXCLUDED.category_name
			 RETURNING category_id`, name).Scan(&category.ID)
		if err != nil {
			return storageErr("create category", err)
		}
		category.Name = name

		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	return &category, nil
}

type postgresStatusRepository struct {
	pool *pool.Pool
}

// NewStatusRepository creates a status repository backed by the pool.
func NewStatusRepository(p *pool.Pool) StatusRepository {
	return &postgresStatusRepository{pool: p}
}

func (r *postgresStatusRepository) FindByID(ctx context.Context, id int64) (*models.Status, error) {
	query := `SELECT status_id, status_name FROM status WHERE status_id = $1`

	var status models.Status
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &status, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Status not found
		}
		return nil, storageErr("find status by id", err)
	}

	return &status, nil
}

func (r *postgresStatusRepository) FindByName(ctx context.Context, name string) (*models.Status, error) {
	query := `SELECT status_id, status_name FROM status WHERE status_name = $1`

	var status models.Status
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &status, query, name)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Status not found
		}
		return nil, storageErr("find status by name", err)
	}

	return &status, nil
}

func (r *postgresStatusRepository) FindAll(ctx context.Context) ([]models.Status, error) {
	query := `SELECT status_id, status_name FROM status ORDER BY status_id`

	var statuses []models.Status
	err := r.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &statuses, query)
	})
	if err != nil {
		return nil, storageErr("find all statuses", err)
	}

	return statuses, nil
}
