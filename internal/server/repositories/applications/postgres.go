// Package applications persists tenants.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query :=
		`INSERT INTO applications (id, app_name)
		 VALUES ($1, $2)
		 RETURNING id, app_name
		 `

	created := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, app.ID, app.AppName).Scan(&created.ID, &created.AppName)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

// List relies on time-ordered ids for insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Application, error) {
	query :=
		`SELECT id, app_name FROM applications
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query :=
		`SELECT id, app_name FROM applications
		 WHERE id = $1
		 `

	app := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&app.ID, &app.AppName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

func scanApplications(rows *sql.Rows) ([]models.Application, error) {
	apps := make([]models.Application, 0)
	for rows.Next() {
		var app models.Application
		if err := rows.Scan(&app.ID, &app.AppName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return apps, nil
}
