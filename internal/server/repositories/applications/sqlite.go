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

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query :=
		`INSERT INTO applications (id, app_name)
		 VALUES (?, ?)
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

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Application, error) {
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

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query :=
		`SELECT id, app_name FROM applications
		 WHERE id = ?
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
