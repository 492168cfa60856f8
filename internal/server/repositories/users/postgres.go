// Package users persists user accounts scoped to applications.
package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(), user.ApplicationID)
	if err != nil {
		return mapInsertError(err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	return scanPostgresUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByApplicationAndUsername(ctx context.Context, appID, username string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE application_id = $1 AND username = $2
		 `

	return scanPostgresUser(r.db.QueryRowContext(ctx, query, appID, username))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE username = $1
		 ORDER BY id
		 LIMIT 2
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	found, err := collect(rows, scanPostgresUser)
	if err != nil {
		return nil, err
	}
	return single(found)
}

func (r *PostgresRepository) ListByApplication(ctx context.Context, appID string) ([]models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE application_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collect(rows, scanPostgresUser)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPostgresUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func collect(rows *sql.Rows, scan func(scanner) (*models.User, error)) ([]models.User, error) {
	out := make([]models.User, 0)
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func single(found []models.User) (*models.User, error) {
	switch len(found) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, common.ErrorAmbiguous
	}
}

func mapInsertError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return common.ErrorAlreadyExists
	case dbx.IsForeignKeyViolation(err):
		return fmt.Errorf("application: %w", common.ErrorNotFound)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
