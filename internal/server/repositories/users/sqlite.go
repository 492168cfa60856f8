package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/server/models"
)

// SQLiteRepository stores timestamps as Unix milliseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.CreatedAt.UnixMilli(), user.UpdatedAt.UnixMilli(), user.ApplicationID)
	if err != nil {
		return mapInsertError(err)
	}

	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = ?
		 `

	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) GetByApplicationAndUsername(ctx context.Context, appID, username string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE application_id = ? AND username = ?
		 `

	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, appID, username))
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE username = ?
		 ORDER BY id
		 LIMIT 2
		 `

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	found, err := collect(rows, scanSQLiteUser)
	if err != nil {
		return nil, err
	}
	return single(found)
}

func (r *SQLiteRepository) ListByApplication(ctx context.Context, appID string) ([]models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE application_id = ?
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, appID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return collect(rows, scanSQLiteUser)
}

func scanSQLiteUser(row scanner) (*models.User, error) {
	var (
		u                    models.User
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt, &updatedAt, &u.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	u.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &u, nil
}
