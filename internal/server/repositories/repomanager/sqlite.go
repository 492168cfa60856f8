package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/logging"
	"github.com/dmitrijs2005/appauth/internal/server/migrations"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/applications"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/users"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct {
	logger logging.Logger
}

func (m *SQLiteRepositoryManager) Applications(db dbx.DBTX) applications.Repository {
	return applications.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, m.logger, "sqlite3", migrations.SQLiteDir)
}
