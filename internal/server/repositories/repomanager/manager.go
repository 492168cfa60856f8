package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/appauth/internal/dbx"
	"github.com/dmitrijs2005/appauth/internal/logging"
	"github.com/dmitrijs2005/appauth/internal/server/migrations"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/applications"
	"github.com/dmitrijs2005/appauth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Applications(db dbx.DBTX) applications.Repository
	Users(db dbx.DBTX) users.Repository
}

// New returns the RepositoryManager for dialect. Migration output goes to l.
func New(dialect dbx.Dialect, l logging.Logger) (RepositoryManager, error) {
	l = l.With("module", "migrations")
	switch dialect {
	case dbx.DialectPostgres:
		return &PostgresRepositoryManager{logger: l}, nil
	case dbx.DialectSQLite:
		return &SQLiteRepositoryManager{logger: l}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseLogger forwards goose's printf-style output to a logging.Logger.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.l.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf keeps the log.Fatalf contract goose expects.
func (g gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

func runMigrations(ctx context.Context, db *sql.DB, l logging.Logger, gooseDialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if l != nil {
		goose.SetLogger(gooseLogger{ctx: ctx, l: l})
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
