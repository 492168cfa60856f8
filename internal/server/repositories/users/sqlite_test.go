package users

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepository_StoresMilliseconds(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLiteRepository(db)
	u := alice()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(.+\)\s*VALUES\s*\(\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?\)\s*$`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, ts.UnixMilli(), ts.UnixMilli(), u.ApplicationID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^` + selectCols + `WHERE\s+id\s*=\s*\?\s*$`).
		WithArgs(u.ID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(u.ID, u.Username, u.Email, u.PasswordHash, ts.UnixMilli(), ts.UnixMilli(), u.ApplicationID))

	require.NoError(t, repo.Create(context.Background(), u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
