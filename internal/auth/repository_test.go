package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewRepository(database, "auth_credentials"), mock
}

func TestRepositoryQuery(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"username", "password"}).
		AddRow("alice", "secret")
	mock.ExpectQuery("SELECT username, password FROM auth_credentials WHERE username =").
		WithArgs("alice").
		WillReturnRows(rows)

	result, err := repo.Query(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Items, 1)
	assert.Equal(t, Credential{Username: "alice", Password: "secret"}, result.Items[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryQueryNoRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT username, password FROM auth_credentials WHERE username =").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"username", "password"}))

	result, err := repo.Query(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Items)
}

func TestRepositoryQueryDuplicates(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"username", "password"}).
		AddRow("alice", "secret").
		AddRow("alice", "other")
	mock.ExpectQuery("SELECT username, password FROM auth_credentials WHERE username =").
		WithArgs("alice").
		WillReturnRows(rows)

	result, err := repo.Query(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
}

func TestRepositoryQueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT username, password FROM auth_credentials WHERE username =").
		WithArgs("alice").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Query(context.Background(), "alice")
	require.ErrorIs(t, err, sql.ErrConnDone)
}

func TestRepositoryEnsureCredential(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO auth_credentials").
		WithArgs("alice", "secret", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.EnsureCredential(context.Background(), "alice", "secret"))
	require.NoError(t, mock.ExpectationsWereMet())
}
