package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"referral-campaign/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "twitter_id", "wallet_address", "referral_code",
	"total_points", "referral_points", "finished_tasks", "referred_by",
	"referrer_id", "multiplier", "encrypted_password",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Repository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestRepository_FinishTask_CreditsUserAndReferrer(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE wallet_address").
		WithArgs("wallet_b").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", "wallet_b", "code_b", 0, 0, []byte("{}"), []byte("{}"), 1, 1, "hash"))
	mock.ExpectQuery("SELECT points FROM tasks WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(100))
	mock.ExpectExec("UPDATE users SET finished_tasks").
		WithArgs(sqlmock.AnyArg(), 100, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET total_points = total_points").
		WithArgs(10, 10, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.FinishTask(context.Background(), "wallet_b", 7, 10)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FinishTask_NoReferrerSkipsBonus(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE wallet_address").
		WithArgs("wallet_b").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", "wallet_b", "code_b", 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectQuery("SELECT points FROM tasks WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(100))
	mock.ExpectExec("UPDATE users SET finished_tasks").
		WithArgs(sqlmock.AnyArg(), 100, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.FinishTask(context.Background(), "wallet_b", 7, 10)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FinishTask_AlreadyFinishedIsNoop(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE wallet_address").
		WithArgs("wallet_b").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", "wallet_b", "code_b", 100, 0, []byte("{7}"), []byte("{}"), 1, 1, "hash"))
	mock.ExpectCommit()

	err := repo.FinishTask(context.Background(), "wallet_b", 7, 10)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FinishTask_UnknownTask(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE wallet_address").
		WithArgs("wallet_b").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", "wallet_b", "code_b", 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectQuery("SELECT points FROM tasks WHERE id").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.FinishTask(context.Background(), "wallet_b", 404, 10)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_LinksReferrer(t *testing.T) {
	repo, mock := newMockRepository(t)
	code := "code_a"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM last_created_user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("INSERT INTO last_created_user").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM users WHERE referral_code").
		WithArgs("code_a").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			1, "alice", "wallet_a", "code_a", 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectExec("UPDATE users SET referred_by = array_append").
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET referrer_id").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", nil, deriveReferralCode(1), 0, 0, []byte("{}"), []byte("{}"), 1, 1, "hash"))
	mock.ExpectCommit()

	created, err := repo.CreateUser(context.Background(),
		&model.User{TwitterID: "bob", EncryptedPassword: "hash"}, &code)
	assert.NoError(t, err)
	require.NotNil(t, created.ReferrerID)
	assert.Equal(t, int64(1), *created.ReferrerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_OwnCodeDoesNotLink(t *testing.T) {
	repo, mock := newMockRepository(t)

	// The code the new row itself will carry.
	code := deriveReferralCode(1)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM last_created_user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("INSERT INTO last_created_user").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM users WHERE referral_code").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", nil, code, 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", nil, code, 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectCommit()

	created, err := repo.CreateUser(context.Background(),
		&model.User{TwitterID: "bob", EncryptedPassword: "hash"}, &code)
	assert.NoError(t, err)
	assert.Nil(t, created.ReferrerID)
	assert.Empty(t, created.ReferredBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_UnknownCodeTolerated(t *testing.T) {
	repo, mock := newMockRepository(t)
	code := "no-such-code"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM last_created_user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectExec("INSERT INTO last_created_user").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM users WHERE referral_code").
		WithArgs("no-such-code").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			2, "bob", nil, deriveReferralCode(1), 0, 0, []byte("{}"), []byte("{}"), nil, 1, "hash"))
	mock.ExpectCommit()

	created, err := repo.CreateUser(context.Background(),
		&model.User{TwitterID: "bob", EncryptedPassword: "hash"}, &code)
	assert.NoError(t, err)
	assert.Nil(t, created.ReferrerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_DuplicateTwitterID(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id FROM last_created_user").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_twitter_id_key"})
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(),
		&model.User{TwitterID: "bob", EncryptedPassword: "hash"}, nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUser_CodeCollisionRetriesExhausted(t *testing.T) {
	repo, mock := newMockRepository(t)

	for i := 0; i < createUserMaxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT user_id FROM last_created_user").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_referral_code_key"})
		mock.ExpectRollback()
	}

	_, err := repo.CreateUser(context.Background(),
		&model.User{TwitterID: "bob", EncryptedPassword: "hash"}, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrConflict))
	assert.ErrorContains(t, err, "referral code retries exhausted")
	assert.NoError(t, mock.ExpectationsWereMet())
}
