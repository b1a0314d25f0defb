package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumnNames() []string {
	return []string{"id", "email", "password_hash", "seed_phrase_enc", "role", "registered_at", "two_factor_enabled",
		"last_login_at", "login_attempts", "account_locked", "theme", "notifications", "payment_methods", "updated_at"}
}

func userRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(userColumnNames()).AddRow(
		"user-1", "ada@jetwallet.io", "$argon2id$h", "enc", "user", now, false,
		nil, 2, false, "dark",
		[]byte(`{"email":true,"push":false,"price_alerts":true,"transaction_updates":true,"security_alerts":true,"market_news":false}`),
		[]byte(`[{"id":"pm-1","type":"DEBIT_CARD","name":"VISA ending 4242","card_last4":"4242","is_default":true}]`),
		now,
	)
}

func newTestUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:            "user-1",
		Email:         "ada@jetwallet.io",
		PasswordHash:  "$argon2id$h",
		SeedPhraseEnc: "enc",
		Role:          domain.RoleUser,
		RegisteredAt:  now,
		Theme:         domain.ThemeLight,
		Notifications: domain.DefaultNotificationSettings(),
		UpdatedAt:     now,
	}
}

func TestUserRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, u.PasswordHash, u.SeedPhraseEnc, "user", u.RegisteredAt, false,
			u.LastLoginAt, 0, false, "light", pgxmock.AnyArg(), []byte(`[]`), u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, newTestUser())
	assert.True(t, errors.Is(err, ports.ErrDuplicate))
}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs("ada@jetwallet.io").
		WillReturnRows(userRow(now))

	u, err := repo.GetByEmail(context.Background(), "ada@jetwallet.io")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, domain.ThemeDark, u.Theme)
	assert.Equal(t, 2, u.LoginAttempts)
	assert.True(t, u.Notifications.PriceAlerts)
	require.Len(t, u.PaymentMethods, 1)
	assert.Equal(t, "4242", u.PaymentMethods[0].CardLast4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(userColumnNames()))

	u, err := repo.GetByID(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()
	u.AccountLocked = true
	u.LoginAttempts = 5

	mock.ExpectExec("UPDATE users SET").
		WithArgs(u.Email, u.PasswordHash, "user", false, u.LastLoginAt, 5, true, "light",
			pgxmock.AnyArg(), pgxmock.AnyArg(), u.UpdatedAt, u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.Update(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectExec("DELETE FROM users").WithArgs("user-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM users").WithArgs("ghost").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Delete(context.Background(), "user-1"))
	assert.Error(t, repo.Delete(context.Background(), "ghost"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	role := domain.RoleUser

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE role = \\$1 AND email ILIKE \\$2").
		WithArgs("user", "%ada%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM users WHERE .+ ORDER BY registered_at DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs("user", "%ada%", 20, 0).
		WillReturnRows(userRow(now))

	users, total, err := repo.List(context.Background(), ports.UserListParams{Role: &role, Search: "ada", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "user-1", users[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
