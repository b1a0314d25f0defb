package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, seed_phrase_enc, role, registered_at, two_factor_enabled,
		last_login_at, login_attempts, account_locked, theme, notifications, payment_methods, updated_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a user within a database transaction.
func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	notifications, methods, err := marshalUserJSON(u)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.SeedPhraseEnc, string(u.Role), u.RegisteredAt, u.TwoFactorEnabled,
		u.LastLoginAt, u.LoginAttempts, u.AccountLocked, string(u.Theme), notifications, methods, u.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert user", err)
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// Update overwrites every mutable column of a user.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	notifications, methods, err := marshalUserJSON(u)
	if err != nil {
		return err
	}

	query := `UPDATE users SET email = $1, password_hash = $2, role = $3, two_factor_enabled = $4,
		last_login_at = $5, login_attempts = $6, account_locked = $7, theme = $8,
		notifications = $9, payment_methods = $10, updated_at = $11
		WHERE id = $12`

	tag, err := r.pool.Exec(ctx, query,
		u.Email, u.PasswordHash, string(u.Role), u.TwoFactorEnabled,
		u.LastLoginAt, u.LoginAttempts, u.AccountLocked, string(u.Theme),
		notifications, methods, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return wrapErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", u.ID)
	}
	return nil
}

// Delete removes a user; wallet, journal and alerts cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// List fetches users with filtering and pagination.
func (r *UserRepo) List(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, string(*params.Role))
		argIdx++
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM users %s", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY registered_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, total, nil
}

func marshalUserJSON(u *domain.User) ([]byte, []byte, error) {
	notifications, err := json.Marshal(u.Notifications)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal notifications: %w", err)
	}
	methods := u.PaymentMethods
	if methods == nil {
		methods = []domain.PaymentMethod{}
	}
	paymentMethods, err := json.Marshal(methods)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payment methods: %w", err)
	}
	return notifications, paymentMethods, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	var role, theme string
	var notifications, methods []byte

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.SeedPhraseEnc, &role, &u.RegisteredAt, &u.TwoFactorEnabled,
		&u.LastLoginAt, &u.LoginAttempts, &u.AccountLocked, &theme, &notifications, &methods, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.Theme = domain.Theme(theme)
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &u.Notifications); err != nil {
			return nil, fmt.Errorf("unmarshal notifications: %w", err)
		}
	}
	u.PaymentMethods = []domain.PaymentMethod{}
	if len(methods) > 0 {
		if err := json.Unmarshal(methods, &u.PaymentMethods); err != nil {
			return nil, fmt.Errorf("unmarshal payment methods: %w", err)
		}
	}
	return u, nil
}
