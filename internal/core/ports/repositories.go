package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"jetwallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrDuplicate is returned by repositories when a unique key already exists.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
}

// UserListParams holds filter + pagination for listing users.
type UserListParams struct {
	Role     *domain.Role
	Search   string // email substring
	Page     int
	PageSize int
}

// WalletRepository stores one WalletState snapshot per user.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error
	Get(ctx context.Context, userID string) (*domain.WalletState, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.WalletState, error)
	Save(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error
}

// TransactionRepository is the queryable journal of committed wallet records.
type TransactionRepository interface {
	CreateBatch(ctx context.Context, tx pgx.Tx, userID string, txns []domain.Transaction) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.TransactionStatus) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, userID string, since *time.Time) (*TransactionStats, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   string
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	Currency string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TransactionStats holds aggregated statistics for the reports endpoint.
type TransactionStats struct {
	TotalTransactions int64                            `json:"total_transactions"`
	Completed         int64                            `json:"completed"`
	Pending           int64                            `json:"pending"`
	Failed            int64                            `json:"failed"`
	CountByType       map[domain.TransactionType]int64 `json:"count_by_type"`
	BoughtUSD         decimal.Decimal                  `json:"bought_usd"`
	SoldUSD           decimal.Decimal                  `json:"sold_usd"`
	DepositedUSD      decimal.Decimal                  `json:"deposited_usd"`
	WithdrawnUSD      decimal.Decimal                  `json:"withdrawn_usd"`
}

// IdempotencyRepository defines persistence for idempotency logs (DB backup).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error
	Get(ctx context.Context, key string) (*domain.IdempotencyLog, error)
}

// PriceAlertRepository stores user price alerts.
type PriceAlertRepository interface {
	Create(ctx context.Context, alert *domain.PriceAlert) error
	ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error)
	ListActive(ctx context.Context) ([]domain.PriceAlert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
