package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/engine"

	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject TokenSubject) (*IssuedToken, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenSubject describes who a token is issued for.
type TokenSubject struct {
	UserID  string
	Role    domain.Role
	ActorID string // admin id when impersonating, empty otherwise
}

// IssuedToken is a freshly signed JWT.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID    string
	Role      domain.Role
	ActorID   string
	TokenID   string
	ExpiresAt time.Time
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TokenBlocklist records revoked token ids until they would have expired.
type TokenBlocklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PriceCache shares the latest price snapshot between replicas.
type PriceCache interface {
	Get(ctx context.Context) (*domain.PriceSnapshot, error) // nil when absent
	Set(ctx context.Context, snapshot domain.PriceSnapshot, ttl time.Duration) error
}

// EventPublisher emits wallet events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.WalletEvent) error
}

// Metrics receives business counters from services.
type Metrics interface {
	CommandProcessed(kind domain.TransactionType, outcome string, elapsed time.Duration)
	PriceRefreshed(source string, ok bool)
	AlertsTriggered(n int)
}

// --- Service Ports (Business Logic) ---

// WalletService dispatches commands against persisted wallet snapshots.
type WalletService interface {
	GetState(ctx context.Context, userID string) (*domain.WalletState, error)
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	SettleWithdrawal(ctx context.Context, req SettleRequest) (*domain.Transaction, error)
	ReplaceHoldings(ctx context.Context, req HoldingsRequest) (*domain.WalletState, error)
}

// ExecuteRequest holds a command and the caller context it runs in.
type ExecuteRequest struct {
	UserID         string
	ActorID        string
	IdempotencyKey string // optional
	ClientIP       string
	Command        engine.Command
}

// ExecuteResult is the committed outcome of a command.
type ExecuteResult struct {
	State        domain.WalletState   `json:"state"`
	Transactions []domain.Transaction `json:"transactions"`
}

// SettleRequest moves a pending withdrawal to a terminal status.
type SettleRequest struct {
	ActorID       string
	UserID        string
	TransactionID string
	Status        domain.TransactionStatus
}

// HoldingsRequest replaces a user's balances wholesale.
type HoldingsRequest struct {
	ActorID string
	UserID  string
	Wallets []domain.CoinBalance
	Cash    []domain.CashBalance
	Staked  []domain.StakedPosition
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, claims *TokenClaims) error
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Email    string
	Password string
	ClientIP string
}

// Session is an authenticated user plus a bearer token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterResponse holds the registration result shown once.
type RegisterResponse struct {
	Session
	SeedPhrase []string // Plaintext, shown only at registration
}

// UserService covers administrator account management.
type UserService interface {
	ListUsers(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
	Impersonate(ctx context.Context, actorID, id string) (*Session, error)
	EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error)
}

// CreateUserRequest holds input for admin-created accounts.
type CreateUserRequest struct {
	Email    string
	Password string
	Role     domain.Role
}

// UserPatch lists the fields an administrator may change; nil means unchanged.
type UserPatch struct {
	Email            *string
	Password         *string
	Role             *domain.Role
	Theme            *domain.Theme
	TwoFactorEnabled *bool
	AccountLocked    *bool
}

// ProfileService covers self-service account settings.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (*domain.User, error)
	AddPaymentMethod(ctx context.Context, userID string, req PaymentMethodRequest) (*domain.PaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, userID, methodID string) error
}

// PreferencesPatch lists user-editable settings; nil means unchanged.
type PreferencesPatch struct {
	Theme            *domain.Theme
	TwoFactorEnabled *bool
	Notifications    *domain.NotificationSettings
}

// PaymentMethodRequest is a raw payment method as entered by the user.
// CardNumber and AccountNumber are reduced to their last four digits and
// CVV is discarded.
type PaymentMethodRequest struct {
	Type              domain.PaymentMethodType
	Name              string
	CardNumber        string
	CardType          domain.CardType
	ExpiryDate        string
	CardHolderName    string
	CVV               string
	BankName          string
	AccountNumber     string
	SortCode          string
	IBAN              string
	SwiftCode         string
	AccountHolderName string
	IsDefault         bool
}

// PriceOracle returns the current USD price of a coin, zero when unknown.
type PriceOracle interface {
	GetPrice(coin domain.CoinID) decimal.Decimal
}

// PriceService is the refreshing price oracle.
type PriceService interface {
	PriceOracle
	Snapshot() domain.PriceSnapshot
	Refresh(ctx context.Context) (domain.PriceSnapshot, error)
	Warm(ctx context.Context) error
}

// PriceProvider is one upstream market data API.
type PriceProvider interface {
	Name() string
	Fetch(ctx context.Context, coins []domain.CoinID) (map[domain.CoinID]decimal.Decimal, error)
}

// AlertService manages and evaluates price alerts.
type AlertService interface {
	Create(ctx context.Context, userID string, req AlertRequest) (*domain.PriceAlert, error)
	List(ctx context.Context, userID string) ([]domain.PriceAlert, error)
	Delete(ctx context.Context, userID, alertID string) error
	Evaluate(ctx context.Context, snapshot domain.PriceSnapshot) (int, error)
}

// AlertRequest holds input for a new price alert.
type AlertRequest struct {
	CoinID      domain.CoinID
	TargetPrice decimal.Decimal
	Condition   domain.AlertCondition
}

// ReportingService defines portfolio and statistics reads.
type ReportingService interface {
	GetPortfolio(ctx context.Context, userID string) (*Portfolio, error)
	GetStats(ctx context.Context, userID string, period string) (*TransactionStats, error)
}

// Portfolio is a valued view of a wallet snapshot.
type Portfolio struct {
	Holdings  []Holding       `json:"holdings"`
	TotalUSD  decimal.Decimal `json:"total_usd"`
	ValuedAt  time.Time       `json:"valued_at"`
	PriceFrom string          `json:"price_source"`
}

// Holding is one valued position.
type Holding struct {
	Asset    string          `json:"asset"`
	Kind     string          `json:"kind"` // wallet, staked or cash
	Amount   decimal.Decimal `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	USDValue decimal.Decimal `json:"usd_value"`
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
