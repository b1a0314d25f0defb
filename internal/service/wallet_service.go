package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/engine"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const idempotencyTTL = 24 * time.Hour

// Command outcomes reported to metrics.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeReplayed = "replayed"
	outcomeError    = "error"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// WalletServiceImpl implements ports.WalletService. Each command runs inside
// a database transaction holding the user's wallet row lock, so commands for
// one user are applied strictly one after another.
type WalletServiceImpl struct {
	engine     *engine.Engine
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	userRepo   ports.UserRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	oracle     ports.PriceOracle
	publisher  ports.EventPublisher
	metrics    ports.Metrics
	auditSvc   ports.AuditService
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	eng *engine.Engine,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	oracle ports.PriceOracle,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		engine:     eng,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		userRepo:   userRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		oracle:     oracle,
		publisher:  publisher,
		metrics:    metrics,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// GetState returns the user's current snapshot, empty if none was stored.
func (s *WalletServiceImpl) GetState(ctx context.Context, userID string) (*domain.WalletState, error) {
	state, err := s.walletRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if state == nil {
		empty := domain.NewWalletState()
		return &empty, nil
	}
	return state, nil
}

// Execute applies one command to the user's wallet and commits the result.
func (s *WalletServiceImpl) Execute(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
	if req.Command == nil {
		return nil, apperror.ErrInvalidTransactionType()
	}
	start := time.Now()
	kind := req.Command.Kind()

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildIdempotencyKey(req.UserID, req.IdempotencyKey)
		replayed, err := s.replay(ctx, idempKey)
		if err != nil {
			s.record(kind, outcomeError, start)
			return nil, err
		}
		if replayed != nil {
			s.record(kind, outcomeReplayed, start)
			return replayed, nil
		}
	}

	cmd, err := s.prepare(ctx, req.UserID, req.Command)
	if err != nil {
		s.record(kind, outcomeRejected, start)
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	current, err := s.walletRepo.GetForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if current == nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.ErrNotFound("wallet")
	}

	// A concurrent request with the same key may have committed while we
	// waited for the row lock.
	if idempKey != "" {
		idempLog, err := s.idempRepo.Get(ctx, idempKey)
		if err != nil {
			s.record(kind, outcomeError, start)
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if idempLog != nil {
			s.record(kind, outcomeReplayed, start)
			return unmarshalResult(idempLog.ResponseJSON)
		}
	}

	next, err := s.engine.Apply(*current, cmd)
	if err != nil {
		s.record(kind, outcomeRejected, start)
		s.log.Info().
			Err(err).
			Str("user_id", req.UserID).
			Str("type", string(kind)).
			Msg("wallet command rejected")
		return nil, s.translate(err)
	}
	created := engine.Appended(*current, next)

	if err := s.walletRepo.Save(ctx, dbTx, req.UserID, next); err != nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.InternalError(fmt.Errorf("save wallet: %w", err))
	}
	if err := s.txRepo.CreateBatch(ctx, dbTx, req.UserID, created); err != nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.InternalError(fmt.Errorf("journal transactions: %w", err))
	}

	result := &ports.ExecuteResult{State: next, Transactions: created}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(result)
		if err != nil {
			s.record(kind, outcomeError, start)
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		entry := &domain.IdempotencyLog{
			Key:          idempKey,
			UserID:       req.UserID,
			ResponseJSON: respJSON,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
			s.record(kind, outcomeError, start)
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		s.record(kind, outcomeError, start)
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process (best-effort)
	if respJSON != nil {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}
	s.publish(ctx, domain.EventTransactionCommitted, req.UserID, created)
	s.record(kind, outcomeAccepted, start)
	s.audit(ctx, domain.AuditActionWalletCommand, req.UserID, req.ActorID, string(kind), req.ClientIP)

	s.log.Info().
		Str("user_id", req.UserID).
		Str("type", string(kind)).
		Int("records", len(created)).
		Msg("wallet command applied")

	return result, nil
}

// ListTransactions returns the user's journal, newest first.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)
	if params.Status != nil && !params.Status.IsValid() {
		return nil, 0, apperror.Validation("invalid status filter")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, 0, apperror.ErrInvalidTransactionType()
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, 0, apperror.Validation("date range end is before its start")
	}

	txs, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txs, total, nil
}

// SettleWithdrawal moves a pending withdrawal to COMPLETED or FAILED.
// A failed withdrawal refunds its amount to the source balance.
func (s *WalletServiceImpl) SettleWithdrawal(ctx context.Context, req ports.SettleRequest) (*domain.Transaction, error) {
	if !req.Status.IsTerminal() {
		return nil, apperror.Validation("status must be COMPLETED or FAILED")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	current, err := s.walletRepo.GetForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if current == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	next, err := s.engine.Settle(*current, req.TransactionID, req.Status)
	if err != nil {
		return nil, s.translate(err)
	}

	if err := s.walletRepo.Save(ctx, dbTx, req.UserID, next); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save wallet: %w", err))
	}
	if err := s.txRepo.UpdateStatus(ctx, dbTx, req.TransactionID, req.Status); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction status: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	settled := next.Transactions[next.FindTransaction(req.TransactionID)]
	s.publish(ctx, domain.EventWithdrawalSettled, req.UserID, settled)
	s.audit(ctx, domain.AuditActionSettle, req.UserID, req.ActorID, settled.ID, "")

	s.log.Info().
		Str("user_id", req.UserID).
		Str("tx_id", settled.ID).
		Str("status", string(settled.Status)).
		Msg("withdrawal settled")

	return &settled, nil
}

// ReplaceHoldings overwrites a user's balances. The transaction history is
// preserved and no records are created.
func (s *WalletServiceImpl) ReplaceHoldings(ctx context.Context, req ports.HoldingsRequest) (*domain.WalletState, error) {
	replacement := domain.WalletState{
		Wallets: nonNil(req.Wallets),
		Cash:    nonNil(req.Cash),
		Staked:  make([]domain.StakedPosition, 0, len(req.Staked)),
	}
	for _, p := range req.Staked {
		if p.Amount.IsZero() {
			continue
		}
		replacement.Staked = append(replacement.Staked, p)
	}
	if err := replacement.Validate(); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	current, err := s.walletRepo.GetForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if current == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	replacement.Transactions = current.Clone().Transactions
	if err := s.walletRepo.Save(ctx, dbTx, req.UserID, replacement); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save wallet: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit(ctx, domain.AuditActionAdminFinancials, req.UserID, req.ActorID, req.UserID, "")
	s.log.Info().Str("user_id", req.UserID).Str("actor_id", req.ActorID).Msg("holdings replaced")

	return &replacement, nil
}

// replay returns the stored response for key, checking Redis before Postgres.
func (s *WalletServiceImpl) replay(ctx context.Context, key string) (*ports.ExecuteResult, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalResult(cached)
	}

	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalResult(idempLog.ResponseJSON)
	}
	return nil, nil
}

// prepare fills in values the caller left to the service: oracle pricing for
// staking and crypto withdrawals, and payment method resolution for fiat
// movements.
func (s *WalletServiceImpl) prepare(ctx context.Context, userID string, cmd engine.Command) (engine.Command, error) {
	switch c := cmd.(type) {
	case engine.Stake:
		if c.USDValue.IsZero() {
			c.USDValue = s.valueOf(c.Coin, c.Amount)
		}
		return c, nil
	case engine.Unstake:
		if c.USDValue.IsZero() {
			c.USDValue = s.valueOf(c.Coin, c.Amount)
		}
		return c, nil
	case engine.Deposit:
		if c.Source == "" {
			return c, nil
		}
		user, err := s.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if pm, ok := user.PaymentMethodByID(c.Source); ok {
			c.Source = pm.Label()
		}
		return c, nil
	case engine.Withdraw:
		switch domain.ClassifyAsset(c.Asset) {
		case domain.AssetCoin:
			if c.USDValue.IsZero() {
				c.USDValue = s.valueOf(domain.CoinID(normalizeCode(c.Asset)), c.Amount)
			}
		case domain.AssetFiat:
			if c.PaymentMethodID == "" {
				return c, nil
			}
			user, err := s.loadUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			pm, ok := user.PaymentMethodByID(c.PaymentMethodID)
			if !ok {
				return nil, apperror.ErrNotFound("payment method")
			}
			c.PaymentMethodLabel = pm.Label()
		}
		return c, nil
	}
	return cmd, nil
}

func (s *WalletServiceImpl) valueOf(coin domain.CoinID, amount decimal.Decimal) decimal.Decimal {
	return s.oracle.GetPrice(coin).Mul(amount)
}

func (s *WalletServiceImpl) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

// translate maps engine rejections onto coded application errors.
func (s *WalletServiceImpl) translate(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, engine.ErrInvalidAsset):
		appErr = apperror.ErrInvalidAsset()
	case errors.Is(err, engine.ErrInvalidCommand):
		appErr = apperror.ErrInvalidTransactionType()
	case errors.Is(err, engine.ErrInvalidAmount):
		appErr = apperror.ErrInvalidAmount()
	case errors.Is(err, engine.ErrInvalidUSDValue):
		appErr = apperror.ErrInvalidUSDValue()
	case errors.Is(err, engine.ErrBelowMinimum):
		appErr = apperror.ErrBelowMinimum(s.engine.MinimumValue().StringFixed(2))
	case errors.Is(err, engine.ErrInsufficientBalance):
		appErr = apperror.ErrInsufficientBalance()
	case errors.Is(err, engine.ErrMissingDestination):
		appErr = apperror.ErrMissingDestination()
	case errors.Is(err, engine.ErrTransactionNotFound):
		appErr = apperror.ErrNotFound("transaction")
	case errors.Is(err, engine.ErrNotSettleable):
		appErr = apperror.ErrNotSettleable()
	default:
		return apperror.InternalError(err)
	}
	appErr.Err = err
	return appErr
}

func (s *WalletServiceImpl) publish(ctx context.Context, typ domain.EventType, userID string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	event := domain.WalletEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(typ)).Str("user_id", userID).Msg("failed to publish event")
	}
}

func (s *WalletServiceImpl) record(kind domain.TransactionType, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.CommandProcessed(kind, outcome, time.Since(start))
	}
}

func (s *WalletServiceImpl) audit(ctx context.Context, action domain.AuditAction, userID, actorID, resourceID, ip string) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Log(ctx, auditEntry(action, userID, actorID, "wallet", resourceID, ip))
}

func unmarshalResult(data []byte) (*ports.ExecuteResult, error) {
	var result ports.ExecuteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached response: %w", err))
	}
	return &result, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
