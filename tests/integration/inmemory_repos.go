package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[string]domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ports.ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return ports.ErrDuplicate
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *inMemoryUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, u := range r.users {
		if params.Role != nil && u.Role != *params.Role {
			continue
		}
		if params.Search != "" && !strings.Contains(u.Email, strings.ToLower(params.Search)) {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return paginate(result, params.Page, params.PageSize)
}

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo emulates SELECT ... FOR UPDATE with a per-user mutex
// held until the owning memTx commits or rolls back.
type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[string]domain.WalletState
	locks   map[string]*sync.Mutex
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{
		wallets: make(map[string]domain.WalletState),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[userID] = state.Clone()
	r.locks[userID] = &sync.Mutex{}
	return nil
}

func (r *inMemoryWalletRepo) Get(ctx context.Context, userID string) (*domain.WalletState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	clone := state.Clone()
	return &clone, nil
}

func (r *inMemoryWalletRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.WalletState, error) {
	r.mu.RLock()
	lock, ok := r.locks[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	lock.Lock()
	if mtx, ok := tx.(*memTx); ok {
		mtx.onEnd(lock.Unlock)
	} else {
		defer lock.Unlock()
	}
	return r.Get(ctx, userID)
}

func (r *inMemoryWalletRepo) Save(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[userID]; !ok {
		return fmt.Errorf("wallet not found")
	}
	r.wallets[userID] = state.Clone()
	return nil
}

// --- In-Memory Transaction Repo ---

type journalEntry struct {
	seq    int64
	userID string
	tx     domain.Transaction
}

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	entries []journalEntry
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) CreateBatch(ctx context.Context, tx pgx.Tx, userID string, txns []domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Oldest first, like the SQL repo, so seq orders records sharing a timestamp.
	for i := len(txns) - 1; i >= 0; i-- {
		r.entries = append(r.entries, journalEntry{seq: int64(len(r.entries) + 1), userID: userID, tx: txns[i]})
	}
	return nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].tx.ID == id {
			r.entries[i].tx.Status = status
			return nil
		}
	}
	return fmt.Errorf("transaction not found")
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []journalEntry
	for _, e := range r.entries {
		t := e.tx
		if e.userID != params.UserID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Currency != "" && t.Currency != params.Currency {
			continue
		}
		if params.From != nil && t.Date.Before(*params.From) {
			continue
		}
		if params.To != nil && t.Date.After(*params.To) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].tx.Date.Equal(matched[j].tx.Date) {
			return matched[i].tx.Date.After(matched[j].tx.Date)
		}
		return matched[i].seq > matched[j].seq
	})
	result := make([]domain.Transaction, len(matched))
	for i, e := range matched {
		result[i] = e.tx
	}
	return paginate(result, params.Page, params.PageSize)
}

func (r *inMemoryTransactionRepo) GetStats(ctx context.Context, userID string, since *time.Time) (*ports.TransactionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.TransactionStats{CountByType: map[domain.TransactionType]int64{}}
	for _, e := range r.entries {
		t := e.tx
		if e.userID != userID || (since != nil && t.Date.Before(*since)) {
			continue
		}
		stats.TotalTransactions++
		stats.CountByType[t.Type]++
		switch t.Status {
		case domain.TransactionStatusCompleted:
			stats.Completed++
		case domain.TransactionStatusPending:
			stats.Pending++
		case domain.TransactionStatusFailed:
			stats.Failed++
			continue
		}
		switch t.Type {
		case domain.TransactionTypeBuy:
			stats.BoughtUSD = stats.BoughtUSD.Add(t.USDValue)
		case domain.TransactionTypeSell:
			stats.SoldUSD = stats.SoldUSD.Add(t.USDValue)
		case domain.TransactionTypeDeposit:
			stats.DepositedUSD = stats.DepositedUSD.Add(t.USDValue)
		case domain.TransactionTypeWithdraw:
			stats.WithdrawnUSD = stats.WithdrawnUSD.Add(t.USDValue)
		}
	}
	return stats, nil
}

func (r *inMemoryTransactionRepo) count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.userID == userID {
			n++
		}
	}
	return n
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu   sync.RWMutex
	logs map[string]*domain.IdempotencyLog
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{logs: make(map[string]*domain.IdempotencyLog)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.Key]; ok {
		return ports.ErrDuplicate
	}
	r.logs[log.Key] = log
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.logs[key]
	if !ok {
		return nil, nil
	}
	return l, nil
}

// --- In-Memory Alert Repo ---

type inMemoryAlertRepo struct {
	mu     sync.RWMutex
	alerts map[string]domain.PriceAlert
}

func newInMemoryAlertRepo() *inMemoryAlertRepo {
	return &inMemoryAlertRepo{alerts: make(map[string]domain.PriceAlert)}
}

func (r *inMemoryAlertRepo) Create(ctx context.Context, a *domain.PriceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[a.ID] = *a
	return nil
}

func (r *inMemoryAlertRepo) ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.PriceAlert{}
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *inMemoryAlertRepo) ListActive(ctx context.Context) ([]domain.PriceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.PriceAlert
	for _, a := range r.alerts {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *inMemoryAlertRepo) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return fmt.Errorf("alert not found")
	}
	a.Active = false
	a.TriggeredAt = &at
	r.alerts[id] = a
	return nil
}

func (r *inMemoryAlertRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.alerts, id)
	return true, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx is a pgx.Tx that only tracks row locks taken through it.
type memTx struct {
	mu      sync.Mutex
	ended   bool
	release []func()
}

func (t *memTx) onEnd(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release = append(t.release, fn)
}

func (t *memTx) end() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.ended = true
	for _, fn := range t.release {
		fn()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.end(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.end(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

func paginate[T any](items []T, page, pageSize int) ([]T, int64, error) {
	total := int64(len(items))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}, total, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
