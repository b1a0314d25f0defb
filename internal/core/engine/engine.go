// Package engine holds the pure wallet state transition: given a snapshot
// and a command it either returns the next snapshot or a rejection.
package engine

import (
	"encoding/hex"
	"strings"
	"time"

	"jetwallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"lukechampine.com/frand"
)

// DefaultMinimumValue is the smallest USD value a priced command may carry.
var DefaultMinimumValue = decimal.NewFromInt(1)

// Engine applies commands to wallet snapshots. It holds no wallet data and
// is safe for concurrent use.
type Engine struct {
	now      func() time.Time
	newID    func() string
	newHash  func() string
	minValue decimal.Decimal
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDSource overrides transaction id generation.
func WithIDSource(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithHashSource overrides transaction hash generation.
func WithHashSource(fn func() string) Option {
	return func(e *Engine) { e.newHash = fn }
}

// WithMinimumValue sets the minimum USD value for priced commands.
// decimal.Zero disables the check.
func WithMinimumValue(v decimal.Decimal) Option {
	return func(e *Engine) { e.minValue = v }
}

// New creates an Engine with production defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:      time.Now,
		newID:    uuid.NewString,
		newHash:  RandomHash,
		minValue: DefaultMinimumValue,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RandomHash returns a 0x-prefixed 64 hex character pseudo transaction hash.
func RandomHash() string {
	return "0x" + hex.EncodeToString(frand.Bytes(32))
}

// MinimumValue returns the configured minimum USD value.
func (e *Engine) MinimumValue() decimal.Decimal {
	return e.minValue
}

// Apply validates cmd against state and returns the next snapshot.
// On rejection the returned snapshot is state itself and the error is a
// *RejectionError. state is never modified.
func (e *Engine) Apply(state domain.WalletState, cmd Command) (domain.WalletState, error) {
	if cmd == nil {
		return state, reject("", "", ErrInvalidCommand)
	}
	if err := e.check(state, cmd); err != nil {
		return state, err
	}

	// One clock read per command so every record it produces shares a timestamp.
	at := e.now().UTC()
	l := newLedger(state)
	switch c := cmd.(type) {
	case Buy:
		l.creditCoin(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, "", "", domain.TransactionStatusCompleted))
	case Sell:
		l.debitCoin(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, "", "", domain.TransactionStatusCompleted))
	case Send:
		l.debitCoin(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, "", c.To, domain.TransactionStatusCompleted))
	case Receive:
		l.creditCoin(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, c.From, "", domain.TransactionStatusCompleted))
	case Swap:
		l.debitCoin(c.From.Coin, c.From.Amount)
		l.creditCoin(c.To.Coin, c.To.Amount)
		out := e.tx(at, c.Kind(), string(c.From.Coin), c.From.Amount, c.From.USDValue,
			domain.CounterpartySelf, domain.CounterpartyExchange, domain.TransactionStatusCompleted)
		in := e.tx(at, c.Kind(), string(c.To.Coin), c.To.Amount, c.To.USDValue,
			domain.CounterpartyExchange, domain.CounterpartySelf, domain.TransactionStatusCompleted)
		l.record(in, out)
	case Stake:
		l.debitCoin(c.Coin, c.Amount)
		l.stake(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, "", "", domain.TransactionStatusCompleted))
	case Unstake:
		l.unstake(c.Coin, c.Amount)
		l.creditCoin(c.Coin, c.Amount)
		l.record(e.tx(at, c.Kind(), string(c.Coin), c.Amount, c.USDValue, "", "", domain.TransactionStatusCompleted))
	case Deposit:
		code := normalizeAsset(c.Asset)
		if domain.ClassifyAsset(code) == domain.AssetFiat {
			l.creditCash(domain.FiatID(code), c.Amount)
		} else {
			l.creditCoin(domain.CoinID(code), c.Amount)
		}
		l.record(e.tx(at, c.Kind(), code, c.Amount, c.USDValue, c.Source, domain.CounterpartyAccount, domain.TransactionStatusCompleted))
	case Withdraw:
		code := normalizeAsset(c.Asset)
		to := c.Address
		if domain.ClassifyAsset(code) == domain.AssetFiat {
			l.debitCash(domain.FiatID(code), c.Amount)
			to = c.PaymentMethodID
			if label := strings.TrimSpace(c.PaymentMethodLabel); label != "" {
				to = label
			}
		} else {
			l.debitCoin(domain.CoinID(code), c.Amount)
		}
		l.record(e.tx(at, c.Kind(), code, c.Amount, c.USDValue, domain.CounterpartySelf, to, domain.TransactionStatusPending))
	default:
		return state, reject(cmd.Kind(), "", ErrInvalidCommand)
	}
	return l.state, nil
}

// Settle moves a pending withdrawal to COMPLETED or FAILED. A failed
// withdrawal returns its amount to the originating balance.
func (e *Engine) Settle(state domain.WalletState, txID string, status domain.TransactionStatus) (domain.WalletState, error) {
	idx := state.FindTransaction(txID)
	if idx < 0 {
		return state, reject(domain.TransactionTypeWithdraw, "", ErrTransactionNotFound)
	}
	tx := state.Transactions[idx]
	if !tx.IsSettleable() || !status.IsTerminal() {
		return state, reject(tx.Type, tx.Currency, ErrNotSettleable)
	}

	l := newLedger(state)
	if status == domain.TransactionStatusFailed {
		switch domain.ClassifyAsset(tx.Currency) {
		case domain.AssetFiat:
			l.creditCash(domain.FiatID(tx.Currency), tx.Amount)
		case domain.AssetCoin:
			l.creditCoin(domain.CoinID(tx.Currency), tx.Amount)
		}
	}
	l.state.Transactions[idx].Status = status
	return l.state, nil
}

// Appended returns the transactions present in next but not in prev,
// newest first.
func Appended(prev, next domain.WalletState) []domain.Transaction {
	n := len(next.Transactions) - len(prev.Transactions)
	if n <= 0 {
		return nil
	}
	out := make([]domain.Transaction, n)
	copy(out, next.Transactions[:n])
	return out
}

func (e *Engine) tx(at time.Time, kind domain.TransactionType, currency string, amount, usdValue decimal.Decimal, from, to string, status domain.TransactionStatus) domain.Transaction {
	return domain.Transaction{
		ID:       e.newID(),
		Date:     at,
		Hash:     e.newHash(),
		Status:   status,
		Type:     kind,
		Currency: currency,
		Amount:   amount,
		Price:    ImpliedPrice(amount, usdValue),
		USDValue: usdValue,
		From:     from,
		To:       to,
	}
}

func normalizeAsset(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
