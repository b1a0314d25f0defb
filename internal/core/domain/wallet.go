package domain

import (
	"github.com/shopspring/decimal"
)

// CoinBalance is the holding of one coin.
type CoinBalance struct {
	CoinID  CoinID          `json:"coin_id"`
	Balance decimal.Decimal `json:"balance"`
}

// CashBalance is the holding of one fiat currency.
type CashBalance struct {
	FiatID  FiatID          `json:"fiat_id"`
	Balance decimal.Decimal `json:"balance"`
}

// StakedPosition is the amount of a coin currently staked.
type StakedPosition struct {
	CoinID CoinID          `json:"coin_id"`
	Amount decimal.Decimal `json:"amount"`
}

// WalletState is the full snapshot of one user's holdings and ledger.
// Each coin or fiat appears at most once per collection and Transactions
// is ordered newest-first.
type WalletState struct {
	Wallets      []CoinBalance    `json:"wallets"`
	Cash         []CashBalance    `json:"cash"`
	Staked       []StakedPosition `json:"staked"`
	Transactions []Transaction    `json:"transactions"`
}

// NewWalletState returns an empty state with non-nil collections.
func NewWalletState() WalletState {
	return WalletState{
		Wallets:      []CoinBalance{},
		Cash:         []CashBalance{},
		Staked:       []StakedPosition{},
		Transactions: []Transaction{},
	}
}

// InitialWallets returns the balances granted to newly registered users.
func InitialWallets() []CoinBalance {
	return []CoinBalance{
		{CoinID: CoinBTC, Balance: decimal.RequireFromString("0.5")},
		{CoinID: CoinETH, Balance: decimal.NewFromInt(10)},
		{CoinID: CoinUSDT, Balance: decimal.NewFromInt(5000)},
		{CoinID: CoinSOL, Balance: decimal.NewFromInt(100)},
		{CoinID: CoinXRP, Balance: decimal.NewFromInt(10000)},
		{CoinID: CoinDOGE, Balance: decimal.NewFromInt(50000)},
	}
}

// Clone returns a deep copy so callers can mutate it without aliasing.
func (s WalletState) Clone() WalletState {
	out := WalletState{
		Wallets:      make([]CoinBalance, len(s.Wallets)),
		Cash:         make([]CashBalance, len(s.Cash)),
		Staked:       make([]StakedPosition, len(s.Staked)),
		Transactions: make([]Transaction, len(s.Transactions)),
	}
	copy(out.Wallets, s.Wallets)
	copy(out.Cash, s.Cash)
	copy(out.Staked, s.Staked)
	copy(out.Transactions, s.Transactions)
	return out
}

// CoinBalance returns the balance of id, zero when no wallet exists.
func (s WalletState) CoinBalance(id CoinID) decimal.Decimal {
	for _, w := range s.Wallets {
		if w.CoinID == id {
			return w.Balance
		}
	}
	return decimal.Zero
}

// CashBalance returns the balance of id, zero when no account exists.
func (s WalletState) CashBalance(id FiatID) decimal.Decimal {
	for _, c := range s.Cash {
		if c.FiatID == id {
			return c.Balance
		}
	}
	return decimal.Zero
}

// StakedAmount returns the staked amount of id, zero when nothing is staked.
func (s WalletState) StakedAmount(id CoinID) decimal.Decimal {
	for _, p := range s.Staked {
		if p.CoinID == id {
			return p.Amount
		}
	}
	return decimal.Zero
}

// FindTransaction returns the index of the transaction with id, or -1.
func (s WalletState) FindTransaction(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants of a snapshot: known assets,
// no duplicates and no negative balances.
func (s WalletState) Validate() error {
	seenCoins := make(map[CoinID]struct{}, len(s.Wallets))
	for _, w := range s.Wallets {
		if !w.CoinID.IsValid() {
			return &StateError{Field: "wallets", Asset: string(w.CoinID), Reason: "unknown coin"}
		}
		if _, dup := seenCoins[w.CoinID]; dup {
			return &StateError{Field: "wallets", Asset: string(w.CoinID), Reason: "duplicate entry"}
		}
		if w.Balance.IsNegative() {
			return &StateError{Field: "wallets", Asset: string(w.CoinID), Reason: "negative balance"}
		}
		seenCoins[w.CoinID] = struct{}{}
	}

	seenFiat := make(map[FiatID]struct{}, len(s.Cash))
	for _, c := range s.Cash {
		if !c.FiatID.IsValid() {
			return &StateError{Field: "cash", Asset: string(c.FiatID), Reason: "unknown currency"}
		}
		if _, dup := seenFiat[c.FiatID]; dup {
			return &StateError{Field: "cash", Asset: string(c.FiatID), Reason: "duplicate entry"}
		}
		if c.Balance.IsNegative() {
			return &StateError{Field: "cash", Asset: string(c.FiatID), Reason: "negative balance"}
		}
		seenFiat[c.FiatID] = struct{}{}
	}

	seenStake := make(map[CoinID]struct{}, len(s.Staked))
	for _, p := range s.Staked {
		if !p.CoinID.IsValid() {
			return &StateError{Field: "staked", Asset: string(p.CoinID), Reason: "unknown coin"}
		}
		if _, dup := seenStake[p.CoinID]; dup {
			return &StateError{Field: "staked", Asset: string(p.CoinID), Reason: "duplicate entry"}
		}
		if !p.Amount.IsPositive() {
			return &StateError{Field: "staked", Asset: string(p.CoinID), Reason: "non-positive amount"}
		}
		seenStake[p.CoinID] = struct{}{}
	}
	return nil
}

// StateError describes a snapshot that violates a holding invariant.
type StateError struct {
	Field  string
	Asset  string
	Reason string
}

func (e *StateError) Error() string {
	return e.Field + "[" + e.Asset + "]: " + e.Reason
}
