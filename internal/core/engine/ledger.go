package engine

import (
	"jetwallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ledger mutates a private copy of a snapshot. Callers must have validated
// the command first: debits here do not re-check sufficiency.
type ledger struct {
	state domain.WalletState
}

func newLedger(s domain.WalletState) *ledger {
	return &ledger{state: s.Clone()}
}

func (l *ledger) creditCoin(id domain.CoinID, amount decimal.Decimal) {
	for i := range l.state.Wallets {
		if l.state.Wallets[i].CoinID == id {
			l.state.Wallets[i].Balance = l.state.Wallets[i].Balance.Add(amount)
			return
		}
	}
	l.state.Wallets = append(l.state.Wallets, domain.CoinBalance{CoinID: id, Balance: amount})
}

func (l *ledger) debitCoin(id domain.CoinID, amount decimal.Decimal) {
	for i := range l.state.Wallets {
		if l.state.Wallets[i].CoinID == id {
			l.state.Wallets[i].Balance = l.state.Wallets[i].Balance.Sub(amount)
			return
		}
	}
}

func (l *ledger) creditCash(id domain.FiatID, amount decimal.Decimal) {
	for i := range l.state.Cash {
		if l.state.Cash[i].FiatID == id {
			l.state.Cash[i].Balance = l.state.Cash[i].Balance.Add(amount)
			return
		}
	}
	l.state.Cash = append(l.state.Cash, domain.CashBalance{FiatID: id, Balance: amount})
}

func (l *ledger) debitCash(id domain.FiatID, amount decimal.Decimal) {
	for i := range l.state.Cash {
		if l.state.Cash[i].FiatID == id {
			l.state.Cash[i].Balance = l.state.Cash[i].Balance.Sub(amount)
			return
		}
	}
}

func (l *ledger) stake(id domain.CoinID, amount decimal.Decimal) {
	for i := range l.state.Staked {
		if l.state.Staked[i].CoinID == id {
			l.state.Staked[i].Amount = l.state.Staked[i].Amount.Add(amount)
			return
		}
	}
	l.state.Staked = append(l.state.Staked, domain.StakedPosition{CoinID: id, Amount: amount})
}

// unstake reduces a position and drops it once it reaches zero.
func (l *ledger) unstake(id domain.CoinID, amount decimal.Decimal) {
	for i := range l.state.Staked {
		if l.state.Staked[i].CoinID != id {
			continue
		}
		remaining := l.state.Staked[i].Amount.Sub(amount)
		if remaining.IsPositive() {
			l.state.Staked[i].Amount = remaining
			return
		}
		l.state.Staked = append(l.state.Staked[:i], l.state.Staked[i+1:]...)
		return
	}
}

// record prepends txs in the order given, so txs[0] becomes the newest entry.
func (l *ledger) record(txs ...domain.Transaction) {
	next := make([]domain.Transaction, 0, len(txs)+len(l.state.Transactions))
	next = append(next, txs...)
	next = append(next, l.state.Transactions...)
	l.state.Transactions = next
}
