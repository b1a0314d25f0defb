package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of wallet movement.
type TransactionType string

const (
	TransactionTypeBuy      TransactionType = "BUY"
	TransactionTypeSell     TransactionType = "SELL"
	TransactionTypeSend     TransactionType = "SEND"
	TransactionTypeReceive  TransactionType = "RECEIVE"
	TransactionTypeSwap     TransactionType = "SWAP"
	TransactionTypeStake    TransactionType = "STAKE"
	TransactionTypeUnstake  TransactionType = "UNSTAKE"
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
)

// IsValid reports whether t is a recognised transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeSend, TransactionTypeReceive,
		TransactionTypeSwap, TransactionTypeStake, TransactionTypeUnstake,
		TransactionTypeDeposit, TransactionTypeWithdraw:
		return true
	}
	return false
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsValid reports whether s is a recognised status.
func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusPending || s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// IsTerminal returns true if no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Swap leg labels.
const (
	CounterpartySelf     = "Self"
	CounterpartyExchange = "Exchange"
	CounterpartyAccount  = "JetWallet Account"
)

// Transaction is an immutable audit record of one wallet movement.
// Price is frozen at creation and never recomputed.
type Transaction struct {
	ID       string            `json:"id"`
	Date     time.Time         `json:"date"`
	Hash     string            `json:"hash"`
	Status   TransactionStatus `json:"status"`
	Type     TransactionType   `json:"type"`
	Currency string            `json:"currency"`
	Amount   decimal.Decimal   `json:"amount"`
	Price    decimal.Decimal   `json:"price"`
	USDValue decimal.Decimal   `json:"usd_value"`
	From     string            `json:"from,omitempty"`
	To       string            `json:"to,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// IsSettleable returns true for withdrawals still awaiting settlement.
func (t *Transaction) IsSettleable() bool {
	return t.Type == TransactionTypeWithdraw && t.Status == TransactionStatusPending
}
