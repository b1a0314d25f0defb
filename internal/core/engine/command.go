package engine

import (
	"jetwallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Command is a request to mutate a WalletState. The set of implementations
// is closed: Buy, Sell, Send, Receive, Swap, Stake, Unstake, Deposit, Withdraw.
type Command interface {
	Kind() domain.TransactionType
	isCommand()
}

// Buy credits a coin wallet with a purchased amount.
type Buy struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
}

// Sell debits a coin wallet.
type Sell struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
}

// Send debits a coin wallet towards an external address.
type Send struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
	To       string
}

// Receive credits a coin wallet from an external sender.
type Receive struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
	From     string // optional
}

// Leg is one side of a swap.
type Leg struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
}

// Swap exchanges one coin for another and records both legs.
type Swap struct {
	From Leg
	To   Leg
}

// Stake moves coins from the wallet into a staking position.
// USDValue is derived from the oracle and may be zero.
type Stake struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
}

// Unstake moves coins from a staking position back to the wallet.
type Unstake struct {
	Coin     domain.CoinID
	Amount   decimal.Decimal
	USDValue decimal.Decimal
}

// Deposit credits a fiat cash account, or a coin wallet when Asset is a coin.
type Deposit struct {
	Asset    string
	Amount   decimal.Decimal
	USDValue decimal.Decimal
	Source   string // payment method label
}

// Withdraw debits a coin wallet to Address or a cash account to a saved
// payment method. The resulting record stays PENDING until settled. Fiat
// records name PaymentMethodLabel as the destination when it is set and fall
// back to PaymentMethodID.
type Withdraw struct {
	Asset              string
	Amount             decimal.Decimal
	USDValue           decimal.Decimal
	Address            string
	PaymentMethodID    string
	PaymentMethodLabel string
}

func (Buy) Kind() domain.TransactionType      { return domain.TransactionTypeBuy }
func (Sell) Kind() domain.TransactionType     { return domain.TransactionTypeSell }
func (Send) Kind() domain.TransactionType     { return domain.TransactionTypeSend }
func (Receive) Kind() domain.TransactionType  { return domain.TransactionTypeReceive }
func (Swap) Kind() domain.TransactionType     { return domain.TransactionTypeSwap }
func (Stake) Kind() domain.TransactionType    { return domain.TransactionTypeStake }
func (Unstake) Kind() domain.TransactionType  { return domain.TransactionTypeUnstake }
func (Deposit) Kind() domain.TransactionType  { return domain.TransactionTypeDeposit }
func (Withdraw) Kind() domain.TransactionType { return domain.TransactionTypeWithdraw }

func (Buy) isCommand()      {}
func (Sell) isCommand()     {}
func (Send) isCommand()     {}
func (Receive) isCommand()  {}
func (Swap) isCommand()     {}
func (Stake) isCommand()    {}
func (Unstake) isCommand()  {}
func (Deposit) isCommand()  {}
func (Withdraw) isCommand() {}
