package engine

import (
	"fmt"
	"math"
	"testing"
	"time"

	"jetwallet/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEngine(opts ...Option) *Engine {
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDSource(func() string {
			seq++
			return fmt.Sprintf("tx-%d", seq)
		}),
		WithHashSource(func() string { return "0xfeed" }),
	}
	return New(append(base, opts...)...)
}

func stateWith(wallets ...domain.CoinBalance) domain.WalletState {
	s := domain.NewWalletState()
	s.Wallets = append(s.Wallets, wallets...)
	return s
}

func coin(id domain.CoinID, bal string) domain.CoinBalance {
	return domain.CoinBalance{CoinID: id, Balance: d(bal)}
}

func assertRejected(t *testing.T, err error, want error) {
	t.Helper()
	require.Error(t, err)
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.ErrorIs(t, err, want)
}

func TestApply_BuyCreditsAndFreezesPrice(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinBTC, "0.5"))

	next, err := e.Apply(start, Buy{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")})
	require.NoError(t, err)

	assert.True(t, next.CoinBalance(domain.CoinBTC).Equal(d("0.6")))
	require.Len(t, next.Transactions, 1)
	tx := next.Transactions[0]
	assert.Equal(t, domain.TransactionTypeBuy, tx.Type)
	assert.Equal(t, "BTC", tx.Currency)
	assert.True(t, tx.Amount.Equal(d("0.1")))
	assert.True(t, tx.Price.Equal(d("68000")))
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, fixedNow, tx.Date)

	// input untouched
	assert.True(t, start.CoinBalance(domain.CoinBTC).Equal(d("0.5")))
	assert.Empty(t, start.Transactions)
}

func TestApply_SellInsufficientBalance(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinBTC, "0.05"))

	next, err := e.Apply(start, Sell{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")})
	assertRejected(t, err, ErrInsufficientBalance)
	assert.Equal(t, start, next)
}

func TestApply_SwapOrdersInLegFirst(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinBTC, "1"), coin(domain.CoinETH, "0"))

	next, err := e.Apply(start, Swap{
		From: Leg{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")},
		To:   Leg{Coin: domain.CoinETH, Amount: d("2"), USDValue: d("6800")},
	})
	require.NoError(t, err)

	assert.True(t, next.CoinBalance(domain.CoinBTC).Equal(d("0.9")))
	assert.True(t, next.CoinBalance(domain.CoinETH).Equal(d("2")))
	require.Len(t, next.Transactions, 2)

	in, out := next.Transactions[0], next.Transactions[1]
	assert.Equal(t, "ETH", in.Currency)
	assert.Equal(t, domain.CounterpartyExchange, in.From)
	assert.Equal(t, domain.CounterpartySelf, in.To)
	assert.True(t, in.Price.Equal(d("3400")))
	assert.Equal(t, "BTC", out.Currency)
	assert.Equal(t, domain.CounterpartySelf, out.From)
	assert.Equal(t, domain.CounterpartyExchange, out.To)
}

func TestApply_SwapLegsShareTimestamp(t *testing.T) {
	tick := fixedNow
	e := newTestEngine(WithClock(func() time.Time {
		tick = tick.Add(time.Microsecond)
		return tick
	}))
	start := stateWith(coin(domain.CoinBTC, "1"), coin(domain.CoinETH, "0"))

	next, err := e.Apply(start, Swap{
		From: Leg{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")},
		To:   Leg{Coin: domain.CoinETH, Amount: d("2"), USDValue: d("6800")},
	})
	require.NoError(t, err)
	require.Len(t, next.Transactions, 2)

	assert.Equal(t, next.Transactions[0].Date, next.Transactions[1].Date)
	assert.Equal(t, fixedNow.Add(time.Microsecond), next.Transactions[0].Date)
}

func TestApply_StakeWithoutQuote(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinSOL, "100"))

	next, err := e.Apply(start, Stake{Coin: domain.CoinSOL, Amount: d("50")})
	require.NoError(t, err)

	assert.True(t, next.CoinBalance(domain.CoinSOL).Equal(d("50")))
	assert.True(t, next.StakedAmount(domain.CoinSOL).Equal(d("50")))
	require.Len(t, next.Transactions, 1)
	assert.Equal(t, domain.TransactionTypeStake, next.Transactions[0].Type)
	assert.True(t, next.Transactions[0].Price.IsZero())
}

func TestApply_UnstakePrunesPosition(t *testing.T) {
	staked := []domain.StakedPosition{{CoinID: domain.CoinSOL, Amount: d("50")}}

	t.Run("wallet exists", func(t *testing.T) {
		start := stateWith(coin(domain.CoinSOL, "50"))
		start.Staked = staked

		next, err := newTestEngine().Apply(start, Unstake{Coin: domain.CoinSOL, Amount: d("50")})
		require.NoError(t, err)
		assert.Empty(t, next.Staked)
		assert.True(t, next.CoinBalance(domain.CoinSOL).Equal(d("100")))
		assert.Len(t, start.Staked, 1)
	})

	t.Run("wallet missing", func(t *testing.T) {
		start := domain.NewWalletState()
		start.Staked = staked

		next, err := newTestEngine().Apply(start, Unstake{Coin: domain.CoinSOL, Amount: d("50")})
		require.NoError(t, err)
		assert.Empty(t, next.Staked)
		require.Len(t, next.Wallets, 1)
		assert.True(t, next.CoinBalance(domain.CoinSOL).Equal(d("50")))
	})

	t.Run("partial", func(t *testing.T) {
		start := domain.NewWalletState()
		start.Staked = staked

		next, err := newTestEngine().Apply(start, Unstake{Coin: domain.CoinSOL, Amount: d("20")})
		require.NoError(t, err)
		assert.True(t, next.StakedAmount(domain.CoinSOL).Equal(d("30")))
	})

	t.Run("more than staked", func(t *testing.T) {
		start := domain.NewWalletState()
		start.Staked = staked

		_, err := newTestEngine().Apply(start, Unstake{Coin: domain.CoinSOL, Amount: d("51")})
		assertRejected(t, err, ErrInsufficientBalance)
	})
}

func TestApply_UnknownCoinRejected(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinBTC, "1"))

	next, err := e.Apply(start, Buy{Coin: "NOTACOIN", Amount: d("1"), USDValue: d("1")})
	assertRejected(t, err, ErrInvalidAsset)
	assert.Equal(t, start, next)
}

func TestApply_DepositFiatAndCoin(t *testing.T) {
	e := newTestEngine()
	start := domain.NewWalletState()

	next, err := e.Apply(start, Deposit{Asset: "usd", Amount: d("250"), USDValue: d("250"), Source: "Visa ending 4242"})
	require.NoError(t, err)
	assert.True(t, next.CashBalance(domain.FiatUSD).Equal(d("250")))
	tx := next.Transactions[0]
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, "Visa ending 4242", tx.From)
	assert.Equal(t, domain.CounterpartyAccount, tx.To)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)

	next, err = e.Apply(next, Deposit{Asset: "ETH", Amount: d("1"), USDValue: d("3500")})
	require.NoError(t, err)
	assert.True(t, next.CoinBalance(domain.CoinETH).Equal(d("1")))
	assert.Len(t, next.Transactions, 2)
}

func TestApply_WithdrawIsPending(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinETH, "2"))
	start.Cash = []domain.CashBalance{{FiatID: domain.FiatEUR, Balance: d("100")}}

	next, err := e.Apply(start, Withdraw{Asset: "ETH", Amount: d("1"), USDValue: d("3500"), Address: "0xabc"})
	require.NoError(t, err)
	assert.True(t, next.CoinBalance(domain.CoinETH).Equal(d("1")))
	assert.Equal(t, domain.TransactionStatusPending, next.Transactions[0].Status)
	assert.Equal(t, "0xabc", next.Transactions[0].To)

	next, err = e.Apply(next, Withdraw{Asset: "EUR", Amount: d("40"), USDValue: d("43"), PaymentMethodID: "pm-1"})
	require.NoError(t, err)
	assert.True(t, next.CashBalance(domain.FiatEUR).Equal(d("60")))
	assert.Equal(t, "pm-1", next.Transactions[0].To)
}

func TestApply_FiatWithdrawUsesPaymentMethodLabel(t *testing.T) {
	e := newTestEngine()
	start := domain.NewWalletState()
	start.Cash = []domain.CashBalance{{FiatID: domain.FiatUSD, Balance: d("100")}}

	next, err := e.Apply(start, Withdraw{
		Asset:              "USD",
		Amount:             d("25"),
		USDValue:           d("25"),
		PaymentMethodID:    "pm_1",
		PaymentMethodLabel: " Visa ending 4242 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Visa ending 4242", next.Transactions[0].To)
	assert.Equal(t, domain.CounterpartySelf, next.Transactions[0].From)
	assert.Equal(t, domain.TransactionStatusPending, next.Transactions[0].Status)
}

func TestApply_Rejections(t *testing.T) {
	start := stateWith(coin(domain.CoinBTC, "1"), coin(domain.CoinETH, "5"))
	start.Cash = []domain.CashBalance{{FiatID: domain.FiatUSD, Balance: d("10")}}

	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"nil command", nil, ErrInvalidCommand},
		{"zero amount", Buy{Coin: domain.CoinBTC, Amount: decimal.Zero, USDValue: d("10")}, ErrInvalidAmount},
		{"negative amount", Receive{Coin: domain.CoinBTC, Amount: d("-1"), USDValue: d("10")}, ErrInvalidAmount},
		{"zero usd value", Buy{Coin: domain.CoinBTC, Amount: d("1"), USDValue: decimal.Zero}, ErrInvalidUSDValue},
		{"asset checked before amount", Sell{Coin: "XYZ", Amount: d("-1"), USDValue: d("-1")}, ErrInvalidAsset},
		{"amount checked before balance", Sell{Coin: domain.CoinBTC, Amount: d("0"), USDValue: d("5")}, ErrInvalidAmount},
		{"balance checked before minimum", Sell{Coin: domain.CoinBTC, Amount: d("2"), USDValue: d("0.5")}, ErrInsufficientBalance},
		{"below minimum", Buy{Coin: domain.CoinBTC, Amount: d("0.00001"), USDValue: d("0.68")}, ErrBelowMinimum},
		{"send without destination", Send{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")}, ErrMissingDestination},
		{"send missing wallet", Send{Coin: domain.CoinSOL, Amount: d("1"), USDValue: d("150"), To: "addr"}, ErrInsufficientBalance},
		{"swap unknown target", Swap{From: Leg{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")}, To: Leg{Coin: "ABC", Amount: d("1"), USDValue: d("6800")}}, ErrInvalidAsset},
		{"swap insufficient", Swap{From: Leg{Coin: domain.CoinETH, Amount: d("6"), USDValue: d("20000")}, To: Leg{Coin: domain.CoinBTC, Amount: d("0.3"), USDValue: d("20000")}}, ErrInsufficientBalance},
		{"stake insufficient", Stake{Coin: domain.CoinETH, Amount: d("6")}, ErrInsufficientBalance},
		{"stake negative value", Stake{Coin: domain.CoinETH, Amount: d("1"), USDValue: d("-1")}, ErrInvalidUSDValue},
		{"deposit unknown asset", Deposit{Asset: "ZZZ", Amount: d("1"), USDValue: d("1")}, ErrInvalidAsset},
		{"deposit below minimum", Deposit{Asset: "USD", Amount: d("0.5"), USDValue: d("0.5")}, ErrBelowMinimum},
		{"withdraw crypto without address", Withdraw{Asset: "BTC", Amount: d("0.1"), USDValue: d("6800")}, ErrMissingDestination},
		{"withdraw fiat without method", Withdraw{Asset: "USD", Amount: d("5"), USDValue: d("5")}, ErrMissingDestination},
		{"withdraw fiat insufficient", Withdraw{Asset: "USD", Amount: d("11"), USDValue: d("11"), PaymentMethodID: "pm-1"}, ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			next, err := e.Apply(start, tt.cmd)
			assertRejected(t, err, tt.want)
			assert.Equal(t, start, next)

			// a second dispatch of the same command is also a no-op
			again, err := e.Apply(next, tt.cmd)
			assertRejected(t, err, tt.want)
			assert.Equal(t, start, again)
		})
	}
}

func TestApply_MinimumValueDisabled(t *testing.T) {
	e := newTestEngine(WithMinimumValue(decimal.Zero))
	next, err := e.Apply(domain.NewWalletState(), Buy{Coin: domain.CoinDOGE, Amount: d("1"), USDValue: d("0.15")})
	require.NoError(t, err)
	assert.True(t, next.CoinBalance(domain.CoinDOGE).Equal(d("1")))
}

func TestApply_SequenceInvariants(t *testing.T) {
	e := newTestEngine()
	state := stateWith(coin(domain.CoinBTC, "1"), coin(domain.CoinSOL, "10"))

	cmds := []Command{
		Buy{Coin: domain.CoinETH, Amount: d("1"), USDValue: d("3500")},
		Sell{Coin: domain.CoinBTC, Amount: d("0.25"), USDValue: d("17000")},
		Swap{From: Leg{Coin: domain.CoinETH, Amount: d("1"), USDValue: d("3500")}, To: Leg{Coin: domain.CoinUSDT, Amount: d("3500"), USDValue: d("3500")}},
		Sell{Coin: domain.CoinETH, Amount: d("1"), USDValue: d("3500")},
		Stake{Coin: domain.CoinSOL, Amount: d("10")},
		Unstake{Coin: domain.CoinSOL, Amount: d("4"), USDValue: d("600")},
		Send{Coin: domain.CoinUSDT, Amount: d("3500"), USDValue: d("3500"), To: "0xdest"},
		Send{Coin: domain.CoinUSDT, Amount: d("1"), USDValue: d("1"), To: "0xdest"},
		Deposit{Asset: "GBP", Amount: d("20"), USDValue: d("25")},
		Withdraw{Asset: "GBP", Amount: d("20"), USDValue: d("25"), PaymentMethodID: "pm-1"},
	}

	for i, cmd := range cmds {
		before := len(state.Transactions)
		next, err := e.Apply(state, cmd)
		if err != nil {
			assert.Equal(t, state, next, "command %d", i)
			continue
		}

		added := len(next.Transactions) - before
		if cmd.Kind() == domain.TransactionTypeSwap {
			assert.Equal(t, 2, added, "command %d", i)
		} else {
			assert.Equal(t, 1, added, "command %d", i)
		}
		assert.Equal(t, cmd.Kind(), next.Transactions[0].Type)
		assert.NoError(t, next.Validate(), "command %d", i)

		// earlier records keep their frozen price
		for j := range state.Transactions {
			assert.True(t, state.Transactions[j].Price.Equal(next.Transactions[j+added].Price))
		}
		state = next
	}

	assert.Len(t, state.Transactions, 9)
}

func TestSettle(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinETH, "2"))
	pending, err := e.Apply(start, Withdraw{Asset: "ETH", Amount: d("1"), USDValue: d("3500"), Address: "0xabc"})
	require.NoError(t, err)
	txID := pending.Transactions[0].ID

	t.Run("completed", func(t *testing.T) {
		next, err := e.Settle(pending, txID, domain.TransactionStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusCompleted, next.Transactions[0].Status)
		assert.True(t, next.CoinBalance(domain.CoinETH).Equal(d("1")))
		assert.Equal(t, domain.TransactionStatusPending, pending.Transactions[0].Status)
	})

	t.Run("failed refunds", func(t *testing.T) {
		next, err := e.Settle(pending, txID, domain.TransactionStatusFailed)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusFailed, next.Transactions[0].Status)
		assert.True(t, next.CoinBalance(domain.CoinETH).Equal(d("2")))
	})

	t.Run("already settled", func(t *testing.T) {
		done, err := e.Settle(pending, txID, domain.TransactionStatusCompleted)
		require.NoError(t, err)
		_, err = e.Settle(done, txID, domain.TransactionStatusFailed)
		assertRejected(t, err, ErrNotSettleable)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := e.Settle(pending, "missing", domain.TransactionStatusCompleted)
		assertRejected(t, err, ErrTransactionNotFound)
	})

	t.Run("pending target", func(t *testing.T) {
		_, err := e.Settle(pending, txID, domain.TransactionStatusPending)
		assertRejected(t, err, ErrNotSettleable)
	})
}

func TestAppended(t *testing.T) {
	e := newTestEngine()
	start := stateWith(coin(domain.CoinBTC, "1"))
	next, err := e.Apply(start, Swap{
		From: Leg{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")},
		To:   Leg{Coin: domain.CoinETH, Amount: d("2"), USDValue: d("6800")},
	})
	require.NoError(t, err)

	added := Appended(start, next)
	require.Len(t, added, 2)
	assert.Equal(t, "ETH", added[0].Currency)
	assert.Nil(t, Appended(next, next))
}

func TestAmountFromFloat(t *testing.T) {
	_, err := AmountFromFloat(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = AmountFromFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	v, err := AmountFromFloat(0.25)
	require.NoError(t, err)
	assert.True(t, v.Equal(d("0.25")))

	_, err = ParseAmount("NaN")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRandomHash(t *testing.T) {
	h := RandomHash()
	assert.Len(t, h, 66)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, h)
	assert.NotEqual(t, h, RandomHash())
}

func TestImpliedPrice(t *testing.T) {
	assert.True(t, ImpliedPrice(decimal.Zero, d("10")).IsZero())
	assert.True(t, ImpliedPrice(d("4"), d("10")).Equal(d("2.5")))
}
