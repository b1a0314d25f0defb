package engine

import (
	"sync"
	"testing"

	"jetwallet/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_DispatchReplacesSnapshot(t *testing.T) {
	w := NewWallet(New(), stateWith(coin(domain.CoinBTC, "0.5")))

	got, err := w.Dispatch(Buy{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")})
	require.NoError(t, err)
	assert.True(t, got.CoinBalance(domain.CoinBTC).Equal(d("0.6")))
	assert.Equal(t, got, w.State())

	// mutating a returned snapshot does not leak back
	got.Wallets[0].Balance = d("99")
	assert.True(t, w.State().CoinBalance(domain.CoinBTC).Equal(d("0.6")))
}

func TestWallet_RejectionKeepsState(t *testing.T) {
	w := NewWallet(New(), stateWith(coin(domain.CoinBTC, "0.05")))
	before := w.State()

	got, err := w.Dispatch(Sell{Coin: domain.CoinBTC, Amount: d("0.1"), USDValue: d("6800")})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, before, got)
	assert.Equal(t, before, w.State())
}

func TestWallet_ConcurrentDispatchIsSerialized(t *testing.T) {
	w := NewWallet(New(), stateWith(coin(domain.CoinUSDT, "100")))

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Dispatch(Sell{Coin: domain.CoinUSDT, Amount: d("10"), USDValue: d("10")})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	final := w.State()
	assert.Equal(t, 10, accepted)
	assert.True(t, final.CoinBalance(domain.CoinUSDT).IsZero())
	assert.Len(t, final.Transactions, 10)
}
