package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/internal/core/ports/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func provider(ctrl *gomock.Controller, name string) *mocks.MockPriceProvider {
	p := mocks.NewMockPriceProvider(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	return p
}

func TestPriceService_StartsFromFallback(t *testing.T) {
	svc := NewPriceService(nil, nil, nil, 0, newTestLogger())

	snap := svc.Snapshot()
	assert.Equal(t, domain.PriceSourceFallback, snap.Source)
	assert.True(t, svc.GetPrice(domain.CoinBTC).Equal(dec("43250")))
	assert.True(t, svc.GetPrice("ZZZ").IsZero())
}

func TestPriceService_Refresh_FirstProviderWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gecko := provider(ctrl, "coingecko")
	coinCap := provider(ctrl, "coincap")
	cache := mocks.NewMockPriceCache(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)

	gecko.EXPECT().Fetch(gomock.Any(), domain.CoinIDs()).
		Return(map[domain.CoinID]decimal.Decimal{domain.CoinBTC: dec("65000")}, nil)
	metrics.EXPECT().PriceRefreshed("coingecko", true)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), DefaultPriceCacheTTL).Return(nil)

	svc := NewPriceService([]ports.PriceProvider{gecko, coinCap}, cache, metrics, 0, newTestLogger())
	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "coingecko", snap.Source)
	assert.True(t, snap.Price(domain.CoinBTC).Equal(dec("65000")))
	assert.True(t, snap.Price(domain.CoinETH).Equal(dec("2580")), "missing coins keep their previous value")
	assert.True(t, svc.GetPrice(domain.CoinBTC).Equal(dec("65000")))
}

func TestPriceService_Refresh_FallsThroughProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gecko := provider(ctrl, "coingecko")
	coinCap := provider(ctrl, "coincap")
	metrics := mocks.NewMockMetrics(ctrl)

	gecko.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New("429"))
	coinCap.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(map[domain.CoinID]decimal.Decimal{domain.CoinSOL: dec("151")}, nil)
	metrics.EXPECT().PriceRefreshed("coingecko", false)
	metrics.EXPECT().PriceRefreshed("coincap", true)

	svc := NewPriceService([]ports.PriceProvider{gecko, coinCap}, nil, metrics, time.Minute, newTestLogger())
	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "coincap", snap.Source)
}

func TestPriceService_Refresh_AllFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gecko := provider(ctrl, "coingecko")
	coinCap := provider(ctrl, "coincap")

	gecko.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
	coinCap.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(map[domain.CoinID]decimal.Decimal{}, nil)

	svc := NewPriceService([]ports.PriceProvider{gecko, coinCap}, nil, nil, 0, newTestLogger())
	snap, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coingecko: timeout")
	assert.Contains(t, err.Error(), "coincap: no prices returned")
	assert.Equal(t, domain.PriceSourceFallback, snap.Source)
	assert.True(t, snap.Price(domain.CoinDOGE).Equal(dec("0.078")))
}

func TestPriceService_Warm(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cache := mocks.NewMockPriceCache(ctrl)
	cache.EXPECT().Get(gomock.Any()).Return(&domain.PriceSnapshot{
		Prices:    map[domain.CoinID]decimal.Decimal{domain.CoinETH: dec("3300")},
		Source:    "coincap",
		UpdatedAt: at,
	}, nil)

	svc := NewPriceService(nil, cache, nil, 0, newTestLogger())
	require.NoError(t, svc.Warm(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, domain.PriceSourceCache, snap.Source)
	assert.Equal(t, at, snap.UpdatedAt)
	assert.True(t, snap.Price(domain.CoinETH).Equal(dec("3300")))
	assert.True(t, snap.Price(domain.CoinBTC).Equal(dec("43250")))
}

func TestPriceService_Warm_EmptyAndError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockPriceCache(ctrl)
	cache.EXPECT().Get(gomock.Any()).Return(nil, nil)
	cache.EXPECT().Get(gomock.Any()).Return(nil, errors.New("redis down"))

	svc := NewPriceService(nil, cache, nil, 0, newTestLogger())
	require.NoError(t, svc.Warm(context.Background()))
	assert.Equal(t, domain.PriceSourceFallback, svc.Snapshot().Source)
	assert.Error(t, svc.Warm(context.Background()))
}

func TestPriceService_SnapshotIsCopy(t *testing.T) {
	svc := NewPriceService(nil, nil, nil, 0, newTestLogger())
	snap := svc.Snapshot()
	snap.Prices[domain.CoinBTC] = decimal.Zero
	assert.True(t, svc.GetPrice(domain.CoinBTC).IsPositive())
}
