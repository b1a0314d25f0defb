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

func setupReportingService(t *testing.T) (*reportingService, *mocks.MockTransactionRepository, *mocks.MockWalletRepository, *mocks.MockPriceService, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	walletRepo := mocks.NewMockWalletRepository(ctrl)
	prices := mocks.NewMockPriceService(ctrl)
	svc := NewReportingService(txRepo, walletRepo, prices).(*reportingService)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, txRepo, walletRepo, prices, ctrl
}

func TestReportingService_GetPortfolio(t *testing.T) {
	svc, _, walletRepo, prices, ctrl := setupReportingService(t)
	defer ctrl.Finish()

	state := domain.WalletState{
		Wallets: []domain.CoinBalance{{CoinID: domain.CoinBTC, Balance: dec("0.5")}},
		Staked:  []domain.StakedPosition{{CoinID: domain.CoinETH, Amount: dec("2")}},
		Cash: []domain.CashBalance{
			{FiatID: domain.FiatUSD, Balance: dec("100")},
			{FiatID: domain.FiatEUR, Balance: dec("50")},
		},
	}
	walletRepo.EXPECT().Get(gomock.Any(), "u1").Return(&state, nil)
	prices.EXPECT().Snapshot().Return(domain.PriceSnapshot{
		Prices: map[domain.CoinID]decimal.Decimal{domain.CoinBTC: dec("60000"), domain.CoinETH: dec("3000")},
		Source: "coingecko",
	})

	p, err := svc.GetPortfolio(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, p.Holdings, 4)
	assert.Equal(t, "coingecko", p.PriceFrom)

	assert.Equal(t, "staked", p.Holdings[1].Kind)
	assert.True(t, p.Holdings[1].USDValue.Equal(dec("6000")))
	assert.True(t, p.Holdings[3].USDValue.IsZero(), "non-USD cash is not converted")
	assert.True(t, p.TotalUSD.Equal(dec("36100")), "got %s", p.TotalUSD)
}

func TestReportingService_GetPortfolio_NoWallet(t *testing.T) {
	svc, _, walletRepo, _, ctrl := setupReportingService(t)
	defer ctrl.Finish()

	walletRepo.EXPECT().Get(gomock.Any(), "u1").Return(nil, nil)

	_, err := svc.GetPortfolio(context.Background(), "u1")
	assertAppError(t, err, "USR_001")
}

func TestReportingService_GetStats_Periods(t *testing.T) {
	tests := []struct {
		period string
		since  *time.Time
	}{
		{"all", nil},
		{"", nil},
		{"day", ptrTime(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))},
		{"week", ptrTime(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC))},
		{"month", ptrTime(time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			svc, txRepo, _, _, ctrl := setupReportingService(t)
			defer ctrl.Finish()

			txRepo.EXPECT().GetStats(gomock.Any(), "u1", gomock.Any()).DoAndReturn(
				func(_ context.Context, _ string, since *time.Time) (*ports.TransactionStats, error) {
					if tt.since == nil {
						assert.Nil(t, since)
					} else {
						require.NotNil(t, since)
						assert.True(t, tt.since.Equal(*since))
					}
					return &ports.TransactionStats{TotalTransactions: 3}, nil
				},
			)

			stats, err := svc.GetStats(context.Background(), "u1", tt.period)
			require.NoError(t, err)
			assert.EqualValues(t, 3, stats.TotalTransactions)
			assert.NotNil(t, stats.CountByType)
		})
	}
}

func TestReportingService_GetStats_Errors(t *testing.T) {
	svc, txRepo, _, _, ctrl := setupReportingService(t)
	defer ctrl.Finish()

	_, err := svc.GetStats(context.Background(), "u1", "year")
	assertAppError(t, err, "USR_002")

	txRepo.EXPECT().GetStats(gomock.Any(), "u1", gomock.Any()).Return(nil, errors.New("db down"))
	_, err = svc.GetStats(context.Background(), "u1", "all")
	assertAppError(t, err, "SYS_001")
}

func ptrTime(t time.Time) *time.Time { return &t }
