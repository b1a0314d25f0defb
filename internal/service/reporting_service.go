package service

import (
	"context"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Holding kinds.
const (
	holdingWallet = "wallet"
	holdingStaked = "staked"
	holdingCash   = "cash"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	prices     ports.PriceService
	now        func() time.Time
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	prices ports.PriceService,
) ports.ReportingService {
	return &reportingService{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		prices:     prices,
		now:        time.Now,
	}
}

// GetPortfolio values every holding at the current oracle price. Cash is
// valued 1:1 for USD only; other fiat is listed without conversion.
func (s *reportingService) GetPortfolio(ctx context.Context, userID string) (*ports.Portfolio, error) {
	state, err := s.walletRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if state == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	snap := s.prices.Snapshot()
	p := &ports.Portfolio{
		Holdings:  make([]ports.Holding, 0, len(state.Wallets)+len(state.Staked)+len(state.Cash)),
		TotalUSD:  decimal.Zero,
		ValuedAt:  s.now().UTC(),
		PriceFrom: snap.Source,
	}

	add := func(asset, kind string, amount, price decimal.Decimal) {
		value := amount.Mul(price)
		p.Holdings = append(p.Holdings, ports.Holding{
			Asset:    asset,
			Kind:     kind,
			Amount:   amount,
			Price:    price,
			USDValue: value,
		})
		p.TotalUSD = p.TotalUSD.Add(value)
	}

	for _, w := range state.Wallets {
		add(string(w.CoinID), holdingWallet, w.Balance, snap.Price(w.CoinID))
	}
	for _, st := range state.Staked {
		add(string(st.CoinID), holdingStaked, st.Amount, snap.Price(st.CoinID))
	}
	for _, c := range state.Cash {
		price := decimal.Zero
		if c.FiatID == domain.FiatUSD {
			price = decimal.NewFromInt(1)
		}
		add(string(c.FiatID), holdingCash, c.Balance, price)
	}

	return p, nil
}

// GetStats returns journal statistics for a period: day, week, month or all.
func (s *reportingService) GetStats(ctx context.Context, userID string, period string) (*ports.TransactionStats, error) {
	var since *time.Time
	now := s.now()

	switch period {
	case "day":
		t := now.AddDate(0, 0, -1)
		since = &t
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		since = &t
	case "all", "":
		// No time filter
	default:
		return nil, apperror.Validation("invalid period: must be day, week, month, or all")
	}

	stats, err := s.txRepo.GetStats(ctx, userID, since)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get stats: %w", err))
	}
	if stats.CountByType == nil {
		stats.CountByType = map[domain.TransactionType]int64{}
	}
	return stats, nil
}
