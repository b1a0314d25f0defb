package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price sources.
const (
	PriceSourceFallback = "fallback"
	PriceSourceCache    = "cache"
)

// PriceSnapshot is the last known USD quote for every coin.
type PriceSnapshot struct {
	Prices    map[CoinID]decimal.Decimal `json:"prices"`
	Source    string                     `json:"source"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Price returns the quote for id, or zero when none is known.
func (s PriceSnapshot) Price(id CoinID) decimal.Decimal {
	if p, ok := s.Prices[id]; ok {
		return p
	}
	return decimal.Zero
}

// FallbackPrices is the table used when no provider has ever answered.
func FallbackPrices() map[CoinID]decimal.Decimal {
	return map[CoinID]decimal.Decimal{
		CoinBTC:  decimal.NewFromInt(43250),
		CoinETH:  decimal.NewFromInt(2580),
		CoinXRP:  decimal.RequireFromString("0.52"),
		CoinUSDT: decimal.NewFromInt(1),
		CoinSOL:  decimal.RequireFromString("98.5"),
		CoinDOGE: decimal.RequireFromString("0.078"),
	}
}
