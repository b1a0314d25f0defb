package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jetwallet/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultCoinCapURL is the public CoinCap API root.
const DefaultCoinCapURL = "https://api.coincap.io"

var coinCapIDs = map[domain.CoinID]string{
	domain.CoinBTC:  "bitcoin",
	domain.CoinETH:  "ethereum",
	domain.CoinXRP:  "xrp",
	domain.CoinUSDT: "tether",
	domain.CoinSOL:  "solana",
	domain.CoinDOGE: "dogecoin",
}

// CoinCap fetches prices from /v2/assets.
type CoinCap struct {
	httpClient
}

// NewCoinCap creates a CoinCap provider.
func NewCoinCap(baseURL string, timeout time.Duration, log zerolog.Logger) *CoinCap {
	if baseURL == "" {
		baseURL = DefaultCoinCapURL
	}
	return &CoinCap{httpClient: newHTTPClient("coincap", baseURL, timeout, log)}
}

type coinCapAsset struct {
	ID       string `json:"id"`
	PriceUSD string `json:"priceUsd"`
}

// Fetch returns USD prices for the requested coins.
func (c *CoinCap) Fetch(ctx context.Context, coins []domain.CoinID) (map[domain.CoinID]decimal.Decimal, error) {
	byID := make(map[string]domain.CoinID, len(coins))
	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		if id, ok := coinCapIDs[coin]; ok {
			ids = append(ids, id)
			byID[id] = coin
		}
	}
	if len(ids) == 0 {
		return map[domain.CoinID]decimal.Decimal{}, nil
	}

	endpoint := fmt.Sprintf("%s/v2/assets?ids=%s",
		strings.TrimRight(c.baseURL, "/"), url.QueryEscape(strings.Join(ids, ",")))

	var body struct {
		Data []coinCapAsset `json:"data"`
	}
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	if body.Data == nil {
		return nil, fmt.Errorf("coincap: invalid response format")
	}

	prices := make(map[domain.CoinID]decimal.Decimal, len(coins))
	for _, asset := range body.Data {
		coin, ok := byID[asset.ID]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(asset.PriceUSD)
		if err != nil || !price.IsPositive() {
			continue
		}
		prices[coin] = price
	}
	return prices, nil
}
