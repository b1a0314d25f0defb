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

// DefaultCryptoCompareURL is the public CryptoCompare API root.
const DefaultCryptoCompareURL = "https://min-api.cryptocompare.com"

// CryptoCompare fetches prices from /data/pricemulti. Symbols are used as-is.
type CryptoCompare struct {
	httpClient
}

// NewCryptoCompare creates a CryptoCompare provider.
func NewCryptoCompare(baseURL string, timeout time.Duration, log zerolog.Logger) *CryptoCompare {
	if baseURL == "" {
		baseURL = DefaultCryptoCompareURL
	}
	return &CryptoCompare{httpClient: newHTTPClient("cryptocompare", baseURL, timeout, log)}
}

// Fetch returns USD prices for the requested coins.
func (c *CryptoCompare) Fetch(ctx context.Context, coins []domain.CoinID) (map[domain.CoinID]decimal.Decimal, error) {
	if len(coins) == 0 {
		return map[domain.CoinID]decimal.Decimal{}, nil
	}
	syms := make([]string, len(coins))
	for i, coin := range coins {
		syms[i] = string(coin)
	}

	endpoint := fmt.Sprintf("%s/data/pricemulti?fsyms=%s&tsyms=USD",
		strings.TrimRight(c.baseURL, "/"), url.QueryEscape(strings.Join(syms, ",")))

	var body map[string]map[string]decimal.Decimal
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	prices := make(map[domain.CoinID]decimal.Decimal, len(coins))
	for _, coin := range coins {
		if price := body[string(coin)]["USD"]; price.IsPositive() {
			prices[coin] = price
		}
	}
	return prices, nil
}
