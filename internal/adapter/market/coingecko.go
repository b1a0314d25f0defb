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

// DefaultCoinGeckoURL is the public CoinGecko API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com"

var coinGeckoIDs = map[domain.CoinID]string{
	domain.CoinBTC:  "bitcoin",
	domain.CoinETH:  "ethereum",
	domain.CoinXRP:  "ripple",
	domain.CoinUSDT: "tether",
	domain.CoinSOL:  "solana",
	domain.CoinDOGE: "dogecoin",
}

// CoinGecko fetches prices from /api/v3/simple/price.
type CoinGecko struct {
	httpClient
}

// NewCoinGecko creates a CoinGecko provider.
func NewCoinGecko(baseURL string, timeout time.Duration, log zerolog.Logger) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{httpClient: newHTTPClient("coingecko", baseURL, timeout, log)}
}

// Fetch returns USD prices for the requested coins. Coins the API omits or
// quotes at zero are left out.
func (c *CoinGecko) Fetch(ctx context.Context, coins []domain.CoinID) (map[domain.CoinID]decimal.Decimal, error) {
	ids := make([]string, 0, len(coins))
	for _, coin := range coins {
		if id, ok := coinGeckoIDs[coin]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[domain.CoinID]decimal.Decimal{}, nil
	}

	endpoint := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd",
		strings.TrimRight(c.baseURL, "/"), url.QueryEscape(strings.Join(ids, ",")))

	var body map[string]struct {
		USD decimal.Decimal `json:"usd"`
	}
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}

	prices := make(map[domain.CoinID]decimal.Decimal, len(coins))
	for _, coin := range coins {
		quote, ok := body[coinGeckoIDs[coin]]
		if ok && quote.USD.IsPositive() {
			prices[coin] = quote.USD
		}
	}
	c.log.Debug().Int("coins", len(prices)).Msg("prices fetched")
	return prices, nil
}
