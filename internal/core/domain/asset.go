package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoinID identifies a supported cryptocurrency.
type CoinID string

const (
	CoinBTC  CoinID = "BTC"
	CoinETH  CoinID = "ETH"
	CoinXRP  CoinID = "XRP"
	CoinUSDT CoinID = "USDT"
	CoinSOL  CoinID = "SOL"
	CoinDOGE CoinID = "DOGE"
)

// FiatID identifies a supported fiat currency.
type FiatID string

const (
	FiatUSD FiatID = "USD"
	FiatEUR FiatID = "EUR"
	FiatGBP FiatID = "GBP"
	FiatAUD FiatID = "AUD"
	FiatNOK FiatID = "NOK"
	FiatSEK FiatID = "SEK"
	FiatCHF FiatID = "CHF"
	FiatCAD FiatID = "CAD"
	FiatJPY FiatID = "JPY"
	FiatSKK FiatID = "SKK"
)

var coinIDs = []CoinID{CoinBTC, CoinETH, CoinXRP, CoinUSDT, CoinSOL, CoinDOGE}

var fiatIDs = []FiatID{FiatUSD, FiatEUR, FiatGBP, FiatAUD, FiatNOK, FiatSEK, FiatCHF, FiatCAD, FiatJPY, FiatSKK}

// Coin is the static catalog entry for a supported cryptocurrency.
type Coin struct {
	ID         CoinID           `json:"id"`
	Name       string           `json:"name"`
	USDPrice   decimal.Decimal  `json:"usd_price"` // reference price, not live
	Address    string           `json:"address"`   // simulated deposit address
	StakingAPY *decimal.Decimal `json:"staking_apy,omitempty"`
}

// Stakeable reports whether the coin advertises a staking yield.
func (c Coin) Stakeable() bool {
	return c.StakingAPY != nil
}

func apy(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var coinCatalog = map[CoinID]Coin{
	CoinBTC: {
		ID:       CoinBTC,
		Name:     "Bitcoin",
		USDPrice: decimal.RequireFromString("68000.50"),
		Address:  "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
	},
	CoinETH: {
		ID:         CoinETH,
		Name:       "Ethereum",
		USDPrice:   decimal.RequireFromString("3500.75"),
		Address:    "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		StakingAPY: apy("3.5"),
	},
	CoinXRP: {
		ID:       CoinXRP,
		Name:     "XRP",
		USDPrice: decimal.RequireFromString("0.48"),
		Address:  "rH3F8sV1d2fG4hJ5kL6mN7bV8cX9zQ1wE2",
	},
	CoinUSDT: {
		ID:         CoinUSDT,
		Name:       "Tether",
		USDPrice:   decimal.RequireFromString("1.00"),
		Address:    "0x9A8f92a830A5cB89a3816e3D267CB7791c16b04D",
		StakingAPY: apy("1.5"),
	},
	CoinSOL: {
		ID:         CoinSOL,
		Name:       "Solana",
		USDPrice:   decimal.RequireFromString("150.25"),
		Address:    "So11111111111111111111111111111111111111112",
		StakingAPY: apy("6.8"),
	},
	CoinDOGE: {
		ID:       CoinDOGE,
		Name:     "Dogecoin",
		USDPrice: decimal.RequireFromString("0.15"),
		Address:  "D7Y55r7sXq3a4F5j6kL8mN9bV1cX2zQ3wE",
	},
}

// IsValid reports whether c is a supported coin.
func (c CoinID) IsValid() bool {
	_, ok := coinCatalog[c]
	return ok
}

// IsValid reports whether f is a supported fiat currency.
func (f FiatID) IsValid() bool {
	for _, id := range fiatIDs {
		if id == f {
			return true
		}
	}
	return false
}

// CoinIDs returns all supported coins in catalog order.
func CoinIDs() []CoinID {
	out := make([]CoinID, len(coinIDs))
	copy(out, coinIDs)
	return out
}

// FiatIDs returns all supported fiat currencies.
func FiatIDs() []FiatID {
	out := make([]FiatID, len(fiatIDs))
	copy(out, fiatIDs)
	return out
}

// Coins returns the catalog in display order.
func Coins() []Coin {
	out := make([]Coin, 0, len(coinIDs))
	for _, id := range coinIDs {
		out = append(out, coinCatalog[id])
	}
	return out
}

// LookupCoin returns the catalog entry for id.
func LookupCoin(id CoinID) (Coin, bool) {
	c, ok := coinCatalog[id]
	return c, ok
}

// AssetKind distinguishes crypto from fiat holdings.
type AssetKind int

const (
	AssetUnknown AssetKind = iota
	AssetCoin
	AssetFiat
)

// ClassifyAsset resolves a currency code to a coin or fiat identifier.
// Codes are matched case-insensitively.
func ClassifyAsset(code string) AssetKind {
	code = strings.ToUpper(strings.TrimSpace(code))
	if CoinID(code).IsValid() {
		return AssetCoin
	}
	if FiatID(code).IsValid() {
		return AssetFiat
	}
	return AssetUnknown
}

// SeedPhraseWords is the dictionary recovery phrases are drawn from.
var SeedPhraseWords = []string{
	"apple", "banana", "orange", "grape", "lemon", "lime", "melon", "cherry", "peach", "plum",
	"rocket", "planet", "star", "galaxy", "comet", "orbit", "lunar", "solar", "nebula", "cosmos",
	"wallet", "crypto", "token", "block", "chain", "asset", "secure", "shield", "vault", "key",
	"ocean", "river", "mountain", "forest", "desert", "island", "valley", "canyon", "glacier", "reef",
	"journey", "quest", "voyage", "explore", "discover", "path", "map", "compass", "horizon", "odyssey",
}
