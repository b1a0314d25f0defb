package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// AmountFromFloat converts a float quantity, rejecting NaN and infinities.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(f), nil
}

// ParseAmount parses a decimal string such as "0.125".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ImpliedPrice is usdValue/amount, or zero for a zero amount.
func ImpliedPrice(amount, usdValue decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return usdValue.Div(amount)
}
