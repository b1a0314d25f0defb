package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertCondition is the direction a price must cross to trigger an alert.
type AlertCondition string

const (
	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"
)

// IsValid reports whether c is a recognised condition.
func (c AlertCondition) IsValid() bool {
	return c == AlertAbove || c == AlertBelow
}

// PriceAlert notifies a user once a coin crosses a target price.
type PriceAlert struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	CoinID      CoinID          `json:"coin_id"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Condition   AlertCondition  `json:"condition"`
	Active      bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	TriggeredAt *time.Time      `json:"triggered_at,omitempty"`
}

// ShouldTrigger reports whether an active alert fires at price.
// A zero price means the oracle has no quote and never triggers.
func (a *PriceAlert) ShouldTrigger(price decimal.Decimal) bool {
	if !a.Active || !price.IsPositive() {
		return false
	}
	switch a.Condition {
	case AlertAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case AlertBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	}
	return false
}
