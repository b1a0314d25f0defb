package dto

import (
	"time"

	"jetwallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned by login and impersonation.
type SessionResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"` // Unix timestamp
}

// RegisterResponse carries the seed phrase, shown only once.
type RegisterResponse struct {
	SessionResponse
	SeedPhrase []string `json:"seed_phrase"`
}

// CommandRequest is the body of every single-asset wallet command.
// Coin is used by buy, sell, send, receive, stake and unstake; Asset by
// deposit and withdraw, where it may be a coin or a fiat code.
type CommandRequest struct {
	Coin            string          `json:"coin" binding:"omitempty,max=10"`
	Asset           string          `json:"asset" binding:"omitempty,max=10"`
	Amount          decimal.Decimal `json:"amount"`
	USDValue        decimal.Decimal `json:"usd_value"`
	To              string          `json:"to" binding:"max=128" sanitize:"trim"`
	From            string          `json:"from" binding:"max=128" sanitize:"trim"`
	Source          string          `json:"source" binding:"max=128" sanitize:"trim"`
	Address         string          `json:"address" binding:"max=128" sanitize:"trim"`
	PaymentMethodID string          `json:"payment_method_id" binding:"omitempty,max=64,safe_id"`
}

// LegRequest is one side of a swap.
type LegRequest struct {
	Coin     string          `json:"coin" binding:"required,max=10"`
	Amount   decimal.Decimal `json:"amount"`
	USDValue decimal.Decimal `json:"usd_value"`
}

// SwapRequest is the body of POST /wallet/swap.
type SwapRequest struct {
	From LegRequest `json:"from" binding:"required"`
	To   LegRequest `json:"to" binding:"required"`
}

// PreferencesRequest patches user settings; omitted fields are unchanged.
type PreferencesRequest struct {
	Theme            *string                      `json:"theme,omitempty" binding:"omitempty,oneof=light dark"`
	TwoFactorEnabled *bool                        `json:"two_factor_enabled,omitempty"`
	Notifications    *domain.NotificationSettings `json:"notifications,omitempty"`
}

// PaymentMethodRequest is a card or bank account as entered by the user.
type PaymentMethodRequest struct {
	Type              string `json:"type" binding:"required"`
	Name              string `json:"name" binding:"max=100" sanitize:"trim"`
	CardNumber        string `json:"card_number" binding:"max=23"`
	CardType          string `json:"card_type" binding:"max=20"`
	ExpiryDate        string `json:"expiry_date" binding:"max=7"`
	CardHolderName    string `json:"card_holder_name" binding:"max=100" sanitize:"trim"`
	CVV               string `json:"cvv" binding:"max=4"`
	BankName          string `json:"bank_name" binding:"max=100" sanitize:"trim"`
	AccountNumber     string `json:"account_number" binding:"max=34"`
	SortCode          string `json:"sort_code" binding:"max=8"`
	IBAN              string `json:"iban" binding:"max=34"`
	SwiftCode         string `json:"swift_code" binding:"max=11"`
	AccountHolderName string `json:"account_holder_name" binding:"max=100" sanitize:"trim"`
	IsDefault         bool   `json:"is_default"`
}

// AlertRequest is the body of POST /me/alerts.
type AlertRequest struct {
	Coin        string          `json:"coin" binding:"required,coin"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Condition   string          `json:"condition" binding:"required,oneof=above below"`
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

// UpdateUserRequest is the body of PATCH /admin/users/:id.
type UpdateUserRequest struct {
	Email            *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Password         *string `json:"password,omitempty" binding:"omitempty,min=8,max=128"`
	Role             *string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
	Theme            *string `json:"theme,omitempty" binding:"omitempty,oneof=light dark"`
	TwoFactorEnabled *bool   `json:"two_factor_enabled,omitempty"`
	AccountLocked    *bool   `json:"account_locked,omitempty"`
}

// HoldingsRequest replaces a user's balances wholesale.
type HoldingsRequest struct {
	Wallets []domain.CoinBalance    `json:"wallets"`
	Cash    []domain.CashBalance    `json:"cash"`
	Staked  []domain.StakedPosition `json:"staked"`
}

// SettleRequest is the body of POST /admin/users/:id/transactions/:txId/settle.
type SettleRequest struct {
	Status string `json:"status" binding:"required,oneof=COMPLETED FAILED"`
}

// AssetsResponse is the coin and fiat catalog.
type AssetsResponse struct {
	Coins []domain.Coin   `json:"coins"`
	Fiats []domain.FiatID `json:"fiats"`
}

// PriceResponse is the quote for a single coin.
type PriceResponse struct {
	Coin      domain.CoinID   `json:"coin"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}
