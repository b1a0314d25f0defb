package domain

import (
	"strings"
	"time"
)

// Role represents the authorization level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether r is a recognised role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Theme is the UI colour preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// IsValid reports whether t is a recognised theme.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// MaxLoginAttempts is the number of consecutive failures that locks an account.
const MaxLoginAttempts = 5

// Admin seed account.
const (
	AdminUserID    = "admin_user"
	AdminUserEmail = "admin@jetwallet.io"
)

// NotificationSettings holds per-channel notification preferences.
type NotificationSettings struct {
	Email              bool `json:"email"`
	Push               bool `json:"push"`
	PriceAlerts        bool `json:"price_alerts"`
	TransactionUpdates bool `json:"transaction_updates"`
	SecurityAlerts     bool `json:"security_alerts"`
	MarketNews         bool `json:"market_news"`
}

// DefaultNotificationSettings returns the settings applied at registration.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email:              true,
		PriceAlerts:        true,
		TransactionUpdates: true,
		SecurityAlerts:     true,
	}
}

// User is a registered account. The wallet snapshot is stored separately.
type User struct {
	ID               string               `json:"id"`
	Email            string               `json:"email"`
	PasswordHash     string               `json:"-"`
	SeedPhraseEnc    string               `json:"-"`
	Role             Role                 `json:"role"`
	RegisteredAt     time.Time            `json:"registered_at"`
	TwoFactorEnabled bool                 `json:"two_factor_enabled"`
	LastLoginAt      *time.Time           `json:"last_login_at,omitempty"`
	LoginAttempts    int                  `json:"login_attempts"`
	AccountLocked    bool                 `json:"account_locked"`
	Theme            Theme                `json:"theme"`
	Notifications    NotificationSettings `json:"notifications"`
	PaymentMethods   []PaymentMethod      `json:"payment_methods"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// IsAdmin returns true for administrator accounts.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RecordFailedLogin increments the failure counter and locks the account
// once MaxLoginAttempts is reached. It returns true if the account is now locked.
func (u *User) RecordFailedLogin() bool {
	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts {
		u.AccountLocked = true
	}
	return u.AccountLocked
}

// RecordLogin resets the failure counter and stamps the login time.
func (u *User) RecordLogin(at time.Time) {
	u.LoginAttempts = 0
	u.LastLoginAt = &at
}

// PaymentMethodByID returns the payment method with id, if present.
func (u *User) PaymentMethodByID(id string) (PaymentMethod, bool) {
	for _, pm := range u.PaymentMethods {
		if pm.ID == id {
			return pm, true
		}
	}
	return PaymentMethod{}, false
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PaymentMethodType enumerates fiat funding rails.
type PaymentMethodType string

const (
	PaymentDebitCard        PaymentMethodType = "DEBIT_CARD"
	PaymentCreditCard       PaymentMethodType = "CREDIT_CARD"
	PaymentBankTransfer     PaymentMethodType = "BANK_TRANSFER"
	PaymentSwiftTransfer    PaymentMethodType = "SWIFT_TRANSFER"
	PaymentUKFasterPayments PaymentMethodType = "UK_FASTER_PAYMENTS"
)

// IsValid reports whether t is a recognised payment method type.
func (t PaymentMethodType) IsValid() bool {
	switch t {
	case PaymentDebitCard, PaymentCreditCard, PaymentBankTransfer, PaymentSwiftTransfer, PaymentUKFasterPayments:
		return true
	}
	return false
}

// IsCard reports whether the method is a card rail.
func (t PaymentMethodType) IsCard() bool {
	return t == PaymentDebitCard || t == PaymentCreditCard
}

// CardType enumerates card networks.
type CardType string

const (
	CardVisa       CardType = "VISA"
	CardMastercard CardType = "MASTERCARD"
	CardAmex       CardType = "AMEX"
)

// PaymentMethod is a saved funding source. Card numbers are kept masked and
// security codes are never stored.
type PaymentMethod struct {
	ID                string            `json:"id"`
	Type              PaymentMethodType `json:"type"`
	Name              string            `json:"name"`
	CardType          CardType          `json:"card_type,omitempty"`
	CardLast4         string            `json:"card_last4,omitempty"`
	ExpiryDate        string            `json:"expiry_date,omitempty"`
	CardHolderName    string            `json:"card_holder_name,omitempty"`
	BankName          string            `json:"bank_name,omitempty"`
	AccountLast4      string            `json:"account_last4,omitempty"`
	SortCode          string            `json:"sort_code,omitempty"`
	IBAN              string            `json:"iban,omitempty"`
	SwiftCode         string            `json:"swift_code,omitempty"`
	AccountHolderName string            `json:"account_holder_name,omitempty"`
	IsDefault         bool              `json:"is_default"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Label returns the human-readable source used on deposit records.
func (pm PaymentMethod) Label() string {
	if pm.Name != "" {
		return pm.Name
	}
	return string(pm.Type)
}

// LastFour returns the trailing four characters of s.
func LastFour(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
