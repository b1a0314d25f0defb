package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister        AuditAction = "REGISTER"
	AuditActionLogin           AuditAction = "LOGIN"
	AuditActionLogout          AuditAction = "LOGOUT"
	AuditActionWalletCommand   AuditAction = "WALLET_COMMAND"
	AuditActionUpdateProfile   AuditAction = "UPDATE_PROFILE"
	AuditActionPaymentMethod   AuditAction = "PAYMENT_METHOD"
	AuditActionPriceAlert      AuditAction = "PRICE_ALERT"
	AuditActionAdminCreateUser AuditAction = "ADMIN_CREATE_USER"
	AuditActionAdminUpdateUser AuditAction = "ADMIN_UPDATE_USER"
	AuditActionAdminDeleteUser AuditAction = "ADMIN_DELETE_USER"
	AuditActionAdminFinancials AuditAction = "ADMIN_UPDATE_FINANCIALS"
	AuditActionImpersonate     AuditAction = "IMPERSONATE"
	AuditActionSettle          AuditAction = "SETTLE_WITHDRAWAL"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	UserID       *string     `json:"user_id,omitempty"`
	ActorID      *string     `json:"actor_id,omitempty"` // set when an admin acts on behalf of a user
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's IP for audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the IP stored by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
