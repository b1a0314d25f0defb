package domain

import "time"

// EventType names an outbound notification.
type EventType string

const (
	EventTransactionCommitted EventType = "transaction.committed"
	EventWithdrawalSettled    EventType = "withdrawal.settled"
	EventAlertTriggered       EventType = "alert.triggered"
)

// WalletEvent is published after a change has been persisted.
type WalletEvent struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	UserID     string      `json:"user_id"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}
