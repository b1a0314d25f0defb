package domain

import (
	"time"
)

// IdempotencyLog stores the committed response of a wallet command so a
// retried request with the same key replays it instead of re-applying.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "user_id:client_key"
	UserID       string    `json:"user_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to its user.
func BuildIdempotencyKey(userID, clientKey string) string {
	return userID + ":" + clientKey
}
