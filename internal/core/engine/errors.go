package engine

import (
	"errors"
	"fmt"

	"jetwallet/internal/core/domain"
)

// Rejection reasons. Every rejection wraps exactly one of these.
var (
	ErrInvalidCommand      = errors.New("invalid transaction type")
	ErrInvalidAsset        = errors.New("invalid asset")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidUSDValue     = errors.New("invalid USD value")
	ErrMissingDestination  = errors.New("missing destination")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("below minimum transaction value")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotSettleable       = errors.New("transaction is not a pending withdrawal")
)

// RejectionError reports why a command was not applied.
type RejectionError struct {
	Kind  domain.TransactionType
	Asset string
	Err   error
}

func (e *RejectionError) Error() string {
	if e.Asset != "" {
		return fmt.Sprintf("%s %s rejected: %v", e.Kind, e.Asset, e.Err)
	}
	return fmt.Sprintf("%s rejected: %v", e.Kind, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func reject(kind domain.TransactionType, asset string, err error) error {
	return &RejectionError{Kind: kind, Asset: asset, Err: err}
}
