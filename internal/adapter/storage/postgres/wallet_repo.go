package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"jetwallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository. The whole WalletState is
// stored as one JSONB document per user.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts the first snapshot of a user's wallet.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal wallet state: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO wallets (user_id, state, updated_at) VALUES ($1, $2, NOW())`, userID, doc)
	if err != nil {
		return wrapErr("insert wallet", err)
	}
	return nil
}

// Get fetches a wallet snapshot without locking.
func (r *WalletRepo) Get(ctx context.Context, userID string) (*domain.WalletState, error) {
	return scanState(r.pool.QueryRow(ctx, `SELECT state FROM wallets WHERE user_id = $1`, userID), "get wallet")
}

// GetForUpdate fetches a wallet snapshot with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, userID string) (*domain.WalletState, error) {
	return scanState(tx.QueryRow(ctx, `SELECT state FROM wallets WHERE user_id = $1 FOR UPDATE`, userID), "get wallet for update")
}

// Save replaces a wallet snapshot within a transaction.
func (r *WalletRepo) Save(ctx context.Context, tx pgx.Tx, userID string, state domain.WalletState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal wallet state: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE wallets SET state = $1, updated_at = NOW() WHERE user_id = $2`, doc, userID)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", userID)
	}
	return nil
}

func scanState(row pgx.Row, op string) (*domain.WalletState, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	state := domain.NewWalletState()
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, fmt.Errorf("unmarshal wallet state: %w", err)
	}
	return &state, nil
}
