package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// commandTxOptions is used for every wallet command. Serialisation comes from
// the wallet row lock taken by WalletRepo.GetForUpdate.
var commandTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// Transactor implements ports.DBTransactor on top of the pool.
type Transactor struct {
	pool Pool
	opts pgx.TxOptions
}

// NewTransactor creates a Transactor that opens read committed transactions.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool, opts: commandTxOptions}
}

// Begin opens a transaction for one wallet command.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, t.opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}
