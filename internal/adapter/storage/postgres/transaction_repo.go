package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const txColumnList = `id, type, status, currency, amount, price, usd_value, hash, from_label, to_label, created_at`

// TransactionRepo implements ports.TransactionRepository. Rows mirror the
// transactions embedded in wallet snapshots so they can be filtered and
// aggregated in SQL.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// CreateBatch inserts the records produced by one command within a database
// transaction. txns is newest first, so rows are written in reverse and the
// seq column keeps the command's own ordering when created_at ties.
func (r *TransactionRepo) CreateBatch(ctx context.Context, tx pgx.Tx, userID string, txns []domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, ` + txColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i := len(txns) - 1; i >= 0; i-- {
		t := txns[i]
		_, err := tx.Exec(ctx, query,
			userID, t.ID, string(t.Type), string(t.Status), t.Currency,
			t.Amount, t.Price, t.USDValue, t.Hash, t.From, t.To, t.Date,
		)
		if err != nil {
			return wrapErr("insert transaction", err)
		}
	}
	return nil
}

// UpdateStatus updates a transaction's status within a database transaction.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status domain.TransactionStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// List fetches a user's transactions with filtering and pagination, newest first.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*params.Status))
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, string(*params.Type))
		argIdx++
	}
	if params.Currency != "" {
		conditions = append(conditions, fmt.Sprintf("currency = $%d", argIdx))
		args = append(args, params.Currency)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d`,
		txColumnList, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var t domain.Transaction
		var typ, status string
		err := rows.Scan(
			&t.ID, &typ, &status, &t.Currency, &t.Amount, &t.Price,
			&t.USDValue, &t.Hash, &t.From, &t.To, &t.Date,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Type = domain.TransactionType(typ)
		t.Status = domain.TransactionStatus(status)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats retrieves aggregated journal statistics for a user.
func (r *TransactionRepo) GetStats(ctx context.Context, userID string, since *time.Time) (*ports.TransactionStats, error) {
	args := []any{userID}
	condition := "user_id = $1"
	if since != nil {
		condition += " AND created_at >= $2"
		args = append(args, *since)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COALESCE(SUM(usd_value) FILTER (WHERE type = 'BUY'), 0) AS bought,
		COALESCE(SUM(usd_value) FILTER (WHERE type = 'SELL'), 0) AS sold,
		COALESCE(SUM(usd_value) FILTER (WHERE type = 'DEPOSIT'), 0) AS deposited,
		COALESCE(SUM(usd_value) FILTER (WHERE type = 'WITHDRAW' AND status != 'FAILED'), 0) AS withdrawn
		FROM transactions WHERE %s`, condition)

	stats := &ports.TransactionStats{CountByType: map[domain.TransactionType]int64{}}
	var bought, sold, deposited, withdrawn decimal.Decimal
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTransactions, &stats.Completed, &stats.Pending, &stats.Failed,
		&bought, &sold, &deposited, &withdrawn,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}
	stats.BoughtUSD, stats.SoldUSD, stats.DepositedUSD, stats.WithdrawnUSD = bought, sold, deposited, withdrawn

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT type, COUNT(*) FROM transactions WHERE %s GROUP BY type`, condition), args...)
	if err != nil {
		return nil, fmt.Errorf("count transactions by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		stats.CountByType[domain.TransactionType(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type counts: %w", err)
	}
	return stats, nil
}
