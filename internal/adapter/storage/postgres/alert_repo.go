package postgres

import (
	"context"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"
)

const alertColumns = `id, user_id, coin_id, target_price, condition, is_active, created_at, triggered_at`

// AlertRepo implements ports.PriceAlertRepository.
type AlertRepo struct {
	pool Pool
}

// NewAlertRepo creates a new AlertRepo.
func NewAlertRepo(pool Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

// Create inserts a price alert.
func (r *AlertRepo) Create(ctx context.Context, a *domain.PriceAlert) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO price_alerts (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, string(a.CoinID), a.TargetPrice, string(a.Condition), a.Active, a.CreatedAt, a.TriggeredAt,
	)
	if err != nil {
		return wrapErr("insert price alert", err)
	}
	return nil
}

// ListByUser returns a user's alerts, newest first.
func (r *AlertRepo) ListByUser(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	return r.list(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListActive returns every alert that has not fired yet.
func (r *AlertRepo) ListActive(ctx context.Context) ([]domain.PriceAlert, error) {
	return r.list(ctx, `SELECT `+alertColumns+` FROM price_alerts WHERE is_active ORDER BY created_at`)
}

// MarkTriggered deactivates an alert.
func (r *AlertRepo) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE price_alerts SET is_active = FALSE, triggered_at = $1 WHERE id = $2 AND is_active`, at, id)
	if err != nil {
		return fmt.Errorf("mark alert triggered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("active alert not found: %s", id)
	}
	return nil
}

// Delete removes one of a user's alerts. It reports whether a row was removed.
func (r *AlertRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM price_alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete price alert: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AlertRepo) list(ctx context.Context, query string, args ...any) ([]domain.PriceAlert, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list price alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.PriceAlert{}
	for rows.Next() {
		var a domain.PriceAlert
		var coin, condition string
		if err := rows.Scan(&a.ID, &a.UserID, &coin, &a.TargetPrice, &condition, &a.Active, &a.CreatedAt, &a.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan price alert: %w", err)
		}
		a.CoinID = domain.CoinID(coin)
		a.Condition = domain.AlertCondition(condition)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price alerts: %w", err)
	}
	return alerts, nil
}
