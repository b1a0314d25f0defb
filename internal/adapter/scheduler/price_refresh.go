package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jetwallet/internal/core/ports"

	"github.com/rs/zerolog"
)

// DefaultRefreshTimeout bounds one refresh cycle including alert evaluation.
const DefaultRefreshTimeout = 30 * time.Second

// PriceRefreshJob pulls fresh prices and evaluates price alerts against them.
type PriceRefreshJob struct {
	prices  ports.PriceService
	alerts  ports.AlertService
	timeout time.Duration
	log     zerolog.Logger
	running sync.Mutex
}

// NewPriceRefreshJob creates a price refresh job. alerts may be nil.
func NewPriceRefreshJob(prices ports.PriceService, alerts ports.AlertService, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &PriceRefreshJob{
		prices:  prices,
		alerts:  alerts,
		timeout: timeout,
		log:     log.With().Str("job", "price_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes prices once. Overlapping runs are skipped.
func (j *PriceRefreshJob) Run() error {
	if !j.running.TryLock() {
		j.log.Warn().Msg("previous refresh still running, skipping")
		return nil
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	snapshot, err := j.prices.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}
	j.log.Debug().Str("source", snapshot.Source).Int("coins", len(snapshot.Prices)).Msg("prices refreshed")

	if j.alerts == nil {
		return nil
	}
	fired, err := j.alerts.Evaluate(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("evaluate alerts: %w", err)
	}
	if fired > 0 {
		j.log.Info().Int("fired", fired).Msg("price alerts triggered")
	}
	return nil
}
