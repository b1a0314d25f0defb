package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultPriceCacheTTL is how long a shared snapshot stays in Redis.
const DefaultPriceCacheTTL = 5 * time.Minute

var errEmptyQuote = errors.New("no prices returned")

// PriceServiceImpl is the refreshing price oracle. Providers are queried in
// order and the first non-empty answer wins.
type PriceServiceImpl struct {
	providers []ports.PriceProvider
	cache     ports.PriceCache
	metrics   ports.Metrics
	cacheTTL  time.Duration
	log       zerolog.Logger

	mu       sync.RWMutex
	snapshot domain.PriceSnapshot
}

// NewPriceService creates a price service seeded with the fallback table.
func NewPriceService(providers []ports.PriceProvider, cache ports.PriceCache, metrics ports.Metrics, cacheTTL time.Duration, log zerolog.Logger) *PriceServiceImpl {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPriceCacheTTL
	}
	return &PriceServiceImpl{
		providers: providers,
		cache:     cache,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "prices").Logger(),
		snapshot: domain.PriceSnapshot{
			Prices:    domain.FallbackPrices(),
			Source:    domain.PriceSourceFallback,
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// GetPrice returns the last known price of coin, zero when unknown.
func (s *PriceServiceImpl) GetPrice(coin domain.CoinID) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Price(coin)
}

// Snapshot returns a copy of the current prices.
func (s *PriceServiceImpl) Snapshot() domain.PriceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySnapshot(s.snapshot)
}

// Refresh queries providers until one answers. When every provider fails the
// previous snapshot is kept and the aggregated provider errors are returned
// alongside it.
func (s *PriceServiceImpl) Refresh(ctx context.Context) (domain.PriceSnapshot, error) {
	coins := domain.CoinIDs()
	var errs *multierror.Error

	for _, p := range s.providers {
		prices, err := p.Fetch(ctx, coins)
		if err == nil && len(prices) == 0 {
			err = errEmptyQuote
		}
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Msg("price provider failed")
			s.recordRefresh(p.Name(), false)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		snap := s.merge(prices, p.Name())
		s.recordRefresh(p.Name(), true)
		if s.cache != nil {
			if err := s.cache.Set(ctx, snap, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("failed to cache price snapshot")
			}
		}
		s.log.Debug().Str("provider", p.Name()).Int("coins", len(prices)).Msg("prices refreshed")
		return snap, nil
	}

	snap := s.Snapshot()
	if errs == nil {
		return snap, nil
	}
	s.log.Error().Err(errs).Str("source", snap.Source).Msg("all price providers failed")
	return snap, errs.ErrorOrNil()
}

// Warm loads a snapshot shared by another replica, if any.
func (s *PriceServiceImpl) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx)
	if err != nil {
		return fmt.Errorf("load cached prices: %w", err)
	}
	if cached == nil || len(cached.Prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for coin, price := range cached.Prices {
		if price.IsPositive() {
			s.snapshot.Prices[coin] = price
		}
	}
	s.snapshot.Source = domain.PriceSourceCache
	s.snapshot.UpdatedAt = cached.UpdatedAt
	s.log.Info().Time("updated_at", cached.UpdatedAt).Msg("prices warmed from cache")
	return nil
}

func (s *PriceServiceImpl) merge(prices map[domain.CoinID]decimal.Decimal, source string) domain.PriceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[domain.CoinID]decimal.Decimal, len(s.snapshot.Prices))
	for coin, price := range s.snapshot.Prices {
		next[coin] = price
	}
	for coin, price := range prices {
		next[coin] = price
	}
	s.snapshot = domain.PriceSnapshot{Prices: next, Source: source, UpdatedAt: time.Now().UTC()}
	return copySnapshot(s.snapshot)
}

func (s *PriceServiceImpl) recordRefresh(source string, ok bool) {
	if s.metrics != nil {
		s.metrics.PriceRefreshed(source, ok)
	}
}

func copySnapshot(in domain.PriceSnapshot) domain.PriceSnapshot {
	out := in
	out.Prices = make(map[domain.CoinID]decimal.Decimal, len(in.Prices))
	for coin, price := range in.Prices {
		out.Prices[coin] = price
	}
	return out
}
