package service

import (
	"context"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// maxAlertsPerUser caps how many alerts one account may hold.
const maxAlertsPerUser = 50

// AlertServiceImpl implements ports.AlertService.
type AlertServiceImpl struct {
	alertRepo ports.PriceAlertRepository
	publisher ports.EventPublisher
	metrics   ports.Metrics
	auditSvc  ports.AuditService
	log       zerolog.Logger
}

// NewAlertService creates a new AlertServiceImpl.
func NewAlertService(
	alertRepo ports.PriceAlertRepository,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *AlertServiceImpl {
	return &AlertServiceImpl{
		alertRepo: alertRepo,
		publisher: publisher,
		metrics:   metrics,
		auditSvc:  auditSvc,
		log:       log,
	}
}

// Create registers a new active alert.
func (s *AlertServiceImpl) Create(ctx context.Context, userID string, req ports.AlertRequest) (*domain.PriceAlert, error) {
	coin := domain.CoinID(normalizeCode(string(req.CoinID)))
	if !coin.IsValid() {
		return nil, apperror.Validation("unsupported coin")
	}
	if !req.TargetPrice.IsPositive() {
		return nil, apperror.Validation("target price must be positive")
	}
	if !req.Condition.IsValid() {
		return nil, apperror.Validation("condition must be above or below")
	}

	existing, err := s.alertRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list alerts: %w", err))
	}
	if len(existing) >= maxAlertsPerUser {
		return nil, apperror.Validation(fmt.Sprintf("at most %d alerts are allowed", maxAlertsPerUser))
	}

	alert := &domain.PriceAlert{
		ID:          uuid.NewString(),
		UserID:      userID,
		CoinID:      coin,
		TargetPrice: req.TargetPrice,
		Condition:   req.Condition,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create alert: %w", err))
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionPriceAlert, userID, "", "price_alert", alert.ID, ""))
	return alert, nil
}

// List returns all alerts of a user, newest first.
func (s *AlertServiceImpl) List(ctx context.Context, userID string) ([]domain.PriceAlert, error) {
	alerts, err := s.alertRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list alerts: %w", err))
	}
	return nonNil(alerts), nil
}

// Delete removes one of the user's alerts.
func (s *AlertServiceImpl) Delete(ctx context.Context, userID, alertID string) error {
	deleted, err := s.alertRepo.Delete(ctx, userID, alertID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete alert: %w", err))
	}
	if !deleted {
		return apperror.ErrNotFound("price alert")
	}
	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionPriceAlert, userID, "", "price_alert", alertID, ""))
	return nil
}

// Evaluate fires every active alert whose condition holds at snapshot prices.
// Fired alerts are deactivated and announced on the event bus. It returns the
// number of alerts fired; failures on individual alerts are collected.
func (s *AlertServiceImpl) Evaluate(ctx context.Context, snapshot domain.PriceSnapshot) (int, error) {
	alerts, err := s.alertRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active alerts: %w", err)
	}

	var (
		fired int
		errs  *multierror.Error
	)
	now := time.Now().UTC()

	for i := range alerts {
		alert := &alerts[i]
		price := snapshot.Price(alert.CoinID)
		if !alert.ShouldTrigger(price) {
			continue
		}

		if err := s.alertRepo.MarkTriggered(ctx, alert.ID, now); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("mark alert %s: %w", alert.ID, err))
			continue
		}
		alert.Active = false
		alert.TriggeredAt = &now
		fired++

		s.log.Info().
			Str("user_id", alert.UserID).
			Str("alert_id", alert.ID).
			Str("coin", string(alert.CoinID)).
			Str("price", price.String()).
			Msg("price alert triggered")

		if s.publisher != nil {
			event := domain.WalletEvent{
				ID:         uuid.NewString(),
				Type:       domain.EventAlertTriggered,
				UserID:     alert.UserID,
				Payload:    map[string]interface{}{"alert": alert, "price": price},
				OccurredAt: now,
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("failed to publish alert event")
			}
		}
	}

	if s.metrics != nil && fired > 0 {
		s.metrics.AlertsTriggered(fired)
	}
	return fired, errs.ErrorOrNil()
}
