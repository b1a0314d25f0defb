package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProfileServiceImpl implements ports.ProfileService.
type ProfileServiceImpl struct {
	userRepo ports.UserRepository
	auditSvc ports.AuditService
	log      zerolog.Logger
}

// NewProfileService creates a new ProfileServiceImpl.
func NewProfileService(userRepo ports.UserRepository, auditSvc ports.AuditService, log zerolog.Logger) *ProfileServiceImpl {
	return &ProfileServiceImpl{userRepo: userRepo, auditSvc: auditSvc, log: log}
}

// GetProfile returns the caller's account.
func (s *ProfileServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

// UpdatePreferences changes theme, 2FA flag and notification settings.
func (s *ProfileServiceImpl) UpdatePreferences(ctx context.Context, userID string, patch ports.PreferencesPatch) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Theme != nil {
		if !patch.Theme.IsValid() {
			return nil, apperror.Validation("theme must be light or dark")
		}
		user.Theme = *patch.Theme
	}
	if patch.TwoFactorEnabled != nil {
		user.TwoFactorEnabled = *patch.TwoFactorEnabled
	}
	if patch.Notifications != nil {
		user.Notifications = *patch.Notifications
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionUpdateProfile, user.ID, "", "user", user.ID, ""))
	return user, nil
}

// AddPaymentMethod stores a masked copy of a funding source.
func (s *ProfileServiceImpl) AddPaymentMethod(ctx context.Context, userID string, req ports.PaymentMethodRequest) (*domain.PaymentMethod, error) {
	pm, err := buildPaymentMethod(req)
	if err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.PaymentMethods) == 0 {
		pm.IsDefault = true
	}
	if pm.IsDefault {
		for i := range user.PaymentMethods {
			user.PaymentMethods[i].IsDefault = false
		}
	}
	user.PaymentMethods = append(user.PaymentMethods, pm)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionPaymentMethod, user.ID, "", "payment_method", pm.ID, ""))
	s.log.Info().Str("user_id", user.ID).Str("type", string(pm.Type)).Msg("payment method added")
	return &pm, nil
}

// RemovePaymentMethod deletes a funding source. If it was the default, the
// oldest remaining method becomes the default.
func (s *ProfileServiceImpl) RemovePaymentMethod(ctx context.Context, userID, methodID string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	idx := -1
	for i, pm := range user.PaymentMethods {
		if pm.ID == methodID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperror.ErrNotFound("payment method")
	}

	wasDefault := user.PaymentMethods[idx].IsDefault
	user.PaymentMethods = append(user.PaymentMethods[:idx], user.PaymentMethods[idx+1:]...)
	if wasDefault && len(user.PaymentMethods) > 0 {
		user.PaymentMethods[0].IsDefault = true
	}

	if err := s.save(ctx, user); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionPaymentMethod, user.ID, "", "payment_method", methodID, ""))
	return nil
}

func (s *ProfileServiceImpl) save(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.InternalError(fmt.Errorf("update user: %w", err))
	}
	return nil
}

// buildPaymentMethod validates a raw request and reduces account numbers to
// their last four digits. The CVV is never copied.
func buildPaymentMethod(req ports.PaymentMethodRequest) (domain.PaymentMethod, error) {
	if !req.Type.IsValid() {
		return domain.PaymentMethod{}, apperror.Validation("unsupported payment method type")
	}

	pm := domain.PaymentMethod{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Name:      strings.TrimSpace(req.Name),
		IsDefault: req.IsDefault,
		CreatedAt: time.Now().UTC(),
	}

	if req.Type.IsCard() {
		digits := strings.ReplaceAll(req.CardNumber, " ", "")
		if len(digits) < 12 || len(digits) > 19 || !allDigits(digits) {
			return domain.PaymentMethod{}, apperror.Validation("invalid card number")
		}
		switch req.CardType {
		case domain.CardVisa, domain.CardMastercard, domain.CardAmex:
		default:
			return domain.PaymentMethod{}, apperror.Validation("unsupported card type")
		}
		if req.ExpiryDate == "" || req.CardHolderName == "" {
			return domain.PaymentMethod{}, apperror.Validation("expiry date and card holder are required")
		}
		pm.CardType = req.CardType
		pm.CardLast4 = domain.LastFour(digits)
		pm.ExpiryDate = req.ExpiryDate
		pm.CardHolderName = req.CardHolderName
		if pm.Name == "" {
			pm.Name = fmt.Sprintf("%s ending %s", req.CardType, pm.CardLast4)
		}
		return pm, nil
	}

	if req.AccountNumber == "" && req.IBAN == "" {
		return domain.PaymentMethod{}, apperror.Validation("account number or IBAN is required")
	}
	if req.Type == domain.PaymentSwiftTransfer && req.SwiftCode == "" {
		return domain.PaymentMethod{}, apperror.Validation("SWIFT code is required")
	}
	pm.BankName = req.BankName
	pm.AccountLast4 = domain.LastFour(req.AccountNumber)
	pm.SortCode = req.SortCode
	pm.IBAN = req.IBAN
	pm.SwiftCode = req.SwiftCode
	pm.AccountHolderName = req.AccountHolderName
	if pm.Name == "" {
		pm.Name = strings.TrimSpace(req.BankName + " " + pm.AccountLast4)
	}
	return pm, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
