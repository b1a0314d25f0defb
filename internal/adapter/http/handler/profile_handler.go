package handler

import (
	"strings"

	"jetwallet/internal/adapter/http/dto"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProfileHandler handles self-service settings and price alerts.
type ProfileHandler struct {
	profileSvc ports.ProfileService
	alertSvc   ports.AlertService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileSvc ports.ProfileService, alertSvc ports.AlertService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc, alertSvc: alertSvc}
}

// GetProfile handles GET /api/v1/me.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.profileSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// UpdatePreferences handles PATCH /api/v1/me.
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	patch := ports.PreferencesPatch{
		TwoFactorEnabled: req.TwoFactorEnabled,
		Notifications:    req.Notifications,
	}
	if req.Theme != nil {
		theme := domain.Theme(*req.Theme)
		patch.Theme = &theme
	}

	user, err := h.profileSvc.UpdatePreferences(c.Request.Context(), userID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// AddPaymentMethod handles POST /api/v1/me/payment-methods.
func (h *ProfileHandler) AddPaymentMethod(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	method, err := h.profileSvc.AddPaymentMethod(c.Request.Context(), userID, ports.PaymentMethodRequest{
		Type:              domain.PaymentMethodType(strings.ToUpper(req.Type)),
		Name:              req.Name,
		CardNumber:        req.CardNumber,
		CardType:          domain.CardType(strings.ToUpper(req.CardType)),
		ExpiryDate:        req.ExpiryDate,
		CardHolderName:    req.CardHolderName,
		CVV:               req.CVV,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		SortCode:          req.SortCode,
		IBAN:              req.IBAN,
		SwiftCode:         req.SwiftCode,
		AccountHolderName: req.AccountHolderName,
		IsDefault:         req.IsDefault,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, method)
}

// RemovePaymentMethod handles DELETE /api/v1/me/payment-methods/:id.
func (h *ProfileHandler) RemovePaymentMethod(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.profileSvc.RemovePaymentMethod(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAlerts handles GET /api/v1/me/alerts.
func (h *ProfileHandler) ListAlerts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	alerts, err := h.alertSvc.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, alerts)
}

// CreateAlert handles POST /api/v1/me/alerts.
func (h *ProfileHandler) CreateAlert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	alert, err := h.alertSvc.Create(c.Request.Context(), userID, ports.AlertRequest{
		CoinID:      domain.CoinID(dto.NormalizeCode(req.Coin)),
		TargetPrice: req.TargetPrice,
		Condition:   domain.AlertCondition(req.Condition),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

// DeleteAlert handles DELETE /api/v1/me/alerts/:id.
func (h *ProfileHandler) DeleteAlert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.alertSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
