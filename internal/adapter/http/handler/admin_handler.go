package handler

import (
	"strings"

	"jetwallet/internal/adapter/http/dto"
	"jetwallet/internal/adapter/http/middleware"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"
	"jetwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles user management for administrators.
type AdminHandler struct {
	userSvc   ports.UserService
	walletSvc ports.WalletService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userSvc ports.UserService, walletSvc ports.WalletService) *AdminHandler {
	return &AdminHandler{userSvc: userSvc, walletSvc: walletSvc}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := ports.UserListParams{Search: strings.TrimSpace(c.Query("search"))}
	params.Page, params.PageSize = page(c)
	if r := c.Query("role"); r != "" {
		role := domain.Role(strings.ToLower(r))
		if !role.IsValid() {
			response.Error(c, apperror.Validation("invalid role filter"))
			return
		}
		params.Role = &role
	}

	users, total, err := h.userSvc.ListUsers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, users, total, params.Page, params.PageSize)
}

// GetUser handles GET /api/v1/admin/users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// CreateUser handles POST /api/v1/admin/users.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	role := domain.RoleUser
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	user, err := h.userSvc.CreateUser(c.Request.Context(), ports.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// UpdateUser handles PATCH /api/v1/admin/users/:id.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	patch := ports.UserPatch{
		Email:            req.Email,
		Password:         req.Password,
		TwoFactorEnabled: req.TwoFactorEnabled,
		AccountLocked:    req.AccountLocked,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Theme != nil {
		theme := domain.Theme(*req.Theme)
		patch.Theme = &theme
	}

	user, err := h.userSvc.UpdateUser(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.userSvc.DeleteUser(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Impersonate handles POST /api/v1/admin/users/:id/impersonate.
func (h *AdminHandler) Impersonate(c *gin.Context) {
	session, err := h.userSvc.Impersonate(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toSessionResponse(session))
}

// GetWallet handles GET /api/v1/admin/users/:id/wallet.
func (h *AdminHandler) GetWallet(c *gin.Context) {
	state, err := h.walletSvc.GetState(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// ListTransactions handles GET /api/v1/admin/users/:id/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	params, err := transactionParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	params.UserID = c.Param("id")

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, txns, total, params.Page, params.PageSize)
}

// ReplaceHoldings handles PUT /api/v1/admin/users/:id/financials.
func (h *AdminHandler) ReplaceHoldings(c *gin.Context) {
	var req dto.HoldingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	state, err := h.walletSvc.ReplaceHoldings(c.Request.Context(), ports.HoldingsRequest{
		ActorID: middleware.ActorID(c),
		UserID:  c.Param("id"),
		Wallets: req.Wallets,
		Cash:    req.Cash,
		Staked:  req.Staked,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// SettleWithdrawal handles POST /api/v1/admin/users/:id/transactions/:txId/settle.
func (h *AdminHandler) SettleWithdrawal(c *gin.Context) {
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	txn, err := h.walletSvc.SettleWithdrawal(c.Request.Context(), ports.SettleRequest{
		ActorID:       middleware.ActorID(c),
		UserID:        c.Param("id"),
		TransactionID: c.Param("txId"),
		Status:        domain.TransactionStatus(req.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txn)
}
