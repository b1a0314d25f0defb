package handler

import (
	"strconv"
	"strings"
	"time"

	"jetwallet/internal/adapter/http/middleware"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"
	"jetwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets clients retry a command without applying it twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// WalletHandler handles wallet state, commands and reports.
type WalletHandler struct {
	walletSvc    ports.WalletService
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, reportingSvc: reportingSvc}
}

// GetState handles GET /api/v1/wallet.
func (h *WalletHandler) GetState(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	state, err := h.walletSvc.GetState(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, state)
}

// Execute handles POST /api/v1/wallet/:command.
func (h *WalletHandler) Execute(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	idemKey := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if len(idemKey) > 128 {
		response.Error(c, apperror.Validation("Idempotency-Key must be at most 128 characters"))
		return
	}

	cmd, err := bindCommand(c, c.Param("command"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.walletSvc.Execute(c.Request.Context(), ports.ExecuteRequest{
		UserID:         userID,
		ActorID:        middleware.ActorID(c),
		IdempotencyKey: idemKey,
		ClientIP:       c.ClientIP(),
		Command:        cmd,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListTransactions handles GET /api/v1/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	h.listTransactions(c, userID)
}

func (h *WalletHandler) listTransactions(c *gin.Context, userID string) {
	params, err := transactionParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	params.UserID = userID

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, txns, total, params.Page, params.PageSize)
}

// GetPortfolio handles GET /api/v1/portfolio.
func (h *WalletHandler) GetPortfolio(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	portfolio, err := h.reportingSvc.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, portfolio)
}

// GetStats handles GET /api/v1/reports/stats.
func (h *WalletHandler) GetStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	stats, err := h.reportingSvc.GetStats(c.Request.Context(), userID, c.DefaultQuery("period", "all"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

// requireUser writes AUTH_003 when no authenticated user is present.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return "", false
	}
	return userID, true
}

// page reads page and page_size with the usual defaults.
func page(c *gin.Context) (int, int) {
	p, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if p < 1 {
		p = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return p, size
}

func transactionParams(c *gin.Context) (ports.TransactionListParams, error) {
	var params ports.TransactionListParams
	params.Page, params.PageSize = page(c)

	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(strings.ToUpper(s))
		if !status.IsValid() {
			return params, apperror.Validation("invalid status filter")
		}
		params.Status = &status
	}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(strings.ToUpper(t))
		if !txType.IsValid() {
			return params, apperror.Validation("invalid type filter")
		}
		params.Type = &txType
	}
	params.Currency = strings.ToUpper(strings.TrimSpace(c.Query("currency")))

	var err error
	if params.From, err = parseTime(c.Query("from")); err != nil {
		return params, apperror.Validation("from must be RFC 3339 or a Unix timestamp")
	}
	if params.To, err = parseTime(c.Query("to")); err != nil {
		return params, apperror.Validation("to must be RFC 3339 or a Unix timestamp")
	}
	return params, nil
}

// parseTime accepts RFC 3339 or Unix seconds. Empty input yields nil.
func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t := time.Unix(secs, 0).UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
