package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet commands (WAL) ----

func ErrInvalidAsset() *AppError {
	return New("WAL_001", "Invalid cryptocurrency", http.StatusBadRequest)
}

func ErrInvalidTransactionType() *AppError {
	return New("WAL_002", "Invalid transaction type", http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_003", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidUSDValue() *AppError {
	return New("WAL_004", "Invalid USD value", http.StatusBadRequest)
}

// ErrBelowMinimum reports a command under the configured USD floor.
func ErrBelowMinimum(minimum string) *AppError {
	return New("WAL_005", fmt.Sprintf("Minimum transaction amount is $%s", minimum), http.StatusUnprocessableEntity)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_006", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrMissingDestination() *AppError {
	return New("WAL_007", "Destination address or payment method is required", http.StatusBadRequest)
}

func ErrNotSettleable() *AppError {
	return New("WAL_008", "Transaction is not a pending withdrawal", http.StatusConflict)
}

func ErrCorruptWallet(err error) *AppError {
	return Wrap("WAL_009", "Stored wallet state is invalid", http.StatusInternalServerError, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_004", "Insufficient permissions", http.StatusForbidden)
}

func ErrAccountLocked() *AppError {
	return New("AUTH_005", "Account locked after too many failed login attempts", http.StatusLocked)
}

// ---- Users and profile (USR) ----

func ErrNotFound(entity string) *AppError {
	return New("USR_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Validation returns a USR_002 input validation error.
func Validation(message string) *AppError {
	return New("USR_002", message, http.StatusBadRequest)
}

func ErrCannotDeleteSelf() *AppError {
	return New("USR_003", "Administrators cannot delete their own account", http.StatusConflict)
}

// ---- Prices (PRC) ----

func ErrPriceUnavailable(err error) *AppError {
	return Wrap("PRC_001", "Price data unavailable", http.StatusServiceUnavailable, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

func ErrPayloadTooLarge() *AppError {
	return New("SYS_004", "Request body too large", http.StatusRequestEntityTooLarge)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
