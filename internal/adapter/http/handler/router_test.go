package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jetwallet/internal/adapter/metrics"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/internal/core/ports/mocks"
	"jetwallet/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const adminID = "00000000-0000-0000-0000-000000000001"

type routerFixture struct {
	router  http.Handler
	tokens  *mocks.MockTokenService
	wallet  *mocks.MockWalletService
	users   *mocks.MockUserService
	profile *mocks.MockProfileService
	alerts  *mocks.MockAlertService
	prices  *mocks.MockPriceService
}

func newRouterFixture(t *testing.T, withMetrics bool) *routerFixture {
	ctrl := gomock.NewController(t)
	f := &routerFixture{
		tokens:  mocks.NewMockTokenService(ctrl),
		wallet:  mocks.NewMockWalletService(ctrl),
		users:   mocks.NewMockUserService(ctrl),
		profile: mocks.NewMockProfileService(ctrl),
		alerts:  mocks.NewMockAlertService(ctrl),
		prices:  mocks.NewMockPriceService(ctrl),
	}
	deps := RouterDeps{
		AuthSvc:      mocks.NewMockAuthService(ctrl),
		WalletSvc:    f.wallet,
		ReportingSvc: mocks.NewMockReportingService(ctrl),
		ProfileSvc:   f.profile,
		AlertSvc:     f.alerts,
		UserSvc:      f.users,
		PriceSvc:     f.prices,
		TokenSvc:     f.tokens,
		Logger:       zerolog.Nop(),
	}
	if withMetrics {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}
	f.router = SetupRouter(deps)

	f.tokens.EXPECT().Validate("user-token").Return(&ports.TokenClaims{
		UserID: testUserID, Role: domain.RoleUser, TokenID: "jti-user",
	}, nil).AnyTimes()
	f.tokens.EXPECT().Validate("admin-token").Return(&ports.TokenClaims{
		UserID: adminID, Role: domain.RoleAdmin, TokenID: "jti-admin",
	}, nil).AnyTimes()
	return f
}

func (f *routerFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture(t, false)

	for _, path := range []string{"/api/v1/wallet", "/api/v1/me", "/api/v1/admin/users"} {
		w := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_AdminRoutesRejectUsers(t *testing.T) {
	f := newRouterFixture(t, false)

	w := f.do(http.MethodGet, "/api/v1/admin/users", "user-token", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_004", decodeErrorCode(t, w))
}

func TestRouter_PricesArePublic(t *testing.T) {
	f := newRouterFixture(t, false)
	f.prices.EXPECT().Snapshot().Return(domain.PriceSnapshot{Prices: domain.FallbackPrices(), Source: "coingecko"})

	w := f.do(http.MethodGet, "/api/v1/prices", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coingecko", decodeData(t, w)["source"])
}

func TestRouter_RequestIDHeader(t *testing.T) {
	f := newRouterFixture(t, false)

	w := f.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t, true)

	f.do(http.MethodGet, "/health", "", nil)
	w := f.do(http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jetwallet_http_requests_total")
}

// --- Profile routes ---

func TestProfile_UpdatePreferences(t *testing.T) {
	f := newRouterFixture(t, false)
	f.profile.EXPECT().UpdatePreferences(gomock.Any(), testUserID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch ports.PreferencesPatch) (*domain.User, error) {
			require.NotNil(t, patch.Theme)
			assert.Equal(t, domain.ThemeDark, *patch.Theme)
			assert.Nil(t, patch.TwoFactorEnabled)
			return &domain.User{ID: testUserID, Theme: domain.ThemeDark}, nil
		})

	w := f.do(http.MethodPatch, "/api/v1/me", "user-token", map[string]string{"theme": "dark"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decodeData(t, w)["theme"])
}

func TestProfile_UpdatePreferences_InvalidTheme(t *testing.T) {
	f := newRouterFixture(t, false)

	w := f.do(http.MethodPatch, "/api/v1/me", "user-token", map[string]string{"theme": "neon"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_AddPaymentMethod(t *testing.T) {
	f := newRouterFixture(t, false)
	f.profile.EXPECT().AddPaymentMethod(gomock.Any(), testUserID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req ports.PaymentMethodRequest) (*domain.PaymentMethod, error) {
			assert.Equal(t, domain.PaymentDebitCard, req.Type)
			assert.Equal(t, domain.CardVisa, req.CardType)
			return &domain.PaymentMethod{ID: "pm-1", Type: req.Type, CardLast4: "4242"}, nil
		})

	w := f.do(http.MethodPost, "/api/v1/me/payment-methods", "user-token", map[string]interface{}{
		"type": "debit_card", "card_number": "4242424242424242", "card_type": "visa", "cvv": "123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "4242", decodeData(t, w)["card_last4"])
}

func TestProfile_RemovePaymentMethod(t *testing.T) {
	f := newRouterFixture(t, false)
	f.profile.EXPECT().RemovePaymentMethod(gomock.Any(), testUserID, "pm-1").Return(nil)

	w := f.do(http.MethodDelete, "/api/v1/me/payment-methods/pm-1", "user-token", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProfile_CreateAlert(t *testing.T) {
	f := newRouterFixture(t, false)
	f.alerts.EXPECT().Create(gomock.Any(), testUserID, gomock.Any()).
		DoAndReturn(func(_ context.Context, userID string, req ports.AlertRequest) (*domain.PriceAlert, error) {
			assert.Equal(t, domain.CoinBTC, req.CoinID)
			assert.Equal(t, domain.AlertAbove, req.Condition)
			return &domain.PriceAlert{ID: "al-1", UserID: userID, CoinID: req.CoinID, Condition: req.Condition, Active: true}, nil
		})

	w := f.do(http.MethodPost, "/api/v1/me/alerts", "user-token", map[string]string{
		"coin": "btc", "target_price": "50000", "condition": "above",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "al-1", decodeData(t, w)["id"])
}

func TestProfile_CreateAlert_UnknownCoin(t *testing.T) {
	f := newRouterFixture(t, false)

	w := f.do(http.MethodPost, "/api/v1/me/alerts", "user-token", map[string]string{
		"coin": "ADA", "target_price": "1", "condition": "above",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_DeleteAlert_NotFound(t *testing.T) {
	f := newRouterFixture(t, false)
	f.alerts.EXPECT().Delete(gomock.Any(), testUserID, "al-9").Return(apperror.ErrNotFound("alert"))

	w := f.do(http.MethodDelete, "/api/v1/me/alerts/al-9", "user-token", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Admin routes ---

func TestAdmin_ListUsers(t *testing.T) {
	f := newRouterFixture(t, false)
	f.users.EXPECT().ListUsers(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
			require.NotNil(t, params.Role)
			assert.Equal(t, domain.RoleUser, *params.Role)
			assert.Equal(t, "alice", params.Search)
			return []domain.User{{ID: testUserID}}, 1, nil
		})

	w := f.do(http.MethodGet, "/api/v1/admin/users?role=USER&search=alice", "admin-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeData(t, w)["total"])
}

func TestAdmin_CreateUser_DefaultsToUserRole(t *testing.T) {
	f := newRouterFixture(t, false)
	f.users.EXPECT().CreateUser(gomock.Any(), ports.CreateUserRequest{
		Email: "new@jetwallet.io", Password: "password123", Role: domain.RoleUser,
	}).Return(&domain.User{ID: "u-2", Email: "new@jetwallet.io", Role: domain.RoleUser}, nil)

	w := f.do(http.MethodPost, "/api/v1/admin/users", "admin-token", map[string]string{
		"email": "new@jetwallet.io", "password": "password123",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAdmin_UpdateUser(t *testing.T) {
	f := newRouterFixture(t, false)
	f.users.EXPECT().UpdateUser(gomock.Any(), testUserID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, patch ports.UserPatch) (*domain.User, error) {
			require.NotNil(t, patch.AccountLocked)
			assert.False(t, *patch.AccountLocked)
			assert.Nil(t, patch.Email)
			return &domain.User{ID: testUserID}, nil
		})

	w := f.do(http.MethodPatch, "/api/v1/admin/users/"+testUserID, "admin-token", map[string]bool{"account_locked": false})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_DeleteSelf(t *testing.T) {
	f := newRouterFixture(t, false)
	f.users.EXPECT().DeleteUser(gomock.Any(), adminID, adminID).Return(apperror.ErrCannotDeleteSelf())

	w := f.do(http.MethodDelete, "/api/v1/admin/users/"+adminID, "admin-token", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USR_003", decodeErrorCode(t, w))
}

func TestAdmin_Impersonate(t *testing.T) {
	f := newRouterFixture(t, false)
	f.users.EXPECT().Impersonate(gomock.Any(), adminID, testUserID).Return(&ports.Session{
		User:      &domain.User{ID: testUserID},
		Token:     "impersonation-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)

	w := f.do(http.MethodPost, "/api/v1/admin/users/"+testUserID+"/impersonate", "admin-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "impersonation-token", decodeData(t, w)["token"])
}

func TestAdmin_ReplaceHoldings(t *testing.T) {
	f := newRouterFixture(t, false)
	f.wallet.EXPECT().ReplaceHoldings(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.HoldingsRequest) (*domain.WalletState, error) {
			assert.Equal(t, adminID, req.ActorID)
			assert.Equal(t, testUserID, req.UserID)
			require.Len(t, req.Wallets, 1)
			assert.True(t, req.Wallets[0].Balance.Equal(decimal.NewFromInt(2)))
			state := domain.NewWalletState()
			state.Wallets = req.Wallets
			return &state, nil
		})

	w := f.do(http.MethodPut, "/api/v1/admin/users/"+testUserID+"/financials", "admin-token", map[string]interface{}{
		"wallets": []map[string]string{{"coin_id": "BTC", "balance": "2"}},
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_SettleWithdrawal(t *testing.T) {
	f := newRouterFixture(t, false)
	f.wallet.EXPECT().SettleWithdrawal(gomock.Any(), ports.SettleRequest{
		ActorID:       adminID,
		UserID:        testUserID,
		TransactionID: "tx-1",
		Status:        domain.TransactionStatusFailed,
	}).Return(&domain.Transaction{ID: "tx-1", Status: domain.TransactionStatusFailed}, nil)

	w := f.do(http.MethodPost, "/api/v1/admin/users/"+testUserID+"/transactions/tx-1/settle", "admin-token",
		map[string]string{"status": "FAILED"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FAILED", decodeData(t, w)["status"])
}

func TestAdmin_SettleWithdrawal_InvalidStatus(t *testing.T) {
	f := newRouterFixture(t, false)

	w := f.do(http.MethodPost, "/api/v1/admin/users/"+testUserID+"/transactions/tx-1/settle", "admin-token",
		map[string]string{"status": "PENDING"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_GetWallet(t *testing.T) {
	f := newRouterFixture(t, false)
	state := domain.NewWalletState()
	f.wallet.EXPECT().GetState(gomock.Any(), testUserID).Return(&state, nil)

	w := f.do(http.MethodGet, "/api/v1/admin/users/"+testUserID+"/wallet", "admin-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}
