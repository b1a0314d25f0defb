package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jetwallet/internal/adapter/http/dto"
	httpHandler "jetwallet/internal/adapter/http/handler"
	"jetwallet/internal/adapter/scheduler"
	redisStorage "jetwallet/internal/adapter/storage/redis"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/engine"
	"jetwallet/internal/core/ports"
	"jetwallet/internal/service"
	"jetwallet/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail    = "admin@jetwallet.io"
	testAdminPassword = "AdminPass123!"
	testPassword      = "StrongPass123!"
)

// testApp builds the full application stack on in-memory repositories and
// miniredis, exercising the real HTTP layer, middleware, services, engine and
// Redis stores end-to-end.
type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	wallets  *inMemoryWalletRepo
	txs      *inMemoryTransactionRepo
	idemps   *inMemoryIdempotencyRepo
	audits   *inMemoryAuditRepo
	priceJob *scheduler.PriceRefreshJob
	feed     *staticProvider
}

// staticProvider is a price provider whose quotes the test controls.
type staticProvider struct {
	prices map[domain.CoinID]decimal.Decimal
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) Fetch(_ context.Context, _ []domain.CoinID) (map[domain.CoinID]decimal.Decimal, error) {
	out := make(map[domain.CoinID]decimal.Decimal, len(p.prices))
	for k, v := range p.prices {
		out[k] = v
	}
	return out, nil
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	log := logger.New("error", false)

	// Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	blocklist := redisStorage.NewTokenBlocklist(rdb)
	priceCache := redisStorage.NewPriceCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core services with real implementations
	encSvc, err := service.NewAESEncryptionService("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	hashSvc := service.NewArgon2HashServiceWithParams(service.Argon2Params{
		Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16,
	})
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	alertRepo := newInMemoryAlertRepo()
	auditRepo := &inMemoryAuditRepo{}
	transactor := &inMemoryTransactor{}

	auditSvc := service.NewAuditService(auditRepo, log)

	feed := &staticProvider{prices: domain.FallbackPrices()}
	priceSvc := service.NewPriceService([]ports.PriceProvider{feed}, priceCache, nil, 0, log)

	walletSvc := service.NewWalletService(
		engine.New(),
		walletRepo,
		txRepo,
		userRepo,
		idempotencyRepo,
		idempotencyCache,
		transactor,
		priceSvc,
		nil,
		nil,
		auditSvc,
		log,
	)
	authSvc := service.NewAuthService(userRepo, walletRepo, transactor, hashSvc, encSvc, tokenSvc, blocklist, auditSvc, log)
	userSvc := service.NewUserService(userRepo, walletRepo, transactor, hashSvc, encSvc, tokenSvc, auditSvc, log)
	profileSvc := service.NewProfileService(userRepo, auditSvc, log)
	alertSvc := service.NewAlertService(alertRepo, nil, nil, auditSvc, log)
	reportingSvc := service.NewReportingService(txRepo, walletRepo, priceSvc)

	_, err = userSvc.EnsureAdmin(context.Background(), testAdminEmail, testAdminPassword)
	require.NoError(t, err)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		ReportingSvc:   reportingSvc,
		ProfileSvc:     profileSvc,
		AlertSvc:       alertSvc,
		UserSvc:        userSvc,
		PriceSvc:       priceSvc,
		TokenSvc:       tokenSvc,
		Blocklist:      blocklist,
		RateLimiter:    rateLimitStore,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	return &testApp{
		server:   httptest.NewServer(router),
		redis:    mr,
		wallets:  walletRepo,
		txs:      txRepo,
		idemps:   idempotencyRepo,
		audits:   auditRepo,
		priceJob: scheduler.NewPriceRefreshJob(priceSvc, alertSvc, time.Second, log),
		feed:     feed,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// do sends a JSON request and returns the response with its body read.
func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeData[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope), string(raw))
	return envelope.Data
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.ErrorCode
}

func balanceOf(state domain.WalletState, coin domain.CoinID) decimal.Decimal {
	for _, w := range state.Wallets {
		if w.CoinID == coin {
			return w.Balance
		}
	}
	return decimal.Zero
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterSeedsWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	reg := decodeData[dto.RegisterResponse](t, raw)
	assert.NotEmpty(t, reg.Token)
	assert.Len(t, reg.SeedPhrase, 12)
	require.NotNil(t, reg.User)

	stored, err := app.wallets.Get(context.Background(), reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	token := login(t, app, "alice@example.com", testPassword)
	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	state := decodeData[domain.WalletState](t, raw)
	assert.Len(t, state.Wallets, 6)
	assert.Empty(t, state.Transactions)
	assert.Equal(t, "0.5", balanceOf(state, domain.CoinBTC).String())
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	register(t, app, "bob@example.com")

	resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_001", errorCode(t, raw))
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	register(t, app, "carol@example.com")

	resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "Carol@Example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "AUTH_002", errorCode(t, raw))
}

func TestIntegration_LogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "dave@example.com")

	resp, _ := app.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw := app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_003", errorCode(t, raw))
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.do(t, http.MethodGet, "/api/v1/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/api/v1/wallet", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_WalletCommands(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "erin@example.com")

	// Buy
	resp, raw := app.do(t, http.MethodPost, "/api/v1/wallet/buy", token, map[string]string{
		"coin": "btc", "amount": "0.1", "usd_value": "4325",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	result := decodeData[ports.ExecuteResult](t, raw)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, domain.TransactionStatusCompleted, result.Transactions[0].Status)
	assert.Equal(t, "0.6", balanceOf(result.State, domain.CoinBTC).String())

	// Swap records two legs
	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/swap", token, map[string]any{
		"from": map[string]string{"coin": "ETH", "amount": "1", "usd_value": "2580"},
		"to":   map[string]string{"coin": "USDT", "amount": "2580", "usd_value": "2580"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	result = decodeData[ports.ExecuteResult](t, raw)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, "9", balanceOf(result.State, domain.CoinETH).String())

	// Stake is priced by the oracle
	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/stake", token, map[string]string{
		"coin": "SOL", "amount": "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	result = decodeData[ports.ExecuteResult](t, raw)
	require.Len(t, result.State.Staked, 1)
	assert.True(t, result.Transactions[0].USDValue.IsPositive())

	// Rejections leave state untouched
	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/sell", token, map[string]string{
		"coin": "BTC", "amount": "5", "usd_value": "216250",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "WAL_006", errorCode(t, raw))

	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/buy", token, map[string]string{
		"coin": "DOGE", "amount": "1", "usd_value": "0.08",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "WAL_005", errorCode(t, raw))

	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/mint", token, map[string]string{
		"coin": "BTC", "amount": "1", "usd_value": "100",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "WAL_002", errorCode(t, raw))

	// Journal: 1 buy + 2 swap legs + 1 stake, newest first
	resp, raw = app.do(t, http.MethodGet, "/api/v1/transactions?page=1&page_size=10", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	page := decodeData[struct {
		Items []domain.Transaction `json:"items"`
		Total int64                `json:"total"`
	}](t, raw)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, domain.TransactionTypeStake, page.Items[0].Type)

	resp, raw = app.do(t, http.MethodGet, "/api/v1/transactions?type=swap", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	page = decodeData[struct {
		Items []domain.Transaction `json:"items"`
		Total int64                `json:"total"`
	}](t, raw)
	assert.Equal(t, int64(2), page.Total)

	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	assert.Len(t, state.Transactions, 4)
	assert.Equal(t, "90", balanceOf(state, domain.CoinSOL).String())

	resp, raw = app.do(t, http.MethodGet, "/api/v1/portfolio", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	resp, raw = app.do(t, http.MethodGet, "/api/v1/reports/stats?period=day", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

// TestIntegration_SwapListsInLegFirst checks that the journal returns each
// swap's IN leg ahead of its OUT leg, matching the snapshot order.
func TestIntegration_SwapListsInLegFirst(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "swapper@example.com")

	const swaps = 8
	for i := 0; i < swaps; i++ {
		resp, raw := app.do(t, http.MethodPost, "/api/v1/wallet/swap", token, map[string]any{
			"from": map[string]string{"coin": "ETH", "amount": "0.5", "usd_value": "1290"},
			"to":   map[string]string{"coin": "USDT", "amount": "1290", "usd_value": "1290"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	}

	resp, raw := app.do(t, http.MethodGet, "/api/v1/transactions?type=swap&page_size=50", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	page := decodeData[struct {
		Items []domain.Transaction `json:"items"`
		Total int64                `json:"total"`
	}](t, raw)
	require.Len(t, page.Items, 2*swaps)

	for i := 0; i < len(page.Items); i += 2 {
		in, out := page.Items[i], page.Items[i+1]
		assert.Equal(t, domain.CounterpartyExchange, in.From, "item %d", i)
		assert.Equal(t, "USDT", in.Currency, "item %d", i)
		assert.Equal(t, domain.CounterpartyExchange, out.To, "item %d", i+1)
		assert.Equal(t, "ETH", out.Currency, "item %d", i+1)
		assert.True(t, in.Date.Equal(out.Date), "legs share a timestamp")
	}

	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	require.Len(t, state.Transactions, 2*swaps)
	for i, txn := range state.Transactions {
		assert.Equal(t, txn.ID, page.Items[i].ID, "journal matches snapshot at %d", i)
	}
}

func TestIntegration_IdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "frank@example.com")
	body := map[string]string{"coin": "ETH", "amount": "2", "usd_value": "5160"}

	resp, first := app.do(t, http.MethodPost, "/api/v1/wallet/sell", token, body, httpHandler.HeaderIdempotencyKey, "order-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(first))

	resp, second := app.do(t, http.MethodPost, "/api/v1/wallet/sell", token, body, httpHandler.HeaderIdempotencyKey, "order-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(second))

	a := decodeData[ports.ExecuteResult](t, first)
	b := decodeData[ports.ExecuteResult](t, second)
	require.Len(t, b.Transactions, 1)
	assert.Equal(t, a.Transactions[0].ID, b.Transactions[0].ID)

	resp, raw := app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	assert.Equal(t, "8", balanceOf(state, domain.CoinETH).String())
	assert.Len(t, state.Transactions, 1)

	// The cached response survives in Redis
	assert.NotEmpty(t, app.redis.Keys())
}

func TestIntegration_WithdrawalSettlement(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "grace@example.com")
	userID := currentUserID(t, app, token)
	adminToken := login(t, app, testAdminEmail, testAdminPassword)

	resp, raw := app.do(t, http.MethodPost, "/api/v1/wallet/withdraw", token, map[string]string{
		"asset": "ETH", "amount": "3", "address": "0xabc",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	result := decodeData[ports.ExecuteResult](t, raw)
	require.Len(t, result.Transactions, 1)
	pending := result.Transactions[0]
	assert.Equal(t, domain.TransactionStatusPending, pending.Status)
	assert.Equal(t, "7", balanceOf(result.State, domain.CoinETH).String())

	// Ordinary users cannot settle
	settlePath := fmt.Sprintf("/api/v1/admin/users/%s/transactions/%s/settle", userID, pending.ID)
	resp, _ = app.do(t, http.MethodPost, settlePath, token, map[string]string{"status": "FAILED"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = app.do(t, http.MethodPost, settlePath, adminToken, map[string]string{"status": "FAILED"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	settled := decodeData[domain.Transaction](t, raw)
	assert.Equal(t, domain.TransactionStatusFailed, settled.Status)

	// A settled withdrawal cannot be settled again
	resp, _ = app.do(t, http.MethodPost, settlePath, adminToken, map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	assert.Equal(t, "10", balanceOf(state, domain.CoinETH).String(), "failed withdrawal refunds")

	assert.Contains(t, app.audits.actions(), domain.AuditActionSettle)
}

func TestIntegration_AdminImpersonation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "heidi@example.com")
	userID := currentUserID(t, app, token)
	adminToken := login(t, app, testAdminEmail, testAdminPassword)

	resp, raw := app.do(t, http.MethodPost, "/api/v1/admin/users/"+userID+"/impersonate", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	session := decodeData[dto.SessionResponse](t, raw)
	require.NotEmpty(t, session.Token)

	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/receive", session.Token, map[string]string{
		"coin": "XRP", "amount": "100", "usd_value": "52", "from": "rExternal",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	assert.Equal(t, "10100", balanceOf(state, domain.CoinXRP).String())

	actions := app.audits.actions()
	assert.Contains(t, actions, domain.AuditActionImpersonate)
	assert.Contains(t, actions, domain.AuditActionWalletCommand)
}

func TestIntegration_AdminReplaceHoldings(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "ivan@example.com")
	userID := currentUserID(t, app, token)
	adminToken := login(t, app, testAdminEmail, testAdminPassword)

	resp, raw := app.do(t, http.MethodPut, "/api/v1/admin/users/"+userID+"/financials", adminToken, map[string]any{
		"wallets": []map[string]string{{"coin_id": "BTC", "balance": "2"}},
		"cash":    []map[string]string{{"fiat_id": "USD", "balance": "1000"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = app.do(t, http.MethodPost, "/api/v1/wallet/withdraw", token, map[string]string{
		"asset": "BTC", "amount": "3", "address": "bc1qexternal",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode, string(raw))

	resp, raw = app.do(t, http.MethodGet, "/api/v1/wallet", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeData[domain.WalletState](t, raw)
	assert.Equal(t, "2", balanceOf(state, domain.CoinBTC).String())
	assert.Len(t, state.Wallets, 1)
}

func TestIntegration_PriceAlertFires(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := register(t, app, "judy@example.com")

	resp, raw := app.do(t, http.MethodPost, "/api/v1/me/alerts", token, map[string]string{
		"coin": "btc", "target_price": "50000", "condition": "above",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	app.feed.prices[domain.CoinBTC] = decimal.NewFromInt(51000)
	require.NoError(t, app.priceJob.Run())

	resp, raw = app.do(t, http.MethodGet, "/api/v1/prices/BTC", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	quote := decodeData[dto.PriceResponse](t, raw)
	assert.Equal(t, "51000", quote.Price.String())
	assert.Equal(t, "static", quote.Source)

	resp, raw = app.do(t, http.MethodGet, "/api/v1/me/alerts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	alerts := decodeData[[]domain.PriceAlert](t, raw)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Active)
	assert.NotNil(t, alerts[0].TriggeredAt)
}

func TestIntegration_LoginRateLimited(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	body := map[string]string{"email": "nobody@example.com", "password": "whatever1"}
	// Fixed windows: 25 attempts overflow a window even across a boundary.
	limited := 0
	for i := 0; i < 25; i++ {
		resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		if resp.StatusCode == http.StatusTooManyRequests {
			assert.Equal(t, "RATE_001", errorCode(t, raw))
			limited++
		}
	}
	assert.Positive(t, limited)
}

// --- helpers ---

func register(t *testing.T, app *testApp, email string) string {
	t.Helper()
	resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	return decodeData[dto.RegisterResponse](t, raw).Token
}

func login(t *testing.T, app *testApp, email, password string) string {
	t.Helper()
	resp, raw := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	return decodeData[dto.SessionResponse](t, raw).Token
}

func currentUserID(t *testing.T, app *testApp, token string) string {
	t.Helper()
	resp, raw := app.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	user := decodeData[domain.User](t, raw)
	require.False(t, strings.TrimSpace(user.ID) == "")
	return user.ID
}
