package handler

import (
	"jetwallet/internal/adapter/http/middleware"
	"jetwallet/internal/adapter/metrics"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	ReportingSvc   ports.ReportingService
	ProfileSvc     ports.ProfileService
	AlertSvc       ports.AlertService
	UserSvc        ports.UserService
	PriceSvc       ports.PriceService
	TokenSvc       ports.TokenService
	Blocklist      ports.TokenBlocklist // nil = revocation not checked
	RateLimiter    middleware.Limiter   // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Metrics        *metrics.Metrics // nil = metrics disabled
	MetricsPath    string
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(middleware.AuditContext())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, deps.Metrics.Handler())
	}

	// Health check (deep: verifies every registered dependency)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if a limiter is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Blocklist, deps.Logger)

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/logout", jwtAuth, authHandler.Logout)
	}

	marketHandler := NewMarketHandler(deps.PriceSvc)
	v1.GET("/prices", rl("prices"), marketHandler.ListPrices)
	v1.GET("/prices/:coin", rl("prices"), marketHandler.GetPrice)
	v1.GET("/assets", rl("prices"), marketHandler.ListAssets)

	// --- Wallet (JWT) ---
	walletHandler := NewWalletHandler(deps.WalletSvc, deps.ReportingSvc)
	authed := v1.Group("", jwtAuth)
	{
		authed.GET("/wallet", rl("wallet_reads"), walletHandler.GetState)
		authed.POST("/wallet/:command", rl("wallet_commands"), walletHandler.Execute)
		authed.GET("/transactions", rl("wallet_reads"), walletHandler.ListTransactions)
		authed.GET("/portfolio", rl("wallet_reads"), walletHandler.GetPortfolio)
		authed.GET("/reports/stats", rl("wallet_reads"), walletHandler.GetStats)
	}

	// --- Profile (JWT) ---
	profileHandler := NewProfileHandler(deps.ProfileSvc, deps.AlertSvc)
	me := v1.Group("/me", jwtAuth, rl("profile"))
	{
		me.GET("", profileHandler.GetProfile)
		me.PATCH("", profileHandler.UpdatePreferences)
		me.POST("/payment-methods", profileHandler.AddPaymentMethod)
		me.DELETE("/payment-methods/:id", profileHandler.RemovePaymentMethod)
		me.GET("/alerts", profileHandler.ListAlerts)
		me.POST("/alerts", profileHandler.CreateAlert)
		me.DELETE("/alerts/:id", profileHandler.DeleteAlert)
	}

	// --- Administration (JWT + admin role) ---
	adminHandler := NewAdminHandler(deps.UserSvc, deps.WalletSvc)
	admin := v1.Group("/admin", jwtAuth, middleware.RequireRole(domain.RoleAdmin), rl("admin"))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.GET("/users/:id", adminHandler.GetUser)
		admin.PATCH("/users/:id", adminHandler.UpdateUser)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.POST("/users/:id/impersonate", adminHandler.Impersonate)
		admin.GET("/users/:id/wallet", adminHandler.GetWallet)
		admin.PUT("/users/:id/financials", adminHandler.ReplaceHoldings)
		admin.GET("/users/:id/transactions", adminHandler.ListTransactions)
		admin.POST("/users/:id/transactions/:txId/settle", adminHandler.SettleWithdrawal)
	}

	return r
}
