package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionValidator  middleware.SessionValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// 管理者
	AdminService AdminServiceInterface

	// 配達員
	RiderService   RiderServiceInterface
	ProfileService ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Metrics → Logging → SecurityHeaders → CORS
//
// クライアントIPはRemoteAddrのみから取得し、X-Forwarded-For等の転送ヘッダーは信用しない。
//
// /admin/* と /rider/* はさらに Auth → RateLimit(General) → RequireRole を通過する。
// 認証後に制限することで、ユーザー単位でレートを数える。
// /auth/google-login はIP単位で全般とログイン専用の両方の制限を受ける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authMW := middleware.NewAuthMiddleware(deps.SessionValidator)

	authHandler := NewAuthHandler(deps.AuthService, collector)
	adminHandler := NewAdminHandler(deps.AdminService)
	riderHandler := NewRiderHandler(deps.RiderService, deps.ProfileService)

	// --- 運用エンドポイント（レート制限なし） ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:    "NOT_FOUND",
			Message: "Route not found",
		})
	})

	general := func(next http.Handler) http.Handler { return next }
	login := general
	if deps.RateLimiter != nil {
		general = deps.RateLimiter.GeneralMiddleware()
		login = deps.RateLimiter.LoginMiddleware()
	}

	// 認証ルート
	r.Route("/auth", func(r chi.Router) {
		r.With(general, login).Post("/google-login", authHandler.GoogleLogin)
		r.With(authMW, general).Get("/me", authHandler.Me)
	})

	// 管理者ルート
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW)
		r.Use(general)
		r.Use(middleware.RequireRole(model.RoleAdmin))

		r.Get("/users", adminHandler.ListUsers)
		r.Get("/riders", adminHandler.ListRiders)
		r.Patch("/users/{id}/role", adminHandler.UpdateRole)
		r.Patch("/users/{id}/approval", adminHandler.UpdateApproval)
		r.Get("/dashboard", adminHandler.Dashboard)
	})

	// 配達員ルート
	r.Route("/rider", func(r chi.Router) {
		r.Use(authMW)
		r.Use(general)
		r.Use(middleware.RequireRole(model.RoleRider))

		r.Get("/my-orders", riderHandler.MyOrders)
		r.Get("/statistics", riderHandler.Statistics)
		r.Patch("/profile", riderHandler.UpdateProfile)
	})

	return r
}
