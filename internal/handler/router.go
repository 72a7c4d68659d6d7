package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uguis/meibo/internal/form"
	"github.com/uguis/meibo/internal/metrics"
	"github.com/uguis/meibo/internal/middleware"
)

// Pinger はヘルスチェックに必要なデータベース接続の部分集合。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	PrincipalResolver middleware.PrincipalResolver
	SessionCookieName string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	Registrar   RegistrarInterface
	AuthConfig  AuthHandlerConfig

	// 会員
	UserService UserServiceInterface
	EmailFinder form.EmailFinder

	// 投稿
	PostService PostServiceInterface

	// 描画・観測
	Renderer  *Renderer
	Collector metrics.MetricsCollector
	Registry  *prometheus.Registry
	DB        Pinger
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Session → CSRF
//
// /healthと/metricsはチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// --- 観測用ルート・静的ファイル（ミドルウェアチェーンの外） ---
	r.Get("/health", NewHealthHandler(deps.DB))
	r.Handle("/static/*", StaticHandler())
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Registry))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Registrar, deps.EmailFinder,
		deps.Renderer, deps.Collector, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService, deps.EmailFinder, deps.Renderer)
	postHandler := NewPostHandler(deps.PostService, deps.Renderer)

	var observer middleware.StatusObserver
	if deps.Collector != nil {
		observer = func(method, path string, statusCode int) {
			deps.Collector.RecordHTTPStatus(statusCode)
		}
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, observer))
		r.Use(middleware.NewSessionMiddleware(deps.PrincipalResolver, deps.SessionCookieName))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// --- 認証不要のルート ---
		// 認証系はIP別レート制限を重ねる
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.CredentialMiddleware())
			}
			r.Get("/signup", authHandler.SignupPage)
			r.Post("/signup", authHandler.Signup)
			r.Get("/login", authHandler.LoginPage)
			r.Post("/login", authHandler.Login)
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireLoginMiddleware())

			r.Get("/", userHandler.Index)
			r.Get("/logout", authHandler.Logout)
			r.Post("/logout", authHandler.Logout)
			r.Get("/user_maintenance", userHandler.Maintenance)

			r.Get("/{userID}/account", userHandler.AccountPage)
			r.Post("/{userID}/account", userHandler.AccountUpdate)

			r.Get("/{postID}/update", postHandler.EditPage)
			r.Post("/{postID}/update", postHandler.Update)
			r.Get("/{postID}/delete", postHandler.Delete)
			r.Post("/{postID}/delete", postHandler.Delete)
		})
	})

	return r
}

// NewHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}
}
