package handler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/uguis/meibo/internal/form"
	"github.com/uguis/meibo/internal/metrics"
	"github.com/uguis/meibo/internal/middleware"
	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
	"github.com/uguis/meibo/internal/security"
	"github.com/uguis/meibo/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, user *model.User, remember bool) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// RegistrarInterface は会員登録に必要なサービスインターフェース。
type RegistrarInterface interface {
	Register(ctx context.Context, reg user.Registration) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL        string
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	SessionMaxAge  int           // セッションCookieの有効期間（秒）
	RememberMaxAge time.Duration // 「ログイン状態を保持する」選択時の有効期間
}

// AuthHandler は会員登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	authService AuthServiceInterface
	registrar   RegistrarInterface
	emailFinder form.EmailFinder
	renderer    *Renderer
	collector   metrics.MetricsCollector
	config      AuthHandlerConfig

	// ログイン失敗時の応答遅延。テストで差し替える。
	failureDelay func()
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	authService AuthServiceInterface,
	registrar RegistrarInterface,
	emailFinder form.EmailFinder,
	renderer *Renderer,
	collector metrics.MetricsCollector,
	config AuthHandlerConfig,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		registrar:   registrar,
		emailFinder: emailFinder,
		renderer:    renderer,
		collector:   collector,
		config:      config,
		failureDelay: func() {
			// 総当たりとタイミング観測を鈍らせるためのランダム遅延
			time.Sleep(time.Duration(100+rand.IntN(200)) * time.Millisecond)
		},
	}
}

// SignupPage は会員登録フォームを表示する。
// GET /signup
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if !principal.IsAnonymous() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	renderPage(w, h.renderer, "signup.html", PageData{
		Title:     "会員登録",
		Principal: principal,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
		Errors:    form.Errors{},
		Form:      &form.SignupForm{Organization: "uguis"},
	})
}

// Signup は会員登録を処理する。
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f := form.NewSignupForm(r.PostForm)
	errs := f.Validate(r.Context(), h.emailFinder)
	if !errs.Valid() {
		h.collector.RecordSignupFailure("validation")
		renderPage(w, h.renderer, "signup.html", PageData{
			Title:     "会員登録",
			Principal: middleware.PrincipalFromContext(r.Context()),
			CSRFToken: middleware.CSRFTokenFromRequest(r),
			Errors:    errs,
			Form:      f,
		})
		return
	}

	_, err := h.registrar.Register(r.Context(), user.Registration{
		Organization: f.Organization,
		DisplayName:  f.DisplayName,
		UserName:     f.UserName,
		Furigana:     f.Furigana,
		Phone:        f.Phone,
		PostCode:     f.PostCode,
		Address:      f.Address,
		Email:        f.Email,
		Password:     f.Password,
		Gender:       f.Gender,
		DateOfBirth:  f.DateOfBirth,
	})
	if err != nil {
		// ベストエフォート検査をすり抜けた重複は一意インデックス違反で返る
		if errors.Is(err, repository.ErrDuplicate) {
			h.collector.RecordSignupFailure("duplicate")
			errs.Add("email", "入力されたメールアドレスは既に登録されています。")
			renderPage(w, h.renderer, "signup.html", PageData{
				Title:     "会員登録",
				Principal: middleware.PrincipalFromContext(r.Context()),
				CSRFToken: middleware.CSRFTokenFromRequest(r),
				Errors:    errs,
				Form:      f,
			})
			return
		}

		// 不正データ・テーブル未作成・不明をそれぞれの提示用エラーに畳む
		appErr := storeAppError(err)
		h.collector.RecordSignupFailure("store")
		slog.Error("signup failed",
			slog.String("error", err.Error()),
			slog.String("code", appErr.Code),
		)
		setFlash(w, r, appErr.Message)
		http.Redirect(w, r, "/signup", http.StatusFound)
		return
	}

	h.collector.RecordSignupSuccess()
	setFlash(w, r, "会員登録が完了しました。ログインしてください。")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginPage はログインフォームを表示する。
// GET /login?next=/user_maintenance
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if !principal.IsAnonymous() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	renderPage(w, h.renderer, "login.html", PageData{
		Title:     "ログイン",
		Principal: principal,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
		Form:      &form.LoginForm{},
		Data:      r.URL.Query().Get("next"),
	})
}

// Login はログインを処理する。
// 失敗時はメールアドレス不明・パスワード不一致を区別しない汎用メッセージを返し、
// ランダム遅延を入れてから応答する。
// POST /login?next=/user_maintenance
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f := form.NewLoginForm(r.PostForm)
	errs := f.Validate(r.Context(), h.emailFinder)
	if !errs.Valid() {
		h.collector.RecordLoginFailure()
		h.failureDelay()
		renderPage(w, h.renderer, "login.html", PageData{
			Title:     "ログイン",
			Principal: middleware.PrincipalFromContext(r.Context()),
			CSRFToken: middleware.CSRFTokenFromRequest(r),
			Flashes:   []string{model.NewInvalidCredentialError().Message},
			Form:      f,
			Data:      r.URL.Query().Get("next"),
		})
		return
	}

	session, err := h.authService.Login(r.Context(), f.User(), f.Remember)
	if err != nil {
		slog.Error("failed to create session", slog.String("error", err.Error()))
		setFlash(w, r, model.NewStoreUnavailableError().Message)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	maxAge := h.config.SessionMaxAge
	if f.Remember {
		maxAge = int(h.config.RememberMaxAge.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	h.collector.RecordLoginSuccess()

	target := security.SafeRedirectOr(h.config.BaseURL, r.URL.Query().Get("next"), "/")
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout はセッションを破棄してログイン画面へ戻す。
// GET, POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.config.CookieName); err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			// 破棄失敗でもCookieは消してログアウト扱いにする
			slog.Error("failed to delete session", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	setFlash(w, r, "ログアウトしました。")
	http.Redirect(w, r, "/login", http.StatusFound)
}
