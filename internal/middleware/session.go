// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/uguis/meibo/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// principalContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var principalContextKey = contextKey("principal")

// PrincipalResolver はセッションIDから認証主体を解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, sessionID string) (model.Principal, error)
}

// NewSessionMiddleware はHTTP Only CookieからセッションIDを読み取り、
// 認証主体をリクエストコンテキストに注入するミドルウェアを返す。
// Cookieなし・セッション無効・ストア障害のいずれも匿名として続行し、
// アクセス制御は後段のRequireLoginと各ハンドラーに委ねる。
func NewSessionMiddleware(resolver PrincipalResolver, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := model.Principal{}

			if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
				resolved, err := resolver.ResolvePrincipal(r.Context(), cookie.Value)
				if err != nil {
					// ストア障害で全ページを落とさない。匿名として続行する。
					slog.Error("failed to resolve principal",
						slog.String("error", err.Error()),
						slog.String("path", r.URL.Path),
					)
				} else {
					principal = resolved
				}
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireLoginMiddleware は未認証リクエストをログインページへ
// リダイレクトするミドルウェアを返す。元のURLはnextクエリに引き継ぐ。
// SessionMiddlewareの後に配置すること。
func NewRequireLoginMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal.IsAnonymous() {
				target := r.URL.Path
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, "/login?next="+url.QueryEscape(target), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrincipalFromContext はリクエストコンテキストから認証主体を取得する。
// SessionMiddlewareを通過していないコンテキストでは匿名を返す。
func PrincipalFromContext(ctx context.Context) model.Principal {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	if !ok {
		return model.Principal{}
	}
	return principal
}

// ContextWithPrincipal はコンテキストに認証主体を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}
