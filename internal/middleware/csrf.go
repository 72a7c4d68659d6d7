package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	csrfCookieName = "csrf_token"

	// CSRFFormField はHTMLフォームの隠しフィールド名。
	// テンプレート側は {{.CSRFToken}} をこの名前で埋め込む。
	CSRFFormField = "csrf_token"
)

// CSRFConfig はCSRFミドルウェアの設定。
// SecretはトークンのMAC鍵（SESSION_SECRET）。サブドメイン等から
// 植え付けられた自作Cookieを弾けるよう、トークンは署名付きで発行する。
type CSRFConfig struct {
	Secret       string
	CookieSecure bool
	CookieDomain string
}

// NewCSRFMiddleware はダブルサブミットCookie方式のCSRF対策ミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）はトークンCookieの設定のみを行い、
// 状態変更メソッド（POST等）はフォームの隠しフィールドとCookieの一致、
// および署名の検証を必須とする。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				ensureCSRFCookie(w, r, config)
				next.ServeHTTP(w, r)
				return
			}

			cookieToken, err := r.Cookie(csrfCookieName)
			if err != nil || cookieToken.Value == "" {
				slog.Warn("CSRF validation failed: missing cookie token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			formToken := r.PostFormValue(CSRFFormField)
			if formToken == "" {
				slog.Warn("CSRF validation failed: missing form token",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookieToken.Value), []byte(formToken)) != 1 {
				slog.Warn("CSRF validation failed: token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			if !verifyCSRFToken(cookieToken.Value, config.Secret) {
				slog.Warn("CSRF validation failed: bad token signature",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFTokenFromRequest はテンプレート埋め込み用のCSRFトークンを返す。
// 該当Cookieがない場合は空文字（安全なメソッドのミドルウェアが先に設定する）。
func CSRFTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ensureCSRFCookie はCSRFトークンCookieが未設定または署名不正の場合に
// 発行し直す。設定した場合は同じトークンをリクエスト側にも載せ、
// 同一リクエスト内のテンプレート描画から参照できるようにする。
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, config CSRFConfig) {
	existing, err := r.Cookie(csrfCookieName)
	if err == nil && verifyCSRFToken(existing.Value, config.Secret) {
		return
	}
	if err == nil {
		// 署名不正の古いCookieはリクエストから除去してから差し替える
		dropRequestCookie(r, csrfCookieName)
	}

	token, err := generateCSRFToken(config.Secret)
	if err != nil {
		slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
		return
	}

	cookie := &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   86400, // 24時間
		HttpOnly: false,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
	r.AddCookie(cookie)
}

// generateCSRFToken は「乱数.HMAC」形式の署名付きトークンを生成する。
func generateCSRFToken(secret string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(b)
	return nonce + "." + csrfMAC(nonce, secret), nil
}

// verifyCSRFToken はトークンの署名部を検証する。
func verifyCSRFToken(token, secret string) bool {
	nonce, mac, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(csrfMAC(nonce, secret)))
}

// dropRequestCookie は指定名のCookieをリクエストヘッダーから取り除く。
func dropRequestCookie(r *http.Request, name string) {
	cookies := r.Cookies()
	r.Header.Del("Cookie")
	for _, c := range cookies {
		if c.Name != name {
			r.AddCookie(c)
		}
	}
}

func csrfMAC(nonce, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(nonce))
	return hex.EncodeToString(h.Sum(nil))
}
