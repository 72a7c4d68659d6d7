package middleware

import "net/http"

// NewSecurityHeadersMiddleware は全ページ共通のセキュリティヘッダーを付与する。
// 会員名簿はフレーム埋め込みを想定しないためX-Frame-OptionsはDENY固定。
// カメラ等のブラウザ機能も使わないのでPermissions-Policyで明示的に無効化する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			next.ServeHTTP(w, r)
		})
	}
}
