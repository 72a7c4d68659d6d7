// Package security はリダイレクト先検証などの安全対策を提供する。
package security

import "net/url"

// IsSafeRedirect はログイン後のリダイレクト先がオープンリダイレクトに
// ならないかを検証する。base（自サイトのURL）と同一ホストかつ
// http/httpsスキームの場合のみ安全とみなす。
// 相対パス（/membersなど）はbase基準で解決されるため安全側に倒れる。
func IsSafeRedirect(base, target string) bool {
	if target == "" {
		return false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return false
	}
	// スキーム相対URL（//evil.example）もここで絶対URLに解決される
	targetURL, err := baseURL.Parse(target)
	if err != nil {
		return false
	}

	if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		return false
	}
	return targetURL.Host == baseURL.Host
}

// SafeRedirectOr はtargetが安全ならそのまま、そうでなければfallbackを返す。
func SafeRedirectOr(base, target, fallback string) string {
	if IsSafeRedirect(base, target) {
		return target
	}
	return fallback
}
