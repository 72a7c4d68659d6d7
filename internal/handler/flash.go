package handler

import (
	"net/http"
	"net/url"
	"strings"
)

// flashCookieName はフラッシュメッセージを運ぶCookieの名前。
// 次のページ描画で読み取られ、即座に破棄される。
const flashCookieName = "flash"

// フラッシュ内の複数メッセージの区切り。URLエンコード後の値には現れない。
const flashSeparator = "|"

// setFlash はフラッシュメッセージをCookieに積む。
// 既存のメッセージがあれば末尾に追記する。
func setFlash(w http.ResponseWriter, r *http.Request, message string) {
	messages := peekFlashes(r)
	messages = append(messages, message)

	encoded := make([]string, len(messages))
	for i, m := range messages {
		encoded[i] = url.QueryEscape(m)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    strings.Join(encoded, flashSeparator),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes はフラッシュメッセージを取り出し、Cookieを破棄する。
func popFlashes(w http.ResponseWriter, r *http.Request) []string {
	messages := peekFlashes(r)
	if len(messages) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return messages
}

// peekFlashes はCookieからフラッシュメッセージを復元する。破棄はしない。
func peekFlashes(r *http.Request) []string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	var messages []string
	for _, part := range strings.Split(cookie.Value, flashSeparator) {
		decoded, err := url.QueryUnescape(part)
		if err != nil || decoded == "" {
			continue
		}
		messages = append(messages, decoded)
	}
	return messages
}
