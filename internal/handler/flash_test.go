package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlash_RoundTrip(t *testing.T) {
	// 1リクエスト目: メッセージを積む
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	setFlash(rr, req, "ログアウトしました。")

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != flashCookieName {
		t.Fatalf("flash cookie was not set: %v", cookies)
	}

	// 2リクエスト目: 取り出すとCookieが破棄される
	rr2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])

	messages := popFlashes(rr2, req2)
	if len(messages) != 1 || messages[0] != "ログアウトしました。" {
		t.Fatalf("messages = %v", messages)
	}

	var cleared bool
	for _, c := range rr2.Result().Cookies() {
		if c.Name == flashCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("flash cookie was not cleared after pop")
	}
}

func TestFlash_AppendsMultipleMessages(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	setFlash(rr, req, "ひとつめ")

	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	req2.AddCookie(rr.Result().Cookies()[0])
	rr2 := httptest.NewRecorder()
	setFlash(rr2, req2, "ふたつめ")

	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(rr2.Result().Cookies()[0])

	messages := popFlashes(httptest.NewRecorder(), req3)
	if len(messages) != 2 {
		t.Fatalf("messages = %v", messages)
	}
	if messages[0] != "ひとつめ" || messages[1] != "ふたつめ" {
		t.Errorf("messages = %v", messages)
	}
}

func TestFlash_EmptyWithoutCookie(t *testing.T) {
	messages := popFlashes(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if messages != nil {
		t.Errorf("messages = %v, want nil", messages)
	}
}
