package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uguis/meibo/internal/logger"
	"github.com/uguis/meibo/internal/model"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Setup(&buf, "test")

	handler := NewLoggingMiddleware(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/missing", nil)
	ctx := ContextWithPrincipal(req.Context(), model.Principal{UserID: "u1", DisplayName: "うぐいす一号"})
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["method"] != http.MethodGet {
		t.Errorf("method = %v", entry["method"])
	}
	if entry["path"] != "/users/missing" {
		t.Errorf("path = %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, 4xx should log at WARN", entry["level"])
	}
	if entry["user_id"] != "u1" {
		t.Errorf("user_id = %v", entry["user_id"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms should be present")
	}
}

func TestLoggingMiddleware_StatusObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Setup(&buf, "test")

	var gotMethod, gotPath string
	var gotStatus int
	observer := func(method, path string, statusCode int) {
		gotMethod = method
		gotPath = path
		gotStatus = statusCode
	}

	handler := NewLoggingMiddleware(log, observer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))

	if gotMethod != http.MethodPost || gotPath != "/login" {
		t.Errorf("observer got %s %s", gotMethod, gotPath)
	}
	if gotStatus != http.StatusOK {
		t.Errorf("observer status = %d, implicit Write should record 200", gotStatus)
	}
}
