package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignupSuccess()
	c.RecordLoginFailure()
	c.RecordSignupFailure("duplicate")
	c.RecordHTTPStatus(http.StatusFound)

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, want := range []string{
		"meibo_signup_success_total 1",
		"meibo_login_fail_total 1",
		`meibo_signup_fail_total{reason="duplicate"} 1`,
		`meibo_http_status_total{status_code="302"} 1`,
	} {
		if !strings.Contains(bodyStr, want) {
			t.Errorf("response should contain %q", want)
		}
	}
}

func TestNewCollector_RegistersWithoutPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("NewCollector panicked: %v", r)
		}
	}()
	NewCollector(prometheus.NewRegistry())
}
