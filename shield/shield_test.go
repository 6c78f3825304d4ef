package shield

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scriptshelf/scriptshelf/kit"
)

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("CSP header missing")
	}
}

func TestTraceID_InjectsContextAndHeader(t *testing.T) {
	var seen string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = kit.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scripts", nil))

	if seen == "" {
		t.Fatal("trace ID not injected into context")
	}
	if len(seen) != 8 {
		t.Errorf("trace ID length: got %d, want 8", len(seen))
	}
	if got := rec.Header().Get("X-Trace-ID"); got != seen {
		t.Errorf("X-Trace-ID header: got %q, want %q", got, seen)
	}
}

func TestMaxJSONBody_CapsJSON(t *testing.T) {
	h := MaxJSONBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, err := r.Body.Read(buf)
		if err == nil {
			// First read may succeed within the cap; a second must fail.
			_, err = r.Body.Read(buf)
		}
		if err == nil {
			t.Error("expected body read beyond cap to fail")
		}
		w.WriteHeader(200)
	}))

	body := strings.NewReader(strings.Repeat("x", 64))
	req := httptest.NewRequest("POST", "/api/scripts", body)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func TestHeadToGet(t *testing.T) {
	var method string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("HEAD", "/", nil))
	if method != "GET" {
		t.Errorf("method: got %q, want GET", method)
	}
}
