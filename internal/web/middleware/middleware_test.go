package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(RequestID(r.Context())))
	})
}

func TestAuthentication(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"no key configured", "", "", http.StatusOK},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"wrong header", "secret", "guess", http.StatusUnauthorized},
		{"matching header", "secret", "secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/parse", nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rr := httptest.NewRecorder()
			Authentication(tt.key)(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestLoggingAssignsID(t *testing.T) {
	h := RequestLogging()(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rr.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("request id %q is not a uuid", id)
	}
	if rr.Body.String() != id {
		t.Errorf("context id = %q, header id = %q", rr.Body.String(), id)
	}

	given := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != given {
		t.Errorf("request id = %q, want caller's %q", got, given)
	}
}

func TestCORSPreflight(t *testing.T) {
	rr := httptest.NewRecorder()
	CORS()(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/parse", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}
