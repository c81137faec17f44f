package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/web/handlers"
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s, err := NewServer(cfg, func() (*addrparse.Parser, error) {
		return addrparse.New(addrparse.Config{})
	}, nil)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestParseEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("GET auto locale", func(t *testing.T) {
		q := url.Values{"text": {"100 Main St, Springfield, IL 62704"}}
		rr := do(t, s, http.MethodGet, "/api/parse?"+q.Encode(), "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.ParseResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.True(t, resp.Matched)
		assert.Equal(t, addrparse.US, resp.Locale)
		assert.Equal(t, addrparse.KindLocation, resp.Kind)
		assert.Equal(t, "62704", resp.Record["zip"])
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("POST explicit locale and kind", func(t *testing.T) {
		body := `{"text": "PO Box 42, Anytown, TX 75001", "locale": "us", "kind": "po"}`
		rr := do(t, s, http.MethodPost, "/api/parse", body, map[string]string{"Content-Type": "application/json"})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.ParseResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "PO Box", resp.Record["sec_unit_type"])
	})

	t.Run("no match", func(t *testing.T) {
		rr := do(t, s, http.MethodGet, "/api/parse?text=999999", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp handlers.ParseResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.False(t, resp.Matched)
		assert.Nil(t, resp.Record)
	})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"missing text", http.MethodGet, "/api/parse", "", http.StatusBadRequest},
		{"bad kind", http.MethodGet, "/api/parse?text=1+Main+St&kind=geocode", "", http.StatusBadRequest},
		{"bad locale", http.MethodGet, "/api/parse?text=1+Main+St&locale=fr", "", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/parse", "{", http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/api/parse?text=1", "", http.StatusMethodNotAllowed},
		{"wrong method on health", http.MethodPut, "/api/health", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/geocode", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestMethodNotAllowedListsMethods(t *testing.T) {
	s := newTestServer(t, nil)

	rr := do(t, s, http.MethodDelete, "/api/parse", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Allow"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = do(t, s, http.MethodGet, "/api/reload", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
}

func TestDetectAndShortCodeEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	q := url.Values{"text": {"12 chemin du Lac"}}
	rr := do(t, s, http.MethodGet, "/api/detect?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var det handlers.DetectResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&det))
	assert.Equal(t, addrparse.CA, det.Locale)
	assert.Equal(t, addrparse.Reason("french_street_word"), det.Reason)

	rr = do(t, s, http.MethodGet, "/api/shortcode/us/avenue", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var sc handlers.ShortCodeResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sc))
	assert.Equal(t, "AVE", sc.ShortCode)

	rr = do(t, s, http.MethodGet, "/api/shortcode/mx/avenue", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSchemaAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rr := do(t, s, http.MethodGet, "/api/schema", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var schema struct {
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&schema))
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Properties, "short_street_type")
	assert.Contains(t, schema.Properties, "postal_code")

	rr = do(t, s, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Cache)
}

func TestBatchEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	body := "address\n\"100 Main St, Springfield, IL 62704\"\n999999\n"
	rr := do(t, s, http.MethodPost, "/api/batch?column=address", body, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "1", rr.Header().Get("X-Parsed"))
	assert.Equal(t, "1", rr.Header().Get("X-Unmatched"))
	assert.Contains(t, rr.Body.String(), "62704")

	rr = do(t, s, http.MethodPost, "/api/batch?column=missing", body, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	cfg := DefaultConfig()
	cfg.Features.BatchEnabled = false
	disabled := newTestServer(t, cfg)
	rr = do(t, disabled, http.MethodPost, "/api/batch", body, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReload(t *testing.T) {
	var fail atomic.Bool
	s, err := NewServer(DefaultConfig(), func() (*addrparse.Parser, error) {
		if fail.Load() {
			return nil, errors.New("bad tables")
		}
		return addrparse.New(addrparse.Config{})
	}, nil)
	require.NoError(t, err)

	first, gen := s.Snapshot()
	assert.Equal(t, gen, s.ReloadStatus().Generation)

	rr := do(t, s, http.MethodPost, "/api/reload", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	reloaded, nextGen := s.Snapshot()
	assert.NotSame(t, first, reloaded)
	assert.Same(t, reloaded, s.Current())
	assert.Equal(t, gen+1, nextGen)
	assert.Equal(t, 1, s.ReloadStatus().Reloads)
	assert.Equal(t, nextGen, s.ReloadStatus().Generation)

	fail.Store(true)
	require.Error(t, s.Reload(context.Background()))
	kept, keptGen := s.Snapshot()
	assert.Same(t, reloaded, kept)
	assert.Equal(t, nextGen, keptGen)
	assert.Equal(t, "bad tables", s.ReloadStatus().LastError)

	rr = do(t, s, http.MethodGet, "/api/reload/status", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var status handlers.ReloadStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.Equal(t, 1, status.Reloads)
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	s := newTestServer(t, cfg)

	rr := do(t, s, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, s, http.MethodGet, "/api/health", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rr.Code)
}
