package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/cache"
)

// Config represents the web server configuration (simplified)
type Config struct {
	Features struct {
		CacheEnabled  bool `json:"cache_enabled"`
		BatchEnabled  bool `json:"batch_enabled"`
		ReloadEnabled bool `json:"reload_enabled"`
	} `json:"features"`
}

// ParserSource hands out the parser currently in service. The server swaps
// it on lexicon reload, so handlers fetch it per request. Snapshot also
// reports the generation that cached results are keyed by.
type ParserSource interface {
	Current() *addrparse.Parser
	Snapshot() (*addrparse.Parser, uint64)
}

// APIHandler handles general API endpoints
type APIHandler struct {
	Parsers ParserSource
	Cache   *cache.Cache
	Config  *Config
}

// HealthResponse reports server state
type HealthResponse struct {
	Status  string             `json:"status"`
	Locales []addrparse.Locale `json:"locales"`
	Cache   bool               `json:"cache"`
	Time    time.Time          `json:"time"`
}

// Health reports whether a parser is loaded
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Locales: address.Locales,
		Cache:   h.Cache != nil && h.Config.Features.CacheEnabled,
		Time:    time.Now().UTC(),
	}
	status := http.StatusOK
	if h.Parsers.Current() == nil {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Schema returns the JSON schema of a parsed record
func (h *APIHandler) Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RecordSchema())
}

// RecordSchema reflects the typed record view
func RecordSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(&address.Fields{})
	s.Title = "Parsed address"
	s.Description = "Fields are present only when matched"
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
