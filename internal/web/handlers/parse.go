package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/cache"
)

// maxTextLength bounds a single address
const maxTextLength = 1024

// ParseHandler handles the parsing endpoints
type ParseHandler struct {
	Parsers ParserSource
	Cache   *cache.Cache
	Config  *Config
}

// ParseRequest is the POST body of /api/parse
type ParseRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// ParseResponse is the result of one parse
type ParseResponse struct {
	Input   string           `json:"input"`
	Locale  addrparse.Locale `json:"locale"`
	Kind    addrparse.Kind   `json:"kind"`
	Matched bool             `json:"matched"`
	Record  address.Record   `json:"record"`
	Cached  bool             `json:"cached"`
}

// DetectResponse reports the detected locale
type DetectResponse struct {
	Input  string           `json:"input"`
	Locale addrparse.Locale `json:"locale"`
	Reason addrparse.Reason `json:"reason"`
}

// ShortCodeResponse reports a street type short code
type ShortCodeResponse struct {
	Locale    addrparse.Locale `json:"locale"`
	Word      string           `json:"word"`
	ShortCode string           `json:"short_code"`
}

// Parse handles GET ?text=&locale=&kind= and POST with a JSON body
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON request", http.StatusBadRequest)
			return
		}
	} else {
		query := r.URL.Query()
		req = ParseRequest{Text: query.Get("text"), Locale: query.Get("locale"), Kind: query.Get("kind")}
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		http.Error(w, "Address text required", http.StatusBadRequest)
		return
	}
	if len(req.Text) > maxTextLength {
		http.Error(w, "Address text too long", http.StatusRequestEntityTooLarge)
		return
	}

	kind, err := addrparse.ParseKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, generation := h.Parsers.Snapshot()
	lp, err := p.Resolve(req.Locale, req.Text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := ParseResponse{Input: req.Text, Locale: lp.Locale(), Kind: kind}
	useCache := h.Config.Features.CacheEnabled && h.Cache != nil
	key := cache.Key{Generation: generation, Locale: string(lp.Locale()), Kind: string(kind), Text: req.Text}

	if useCache {
		rec, hit, err := h.Cache.Get(r.Context(), key)
		if err != nil {
			log.Printf("cache get failed: %v", err)
		}
		if hit {
			resp.Record, resp.Matched, resp.Cached = rec, rec != nil, true
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	rec, _, err := p.Parse(kind, string(lp.Locale()), req.Text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Record, resp.Matched = rec, rec != nil

	if useCache {
		if err := h.Cache.Set(r.Context(), key, rec); err != nil {
			log.Printf("cache set failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Detect handles GET ?text=
func (h *ParseHandler) Detect(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		http.Error(w, "Address text required", http.StatusBadRequest)
		return
	}

	locale, reason := h.Parsers.Current().Explain(text)
	writeJSON(w, http.StatusOK, DetectResponse{Input: text, Locale: locale, Reason: reason})
}

// ShortCode handles GET /shortcode/{locale}/{word}
func (h *ParseHandler) ShortCode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	locale, err := address.ParseLocale(vars["locale"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	code, err := h.Parsers.Current().FindStreetTypeShortCode(locale, vars["word"])
	if errors.Is(err, addrparse.ErrUnknownLocale) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ShortCodeResponse{Locale: locale, Word: vars["word"], ShortCode: code})
}
