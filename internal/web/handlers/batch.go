package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/batch"
)

// maxBatchBytes bounds an uploaded CSV
const maxBatchBytes = 8 << 20

// BatchHandler parses an uploaded CSV
type BatchHandler struct {
	Parsers ParserSource
	Config  *Config
}

// Process handles POST /batch?column=&kind=&locale= with a CSV body and
// answers with the annotated CSV
func (h *BatchHandler) Process(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.BatchEnabled {
		http.Error(w, "Batch feature disabled", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	kind, err := addrparse.ParseKind(query.Get("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bp := batch.NewBatchProcessor(h.Parsers.Current(), nil, batch.Options{
		Column:  query.Get("column"),
		Kind:    kind,
		Locale:  query.Get("locale"),
		Workers: 4,
	})

	var out bytes.Buffer
	body := http.MaxBytesReader(w, r.Body, maxBatchBytes)
	stats, err := bp.Process(r.Context(), false, "api", body, &out)
	if errors.Is(err, batch.ErrColumnNotFound) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Invalid CSV: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="parsed-`+stats.RunID.String()+`.csv"`)
	w.Header().Set("X-Run-ID", stats.RunID.String())
	w.Header().Set("X-Parsed", strconv.Itoa(stats.ParsedCount))
	w.Header().Set("X-Unmatched", strconv.Itoa(stats.UnmatchedCount))
	w.Header().Set("X-Errors", strconv.Itoa(stats.ErrorCount))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}
