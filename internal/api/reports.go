package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"marketpulse/internal/domain/signal"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// ReportHandler serves the latest stored report of a ticker.
// ?actionable=true filters the records to those carrying a signal.
type ReportHandler struct {
	store signal.ReportStore
	log   *logger.Logger
}

func NewReportHandler(store signal.ReportStore) *ReportHandler {
	return &ReportHandler{store: store, log: logger.Get().Component("report_api")}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.PathValue("ticker")))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	report, err := h.store.GetLatest(r.Context(), ticker)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, "no report for "+ticker)
		return
	case err != nil:
		h.log.Errorw("Failed to load report", "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	if r.URL.Query().Get("actionable") == "true" {
		report.Records = report.Actionable()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
