package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"creditgw/internal/audit"
)

const defaultLogLimit = 500

// ListCreditLog returns recent audit entries, oldest first. ?limit= (max 2000), ?since=RFC3339.
func ListCreditLog(sink audit.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLogLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		limit = min(limit, audit.MaxEntries)

		var since time.Time
		if v := r.URL.Query().Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				writeFail(w, http.StatusBadRequest, "since must be RFC3339")
				return
			}
			since = t
		}

		entries, err := sink.List(r.Context(), limit, since)
		if err != nil {
			log.Error().Err(err).Msg("credit log list failed")
			writeFail(w, http.StatusInternalServerError, "failed to read credit log")
			return
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries})
	}
}

// ClearCreditLog empties the audit log.
func ClearCreditLog(sink audit.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sink.Clear(r.Context()); err != nil {
			log.Error().Err(err).Msg("credit log clear failed")
			writeFail(w, http.StatusInternalServerError, "failed to clear credit log")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
