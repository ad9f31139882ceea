package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// History handles GET /history.
func (h *AttendanceHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	respondJSON(w, http.StatusOK, records)
}
