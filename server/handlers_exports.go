package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/export"
)

type exportSummary struct {
	ID        string      `json:"id"`
	VideoID   string      `json:"videoId,omitempty"`
	Window    chat.Window `json:"window"`
	Keywords  []string    `json:"keywords,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Count     int         `json:"count"`
}

// HandleExportsList returns recent artifacts without their records.
func (h *Handlers) HandleExportsList(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage not configured")
		return
	}
	list, err := h.exports.List(r.Context(), parseIntQuery(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]exportSummary, 0, len(list))
	for _, a := range list {
		out = append(out, exportSummary{
			ID:        a.ID,
			VideoID:   a.VideoID,
			Window:    a.Window,
			Keywords:  a.Keywords,
			CreatedAt: a.CreatedAt,
			Count:     len(a.Records),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExportGet returns one artifact with its records.
func (h *Handlers) HandleExportGet(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusServiceUnavailable, "export storage not configured")
		return
	}
	a, err := h.exports.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, export.ErrNotFound) {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}
