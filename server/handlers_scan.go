package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/WorldObservationLog/NeuroTools/chat"
	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/telemetry"
	"github.com/WorldObservationLog/NeuroTools/twitchgql"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

var errScannerMissing = errors.New("scanner not configured")

type scanRequest struct {
	VideoID  string   `json:"videoId"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Keywords []string `json:"keywords"`
}

type scanResponse struct {
	ArtifactID string              `json:"artifactId"`
	Retained   int                 `json:"retained"`
	Matches    []chat.ExportRecord `json:"matches"`
}

// HandleScan runs one windowed keyword scan and returns the exported matches.
func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		writeError(w, http.StatusServiceUnavailable, errScannerMissing.Error())
		return
	}
	var body scanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId is required")
		return
	}
	keywords := make([]string, 0, len(body.Keywords))
	for _, k := range body.Keywords {
		keywords = append(keywords, chat.ParseKeywords(k)...)
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "at least one keyword is required")
		return
	}
	window, err := chat.ParseWindow(body.Start, body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.scanner.Scan(r.Context(), vod.ScanRequest{VideoID: body.VideoID, Window: window, Keywords: keywords})
	if err != nil {
		status := scanErrorStatus(err)
		telemetry.LoggerWithCorr(r.Context()).Warn("scan failed",
			slog.String("component", "http"),
			slog.String("video_id", body.VideoID),
			slog.Int("status", status),
			slog.Any("err", err))
		writeError(w, status, err.Error())
		return
	}
	resp := scanResponse{ArtifactID: res.ArtifactID(), Retained: res.Retained, Matches: export.Build(res.Matches, window.StartSeconds)}
	if res.Artifact != nil {
		resp.Matches = res.Artifact.Records
	}
	writeJSON(w, http.StatusOK, resp)
}

func scanErrorStatus(err error) int {
	switch {
	case errors.Is(err, chat.ErrInvalidWindow), errors.Is(err, chat.ErrInvalidClock):
		return http.StatusBadRequest
	case errors.Is(err, twitchgql.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
