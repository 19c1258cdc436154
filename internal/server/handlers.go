package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/acoustio/noisedesk/internal/interchange"
	"github.com/acoustio/noisedesk/internal/session"
	"github.com/acoustio/noisedesk/internal/state"
	"github.com/acoustio/noisedesk/internal/storage"
)

// Handlers contains the HTTP handlers for the control plane.
type Handlers struct {
	session   *session.Session
	codec     *interchange.Codec
	exports   storage.Store
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance. The exports store may be nil,
// in which case export snapshots are returned inline only.
func NewHandlers(sess *session.Session, codec *interchange.Codec, exports storage.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if codec == nil {
		codec = interchange.NewCodec(logger)
	}
	return &Handlers{
		session:   sess,
		codec:     codec,
		exports:   exports,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetState handles GET /state requests.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.State())
}

// DispatchAction handles POST /actions requests: a raw action message from
// the wire vocabulary is decoded and dispatched, and the resulting state
// snapshot is returned.
func (h *Handlers) DispatchAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body", "INVALID_BODY")
		return
	}

	action, err := state.DecodeAction(body)
	if err != nil {
		h.logger.Warn("failed to decode action message",
			slog.String("error", err.Error()),
		)
		if errors.Is(err, state.ErrUnknownActionType) {
			writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_ACTION_TYPE")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid action message", "INVALID_ACTION")
		return
	}

	h.session.Dispatch(action)
	writeJSON(w, http.StatusOK, h.session.State())
}

// Tap handles POST /taps requests: a tap gesture with modifier flags is
// hit-tested by the session and the resulting state snapshot is returned.
func (h *Handlers) Tap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	h.session.HandleTap(session.TapIntent{
		Timestamp:  *req.Timestamp,
		PositionID: req.PositionID,
		ChartName:  req.ChartName,
		Ctrl:       req.Ctrl,
		Shift:      req.Shift,
	})
	writeJSON(w, http.StatusOK, h.session.State())
}

// CreateMarker handles POST /markers requests.
func (h *Handlers) CreateMarker(w http.ResponseWriter, r *http.Request) {
	var req CreateMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	marker, err := h.session.CreateMarker(session.MarkerRequest{
		Timestamp:  req.Timestamp,
		PositionID: req.PositionID,
		Note:       req.Note,
		Color:      req.Color,
	})
	if err != nil {
		if errors.Is(err, session.ErrTimestampUnresolved) {
			writeError(w, http.StatusBadRequest, "no timestamp source available", "TIMESTAMP_UNRESOLVED")
			return
		}
		h.logger.Error("failed to create marker",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create marker", "MARKER_CREATION_FAILED")
		return
	}

	h.logger.Info("marker created",
		slog.Int64("marker_id", marker.ID),
		slog.Float64("timestamp", marker.Timestamp),
		slog.String("position_id", marker.PositionID),
	)
	writeJSON(w, http.StatusCreated, marker)
}

// DeleteMarker handles DELETE /markers/{id} requests.
func (h *Handlers) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, found := h.session.State().Markers.ByID(id); !found {
		writeError(w, http.StatusNotFound, "marker not found", "MARKER_NOT_FOUND")
		return
	}
	h.session.Dispatch(state.RemoveMarker(id))
	w.WriteHeader(http.StatusNoContent)
}

// NudgeMarker handles POST /markers/{id}/nudge requests.
func (h *Handlers) NudgeMarker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req NudgeMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.session.NudgeMarker(id, req.Steps); err != nil {
		if errors.Is(err, session.ErrMarkerNotFound) {
			writeError(w, http.StatusNotFound, "marker not found", "MARKER_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to nudge marker", "MARKER_NUDGE_FAILED")
		return
	}
	marker, _ := h.session.State().Markers.ByID(id)
	writeJSON(w, http.StatusOK, marker)
}

// MarkerMetrics handles POST /markers/{id}/metrics requests.
func (h *Handlers) MarkerMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	metrics, err := h.session.ComputeMarkerMetrics(id)
	if err != nil {
		if errors.Is(err, session.ErrMarkerNotFound) {
			writeError(w, http.StatusNotFound, "marker not found", "MARKER_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute metrics", "METRICS_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// MarkerDetails handles GET /markers/{id}/details requests, returning the
// clipboard-ready multi-line detail block.
func (h *Handlers) MarkerDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st := h.session.State()
	marker, found := st.Markers.ByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "marker not found", "MARKER_NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		Text: interchange.MarkerDetails(marker, positionLabeler(st)),
	})
}

// RegionMetrics handles POST /regions/{id}/metrics requests.
func (h *Handlers) RegionMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	metrics, err := h.session.ComputeRegionMetrics(id)
	if err != nil {
		if errors.Is(err, session.ErrRegionNotFound) {
			writeError(w, http.StatusNotFound, "region not found", "REGION_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute metrics", "METRICS_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// RegionSummary handles GET /regions/{id}/summary requests, returning the
// clipboard-ready one-line summary. Metrics are computed on demand so the
// summary always reflects the currently selected parameter.
func (h *Handlers) RegionSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.session.ComputeRegionMetrics(id); err != nil {
		if errors.Is(err, session.ErrRegionNotFound) {
			writeError(w, http.StatusNotFound, "region not found", "REGION_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute metrics", "METRICS_FAILED")
		return
	}
	st := h.session.State()
	region, _ := st.Regions.ByID(id)
	writeJSON(w, http.StatusOK, SummaryResponse{
		Text: interchange.RegionSummary(region, positionLabeler(st)),
	})
}

// Export handles GET /export requests: both interchange documents are
// rendered, written to the snapshot store when one is configured, and
// returned inline.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	st := h.session.State()

	regionsDoc, err := h.codec.ExportRegions(st.Regions.Items)
	if err != nil {
		h.logger.Error("failed to export regions", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to export regions", "EXPORT_FAILED")
		return
	}
	markersDoc, err := h.codec.ExportMarkers(st.Markers.Items)
	if err != nil {
		h.logger.Error("failed to export markers", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to export markers", "EXPORT_FAILED")
		return
	}

	resp := ExportResponse{Regions: regionsDoc, Markers: markersDoc}
	if h.exports != nil {
		if path, err := h.exports.SaveExport(r.Context(), "regions", bytes.NewReader(regionsDoc)); err != nil {
			h.logger.Error("failed to save regions snapshot", slog.String("error", err.Error()))
		} else {
			resp.RegionsPath = path
		}
		if path, err := h.exports.SaveExport(r.Context(), "markers", bytes.NewReader(markersDoc)); err != nil {
			h.logger.Error("failed to save markers snapshot", slog.String("error", err.Error()))
		} else {
			resp.MarkersPath = path
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Import handles POST /import requests: interchange documents replace the
// corresponding slices, after per-entry validation filtering.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	var resp ImportResponse
	if len(req.Regions) > 0 {
		regions := h.codec.ImportRegions(req.Regions)
		h.session.Dispatch(state.ReplaceRegions(regions))
		resp.RegionsImported = len(regions)
	}
	if len(req.Markers) > 0 {
		markers := h.codec.ImportMarkers(req.Markers)
		h.session.Dispatch(state.ReplaceMarkers(markers))
		resp.MarkersImported = len(markers)
	}

	h.logger.Info("interchange import applied",
		slog.Int("regions", resp.RegionsImported),
		slog.Int("markers", resp.MarkersImported),
	)
	writeJSON(w, http.StatusOK, resp)
}

// ToggleAudio handles POST /audio/toggle requests.
func (h *Handlers) ToggleAudio(w http.ResponseWriter, r *http.Request) {
	var req ToggleAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.session.ToggleAudio(r.Context(), req.PositionID, *req.Play); err != nil {
		h.logger.Error("audio transport command failed",
			slog.String("position_id", req.PositionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "audio transport unreachable", "TRANSPORT_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, h.session.State().Audio)
}

// CycleRate handles POST /audio/rate requests.
func (h *Handlers) CycleRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RateResponse{Rate: h.session.CyclePlaybackRate()})
}

// TransportStatus handles POST /audio/status callbacks from the external
// audio player.
func (h *Handlers) TransportStatus(w http.ResponseWriter, r *http.Request) {
	var status session.TransportStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	h.session.HandleTransportStatus(status)
	w.WriteHeader(http.StatusNoContent)
}

// positionLabeler resolves position ids to their configured titles.
func positionLabeler(st state.State) interchange.RegionLabeler {
	return func(id string) string {
		return st.View.Titles[id]
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id", "INVALID_ID")
		return 0, false
	}
	return id, true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
