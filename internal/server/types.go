// Package server provides the HTTP control plane for the annotation core.
// It includes handlers, middleware, routes, and DTOs separated from domain
// types: action messages and interaction intents come in, state snapshots
// and interchange documents go out. Rendering stays with the external chart
// collaborator.
package server

import "encoding/json"

// TapRequest is the HTTP request body for a tap gesture.
type TapRequest struct {
	// Timestamp is the tapped chart time in epoch milliseconds.
	Timestamp *float64 `json:"timestamp" validate:"required"`
	// PositionID is the measurement position of the tapped chart.
	PositionID string `json:"positionId" validate:"required"`
	// ChartName identifies which chart was tapped.
	ChartName string `json:"chartName"`
	// Ctrl marks a removal gesture.
	Ctrl bool `json:"ctrl"`
	// Shift marks a region-spanning gesture.
	Shift bool `json:"shift"`
}

// CreateMarkerRequest is the HTTP request body for creating a marker.
// All fields are optional; missing ones resolve from the interaction state.
type CreateMarkerRequest struct {
	Timestamp  *float64 `json:"timestamp,omitempty"`
	PositionID string   `json:"positionId,omitempty"`
	Note       string   `json:"note,omitempty"`
	Color      string   `json:"color,omitempty"`
}

// NudgeMarkerRequest is the HTTP request body for a keyboard nudge.
type NudgeMarkerRequest struct {
	// Steps is the number of keyboard steps to move, negative for left.
	Steps int `json:"steps" validate:"required"`
}

// ToggleAudioRequest is the HTTP request body for starting or pausing
// playback.
type ToggleAudioRequest struct {
	PositionID string `json:"positionId" validate:"required"`
	Play       *bool  `json:"play" validate:"required"`
}

// ImportRequest is the HTTP request body for importing an interchange
// document. Either section may be omitted.
type ImportRequest struct {
	Regions json.RawMessage `json:"regions,omitempty"`
	Markers json.RawMessage `json:"markers,omitempty"`
}

// ImportResponse reports how many entries survived import filtering.
type ImportResponse struct {
	RegionsImported int `json:"regionsImported"`
	MarkersImported int `json:"markersImported"`
}

// ExportResponse carries the interchange documents plus where the snapshot
// files were written.
type ExportResponse struct {
	Regions     json.RawMessage `json:"regions"`
	Markers     json.RawMessage `json:"markers"`
	RegionsPath string          `json:"regionsPath,omitempty"`
	MarkersPath string          `json:"markersPath,omitempty"`
}

// SummaryResponse carries clipboard-ready summary text.
type SummaryResponse struct {
	Text string `json:"text"`
}

// RateResponse reports the playback rate after cycling.
type RateResponse struct {
	Rate float64 `json:"rate"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
