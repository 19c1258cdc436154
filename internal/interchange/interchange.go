// Package interchange serializes annotations to and from the JSON
// interchange format and renders clipboard-ready summary text. Import is
// lenient per entry and strict per document: individually invalid entries
// are filtered out, while a document that does not parse at all yields an
// empty result.
package interchange

import (
	"encoding/json"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/acoustio/noisedesk/internal/state"
)

// RegionEntry is one region in the interchange document.
type RegionEntry struct {
	ID         int64                `json:"id"`
	PositionID string               `json:"positionId" validate:"required"`
	Start      *float64             `json:"start" validate:"required"`
	End        *float64             `json:"end" validate:"required"`
	Note       string               `json:"note,omitempty"`
	Areas      []state.Area         `json:"areas,omitempty"`
	Metrics    *state.RegionMetrics `json:"metrics,omitempty"`
}

// MarkerEntry is one marker in the interchange document.
type MarkerEntry struct {
	ID         int64                `json:"id"`
	PositionID string               `json:"positionId" validate:"required"`
	Timestamp  *float64             `json:"timestamp" validate:"required"`
	Note       string               `json:"note,omitempty"`
	Color      string               `json:"color,omitempty"`
	Metrics    *state.MarkerMetrics `json:"metrics,omitempty"`
}

// Codec converts between store slices and interchange documents.
type Codec struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCodec creates a Codec. A nil logger falls back to slog.Default().
func NewCodec(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{validate: validator.New(), logger: logger}
}

// ExportRegions renders the regions as an ordered JSON array, preserving
// their stored order and attached metrics snapshots.
func (c *Codec) ExportRegions(regions []state.Region) ([]byte, error) {
	entries := make([]RegionEntry, 0, len(regions))
	for _, r := range regions {
		start, end := r.Start, r.End
		entries = append(entries, RegionEntry{
			ID:         r.ID,
			PositionID: r.PositionID,
			Start:      &start,
			End:        &end,
			Note:       r.Note,
			Areas:      r.Areas,
			Metrics:    r.Metrics,
		})
	}
	return json.MarshalIndent(entries, "", "  ")
}

// ExportMarkers renders the markers as an ordered JSON array.
func (c *Codec) ExportMarkers(markers []state.Marker) ([]byte, error) {
	entries := make([]MarkerEntry, 0, len(markers))
	for _, m := range markers {
		ts := m.Timestamp
		entries = append(entries, MarkerEntry{
			ID:         m.ID,
			PositionID: m.PositionID,
			Timestamp:  &ts,
			Note:       m.Note,
			Color:      m.Color,
			Metrics:    m.Metrics,
		})
	}
	return json.MarshalIndent(entries, "", "  ")
}

// ImportRegions parses an interchange document into regions. Entries that
// fail validation are dropped with a log line; a document that is not valid
// JSON yields an empty slice. Imported ids are kept so references survive a
// round trip; the store renumbers on replace only when ids collide with its
// counter.
func (c *Codec) ImportRegions(data []byte) []state.Region {
	var entries []RegionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Error("region import failed: document is not a JSON array",
			slog.String("error", err.Error()),
		)
		return []state.Region{}
	}

	regions := make([]state.Region, 0, len(entries))
	for i, e := range entries {
		if err := c.validate.Struct(e); err != nil {
			c.logger.Warn("region import: dropping invalid entry",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		regions = append(regions, state.Region{
			ID:         e.ID,
			PositionID: e.PositionID,
			Start:      *e.Start,
			End:        *e.End,
			Note:       e.Note,
			Areas:      e.Areas,
			Metrics:    e.Metrics,
		})
	}
	return regions
}

// ImportMarkers parses an interchange document into markers with the same
// filtering rules as ImportRegions.
func (c *Codec) ImportMarkers(data []byte) []state.Marker {
	var entries []MarkerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Error("marker import failed: document is not a JSON array",
			slog.String("error", err.Error()),
		)
		return []state.Marker{}
	}

	markers := make([]state.Marker, 0, len(entries))
	for i, e := range entries {
		if err := c.validate.Struct(e); err != nil {
			c.logger.Warn("marker import: dropping invalid entry",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		markers = append(markers, state.Marker{
			ID:         e.ID,
			PositionID: e.PositionID,
			Timestamp:  *e.Timestamp,
			Note:       e.Note,
			Color:      e.Color,
			Metrics:    e.Metrics,
		})
	}
	return markers
}
