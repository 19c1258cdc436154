package state

// Resolution identifies which dataset fed a metrics computation.
type Resolution string

const (
	// ResolutionLog means the high-resolution time series was used.
	ResolutionLog Resolution = "log"
	// ResolutionOverview means the lower-resolution series was used.
	ResolutionOverview Resolution = "overview"
	// ResolutionNone means no in-window data was available.
	ResolutionNone Resolution = "none"
)

// Spectrum is a per-band spectral snapshot. Values are paired with Labels by
// index; a nil value marks a band with no usable data.
type Spectrum struct {
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

// RegionMetrics is the cached metrics snapshot attached to a region.
// Parameter records which broadband parameter the snapshot was computed for;
// snapshots computed for a different parameter are recomputed, not reused.
type RegionMetrics struct {
	LAeq           *float64   `json:"laeq"`
	LAFMax         *float64   `json:"lafmax"`
	LA90           *float64   `json:"la90"`
	LA90Available  bool       `json:"la90Available"`
	DataResolution Resolution `json:"dataResolution"`
	Spectrum       Spectrum   `json:"spectrum"`
	DurationMs     float64    `json:"durationMs"`
	Parameter      string     `json:"parameter"`
}

// PositionMetrics is one position's contribution to a marker snapshot: the
// broadband level at the marker timestamp plus the spectral column there.
type PositionMetrics struct {
	Broadband *float64  `json:"broadband"`
	Parameter string    `json:"parameter"`
	Spectrum  *Spectrum `json:"spectrum,omitempty"`
}

// MarkerMetrics is the cached metrics snapshot attached to a marker, keyed
// by position id.
type MarkerMetrics struct {
	Parameter string                     `json:"parameter"`
	Positions map[string]PositionMetrics `json:"positions"`
}
