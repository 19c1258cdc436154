package interchange

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acoustio/noisedesk/internal/state"
)

func TestRegionSummary(t *testing.T) {
	region := state.Region{
		ID:         3,
		PositionID: "P1",
		Start:      50_700_000, // 14:05:00 UTC
		End:        51_600_000, // 14:20:00 UTC
		Metrics: &state.RegionMetrics{
			LAeq:          ptr(65.72),
			LAFMax:        ptr(71.31),
			LA90:          ptr(52.08),
			LA90Available: true,
			Parameter:     "LAeq",
		},
	}
	labels := map[string]string{"P1": "Roadside"}

	got := RegionSummary(region, func(id string) string { return labels[id] })

	assert.Equal(t, "Region 3, Roadside, 14:05:00–14:20:00, 15m0s, LAeq 65.7 dB, LAF90 52.1, LAFmax 71.3 dB", got)
}

func TestRegionSummary_OverviewResolutionOmitsLA90(t *testing.T) {
	region := state.Region{
		ID: 1, PositionID: "P2", Start: 0, End: 60_000,
		Metrics: &state.RegionMetrics{
			LAeq:           ptr(55.0),
			LAFMax:         ptr(60.0),
			DataResolution: state.ResolutionOverview,
			Parameter:      "LAeq",
		},
	}

	got := RegionSummary(region, nil)

	assert.Contains(t, got, "LAF90 n/a")
	assert.Contains(t, got, "Region 1, P2,", "falls back to the position id without a labeler")
}

func TestRegionSummary_NoMetrics(t *testing.T) {
	got := RegionSummary(state.Region{ID: 9, PositionID: "P1", Start: 0, End: 1000}, nil)

	assert.Contains(t, got, "LAeq n/a, LAF90 n/a, LAFmax n/a")
}

func TestMarkerDetails(t *testing.T) {
	marker := state.Marker{
		ID: 4, PositionID: "P1", Timestamp: 50_700_000, Note: "impulse event",
		Metrics: &state.MarkerMetrics{
			Parameter: "LAeq",
			Positions: map[string]state.PositionMetrics{
				"P2": {Broadband: ptr(48.91), Parameter: "LAeq"},
				"P1": {
					Broadband: ptr(63.24),
					Parameter: "LAeq",
					Spectrum: &state.Spectrum{
						Labels: []string{"63 Hz", "125 Hz", "250 Hz"},
						Values: []*float64{ptr(60), ptr(55), ptr(50)},
					},
				},
			},
		},
	}
	labels := map[string]string{"P1": "Roadside", "P2": "Facade"}

	got := MarkerDetails(marker, func(id string) string { return labels[id] })

	lines := strings.Split(got, "\n")
	assert.Equal(t, "Marker Details", lines[0])
	assert.Contains(t, got, "Time: 14:05:00")
	assert.Contains(t, got, "Note: impulse event")
	assert.Contains(t, got, "Parameter: LAeq")
	assert.Contains(t, got, " - Roadside: 63.2 dB")
	assert.Contains(t, got, " - Facade: 48.9 dB")
	assert.Contains(t, got, " - Roadside: 3 bands")
	assert.NotContains(t, got, "Facade: 0 bands", "positions without a spectrum are skipped")

	// Position order follows sorted ids, P1 before P2.
	assert.Less(t, strings.Index(got, "Roadside: 63.2"), strings.Index(got, "Facade: 48.9"))
}

func TestMarkerDetails_NoMetrics(t *testing.T) {
	got := MarkerDetails(state.Marker{ID: 1, Timestamp: 0}, nil)

	assert.Contains(t, got, "No metrics computed")
}
