package interchange

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/acoustio/noisedesk/internal/state"
)

// RegionLabeler resolves a position id to its human-readable title.
type RegionLabeler func(positionID string) string

// RegionSummary renders a one-line clipboard summary for a region:
//
//	Region 3, Roadside, 14:05:00–14:20:00, 15m0s, LAeq 65.7 dB, LAF90 52.1, LAFmax 71.3 dB
//
// Metrics that were never computed or are undefined render as "n/a".
func RegionSummary(region state.Region, label RegionLabeler) string {
	positionLabel := region.PositionID
	if label != nil {
		if l := label(region.PositionID); l != "" {
			positionLabel = l
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Region %d, %s, %s–%s, %s",
		region.ID,
		positionLabel,
		clockTime(region.Start),
		clockTime(region.End),
		durationText(region.End-region.Start),
	)

	m := region.Metrics
	if m == nil {
		b.WriteString(", LAeq n/a, LAF90 n/a, LAFmax n/a")
		return b.String()
	}
	fmt.Fprintf(&b, ", LAeq %s dB", levelText(m.LAeq))
	if m.LA90Available {
		fmt.Fprintf(&b, ", LAF90 %s", levelText(m.LA90))
	} else {
		b.WriteString(", LAF90 n/a")
	}
	fmt.Fprintf(&b, ", LAFmax %s dB", levelText(m.LAFMax))
	return b.String()
}

// MarkerDetails renders the multi-line clipboard block for a marker's
// metrics snapshot, with positions listed in sorted order.
func MarkerDetails(marker state.Marker, label RegionLabeler) string {
	var b strings.Builder
	b.WriteString("Marker Details\n")
	fmt.Fprintf(&b, "Time: %s\n", clockTime(marker.Timestamp))
	if marker.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", marker.Note)
	}

	m := marker.Metrics
	if m == nil {
		b.WriteString("No metrics computed")
		return b.String()
	}
	fmt.Fprintf(&b, "Parameter: %s\n", m.Parameter)

	ids := make([]string, 0, len(m.Positions))
	for id := range m.Positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b.WriteString("Broadband Values:\n")
	for _, id := range ids {
		name := id
		if label != nil {
			if l := label(id); l != "" {
				name = l
			}
		}
		fmt.Fprintf(&b, " - %s: %s dB\n", name, levelText(m.Positions[id].Broadband))
	}

	b.WriteString("Spectral Snapshots:")
	for _, id := range ids {
		pos := m.Positions[id]
		if pos.Spectrum == nil {
			continue
		}
		name := id
		if label != nil {
			if l := label(id); l != "" {
				name = l
			}
		}
		fmt.Fprintf(&b, "\n - %s: %d bands", name, len(pos.Spectrum.Values))
	}
	return b.String()
}

// clockTime formats an epoch-milliseconds timestamp as UTC HH:MM:SS.
func clockTime(epochMs float64) string {
	return time.UnixMilli(int64(epochMs)).UTC().Format("15:04:05")
}

// durationText formats a span in milliseconds as a compact duration.
func durationText(ms float64) string {
	d := time.Duration(ms) * time.Millisecond
	return d.Round(time.Second).String()
}

// levelText formats a nullable decibel level with one decimal.
func levelText(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *v)
}
