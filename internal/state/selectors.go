package state

import "math"

// Selectors are read-only projections over the composed state. They carry no
// caching and always recompute from the receiver.

// ClosestMarker is the result of a nearest-marker lookup. Marker is nil and
// Distance is +Inf when no marker qualifies.
type ClosestMarker struct {
	Marker   *Marker
	Distance float64
}

// SelectViewport returns the current viewport, {nil, nil} before
// initialization.
func (s State) SelectViewport() Viewport {
	return s.View.Viewport
}

// SelectClosestMarker returns the marker nearest to the timestamp among the
// markers at the given position. Markers without a position id are
// considered to belong to every position.
func (s State) SelectClosestMarker(timestamp float64, positionID string) ClosestMarker {
	best := ClosestMarker{Distance: math.Inf(1)}
	for i := range s.Markers.Items {
		m := s.Markers.Items[i]
		if m.PositionID != "" && m.PositionID != positionID {
			continue
		}
		d := math.Abs(m.Timestamp - timestamp)
		if d < best.Distance {
			clone := m
			best = ClosestMarker{Marker: &clone, Distance: d}
		}
	}
	return best
}

// SelectRegionAt returns the region at the given position whose interval
// contains the timestamp.
func (s State) SelectRegionAt(timestamp float64, positionID string) (Region, bool) {
	for _, r := range s.Regions.Items {
		if r.PositionID == positionID && r.Contains(timestamp) {
			return r, true
		}
	}
	return Region{}, false
}

// SelectComparison returns the comparison sub-state.
func (s State) SelectComparison() Comparison {
	return s.View.Comparison
}

// SelectEffectiveOffset returns the combined chart and audio alignment shift
// for a position.
func (s State) SelectEffectiveOffset(positionID string) float64 {
	return s.View.EffectiveOffset(positionID)
}

// SelectedMarker returns the currently selected marker, if any.
func (s State) SelectedMarker() (Marker, bool) {
	if s.Markers.SelectedID == 0 {
		return Marker{}, false
	}
	return s.Markers.ByID(s.Markers.SelectedID)
}

// SelectedRegion returns the currently selected region, if any.
func (s State) SelectedRegion() (Region, bool) {
	if s.Regions.SelectedID == 0 {
		return Region{}, false
	}
	return s.Regions.ByID(s.Regions.SelectedID)
}
