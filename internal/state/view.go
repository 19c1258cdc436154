package state

import "strings"

// OffsetLimitMs bounds chart and audio alignment offsets to one hour either way.
const OffsetLimitMs = 3_600_000

// Mode is the view mode state machine: normal or comparison.
type Mode string

const (
	// ModeNormal is the default single-timeline view.
	ModeNormal Mode = "normal"
	// ModeComparison restricts analysis to a subset of positions and a
	// shared time slice.
	ModeComparison Mode = "comparison"
)

// Viewport is the visible time range in epoch milliseconds. Both bounds are
// nil before initialization; once set, Min <= Max.
type Viewport struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Width returns the viewport width in milliseconds, or false when the
// viewport is not initialized.
func (v Viewport) Width() (float64, bool) {
	if v.Min == nil || v.Max == nil {
		return 0, false
	}
	w := *v.Max - *v.Min
	if w < 0 {
		w = -w
	}
	return w, true
}

// Comparison is the comparison-mode sub-state. IncludedPositions is always a
// subset of the view's available positions.
type Comparison struct {
	IsActive          bool     `json:"isActive"`
	Start             *float64 `json:"start"`
	End               *float64 `json:"end"`
	IncludedPositions []string `json:"includedPositions"`
}

// ViewState holds viewport, per-position alignment offsets and the
// comparison sub-state for the chart views.
type ViewState struct {
	AvailablePositions []string           `json:"availablePositions"`
	Titles             map[string]string  `json:"titles"`
	Viewport           Viewport           `json:"viewport"`
	ChartOffsets       map[string]float64 `json:"chartOffsets"`
	AudioOffsets       map[string]float64 `json:"audioOffsets"`
	Mode               Mode               `json:"mode"`
	Comparison         Comparison         `json:"comparison"`
}

// EffectiveOffset returns a position's combined chart and audio alignment
// shift in milliseconds.
func (v ViewState) EffectiveOffset(positionID string) float64 {
	return v.ChartOffsets[positionID] + v.AudioOffsets[positionID]
}

// HasPosition reports whether the position id is one of the available
// measurement positions.
func (v ViewState) HasPosition(positionID string) bool {
	for _, id := range v.AvailablePositions {
		if id == positionID {
			return true
		}
	}
	return false
}

func defaultViewState() ViewState {
	return ViewState{
		Titles:       map[string]string{},
		ChartOffsets: map[string]float64{},
		AudioOffsets: map[string]float64{},
		Mode:         ModeNormal,
	}
}

func clampOffset(ms float64) float64 {
	if ms > OffsetLimitMs {
		return OffsetLimitMs
	}
	if ms < -OffsetLimitMs {
		return -OffsetLimitMs
	}
	return ms
}

func reduceView(s ViewState, a Action) ViewState {
	switch a.Type {
	case TypeInitialize:
		p, ok := a.Payload.(InitializePayload)
		if !ok {
			return s
		}
		next := defaultViewState()
		next.AvailablePositions = make([]string, 0, len(p.Positions))
		for _, pos := range p.Positions {
			next.AvailablePositions = append(next.AvailablePositions, pos.ID)
			title := strings.TrimSpace(pos.Title)
			if title == "" {
				title = pos.ID
			}
			next.Titles[pos.ID] = title
			next.ChartOffsets[pos.ID] = 0
			next.AudioOffsets[pos.ID] = 0
		}
		return next

	case TypeViewportSet:
		p, ok := a.Payload.(ViewportPayload)
		if !ok {
			return s
		}
		next := s
		if p.Min == nil || p.Max == nil {
			next.Viewport = Viewport{}
			return next
		}
		min, max := *p.Min, *p.Max
		if min > max {
			min, max = max, min
		}
		next.Viewport = Viewport{Min: &min, Max: &max}
		return next

	case TypeChartOffsetSet:
		p, ok := a.Payload.(OffsetPayload)
		if !ok || p.PositionID == "" {
			return s
		}
		next := s
		next.ChartOffsets = cloneOffsets(s.ChartOffsets)
		next.ChartOffsets[p.PositionID] = clampOffset(p.OffsetMs)
		return next

	case TypeAudioOffsetSet:
		p, ok := a.Payload.(OffsetPayload)
		if !ok || p.PositionID == "" {
			return s
		}
		next := s
		next.AudioOffsets = cloneOffsets(s.AudioOffsets)
		next.AudioOffsets[p.PositionID] = clampOffset(p.OffsetMs)
		return next

	case TypeComparisonEntered:
		if s.Mode == ModeComparison {
			return s
		}
		next := s
		next.Mode = ModeComparison
		// Entry resets the time slice and includes every position.
		next.Comparison = Comparison{
			IsActive:          true,
			IncludedPositions: append([]string(nil), s.AvailablePositions...),
		}
		return next

	case TypeComparisonExited:
		if s.Mode == ModeNormal {
			return s
		}
		next := s
		next.Mode = ModeNormal
		next.Comparison = Comparison{}
		return next

	case TypeComparisonRangeSet:
		p, ok := a.Payload.(ComparisonRangePayload)
		if !ok || !s.Comparison.IsActive {
			return s
		}
		next := s
		next.Comparison.Start = p.Start
		next.Comparison.End = p.End
		if p.Start != nil && p.End != nil && *p.Start > *p.End {
			next.Comparison.Start, next.Comparison.End = p.End, p.Start
		}
		return next

	case TypeComparisonPositionToggle:
		p, ok := a.Payload.(PositionPayload)
		if !ok || !s.Comparison.IsActive || !s.HasPosition(p.PositionID) {
			return s
		}
		next := s
		included := make([]string, 0, len(s.Comparison.IncludedPositions))
		removed := false
		for _, id := range s.Comparison.IncludedPositions {
			if id == p.PositionID {
				removed = true
				continue
			}
			included = append(included, id)
		}
		if !removed {
			included = append(included, p.PositionID)
		}
		next.Comparison.IncludedPositions = included
		return next

	default:
		return s
	}
}

func cloneOffsets(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
