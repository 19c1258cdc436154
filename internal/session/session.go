// Package session implements the orchestration layer over the state store:
// read-decide-dispatch operations for tap hit-testing, marker and region
// lifecycle and audio transport synchronization. A Session is the only place
// that consults non-state collaborators (the prepared data cache through the
// analysis engine, and the outbound transport sender).
//
// All dependencies are injected through the constructor and every operation
// runs under the session mutex, so a multi-dispatch business rule (create,
// then select, then attach metrics) completes as one logical turn with no
// interleaved writer observing an intermediate state.
package session

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/acoustio/noisedesk/internal/analysis"
	"github.com/acoustio/noisedesk/internal/state"
	"github.com/acoustio/noisedesk/internal/transport"
)

// Static errors for session operations.
var (
	// ErrStoreRequired is returned when the store dependency is missing.
	ErrStoreRequired = errors.New("session: store is required")
	// ErrEngineRequired is returned when the analysis engine is missing.
	ErrEngineRequired = errors.New("session: analysis engine is required")
	// ErrMarkerNotFound is returned when a marker id does not exist.
	ErrMarkerNotFound = errors.New("session: marker not found")
	// ErrRegionNotFound is returned when a region id does not exist.
	ErrRegionNotFound = errors.New("session: region not found")
	// ErrTimestampUnresolved is returned when no timestamp source is
	// available for marker creation.
	ErrTimestampUnresolved = errors.New("session: marker timestamp could not be resolved")
)

const (
	// minHitThresholdMs is the floor of the tap hit-test threshold.
	minHitThresholdMs = 1000
	// hitThresholdViewportFraction of the viewport width, when wider than
	// the floor, is the hit-test threshold.
	hitThresholdViewportFraction = 0.02
	// minRegionWidthMs is the narrowest region a shift-tap may create.
	minRegionWidthMs = 1
	// rateTolerance is the float equality tolerance for the rate ladder.
	rateTolerance = 0.0001
)

// DefaultPlaybackRates is the default playback-rate ladder.
var DefaultPlaybackRates = []float64{0.5, 1.0, 1.5, 2.0}

// Session sequences multi-step, cross-slice business rules over the store.
type Session struct {
	mu        sync.Mutex
	store     *state.Store
	engine    *analysis.Engine
	sender    transport.Sender
	logger    *slog.Logger
	parameter string
	rates     []float64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParameter sets the initially selected broadband parameter.
func WithParameter(parameter string) Option {
	return func(s *Session) {
		if parameter != "" {
			s.parameter = parameter
		}
	}
}

// WithPlaybackRates sets the playback-rate ladder. Rates are deduplicated
// preserving insertion order and 1.0 is always part of the ladder.
func WithPlaybackRates(rates []float64) Option {
	return func(s *Session) { s.rates = rates }
}

// New creates a Session. The store and the analysis engine are required;
// a nil sender falls back to a no-op transport.
func New(store *state.Store, engine *analysis.Engine, sender transport.Sender, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if sender == nil {
		sender = transport.NopSender{}
	}
	s := &Session{
		store:     store,
		engine:    engine,
		sender:    sender,
		logger:    slog.Default(),
		parameter: analysis.DefaultParameter,
		rates:     DefaultPlaybackRates,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rates = normalizeRates(s.rates)
	return s, nil
}

// normalizeRates deduplicates the ladder preserving insertion order and
// guarantees 1.0 is present.
func normalizeRates(rates []float64) []float64 {
	out := make([]float64, 0, len(rates)+1)
	hasUnity := false
	for _, r := range rates {
		if r <= 0 {
			continue
		}
		dup := false
		for _, seen := range out {
			if math.Abs(seen-r) < rateTolerance {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, r)
		if math.Abs(r-1.0) < rateTolerance {
			hasUnity = true
		}
	}
	if !hasUnity {
		out = append(out, 1.0)
	}
	return out
}

// Dispatch forwards a raw control-plane action through the session so store
// writes keep a single serialized writer.
func (s *Session) Dispatch(a state.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Dispatch(a)
}

// State returns the current state snapshot.
func (s *Session) State() state.State {
	return s.store.State()
}

// SetParameter selects the broadband parameter used for subsequent metrics
// computations. Cached snapshots computed for another parameter are
// recomputed on their next use.
func (s *Session) SetParameter(parameter string) {
	if parameter == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parameter = parameter
}

// Parameter returns the currently selected broadband parameter.
func (s *Session) Parameter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parameter
}

// TapIntent is a raw tap gesture from a chart, before hit-testing.
type TapIntent struct {
	Timestamp  float64 `json:"timestamp"`
	PositionID string  `json:"positionId"`
	ChartName  string  `json:"chartName"`
	Ctrl       bool    `json:"ctrl"`
	Shift      bool    `json:"shift"`
}

// HandleTap hit-tests a tap gesture against markers and regions and
// dispatches the resulting actions. Guard failures degrade to a logged
// no-op; a malformed intent never dispatches anything.
func (s *Session) HandleTap(intent TapIntent) {
	if intent.PositionID == "" {
		s.logger.Warn("tap ignored: missing position id",
			slog.String("chart", intent.ChartName),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()
	threshold := hitThreshold(st)

	// A plain tap near an existing marker selects it and snaps the cursor
	// to the marker's exact timestamp.
	if !intent.Ctrl && !intent.Shift {
		closest := st.SelectClosestMarker(intent.Timestamp, intent.PositionID)
		if closest.Marker != nil && closest.Distance <= threshold {
			s.store.Dispatch(state.SelectMarker(closest.Marker.ID))
			s.store.Dispatch(state.SetTap(closest.Marker.Timestamp, intent.PositionID, intent.ChartName))
			return
		}
	}

	if intent.Shift {
		s.handleShiftTap(st, intent)
		return
	}

	if intent.Ctrl {
		if region, ok := st.SelectRegionAt(intent.Timestamp, intent.PositionID); ok {
			s.removeRegionOrArea(region, intent.Timestamp)
			return
		}
	}

	if region, ok := st.SelectRegionAt(intent.Timestamp, intent.PositionID); ok {
		s.store.Dispatch(state.SelectRegion(region.ID))
	} else {
		s.store.Dispatch(state.ClearRegionSelection())
	}

	if intent.Ctrl {
		// A ctrl interaction never dispatches a plain tap.
		closest := st.SelectClosestMarker(intent.Timestamp, intent.PositionID)
		if closest.Marker != nil && closest.Distance <= threshold {
			s.store.Dispatch(state.RemoveMarker(closest.Marker.ID))
		}
		return
	}

	s.store.Dispatch(state.SetTap(intent.Timestamp, intent.PositionID, intent.ChartName))
}

// handleShiftTap creates a region spanning the previous tap and this one.
func (s *Session) handleShiftTap(st state.State, intent TapIntent) {
	if !st.Interaction.Tap.IsActive {
		s.logger.Debug("shift tap ignored: no active tap to span from")
		return
	}
	start, end := st.Interaction.Tap.Timestamp, intent.Timestamp
	if start > end {
		start, end = end, start
	}
	if end-start < minRegionWidthMs {
		s.logger.Debug("shift tap ignored: region would be narrower than the minimum",
			slog.Float64("width_ms", end-start),
		)
		return
	}
	newID := st.Regions.NextID
	s.store.Dispatch(state.AddRegion(state.RegionAddPayload{
		PositionID: intent.PositionID,
		Start:      start,
		End:        end,
	}))
	s.store.Dispatch(state.SelectRegion(newID))
}

// removeRegionOrArea removes either the whole region or only the sub-area
// hit by the tap: a region with a single sub-area, or a tap landing in a gap
// between sub-areas, removes the whole region.
func (s *Session) removeRegionOrArea(region state.Region, timestamp float64) {
	areas := region.AreaList()
	idx := region.AreaAt(timestamp)
	if len(areas) <= 1 || idx < 0 {
		s.store.Dispatch(state.RemoveRegion(region.ID))
		return
	}
	s.store.Dispatch(state.RemoveRegionArea(region.ID, idx))
}

func hitThreshold(st state.State) float64 {
	if width, ok := st.View.Viewport.Width(); ok {
		if t := width * hitThresholdViewportFraction; t > minHitThresholdMs {
			return t
		}
	}
	return minHitThresholdMs
}

// MarkerRequest describes a marker creation intent. Every field is
// optional; unresolved fields go through the documented precedence chain.
type MarkerRequest struct {
	Timestamp  *float64 `json:"timestamp,omitempty"`
	PositionID string   `json:"positionId,omitempty"`
	Note       string   `json:"note,omitempty"`
	Color      string   `json:"color,omitempty"`
}

// CreateMarker creates a marker, selects it and attaches its metrics
// snapshot, all in one logical turn. The timestamp resolves by precedence
// payload > active tap > viewport midpoint; the position by payload > active
// tap's position > the sole available position when exactly one exists.
func (s *Session) CreateMarker(req MarkerRequest) (state.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()

	timestamp, ok := resolveTimestamp(st, req)
	if !ok {
		s.logger.Error("marker creation failed: no timestamp source available")
		return state.Marker{}, ErrTimestampUnresolved
	}
	positionID := resolvePosition(st, req)

	// The new id is known before the dispatch: the markers counter only
	// advances through this serialized writer.
	newID := st.Markers.NextID
	s.store.Dispatch(state.AddMarker(state.MarkerAddPayload{
		Timestamp:  timestamp,
		PositionID: positionID,
		Note:       req.Note,
		Color:      req.Color,
	}))
	s.store.Dispatch(state.SelectMarker(newID))
	s.attachMarkerMetrics(newID)

	marker, found := s.store.State().Markers.ByID(newID)
	if !found {
		return state.Marker{}, ErrMarkerNotFound
	}
	return marker, nil
}

func resolveTimestamp(st state.State, req MarkerRequest) (float64, bool) {
	if req.Timestamp != nil {
		return *req.Timestamp, true
	}
	if st.Interaction.Tap.IsActive {
		return st.Interaction.Tap.Timestamp, true
	}
	vp := st.View.Viewport
	if vp.Min != nil && vp.Max != nil {
		return (*vp.Min + *vp.Max) / 2, true
	}
	return 0, false
}

func resolvePosition(st state.State, req MarkerRequest) string {
	if req.PositionID != "" {
		return req.PositionID
	}
	if st.Interaction.Tap.IsActive && st.Interaction.Tap.PositionID != "" {
		return st.Interaction.Tap.PositionID
	}
	if len(st.View.AvailablePositions) == 1 {
		return st.View.AvailablePositions[0]
	}
	return ""
}

// NudgeMarker shifts a marker by steps times the keyboard step size,
// clamping the result to the viewport.
func (s *Session) NudgeMarker(id int64, steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()
	marker, found := st.Markers.ByID(id)
	if !found {
		return ErrMarkerNotFound
	}

	next := marker.Timestamp + float64(steps)*st.Interaction.Keyboard.StepMs
	vp := st.View.Viewport
	if vp.Min != nil && next < *vp.Min {
		next = *vp.Min
	}
	if vp.Max != nil && next > *vp.Max {
		next = *vp.Max
	}
	if next == marker.Timestamp {
		return nil
	}
	s.store.Dispatch(state.UpdateMarker(state.MarkerUpdatePayload{ID: id, Timestamp: &next}))
	return nil
}

// ComputeMarkerMetrics attaches a metrics snapshot to the marker, reusing a
// cached snapshot when it was computed for the currently selected parameter.
func (s *Session) ComputeMarkerMetrics(id int64) (*state.MarkerMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marker, found := s.store.State().Markers.ByID(id)
	if !found {
		return nil, ErrMarkerNotFound
	}
	if marker.Metrics != nil && marker.Metrics.Parameter == s.parameter {
		return marker.Metrics, nil
	}
	return s.attachMarkerMetrics(id), nil
}

func (s *Session) attachMarkerMetrics(id int64) *state.MarkerMetrics {
	marker, found := s.store.State().Markers.ByID(id)
	if !found {
		return nil
	}
	metrics := s.engine.MarkerMetrics(marker.Timestamp, s.parameter)
	s.store.Dispatch(state.SetMarkerMetrics(id, metrics))
	return metrics
}

// ComputeRegionMetrics attaches a metrics snapshot to the region, reusing a
// cached snapshot when it was computed for the currently selected parameter.
func (s *Session) ComputeRegionMetrics(id int64) (*state.RegionMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, found := s.store.State().Regions.ByID(id)
	if !found {
		return nil, ErrRegionNotFound
	}
	if region.Metrics != nil && region.Metrics.Parameter == s.parameter {
		return region.Metrics, nil
	}
	metrics := s.engine.RegionMetrics(region, s.parameter)
	s.store.Dispatch(state.SetRegionMetrics(id, metrics))
	return metrics, nil
}
