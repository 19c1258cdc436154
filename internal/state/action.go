// Package state implements the action-driven state store for the annotation
// core: the closed action vocabulary, one pure reducer per state slice, the
// root reducer with rehydration semantics, the Store (dispatch/subscribe) and
// read-only selectors over the composed state.
//
// All writes go through Store.Dispatch, which serializes reducers so the
// state tree has at most one writer at a time. Reducers are copy-on-write:
// a dispatch either returns a slice value untouched or returns a fresh value
// with fresh backing maps/slices for everything it changed. Nothing already
// published is ever mutated in place.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type identifies an action in the closed vocabulary. The string values are
// the wire form used on the control-plane interface.
type Type string

// Initialization and system actions.
const (
	TypeInitialize Type = "app/initialize"
	TypeRehydrate  Type = "app/rehydrate"
)

// Interaction actions.
const (
	TypeTapSet          Type = "interaction/tapSet"
	TypeTapCleared      Type = "interaction/tapCleared"
	TypeHoverSet        Type = "interaction/hoverSet"
	TypeHoverCleared    Type = "interaction/hoverCleared"
	TypeKeyboardStepSet Type = "interaction/keyboardStepSet"
)

// View actions.
const (
	TypeViewportSet              Type = "view/viewportSet"
	TypeChartOffsetSet           Type = "view/chartOffsetSet"
	TypeAudioOffsetSet           Type = "view/audioOffsetSet"
	TypeComparisonEntered        Type = "view/comparisonEntered"
	TypeComparisonExited         Type = "view/comparisonExited"
	TypeComparisonRangeSet       Type = "view/comparisonRangeSet"
	TypeComparisonPositionToggle Type = "view/comparisonPositionToggled"
)

// Marker actions.
const (
	TypeMarkerAdded            Type = "markers/added"
	TypeMarkerUpdated          Type = "markers/updated"
	TypeMarkerRemoved          Type = "markers/removed"
	TypeMarkersCleared         Type = "markers/cleared"
	TypeMarkerSelected         Type = "markers/selected"
	TypeMarkerSelectionCleared Type = "markers/selectionCleared"
	TypeMarkerNoteSet          Type = "markers/noteSet"
	TypeMarkerMetricsSet       Type = "markers/metricsSet"
	TypeMarkersReplaced        Type = "markers/replaced"
)

// Region actions.
const (
	TypeRegionAdded            Type = "regions/added"
	TypeRegionUpdated          Type = "regions/updated"
	TypeRegionRemoved          Type = "regions/removed"
	TypeRegionsCleared         Type = "regions/cleared"
	TypeRegionSelected         Type = "regions/selected"
	TypeRegionSelectionCleared Type = "regions/selectionCleared"
	TypeRegionNoteSet          Type = "regions/noteSet"
	TypeRegionMetricsSet       Type = "regions/metricsSet"
	TypeRegionAreaRemoved      Type = "regions/areaRemoved"
	TypeRegionsReplaced        Type = "regions/replaced"
)

// Audio actions.
const (
	TypeAudioToggled       Type = "audio/toggled"
	TypeAudioStatusUpdated Type = "audio/statusUpdated"
	TypePlaybackRateSet    Type = "audio/playbackRateSet"
	TypeVolumeBoostSet     Type = "audio/volumeBoostSet"
)

// Action is an immutable message dispatched through the store. Payload shape
// is fixed per Type; reducers ignore actions whose payload does not match.
type Action struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// Position describes one measurement position supplied at initialization.
type Position struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InitializePayload carries the available measurement positions.
type InitializePayload struct {
	Positions []Position `json:"positions"`
}

// CursorPayload positions the tap or hover cursor.
type CursorPayload struct {
	Timestamp   float64 `json:"timestamp"`
	PositionID  string  `json:"positionId"`
	SourceChart string  `json:"sourceChart,omitempty"`
}

// KeyboardStepPayload sets the keyboard nudge step size.
type KeyboardStepPayload struct {
	StepMs float64 `json:"stepMs"`
}

// ViewportPayload sets the visible time range. Nil bounds reset the viewport
// to its uninitialized form.
type ViewportPayload struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// OffsetPayload sets a per-position chart or audio alignment offset.
type OffsetPayload struct {
	PositionID string  `json:"positionId"`
	OffsetMs   float64 `json:"offsetMs"`
}

// ComparisonRangePayload sets the shared comparison time slice.
type ComparisonRangePayload struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// PositionPayload names a single measurement position.
type PositionPayload struct {
	PositionID string `json:"positionId"`
}

// MarkerAddPayload creates a point annotation. The id is assigned by the
// markers reducer from its monotonic counter.
type MarkerAddPayload struct {
	Timestamp  float64 `json:"timestamp"`
	PositionID string  `json:"positionId,omitempty"`
	Note       string  `json:"note,omitempty"`
	Color      string  `json:"color,omitempty"`
}

// MarkerUpdatePayload shallow-merges the non-nil fields into a marker.
type MarkerUpdatePayload struct {
	ID         int64    `json:"id"`
	Timestamp  *float64 `json:"timestamp,omitempty"`
	PositionID *string  `json:"positionId,omitempty"`
	Note       *string  `json:"note,omitempty"`
	Color      *string  `json:"color,omitempty"`
}

// IDPayload references a marker or region by id.
type IDPayload struct {
	ID int64 `json:"id"`
}

// NotePayload sets the free-text note of a marker or region.
type NotePayload struct {
	ID   int64  `json:"id"`
	Note string `json:"note"`
}

// MarkerMetricsPayload attaches a computed metrics snapshot to a marker.
type MarkerMetricsPayload struct {
	ID      int64          `json:"id"`
	Metrics *MarkerMetrics `json:"metrics"`
}

// MarkersReplacePayload replaces the whole marker set (used by import).
type MarkersReplacePayload struct {
	Markers []Marker `json:"markers"`
}

// RegionAddPayload creates a time-interval annotation. Start/end are
// normalized to min/max by the regions reducer.
type RegionAddPayload struct {
	PositionID string  `json:"positionId"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Note       string  `json:"note,omitempty"`
}

// RegionUpdatePayload shallow-merges the non-nil fields into a region.
type RegionUpdatePayload struct {
	ID         int64    `json:"id"`
	PositionID *string  `json:"positionId,omitempty"`
	Start      *float64 `json:"start,omitempty"`
	End        *float64 `json:"end,omitempty"`
	Note       *string  `json:"note,omitempty"`
	Areas      []Area   `json:"areas,omitempty"`
}

// RegionMetricsPayload attaches a computed metrics snapshot to a region.
type RegionMetricsPayload struct {
	ID      int64          `json:"id"`
	Metrics *RegionMetrics `json:"metrics"`
}

// RegionAreaRemovePayload removes one sub-area of a region by index.
type RegionAreaRemovePayload struct {
	ID    int64 `json:"id"`
	Index int   `json:"index"`
}

// RegionsReplacePayload replaces the whole region set (used by import).
type RegionsReplacePayload struct {
	Regions []Region `json:"regions"`
}

// AudioTogglePayload requests play or pause for a position.
type AudioTogglePayload struct {
	PositionID string `json:"positionId"`
	Play       bool   `json:"play"`
}

// AudioStatusPayload carries a status report from the external audio
// transport. Times are expected to be pre-translated by the caller using the
// active position's effective offset.
type AudioStatusPayload struct {
	IsPlaying    bool    `json:"isPlaying"`
	PositionID   string  `json:"positionId"`
	CurrentTime  float64 `json:"currentTime"`
	PlaybackRate float64 `json:"playbackRate"`
}

// PlaybackRatePayload sets the playback rate.
type PlaybackRatePayload struct {
	Rate float64 `json:"rate"`
}

// VolumeBoostPayload toggles the volume boost flag.
type VolumeBoostPayload struct {
	Enabled bool `json:"enabled"`
}

// RehydratePayload carries an externally supplied partial state tree keyed
// by slice name. Each provided slice is merged over that slice's defaults.
type RehydratePayload map[string]json.RawMessage

// Action creators. Creators only shape the payload; validation and guard
// logic live in reducers and session thunks.

// Initialize builds the initialization action for the given positions.
func Initialize(positions []Position) Action {
	return Action{Type: TypeInitialize, Payload: InitializePayload{Positions: positions}}
}

// Rehydrate builds the privileged state rehydration action.
func Rehydrate(snapshot RehydratePayload) Action {
	return Action{Type: TypeRehydrate, Payload: snapshot}
}

// SetTap places the tap cursor.
func SetTap(timestamp float64, positionID, sourceChart string) Action {
	return Action{Type: TypeTapSet, Payload: CursorPayload{Timestamp: timestamp, PositionID: positionID, SourceChart: sourceChart}}
}

// ClearTap deactivates the tap cursor.
func ClearTap() Action { return Action{Type: TypeTapCleared} }

// SetHover places the hover cursor.
func SetHover(timestamp float64, positionID, sourceChart string) Action {
	return Action{Type: TypeHoverSet, Payload: CursorPayload{Timestamp: timestamp, PositionID: positionID, SourceChart: sourceChart}}
}

// ClearHover deactivates the hover cursor.
func ClearHover() Action { return Action{Type: TypeHoverCleared} }

// SetKeyboardStep sets the keyboard nudge step size in milliseconds.
func SetKeyboardStep(stepMs float64) Action {
	return Action{Type: TypeKeyboardStepSet, Payload: KeyboardStepPayload{StepMs: stepMs}}
}

// SetViewport sets the visible time range.
func SetViewport(min, max *float64) Action {
	return Action{Type: TypeViewportSet, Payload: ViewportPayload{Min: min, Max: max}}
}

// SetChartOffset sets a position's chart alignment offset.
func SetChartOffset(positionID string, offsetMs float64) Action {
	return Action{Type: TypeChartOffsetSet, Payload: OffsetPayload{PositionID: positionID, OffsetMs: offsetMs}}
}

// SetAudioOffset sets a position's audio alignment offset.
func SetAudioOffset(positionID string, offsetMs float64) Action {
	return Action{Type: TypeAudioOffsetSet, Payload: OffsetPayload{PositionID: positionID, OffsetMs: offsetMs}}
}

// EnterComparison switches the view into comparison mode.
func EnterComparison() Action { return Action{Type: TypeComparisonEntered} }

// ExitComparison switches the view back to normal mode.
func ExitComparison() Action { return Action{Type: TypeComparisonExited} }

// SetComparisonRange sets the shared comparison time slice.
func SetComparisonRange(start, end *float64) Action {
	return Action{Type: TypeComparisonRangeSet, Payload: ComparisonRangePayload{Start: start, End: end}}
}

// ToggleComparisonPosition includes or excludes a position from comparison.
func ToggleComparisonPosition(positionID string) Action {
	return Action{Type: TypeComparisonPositionToggle, Payload: PositionPayload{PositionID: positionID}}
}

// AddMarker creates a marker; the reducer assigns the next id.
func AddMarker(p MarkerAddPayload) Action { return Action{Type: TypeMarkerAdded, Payload: p} }

// UpdateMarker shallow-merges fields into an existing marker.
func UpdateMarker(p MarkerUpdatePayload) Action { return Action{Type: TypeMarkerUpdated, Payload: p} }

// RemoveMarker deletes a marker by id.
func RemoveMarker(id int64) Action { return Action{Type: TypeMarkerRemoved, Payload: IDPayload{ID: id}} }

// ClearMarkers deletes every marker.
func ClearMarkers() Action { return Action{Type: TypeMarkersCleared} }

// SelectMarker selects a marker by id.
func SelectMarker(id int64) Action {
	return Action{Type: TypeMarkerSelected, Payload: IDPayload{ID: id}}
}

// ClearMarkerSelection clears the marker selection.
func ClearMarkerSelection() Action { return Action{Type: TypeMarkerSelectionCleared} }

// SetMarkerNote sets a marker's note.
func SetMarkerNote(id int64, note string) Action {
	return Action{Type: TypeMarkerNoteSet, Payload: NotePayload{ID: id, Note: note}}
}

// SetMarkerMetrics attaches a metrics snapshot to a marker.
func SetMarkerMetrics(id int64, m *MarkerMetrics) Action {
	return Action{Type: TypeMarkerMetricsSet, Payload: MarkerMetricsPayload{ID: id, Metrics: m}}
}

// ReplaceMarkers replaces the whole marker set.
func ReplaceMarkers(markers []Marker) Action {
	return Action{Type: TypeMarkersReplaced, Payload: MarkersReplacePayload{Markers: markers}}
}

// AddRegion creates a region; the reducer assigns the next id and normalizes
// start/end.
func AddRegion(p RegionAddPayload) Action { return Action{Type: TypeRegionAdded, Payload: p} }

// UpdateRegion shallow-merges fields into an existing region.
func UpdateRegion(p RegionUpdatePayload) Action { return Action{Type: TypeRegionUpdated, Payload: p} }

// RemoveRegion deletes a region by id.
func RemoveRegion(id int64) Action { return Action{Type: TypeRegionRemoved, Payload: IDPayload{ID: id}} }

// ClearRegions deletes every region.
func ClearRegions() Action { return Action{Type: TypeRegionsCleared} }

// SelectRegion selects a region by id.
func SelectRegion(id int64) Action {
	return Action{Type: TypeRegionSelected, Payload: IDPayload{ID: id}}
}

// ClearRegionSelection clears the region selection.
func ClearRegionSelection() Action { return Action{Type: TypeRegionSelectionCleared} }

// SetRegionNote sets a region's note.
func SetRegionNote(id int64, note string) Action {
	return Action{Type: TypeRegionNoteSet, Payload: NotePayload{ID: id, Note: note}}
}

// SetRegionMetrics attaches a metrics snapshot to a region.
func SetRegionMetrics(id int64, m *RegionMetrics) Action {
	return Action{Type: TypeRegionMetricsSet, Payload: RegionMetricsPayload{ID: id, Metrics: m}}
}

// RemoveRegionArea removes one sub-area of a region by index.
func RemoveRegionArea(id int64, index int) Action {
	return Action{Type: TypeRegionAreaRemoved, Payload: RegionAreaRemovePayload{ID: id, Index: index}}
}

// ReplaceRegions replaces the whole region set.
func ReplaceRegions(regions []Region) Action {
	return Action{Type: TypeRegionsReplaced, Payload: RegionsReplacePayload{Regions: regions}}
}

// ToggleAudio requests play or pause for a position.
func ToggleAudio(positionID string, play bool) Action {
	return Action{Type: TypeAudioToggled, Payload: AudioTogglePayload{PositionID: positionID, Play: play}}
}

// UpdateAudioStatus records a status report from the external transport.
func UpdateAudioStatus(p AudioStatusPayload) Action {
	return Action{Type: TypeAudioStatusUpdated, Payload: p}
}

// SetPlaybackRate sets the playback rate.
func SetPlaybackRate(rate float64) Action {
	return Action{Type: TypePlaybackRateSet, Payload: PlaybackRatePayload{Rate: rate}}
}

// SetVolumeBoost toggles the volume boost flag.
func SetVolumeBoost(enabled bool) Action {
	return Action{Type: TypeVolumeBoostSet, Payload: VolumeBoostPayload{Enabled: enabled}}
}

// ErrUnknownActionType is returned by DecodeAction for a type outside the
// vocabulary. Inside the store unknown actions are harmless; at the wire
// boundary they are rejected so callers get a diagnostic.
var ErrUnknownActionType = errors.New("state: unknown action type")

// payloadPrototypes maps every payload-carrying action type to a factory for
// its payload struct, used to decode wire-form actions.
var payloadPrototypes = map[Type]func() any{
	TypeInitialize:               func() any { return &InitializePayload{} },
	TypeRehydrate:                func() any { return &RehydratePayload{} },
	TypeTapSet:                   func() any { return &CursorPayload{} },
	TypeHoverSet:                 func() any { return &CursorPayload{} },
	TypeKeyboardStepSet:          func() any { return &KeyboardStepPayload{} },
	TypeViewportSet:              func() any { return &ViewportPayload{} },
	TypeChartOffsetSet:           func() any { return &OffsetPayload{} },
	TypeAudioOffsetSet:           func() any { return &OffsetPayload{} },
	TypeComparisonRangeSet:       func() any { return &ComparisonRangePayload{} },
	TypeComparisonPositionToggle: func() any { return &PositionPayload{} },
	TypeMarkerAdded:              func() any { return &MarkerAddPayload{} },
	TypeMarkerUpdated:            func() any { return &MarkerUpdatePayload{} },
	TypeMarkerRemoved:            func() any { return &IDPayload{} },
	TypeMarkerSelected:           func() any { return &IDPayload{} },
	TypeMarkerNoteSet:            func() any { return &NotePayload{} },
	TypeMarkerMetricsSet:         func() any { return &MarkerMetricsPayload{} },
	TypeMarkersReplaced:          func() any { return &MarkersReplacePayload{} },
	TypeRegionAdded:              func() any { return &RegionAddPayload{} },
	TypeRegionUpdated:            func() any { return &RegionUpdatePayload{} },
	TypeRegionRemoved:            func() any { return &IDPayload{} },
	TypeRegionSelected:           func() any { return &IDPayload{} },
	TypeRegionNoteSet:            func() any { return &NotePayload{} },
	TypeRegionMetricsSet:         func() any { return &RegionMetricsPayload{} },
	TypeRegionAreaRemoved:        func() any { return &RegionAreaRemovePayload{} },
	TypeRegionsReplaced:          func() any { return &RegionsReplacePayload{} },
	TypeAudioToggled:             func() any { return &AudioTogglePayload{} },
	TypeAudioStatusUpdated:       func() any { return &AudioStatusPayload{} },
	TypePlaybackRateSet:          func() any { return &PlaybackRatePayload{} },
	TypeVolumeBoostSet:           func() any { return &VolumeBoostPayload{} },
}

// payloadFreeTypes lists action types that legitimately carry no payload.
var payloadFreeTypes = map[Type]struct{}{
	TypeTapCleared:               {},
	TypeHoverCleared:             {},
	TypeComparisonEntered:        {},
	TypeComparisonExited:         {},
	TypeMarkersCleared:           {},
	TypeMarkerSelectionCleared:   {},
	TypeRegionsCleared:           {},
	TypeRegionSelectionCleared:   {},
}

// DecodeAction parses a wire-form action message {"type": ..., "payload": ...}
// into a typed Action. The payload is decoded into the struct registered for
// the type; types outside the vocabulary are rejected.
func DecodeAction(data []byte) (Action, error) {
	var wire struct {
		Type    Type            `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Action{}, fmt.Errorf("state: decode action: %w", err)
	}

	if _, ok := payloadFreeTypes[wire.Type]; ok {
		return Action{Type: wire.Type}, nil
	}

	proto, ok := payloadPrototypes[wire.Type]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownActionType, wire.Type)
	}

	payload := proto()
	if len(wire.Payload) > 0 {
		if err := json.Unmarshal(wire.Payload, payload); err != nil {
			return Action{}, fmt.Errorf("state: decode %s payload: %w", wire.Type, err)
		}
	}

	// Store payloads by value so actions stay immutable once created.
	return Action{Type: wire.Type, Payload: deref(payload)}, nil
}

func deref(p any) any {
	switch v := p.(type) {
	case *InitializePayload:
		return *v
	case *RehydratePayload:
		return *v
	case *CursorPayload:
		return *v
	case *KeyboardStepPayload:
		return *v
	case *ViewportPayload:
		return *v
	case *OffsetPayload:
		return *v
	case *ComparisonRangePayload:
		return *v
	case *PositionPayload:
		return *v
	case *MarkerAddPayload:
		return *v
	case *MarkerUpdatePayload:
		return *v
	case *IDPayload:
		return *v
	case *NotePayload:
		return *v
	case *MarkerMetricsPayload:
		return *v
	case *MarkersReplacePayload:
		return *v
	case *RegionAddPayload:
		return *v
	case *RegionUpdatePayload:
		return *v
	case *RegionMetricsPayload:
		return *v
	case *RegionAreaRemovePayload:
		return *v
	case *RegionsReplacePayload:
		return *v
	case *AudioTogglePayload:
		return *v
	case *AudioStatusPayload:
		return *v
	case *PlaybackRatePayload:
		return *v
	case *VolumeBoostPayload:
		return *v
	default:
		return p
	}
}
