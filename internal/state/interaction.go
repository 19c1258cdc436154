package state

// DefaultKeyboardStepMs is the default keyboard nudge step size.
const DefaultKeyboardStepMs = 1000

// Cursor is the tap or hover interaction cursor.
type Cursor struct {
	IsActive    bool    `json:"isActive"`
	Timestamp   float64 `json:"timestamp"`
	PositionID  string  `json:"positionId"`
	SourceChart string  `json:"sourceChart"`
}

// Keyboard holds keyboard interaction settings.
type Keyboard struct {
	StepMs float64 `json:"stepSizeMs"`
}

// InteractionState holds the tap and hover cursors and keyboard settings.
// Tap and hover are mutually exclusive in effect: placing the tap clears the
// hover's active flag.
type InteractionState struct {
	Tap      Cursor   `json:"tap"`
	Hover    Cursor   `json:"hover"`
	Keyboard Keyboard `json:"keyboard"`
}

func defaultInteractionState() InteractionState {
	return InteractionState{Keyboard: Keyboard{StepMs: DefaultKeyboardStepMs}}
}

func reduceInteraction(s InteractionState, a Action) InteractionState {
	switch a.Type {
	case TypeTapSet:
		p, ok := a.Payload.(CursorPayload)
		if !ok {
			return s
		}
		next := s
		next.Tap = Cursor{IsActive: true, Timestamp: p.Timestamp, PositionID: p.PositionID, SourceChart: p.SourceChart}
		next.Hover.IsActive = false
		return next

	case TypeTapCleared:
		if !s.Tap.IsActive {
			return s
		}
		next := s
		next.Tap.IsActive = false
		return next

	case TypeHoverSet:
		p, ok := a.Payload.(CursorPayload)
		if !ok {
			return s
		}
		next := s
		next.Hover = Cursor{IsActive: true, Timestamp: p.Timestamp, PositionID: p.PositionID, SourceChart: p.SourceChart}
		return next

	case TypeHoverCleared:
		if !s.Hover.IsActive {
			return s
		}
		next := s
		next.Hover.IsActive = false
		return next

	case TypeKeyboardStepSet:
		p, ok := a.Payload.(KeyboardStepPayload)
		if !ok || p.StepMs <= 0 {
			return s
		}
		next := s
		next.Keyboard.StepMs = p.StepMs
		return next

	case TypeAudioStatusUpdated:
		// While audio is playing the tap cursor tracks the reported
		// playback time so the visual cursor stays synced to audio.
		p, ok := a.Payload.(AudioStatusPayload)
		if !ok || !p.IsPlaying {
			return s
		}
		next := s
		next.Tap = Cursor{IsActive: true, Timestamp: p.CurrentTime, PositionID: p.PositionID, SourceChart: "audio"}
		next.Hover.IsActive = false
		return next

	default:
		return s
	}
}
