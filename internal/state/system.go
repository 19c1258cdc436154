package state

// SystemState tracks initialization and the most recently applied action.
// LastAction is a debug/audit trail: it is stamped by the root reducer for
// every dispatch, including actions no slice reacted to.
type SystemState struct {
	Initialized bool   `json:"initialized"`
	LastAction  Action `json:"lastAction"`
}

func defaultSystemState() SystemState {
	return SystemState{}
}

func reduceSystem(s SystemState, a Action) SystemState {
	switch a.Type {
	case TypeInitialize:
		if s.Initialized {
			return s
		}
		next := s
		next.Initialized = true
		return next
	default:
		return s
	}
}
