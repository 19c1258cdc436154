package state

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// State is the composed immutable state tree. Each dispatch produces a new
// State value; published values are never mutated in place.
type State struct {
	View        ViewState        `json:"view"`
	Interaction InteractionState `json:"interaction"`
	Markers     MarkersState     `json:"markers"`
	Regions     RegionsState     `json:"regions"`
	Audio       AudioState       `json:"audio"`
	System      SystemState      `json:"system"`
}

// DefaultState builds the composed default state from each slice's own
// default. Defaults are constructed directly; they are never mutated, so no
// cloning is needed.
func DefaultState() State {
	return State{
		View:        defaultViewState(),
		Interaction: defaultInteractionState(),
		Markers:     defaultMarkersState(),
		Regions:     defaultRegionsState(),
		Audio:       defaultAudioState(),
		System:      defaultSystemState(),
	}
}

// Reduce is the root state transition function. Every action flows through
// every slice reducer (each decides for itself whether to react) and the
// resulting slices are recombined with lastAction stamped. The rehydration
// action bypasses the per-slice path entirely.
func Reduce(s State, a Action, logger *slog.Logger) State {
	if logger == nil {
		logger = slog.Default()
	}
	if a.Type == TypeRehydrate {
		return rehydrate(s, a, logger)
	}

	next := State{
		View:        reduceView(s.View, a),
		Interaction: reduceInteraction(s.Interaction, a),
		Markers:     reduceMarkers(s.Markers, a),
		Regions:     reduceRegions(s.Regions, a),
		Audio:       reduceAudio(s.Audio, a),
		System:      reduceSystem(s.System, a),
	}
	next.System.LastAction = a
	return next
}

// rehydrate merges an externally supplied partial state tree over the slice
// defaults. Each provided slice is unmarshalled over a fresh default value,
// so omitted fields fall back to defaults rather than zero values. An
// invalid payload rejects the rehydration: the previous state is returned
// unchanged and the failure is logged.
func rehydrate(s State, a Action, logger *slog.Logger) State {
	snapshot, ok := a.Payload.(RehydratePayload)
	if !ok || snapshot == nil {
		logger.Error("state rehydration rejected: payload missing or not an object")
		return s
	}

	next := DefaultState()
	merge := func(name string, target any) {
		raw, ok := snapshot[name]
		if !ok {
			return
		}
		if err := json.Unmarshal(raw, target); err != nil {
			logger.Error("state rehydration: slice ignored",
				slog.String("slice", name),
				slog.String("error", err.Error()),
			)
		}
	}
	merge("view", &next.View)
	merge("interaction", &next.Interaction)
	merge("markers", &next.Markers)
	merge("regions", &next.Regions)
	merge("audio", &next.Audio)
	merge("system", &next.System)

	next.System.Initialized = true
	next.System.LastAction = a
	return next
}

// Listener is notified after each dispatch with the new state and the action
// that produced it.
type Listener func(State, Action)

// Store owns the state tree and serializes all writes through Dispatch,
// giving at-most-one-writer-at-a-time ordering. Reads return the current
// snapshot value; because reducers are copy-on-write, a returned State is
// stable even while further dispatches occur.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextSub   int
	logger    *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInitialState seeds the store with a pre-built state instead of the
// defaults.
func WithInitialState(st State) StoreOption {
	return func(s *Store) { s.state = st }
}

// NewStore creates a store seeded with the default composed state.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state:     DefaultState(),
		listeners: make(map[int]Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies an action synchronously and notifies subscribers. It runs
// to completion before a concurrent dispatch is admitted.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a, s.logger)
	st := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(st, a)
	}
}

// State returns the current state snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
