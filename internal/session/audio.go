package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/acoustio/noisedesk/internal/state"
	"github.com/acoustio/noisedesk/internal/transport"
)

// TransportStatus is a playback status report from the external audio
// player. Times are in the player's own clock; the session translates them
// into chart time by adding the active position's effective offset.
type TransportStatus struct {
	IsPlaying            bool    `json:"isPlaying"`
	PositionID           string  `json:"positionId"`
	CurrentTime          float64 `json:"currentTime"`
	CurrentFileStartTime float64 `json:"currentFileStartTime"`
	PlaybackRate         float64 `json:"playbackRate"`
}

// ToggleAudio starts or pauses playback for a position. The state updates
// optimistically and the command goes out to the transport; a transport
// failure is returned but the optimistic state stands until the next status
// report corrects it.
func (s *Session) ToggleAudio(ctx context.Context, positionID string, play bool) error {
	if positionID == "" {
		s.logger.Warn("audio toggle ignored: missing position id")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()
	if !st.View.HasPosition(positionID) {
		s.logger.Warn("audio toggle ignored: unknown position",
			slog.String("position_id", positionID),
		)
		return nil
	}
	// Redundant toggles are absorbed here so the transport never sees a
	// duplicate command.
	if play && st.Audio.IsPlaying && st.Audio.ActivePositionID == positionID {
		return nil
	}
	if !play && (!st.Audio.IsPlaying || st.Audio.ActivePositionID != positionID) {
		return nil
	}

	s.store.Dispatch(state.ToggleAudio(positionID, play))

	cmd := transport.Command{Command: transport.CommandPause, PositionID: positionID}
	if play {
		cmd.Command = transport.CommandPlay
		cmd.Value = s.playStartTime(st, positionID)
	}
	if err := s.sender.Send(ctx, cmd); err != nil {
		return fmt.Errorf("sending %s command for position %s: %w", cmd.Command, positionID, err)
	}
	return nil
}

// playStartTime picks where playback should start in the player's clock:
// the active tap cursor when set, otherwise the last known playback time.
func (s *Session) playStartTime(st state.State, positionID string) float64 {
	if st.Interaction.Tap.IsActive {
		return st.Interaction.Tap.Timestamp - st.View.EffectiveOffset(positionID)
	}
	return st.Audio.CurrentTime - st.View.EffectiveOffset(positionID)
}

// Seek asks the transport to move playback to a chart timestamp for the
// position, translating into the player's clock.
func (s *Session) Seek(ctx context.Context, positionID string, timestamp float64) error {
	if positionID == "" {
		s.logger.Warn("seek ignored: missing position id")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()
	if !st.View.HasPosition(positionID) {
		s.logger.Warn("seek ignored: unknown position",
			slog.String("position_id", positionID),
		)
		return nil
	}

	cmd := transport.Command{
		Command:    transport.CommandSeek,
		PositionID: positionID,
		Value:      timestamp - st.View.EffectiveOffset(positionID),
	}
	if err := s.sender.Send(ctx, cmd); err != nil {
		return fmt.Errorf("sending seek command for position %s: %w", positionID, err)
	}
	return nil
}

// CyclePlaybackRate advances to the next rate in the configured ladder and
// returns it. A current rate not on the ladder restarts at the first entry.
func (s *Session) CyclePlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.store.State().Audio.PlaybackRate
	next := s.rates[0]
	for i, r := range s.rates {
		if math.Abs(r-current) < rateTolerance {
			next = s.rates[(i+1)%len(s.rates)]
			break
		}
	}
	s.store.Dispatch(state.SetPlaybackRate(next))
	return next
}

// HandleTransportStatus ingests a status report from the player, translating
// its times into chart time before storing them. Reports for unknown
// positions are dropped.
func (s *Session) HandleTransportStatus(status TransportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.State()
	if status.PositionID != "" && !st.View.HasPosition(status.PositionID) {
		s.logger.Warn("transport status dropped: unknown position",
			slog.String("position_id", status.PositionID),
		)
		return
	}

	chartTime := status.CurrentFileStartTime + status.CurrentTime +
		st.View.EffectiveOffset(status.PositionID)
	s.store.Dispatch(state.UpdateAudioStatus(state.AudioStatusPayload{
		IsPlaying:    status.IsPlaying,
		PositionID:   status.PositionID,
		CurrentTime:  chartTime,
		PlaybackRate: status.PlaybackRate,
	}))
}
