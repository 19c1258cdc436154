package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceAudio_ToggleIsIdempotent(t *testing.T) {
	s := defaultAudioState()

	once := reduceAudio(s, ToggleAudio("P1", true))
	twice := reduceAudio(once, ToggleAudio("P1", true))

	assert.True(t, once.IsPlaying)
	assert.Equal(t, "P1", once.ActivePositionID)
	assert.Equal(t, once, twice)
}

func TestReduceAudio_PauseOnlyForActivePosition(t *testing.T) {
	s := defaultAudioState()
	s = reduceAudio(s, ToggleAudio("P1", true))

	// Pausing a different position is a no-op.
	unchanged := reduceAudio(s, ToggleAudio("P2", false))
	assert.Equal(t, s, unchanged)

	paused := reduceAudio(s, ToggleAudio("P1", false))
	assert.False(t, paused.IsPlaying)
	// The active position survives a pause.
	assert.Equal(t, "P1", paused.ActivePositionID)
}

func TestReduceAudio_PlaySwitchesActivePosition(t *testing.T) {
	s := defaultAudioState()
	s = reduceAudio(s, ToggleAudio("P1", true))
	s = reduceAudio(s, ToggleAudio("P2", true))

	assert.True(t, s.IsPlaying)
	assert.Equal(t, "P2", s.ActivePositionID)
}

func TestReduceAudio_StatusOverwrites(t *testing.T) {
	s := defaultAudioState()
	s = reduceAudio(s, ToggleAudio("P1", true))

	s = reduceAudio(s, UpdateAudioStatus(AudioStatusPayload{
		IsPlaying:    false,
		PositionID:   "P2",
		CurrentTime:  42_000,
		PlaybackRate: 1.5,
	}))

	assert.False(t, s.IsPlaying)
	assert.Equal(t, "P2", s.ActivePositionID)
	assert.Equal(t, 42_000.0, s.CurrentTime)
	assert.Equal(t, 1.5, s.PlaybackRate)
}

func TestReduceAudio_RateGuards(t *testing.T) {
	s := defaultAudioState()

	s = reduceAudio(s, SetPlaybackRate(2.0))
	assert.Equal(t, 2.0, s.PlaybackRate)

	s = reduceAudio(s, SetPlaybackRate(-1))
	assert.Equal(t, 2.0, s.PlaybackRate)
}

func TestReduceInteraction_TapClearsHover(t *testing.T) {
	s := defaultInteractionState()

	s = reduceInteraction(s, SetHover(500, "P1", "chart-a"))
	assert.True(t, s.Hover.IsActive)

	s = reduceInteraction(s, SetTap(1000, "P1", "chart-a"))
	assert.True(t, s.Tap.IsActive)
	assert.False(t, s.Hover.IsActive)
	assert.Equal(t, 1000.0, s.Tap.Timestamp)
}

func TestReduceInteraction_AudioStatusSyncsTap(t *testing.T) {
	s := defaultInteractionState()

	s = reduceInteraction(s, UpdateAudioStatus(AudioStatusPayload{
		IsPlaying:   true,
		PositionID:  "P2",
		CurrentTime: 7_000,
	}))
	assert.True(t, s.Tap.IsActive)
	assert.Equal(t, 7_000.0, s.Tap.Timestamp)
	assert.Equal(t, "P2", s.Tap.PositionID)
	assert.Equal(t, "audio", s.Tap.SourceChart)

	// A paused status report leaves the cursor alone.
	before := s
	s = reduceInteraction(s, UpdateAudioStatus(AudioStatusPayload{IsPlaying: false, CurrentTime: 9_000}))
	assert.Equal(t, before, s)
}

func TestReduceInteraction_KeyboardStep(t *testing.T) {
	s := defaultInteractionState()
	assert.Equal(t, float64(DefaultKeyboardStepMs), s.Keyboard.StepMs)

	s = reduceInteraction(s, SetKeyboardStep(250))
	assert.Equal(t, 250.0, s.Keyboard.StepMs)

	s = reduceInteraction(s, SetKeyboardStep(0))
	assert.Equal(t, 250.0, s.Keyboard.StepMs)
}
