package state

// AudioState tracks playback of the external audio transport. At most one
// position is active at a time; pause requests for any other position are
// ignored. Toggles update the slice optimistically before the transport
// confirms; status updates overwrite with what the transport reported.
type AudioState struct {
	IsPlaying        bool    `json:"isPlaying"`
	ActivePositionID string  `json:"activePositionId"`
	CurrentTime      float64 `json:"currentTime"`
	PlaybackRate     float64 `json:"playbackRate"`
	VolumeBoost      bool    `json:"volumeBoost"`
}

func defaultAudioState() AudioState {
	return AudioState{PlaybackRate: 1.0}
}

func reduceAudio(s AudioState, a Action) AudioState {
	switch a.Type {
	case TypeAudioToggled:
		p, ok := a.Payload.(AudioTogglePayload)
		if !ok || p.PositionID == "" {
			return s
		}
		if p.Play {
			if s.IsPlaying && s.ActivePositionID == p.PositionID {
				return s
			}
			next := s
			next.IsPlaying = true
			next.ActivePositionID = p.PositionID
			return next
		}
		// Pausing is only effective when it targets the active position.
		if !s.IsPlaying || s.ActivePositionID != p.PositionID {
			return s
		}
		next := s
		next.IsPlaying = false
		return next

	case TypeAudioStatusUpdated:
		p, ok := a.Payload.(AudioStatusPayload)
		if !ok {
			return s
		}
		next := s
		next.IsPlaying = p.IsPlaying
		next.ActivePositionID = p.PositionID
		next.CurrentTime = p.CurrentTime
		if p.PlaybackRate > 0 {
			next.PlaybackRate = p.PlaybackRate
		}
		return next

	case TypePlaybackRateSet:
		p, ok := a.Payload.(PlaybackRatePayload)
		if !ok || p.Rate <= 0 {
			return s
		}
		next := s
		next.PlaybackRate = p.Rate
		return next

	case TypeVolumeBoostSet:
		p, ok := a.Payload.(VolumeBoostPayload)
		if !ok || s.VolumeBoost == p.Enabled {
			return s
		}
		next := s
		next.VolumeBoost = p.Enabled
		return next

	default:
		return s
	}
}
