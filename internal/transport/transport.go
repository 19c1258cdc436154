// Package transport defines the outbound command channel to the external
// audio player collaborator. The core never controls an audio element
// directly; it emits play/pause/seek commands through a Sender and receives
// status reports back through the control-plane action interface.
package transport

import "context"

// CommandName enumerates the transport commands.
type CommandName string

const (
	// CommandPlay starts playback at a position.
	CommandPlay CommandName = "play"
	// CommandPause pauses playback at a position.
	CommandPause CommandName = "pause"
	// CommandSeek moves the playback head of a position.
	CommandSeek CommandName = "seek"
)

// Command is one outbound instruction for the audio player. Value carries
// the target timestamp in epoch milliseconds for play and seek commands.
type Command struct {
	Command    CommandName `json:"command"`
	PositionID string      `json:"positionId"`
	Value      float64     `json:"value"`
}

// Sender delivers commands to the external audio player.
type Sender interface {
	Send(ctx context.Context, cmd Command) error
}

// NopSender discards every command. Useful when no audio player is attached.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(context.Context, Command) error { return nil }

// ChannelSender delivers commands over a Go channel, for embedding the core
// in a host process that owns the player. Send drops the command when the
// channel is full rather than blocking the dispatch path.
type ChannelSender struct {
	ch chan Command
}

// NewChannelSender creates a ChannelSender with the given buffer size.
func NewChannelSender(buffer int) *ChannelSender {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelSender{ch: make(chan Command, buffer)}
}

// Commands returns the receive side of the command channel.
func (s *ChannelSender) Commands() <-chan Command { return s.ch }

// Send implements Sender.
func (s *ChannelSender) Send(_ context.Context, cmd Command) error {
	select {
	case s.ch <- cmd:
	default:
	}
	return nil
}
