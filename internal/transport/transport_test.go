package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSender(t *testing.T) {
	s := NewChannelSender(2)

	require.NoError(t, s.Send(context.Background(), Command{Command: CommandPlay, PositionID: "P1", Value: 1000}))

	select {
	case cmd := <-s.Commands():
		assert.Equal(t, CommandPlay, cmd.Command)
		assert.Equal(t, "P1", cmd.PositionID)
	default:
		t.Fatal("expected a buffered command")
	}
}

func TestChannelSender_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	s := NewChannelSender(1)
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, Command{Command: CommandPlay}))
	// Second send must not block even though nobody is receiving.
	require.NoError(t, s.Send(ctx, Command{Command: CommandPause}))

	assert.Equal(t, CommandPlay, (<-s.Commands()).Command)
}

func TestHTTPSender(t *testing.T) {
	t.Run("posts command JSON", func(t *testing.T) {
		var got Command
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		s, err := NewHTTPSender(srv.URL)
		require.NoError(t, err)

		err = s.Send(context.Background(), Command{Command: CommandSeek, PositionID: "P2", Value: 5000})
		require.NoError(t, err)
		assert.Equal(t, CommandSeek, got.Command)
		assert.Equal(t, 5000.0, got.Value)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		s, err := NewHTTPSender(srv.URL)
		require.NoError(t, err)

		err = s.Send(context.Background(), Command{Command: CommandPlay})
		assert.ErrorIs(t, err, ErrCommandRejected)
	})

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewHTTPSender("")
		assert.ErrorIs(t, err, ErrBaseURLRequired)
	})
}
