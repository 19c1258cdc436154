package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoustio/noisedesk/internal/analysis"
	"github.com/acoustio/noisedesk/internal/dataset"
	"github.com/acoustio/noisedesk/internal/interchange"
	"github.com/acoustio/noisedesk/internal/session"
	"github.com/acoustio/noisedesk/internal/state"
	"github.com/acoustio/noisedesk/internal/storage"
	"github.com/acoustio/noisedesk/internal/transport"
)

// recordingSender captures outbound transport commands.
type recordingSender struct {
	commands []transport.Command
}

func (r *recordingSender) Send(_ context.Context, cmd transport.Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

type testEnv struct {
	handler http.Handler
	session *session.Session
	sender  *recordingSender
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	cache := dataset.NewCache(map[string]*dataset.PositionData{
		"P1": {
			Log: &dataset.LineSeries{
				Datetime:   []float64{0, 1000, 2000, 3000, 4000, 5000},
				Parameters: map[string][]float64{"LAeq": {50, 55, 60, 65, 70, 75}},
			},
		},
	})

	store := state.NewStore()
	store.Dispatch(state.Initialize([]state.Position{{ID: "P1", Title: "Roadside"}}))
	min, max := 0.0, 10_000.0
	store.Dispatch(state.SetViewport(&min, &max))

	sender := &recordingSender{}
	sess, err := session.New(store, analysis.NewEngine(cache, nil), sender)
	require.NoError(t, err)

	exports, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	h := NewHandlers(sess, interchange.NewCodec(nil), exports, nil)
	return &testEnv{
		handler: NewRouter(h, discardLogger(), DefaultConfig()),
		session: sess,
		sender:  sender,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestGetState(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/state", "")

	require.Equal(t, http.StatusOK, w.Code)
	var st state.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, []string{"P1"}, st.View.AvailablePositions)
	assert.True(t, st.System.Initialized)
}

func TestDispatchAction(t *testing.T) {
	env := setupTestServer(t)

	t.Run("valid action dispatches and returns state", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/actions",
			`{"type":"interaction/tapSet","payload":{"timestamp":2500,"positionId":"P1"}}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.session.State().Interaction.Tap.IsActive)
	})

	t.Run("unknown action type is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/actions", `{"type":"no/suchAction"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_ACTION_TYPE")
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/actions", `{"type":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTap(t *testing.T) {
	env := setupTestServer(t)

	t.Run("valid tap places the cursor", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/taps",
			`{"timestamp":2500,"positionId":"P1","chartName":"broadband"}`)

		require.Equal(t, http.StatusOK, w.Code)
		tap := env.session.State().Interaction.Tap
		assert.True(t, tap.IsActive)
		assert.Equal(t, 2500.0, tap.Timestamp)
	})

	t.Run("missing position id fails validation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/taps", `{"timestamp":2500}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("timestamp of zero is valid", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/taps", `{"timestamp":0,"positionId":"P1"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMarkerLifecycle(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/markers", `{"timestamp":2500,"positionId":"P1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var marker state.Marker
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &marker))
	assert.Equal(t, int64(1), marker.ID)
	require.NotNil(t, marker.Metrics, "creation attaches metrics synchronously")

	t.Run("metrics endpoint returns the snapshot", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/markers/1/metrics", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"parameter":"LAeq"`)
	})

	t.Run("nudge moves by keyboard steps", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/markers/1/nudge", `{"steps":2}`)
		require.Equal(t, http.StatusOK, w.Code)

		var moved state.Marker
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
		assert.Equal(t, 4500.0, moved.Timestamp)
	})

	t.Run("details returns clipboard text", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/markers/1/details", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Marker Details")
		assert.Contains(t, w.Body.String(), "Roadside")
	})

	t.Run("delete removes the marker", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/markers/1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, env.session.State().Markers.Items)
	})

	t.Run("missing marker is a 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/markers/99/metrics", "").Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/markers/99", "").Code)
	})

	t.Run("non-numeric id is a 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/markers/abc", "").Code)
	})
}

func TestRegionMetricsAndSummary(t *testing.T) {
	env := setupTestServer(t)
	env.session.Dispatch(state.AddRegion(state.RegionAddPayload{PositionID: "P1", Start: 0, End: 5000}))

	t.Run("metrics", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/regions/1/metrics", "")
		require.Equal(t, http.StatusOK, w.Code)

		var metrics state.RegionMetrics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
		assert.Equal(t, state.ResolutionLog, metrics.DataResolution)
		require.NotNil(t, metrics.LAeq)
	})

	t.Run("summary", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/regions/1/summary", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SummaryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.Text, "Region 1, Roadside,"), resp.Text)
		assert.Contains(t, resp.Text, "LAeq")
	})

	t.Run("unknown region", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/regions/42/metrics", "").Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/regions/42/summary", "").Code)
	})
}

func TestExportImport_RoundTrip(t *testing.T) {
	env := setupTestServer(t)
	env.session.Dispatch(state.AddRegion(state.RegionAddPayload{PositionID: "P1", Start: 1000, End: 4000, Note: "forklift"}))
	_, err := env.session.CreateMarker(session.MarkerRequest{Timestamp: ptrF(2500), PositionID: "P1"})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	var export ExportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.NotEmpty(t, export.RegionsPath)
	assert.NotEmpty(t, export.MarkersPath)

	// Wipe and import the exported documents back.
	env.session.Dispatch(state.ClearRegions())
	env.session.Dispatch(state.ClearMarkers())

	body, err := json.Marshal(ImportRequest{Regions: export.Regions, Markers: export.Markers})
	require.NoError(t, err)
	w = env.do(t, http.MethodPost, "/import", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RegionsImported)
	assert.Equal(t, 1, resp.MarkersImported)

	st := env.session.State()
	require.Len(t, st.Regions.Items, 1)
	assert.Equal(t, "forklift", st.Regions.Items[0].Note)
	require.Len(t, st.Markers.Items, 1)
	assert.Equal(t, 2500.0, st.Markers.Items[0].Timestamp)
}

func TestImport_FiltersInvalidEntries(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/import",
		`{"regions":[{"id":1,"positionId":"P1","start":0,"end":1000},{"id":2,"end":1000}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RegionsImported)
}

func TestAudioEndpoints(t *testing.T) {
	env := setupTestServer(t)

	t.Run("toggle play", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/audio/toggle", `{"positionId":"P1","play":true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.session.State().Audio.IsPlaying)
		require.Len(t, env.sender.commands, 1)
		assert.Equal(t, transport.CommandPlay, env.sender.commands[0].Command)
	})

	t.Run("toggle validation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/audio/toggle", `{"positionId":"P1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rate cycling", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/audio/rate", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp RateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1.5, resp.Rate)
	})

	t.Run("status callback", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/audio/status",
			`{"isPlaying":true,"positionId":"P1","currentTime":4000,"playbackRate":1.5}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 4000.0, env.session.State().Audio.CurrentTime)
	})
}

func ptrF(v float64) *float64 { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
