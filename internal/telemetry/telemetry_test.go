package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

type snapshotView struct {
	Tick   uint64 `json:"tick"`
	Paused bool   `json:"paused"`
	Cells  []struct {
		Insertion float64 `json:"insertion"`
	} `json:"cells"`
	Valves []struct {
		Open bool `json:"open"`
	} `json:"valves"`
	GameOver *struct {
		Cause string `json:"cause"`
	} `json:"game_over"`
}

type fixture struct {
	runner *Runner
	hub    *Hub
	scores *scoreboard.Store
	server *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := reactor.DefaultConfig()
	cfg.Seed = 21
	session, err := reactor.NewSession(cfg)
	require.NoError(t, err)

	scores, err := scoreboard.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = scores.Close() })

	hub := NewHub(nil)
	t.Cleanup(func() { _ = hub.Close() })

	runner := NewRunner(session, RunnerOptions{
		FrameInterval:  cfg.Timestep,
		BroadcastEvery: 1,
		Pilot:          autopilot.New(autopilot.DefaultSettings(), nil),
		Hub:            hub,
		Recorder:       scores,
	})
	return &fixture{
		runner: runner,
		hub:    hub,
		scores: scores,
		server: NewServer(runner, hub, scores, nil),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func (f *fixture) snapshot(t *testing.T) snapshotView {
	t.Helper()
	w := f.do(t, http.MethodGet, "/api/v1/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap snapshotView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSnapshotShape(t *testing.T) {
	f := newFixture(t)
	snap := f.snapshot(t)
	assert.Equal(t, uint64(0), snap.Tick)
	assert.Len(t, snap.Cells, 24)
	assert.Len(t, snap.Valves, 8)
	assert.Nil(t, snap.GameOver)
}

func TestPostCommandAppliesOnNextFrame(t *testing.T) {
	f := newFixture(t)
	cell := 4
	w := f.do(t, http.MethodPost, "/api/v1/commands", CommandRequest{Type: "move_rod", Cell: &cell, Delta: -0.25})
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, 1, f.runner.Frame())
	snap := f.snapshot(t)
	assert.InDelta(t, 0.75, snap.Cells[4].Insertion, 1e-9)
}

func TestPostCommandRejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body any
	}{
		{"missing type", map[string]any{"cell": 1}},
		{"unknown type", map[string]any{"type": "melt"}},
		{"missing cell", map[string]any{"type": "move_rod", "delta": 0.1}},
		{"set valve without open", map[string]any{"type": "set_valve", "valve": 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/commands", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestConsoleOpensValveAndPauses(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/console", map[string]string{"line": "valve 1 open"})
	require.Equal(t, http.StatusOK, w.Code)
	var res consoleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Handled)
	assert.Equal(t, "valve", res.Verb)
	assert.Equal(t, 1, res.Commands)

	f.runner.Frame()
	assert.True(t, f.snapshot(t).Valves[0].Open)

	w = f.do(t, http.MethodPost, "/api/v1/console", map[string]string{"line": "pause"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.snapshot(t).Paused)
	assert.Equal(t, 0, f.runner.Frame())

	w = f.do(t, http.MethodPost, "/api/v1/pause", map[string]bool{"paused": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.snapshot(t).Paused)
}

func TestConsoleAutopilotFliesTheCore(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/console", map[string]string{"line": "auto on"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.runner.Autopilot())

	f.runner.Frame()
	snap := f.snapshot(t)
	for _, v := range snap.Valves {
		assert.True(t, v.Open)
	}
	assert.Less(t, snap.Cells[0].Insertion, 1.0)
}

func TestAbandonRecordsScore(t *testing.T) {
	f := newFixture(t)
	f.runner.Frame()

	w := f.do(t, http.MethodPost, "/api/v1/abandon", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "player_abandoned")

	snap := f.snapshot(t)
	require.NotNil(t, snap.GameOver)
	assert.Equal(t, "player_abandoned", snap.GameOver.Cause)

	cell := 0
	w = f.do(t, http.MethodPost, "/api/v1/commands", CommandRequest{Type: "move_rod", Cell: &cell, Delta: -0.1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/scores?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Scores []struct {
			Cause string `json:"cause"`
			Ticks uint64 `json:"ticks"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Scores, 1)
	assert.Equal(t, "player_abandoned", body.Scores[0].Cause)
	assert.Equal(t, uint64(1), body.Scores[0].Ticks)

	w = f.do(t, http.MethodGet, "/api/v1/scores?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoresDisabled(t *testing.T) {
	f := newFixture(t)
	server := NewServer(f.runner, f.hub, nil, nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scores", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebSocketStreamsSnapshotsAndGameOver(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Type     string `json:"type"`
		Snapshot *struct {
			Tick uint64 `json:"tick"`
		} `json:"snapshot"`
		GameOver *struct {
			Cause string `json:"cause"`
		} `json:"game_over"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, uint64(0), msg.Snapshot.Tick)
	assert.Equal(t, 1, f.hub.ClientCount())

	f.runner.Frame()
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageSnapshot, msg.Type)
	assert.Equal(t, uint64(1), msg.Snapshot.Tick)

	f.runner.Abandon()
	msg.GameOver = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageGameOver, msg.Type)
	require.NotNil(t, msg.GameOver)
	assert.Equal(t, "player_abandoned", msg.GameOver.Cause)
}
