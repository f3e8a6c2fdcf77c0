package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-engine/internal/player"
	"github.com/annel0/voxel-engine/internal/sim"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*RestServer, *sim.Session) {
	t.Helper()
	session := sim.NewSession(sim.Options{
		Height:      32,
		Generator:   world.FlatGenerator{Level: 5},
		SpawnRadius: 1,
		Player:      player.DefaultConfig(),
	})
	reg := prometheus.NewRegistry()
	rs := NewRestServer(Config{
		Port:       ":0",
		Session:    session,
		Registerer: reg,
		Gatherer:   reg,
	})
	return rs, session
}

func do(t *testing.T, rs *RestServer, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealth(t *testing.T) {
	rs, session := newTestServer(t)

	w, _ := do(t, rs, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, session.ID.String(), body["session"])
}

func TestGetBlock(t *testing.T) {
	rs, _ := newTestServer(t)

	w, env := do(t, rs, http.MethodGet, "/api/block?x=3&y=5&z=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var got BlockResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, uint8(block.StoneBlockID), got.ID)
	assert.Equal(t, block.Name(block.StoneBlockID), got.Name)

	w, env = do(t, rs, http.MethodGet, "/api/block?x=3&y=6&z=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, uint8(block.AirBlockID), got.ID)

	w, env = do(t, rs, http.MethodGet, "/api/block?x=3&y=abc&z=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "y")
}

func TestSetBlock(t *testing.T) {
	rs, session := newTestServer(t)

	w, env := do(t, rs, http.MethodPut, "/api/block", map[string]int{"x": 3, "y": 10, "z": 3, "id": 4})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
	assert.Equal(t, block.BlockID(4), session.GetBlock(3, 10, 3))

	// id за пределами байта приводится к 255
	w, _ = do(t, rs, http.MethodPut, "/api/block", map[string]int{"x": 3, "y": 11, "z": 3, "id": 300})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, block.BlockID(255), session.GetBlock(3, 11, 3))

	// Вне высоты мира запись игнорируется
	w, env = do(t, rs, http.MethodPut, "/api/block", map[string]int{"x": 3, "y": 99, "z": 3, "id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var got BlockResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, uint8(block.AirBlockID), got.ID)

	w, env = do(t, rs, http.MethodPut, "/api/block", map[string]int{"x": 3, "y": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestChunksAndVisible(t *testing.T) {
	rs, _ := newTestServer(t)

	w, env := do(t, rs, http.MethodGet, "/api/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chunks struct {
		Chunks []sim.ChunkInfo `json:"chunks"`
		Total  int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &chunks))
	assert.Equal(t, 9, chunks.Total)
	assert.Len(t, chunks.Chunks, 9)

	w, env = do(t, rs, http.MethodGet, "/api/chunks/0/0/visible", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visible struct {
		Cells []VisibleCellResponse `json:"cells"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &visible))
	assert.Positive(t, visible.Total)
	for _, cell := range visible.Cells {
		assert.True(t, cell.X >= 0 && cell.X < world.ChunkSize)
		assert.True(t, cell.Z >= 0 && cell.Z < world.ChunkSize)
	}

	w, _ = do(t, rs, http.MethodGet, "/api/chunks/9/9/visible", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, rs, http.MethodGet, "/api/chunks/a/0/visible", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRaycast(t *testing.T) {
	rs, _ := newTestServer(t)

	w, env := do(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{
		Origin:      [3]float64{8.5, 20, 8.5},
		Direction:   [3]float64{0, -1, 0},
		MaxDistance: 30,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var got RaycastResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.True(t, got.Found)
	require.NotNil(t, got.Hit)
	assert.Equal(t, [3]int{8, 5, 8}, got.Hit.Block)
	assert.Equal(t, [3]int{8, 6, 8}, got.Hit.Place)
	assert.Equal(t, [3]int{0, 1, 0}, got.Hit.Normal)
	assert.InDelta(t, 14.0, got.Hit.Distance, 1e-9)

	// Нулевое направление даёт промах
	w, env = do(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{Origin: [3]float64{8.5, 20, 8.5}})
	require.Equal(t, http.StatusOK, w.Code)
	var miss RaycastResponse
	require.NoError(t, json.Unmarshal(env.Data, &miss))
	assert.False(t, miss.Found)
	assert.Nil(t, miss.Hit)
}

func TestRaycastDistanceLimit(t *testing.T) {
	rs, _ := newTestServer(t)

	w, env := do(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{
		Origin:      [3]float64{0.5, 20.5, 0.5},
		Direction:   [3]float64{1, 1, 1},
		MaxDistance: 1e12,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "max_distance")

	// Ровно на пределе запрос принимается
	w, _ = do(t, rs, http.MethodPost, "/api/raycast", RaycastRequest{
		Origin:      [3]float64{0.5, 20.5, 0.5},
		Direction:   [3]float64{0, 1, 0},
		MaxDistance: sim.MaxRayDistance,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	session := sim.NewSession(sim.Options{Height: 32, Generator: world.FlatGenerator{Level: 5}, Player: player.DefaultConfig()})
	reg := prometheus.NewRegistry()
	strict := NewRestServer(Config{Session: session, MaxRayDistance: 10, Registerer: reg, Gatherer: reg})
	w, _ = do(t, strict, http.MethodPost, "/api/raycast", RaycastRequest{
		Origin:      [3]float64{8.5, 20, 8.5},
		Direction:   [3]float64{0, -1, 0},
		MaxDistance: 30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayerEndpoints(t *testing.T) {
	rs, session := newTestServer(t)

	w, env := do(t, rs, http.MethodPost, "/api/player/input", player.Input{Forward: true})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	session.Tick(1.0 / 60)
	w, env = do(t, rs, http.MethodGet, "/api/player", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, uint64(1), snap.Tick)
	assert.Equal(t, session.ID, snap.ID)

	w, env = do(t, rs, http.MethodPost, "/api/player/place", PlaceRequest{ID: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	w, env = do(t, rs, http.MethodPost, "/api/player/remove", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var removed struct {
		Removed bool            `json:"removed"`
		Target  *sim.TargetInfo `json:"target"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &removed))
	require.True(t, removed.Removed)
	require.NotNil(t, removed.Target)
	assert.Equal(t, uint8(block.AirBlockID),
		uint8(session.GetBlock(removed.Target.Block[0], removed.Target.Block[1], removed.Target.Block[2])))
}

func TestStatsAndMetrics(t *testing.T) {
	rs, _ := newTestServer(t)

	w, env := do(t, rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		World struct {
			Chunks int `json:"chunks"`
			Height int `json:"height"`
		} `json:"world"`
		Server ProcessStats `json:"server"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 9, stats.World.Chunks)
	assert.Equal(t, 32, stats.World.Height)
	assert.NotEmpty(t, stats.Server.Uptime)
	assert.Positive(t, stats.Server.Goroutines)

	w, _ = do(t, rs, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voxel_api_http_request_duration_seconds")
}

func TestUptimeFormat(t *testing.T) {
	sm := NewServerMetrics()
	assert.Regexp(t, `^\d+с$`, sm.GetUptime())
}

func TestGzipResponses(t *testing.T) {
	rs, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chunks/0/0/visible", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(zr).Decode(&env))
	assert.True(t, env.Success)
}
