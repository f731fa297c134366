package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/blocks/casting"
	"github.com/aretw0/lattice/pkg/blocks/core"
	"github.com/aretw0/lattice/pkg/blocks/hash"
	"github.com/aretw0/lattice/pkg/blocks/physics"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry(t *testing.T) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, core.Register(reg))
	require.NoError(t, hash.Register(reg))
	require.NoError(t, casting.Register(reg))
	require.NoError(t, physics.Register(reg))
	return reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestHealthAndInfo(t *testing.T) {
	h := NewHandler(registry(t), WithVersion("1.2.3"))

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	info := decode[map[string]any](t, do(t, h, http.MethodGet, "/info", ""))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, false, info["sessions"])
}

func TestBlocks(t *testing.T) {
	h := NewHandler(registry(t))

	w := do(t, h, http.MethodGet, "/blocks/", "")
	require.Equal(t, http.StatusOK, w.Code)
	infos := decode[[]block.Info](t, w)
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Contains(t, names, "Hash.Sha2-256")
	assert.Contains(t, names, "Physics.Impulse")

	w = do(t, h, http.MethodGet, "/blocks/Physics.Impulse", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[block.Info](t, w)
	assert.Equal(t, "Physics.Impulse", info.Name)
	assert.NotEmpty(t, info.Required)

	w = do(t, h, http.MethodGet, "/blocks/Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Kind)
}

func TestActivateBlock(t *testing.T) {
	h := NewHandler(registry(t))

	t.Run("digest", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/Hash.Sha2-256/activate", `{"input":{"kind":"string","value":"abc"}}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[RunResponse](t, w)
		digest, err := resp.Output.AsBytes()
		require.NoError(t, err)
		assert.Len(t, digest, 32)
		assert.Equal(t, byte(0xba), digest[0])
	})

	t.Run("conversion", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{"input":{"kind":"string","value":"hi"}}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		s, err := decode[RunResponse](t, w).Output.AsString()
		require.NoError(t, err)
		assert.Equal(t, "0x6869", s)
	})

	t.Run("missing simulation", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/Physics.Impulse/activate", `{"input":{"kind":"float3","value":[0,1,0]}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Kind)
	})

	t.Run("wrong input shape", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{"input":{"kind":"float","value":1.5}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "shape_mismatch", decode[ErrorResponse](t, w).Kind)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{"params":{"Width":{"kind":"int","value":4}},"input":{"kind":"string","value":"x"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_parameter", decode[ErrorResponse](t, w).Kind)
	})

	t.Run("bad body", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("session without store", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{"input":{"kind":"string","value":"x"},"session":"s1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

const impulseChain = `{
  "name": "impulse",
  "blocks": [
    {"block": "Physics.Simulation", "params": {"Gravity": [0, 0, 0]}},
    {"block": "Physics.RigidBody", "params": {"Name": "Box", "Bodies": [{"Mass": 2}]}},
    {"block": "Physics.Impulse", "params": {"RigidBody": {"var": "Box"}}},
    {"block": "Physics.Velocity", "params": {"RigidBody": {"var": "Box"}}}
  ]
}`

func TestRunChain(t *testing.T) {
	h := NewHandler(registry(t))

	t.Run("physics", func(t *testing.T) {
		body := `{"chain":` + impulseChain + `,"input":{"kind":"float3","value":[0,4,0]}}`
		w := do(t, h, http.MethodPost, "/chains/run", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		velocities, err := decode[RunResponse](t, w).Output.AsSeq()
		require.NoError(t, err)
		require.Len(t, velocities, 1)
		x, y, z, err := velocities[0].AsFloat3()
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 2, 0}, []float64{x, y, z}, 1e-9)
	})

	t.Run("wiring issues", func(t *testing.T) {
		body := `{"chain":{"blocks":[{"block":"Physics.Impulse"}]},"input":{"kind":"float3","value":[0,1,0]}}`
		w := do(t, h, http.MethodPost, "/chains/run", body)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "wiring", resp.Kind)
		require.NotEmpty(t, resp.Issues)
		assert.Contains(t, resp.Issues[0], "Physics.Impulse")
	})

	t.Run("unknown block", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/chains/run", `{"chain":{"blocks":[{"block":"Nope"}]}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing chain", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/chains/run", `{"input":{"kind":"none"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessions(t *testing.T) {
	store := memory.NewStore()
	h := NewHandler(registry(t), WithSessions(store, memory.NewLocker()))

	remember := `{"chain":{"blocks":[
		{"block":"Const","params":{"Value":"hello"}},
		{"block":"Set","params":{"Name":"Greeting"}}
	]},"session":"alice"}`
	w := do(t, h, http.MethodPost, "/chains/run", remember)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[RunResponse](t, w)
	assert.Equal(t, "alice", resp.Session)
	assert.Contains(t, resp.Variables, "Greeting")

	recall := `{"chain":{"blocks":[{"block":"Get","params":{"Name":"Greeting"}}]},"session":"alice"}`
	w = do(t, h, http.MethodPost, "/chains/run", recall)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s, err := decode[RunResponse](t, w).Output.AsString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	t.Run("other sessions start empty", func(t *testing.T) {
		body := strings.Replace(recall, "alice", "bob", 1)
		w := do(t, h, http.MethodPost, "/chains/run", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "wiring", decode[ErrorResponse](t, w).Kind)
	})

	t.Run("list", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"alice"}, decode[map[string][]string](t, w)["sessions"])
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/sessions/alice", "")
		require.Equal(t, http.StatusOK, w.Code)
		snap := decode[map[string]value.Value](t, w)
		greeting, err := snap["Greeting"].AsString()
		require.NoError(t, err)
		assert.Equal(t, "hello", greeting)

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/nobody", "").Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/sessions/alice", "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/alice", "").Code)
	})
}

func TestSessions_Disabled(t *testing.T) {
	h := NewHandler(registry(t))
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/sessions/x", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(promReg)
	require.NoError(t, err)

	h := NewHandler(registry(t),
		WithHooks(metrics.Hooks()),
		WithMetrics(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})),
	)

	w := do(t, h, http.MethodPost, "/blocks/ToHex/activate", `{"input":{"kind":"string","value":"x"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lattice_block_activations_total{block="ToHex",result="ok"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	s := NewServer(registry(t))
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(substr string) string {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", substr)
				if strings.Contains(line, substr) {
					return line
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", substr)
			}
		}
	}

	waitFor("data: connected")
	require.Equal(t, 1, s.Streams().Len())

	post, err := http.Post(ts.URL+"/blocks/ToHex/activate", "application/json",
		bytes.NewBufferString(`{"input":{"kind":"string","value":"x"}}`))
	require.NoError(t, err)
	post.Body.Close()

	line := waitFor(`"phase":"activate"`)
	var msg EventMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg))
	assert.Equal(t, "ToHex", msg.Block)
	assert.NotEmpty(t, msg.ContextID)
	assert.Empty(t, msg.Error)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())
	_, cancel := sm.Subscribe()
	defer cancel()
	for range 20 {
		sm.Broadcast("x")
	}
	cancel()
	assert.Equal(t, 0, sm.Len())
}
