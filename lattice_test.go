package lattice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopOpener struct{}

func (nopOpener) Open(context.Context, string) error { return nil }

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	base := []Option{WithLogger(logging.NewNop()), WithOpener(nopOpener{})}
	rt, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestNew_Defaults(t *testing.T) {
	rt := newRuntime(t)
	assert.Equal(t, config.Default(), rt.Config())
	for _, name := range []string{"Physics.Simulation", "Hash.Keccak-256", "ECDSA.Sign", "Browse", "Get"} {
		_, ok := rt.Registry().Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 0
	_, err := New(WithConfig(cfg), WithLogger(logging.NewNop()))
	assert.ErrorContains(t, err, "workers must be positive")
}

func TestLoadChain_UsesConfiguredGravity(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.Gravity = []float64{0, -10, 0}
	cfg.Physics.TimeStep = 0.5

	var activations atomic.Int32
	rt := newRuntime(t, WithConfig(cfg), WithHooks(block.Hooks{
		OnActivate: func(context.Context, *block.Event) { activations.Add(1) },
	}))

	path := filepath.Join(t.TempDir(), "fall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: fall
blocks:
  - block: Physics.Simulation
  - block: Physics.RigidBody
    params:
      Bodies:
        - Mass: 1
  - block: Physics.Velocity
    params:
      RigidBody: {var: Physics.RigidBody}
`), 0o644))

	c, err := rt.LoadChain(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate(value.NoneTypes, nil))

	require.NoError(t, c.Warmup(rt.NewContext(context.Background(), nil)))
	defer c.Cleanup()

	// Bodies join the simulation on the first pass, after it stepped.
	_, err = c.Activate(value.None())
	require.NoError(t, err)
	out, err := c.Activate(value.None())
	require.NoError(t, err)

	velocities, err := out.AsSeq()
	require.NoError(t, err)
	require.Len(t, velocities, 1)
	x, y, z, err := velocities[0].AsFloat3()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, -5, 0}, []float64{x, y, z}, 1e-9)
	assert.Equal(t, int32(6), activations.Load())

	w := httptest.NewRecorder()
	rt.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `lattice_block_activations_total{block="Physics.Velocity",result="ok"} 2`)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	snap := map[string]value.Value{"Greeting": value.String("hi")}

	drivers := map[string]func(*config.Config){
		config.DriverMemory: func(*config.Config) {},
		config.DriverFile: func(cfg *config.Config) {
			cfg.Store.Path = t.TempDir()
		},
		config.DriverRedis: func(cfg *config.Config) {
			cfg.Store.Redis.Addr = miniredis.RunT(t).Addr()
		},
	}

	for driver, setup := range drivers {
		t.Run(driver, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Driver = driver
			setup(&cfg)

			store, locker, closer, err := newRuntime(t, WithConfig(cfg)).Sessions()
			require.NoError(t, err)
			defer closer.Close()

			unlock, err := locker.Lock(ctx, "alice", 0)
			require.NoError(t, err)
			require.NoError(t, store.Save(ctx, "alice", snap))
			require.NoError(t, unlock(ctx))

			got, err := store.Load(ctx, "alice")
			require.NoError(t, err)
			assert.True(t, value.Equal(snap["Greeting"], got["Greeting"]))
		})
	}
}

func TestSampleChains(t *testing.T) {
	rt := newRuntime(t)

	inputs := map[string]value.Value{
		"impulse.yaml":  value.Float3(0, 5, 0),
		"digest.yaml":   value.String("abc"),
		"remember.yaml": value.String("hello"),
		"recall.yaml":   value.None(),
	}

	paths, err := filepath.Glob(filepath.Join("examples", "chains", "*.yaml"))
	require.NoError(t, err)
	require.Len(t, paths, len(inputs))

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			input, ok := inputs[filepath.Base(path)]
			require.True(t, ok, "no input for %s", path)

			c, err := rt.LoadChain(path)
			require.NoError(t, err)
			require.NoError(t, c.Validate(value.Types{input.Type()}, nil))

			_, err = c.Run(rt.NewContext(context.Background(), nil), input)
			require.NoError(t, err)
		})
	}
}
