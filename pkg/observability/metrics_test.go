package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(phase block.Phase, name string, err error) *block.Event {
	return &block.Event{
		Timestamp: time.Now(),
		Phase:     phase,
		Block:     name,
		ContextID: "ctx-1",
		Duration:  2 * time.Millisecond,
		Err:       err,
	}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnWarmup(ctx, event(block.PhaseWarmup, "Physics.Impulse", nil))
	hooks.OnActivate(ctx, event(block.PhaseActivate, "Physics.Impulse", nil))
	hooks.OnActivate(ctx, event(block.PhaseActivate, "Physics.Impulse", nil))
	hooks.OnActivate(ctx, event(block.PhaseActivate, "Physics.Impulse",
		fault.WithBlock(fault.NotFound("RigidBody not found in the simulation"), "Physics.Impulse")))
	hooks.OnActivate(ctx, event(block.PhaseActivate, "Browse",
		fault.WithBlock(context.Canceled, "Browse")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Warmups.WithLabelValues("Physics.Impulse")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Activations.WithLabelValues("Physics.Impulse", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Activations.WithLabelValues("Physics.Impulse", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("Physics.Impulse", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("Browse", "canceled")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))

	names, err := reg.Gather()
	require.NoError(t, err)
	var families []string
	for _, mf := range names {
		families = append(families, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"lattice_block_activations_total",
		"lattice_block_errors_total",
		"lattice_block_activation_duration_seconds",
		"lattice_block_warmups_total",
	}, families)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)

	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m.Hooks().OnActivate)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnWarmup(ctx, event(block.PhaseWarmup, "Hash.Sha2-256", nil))
	hooks.OnActivate(ctx, event(block.PhaseActivate, "Hash.Sha2-256", errors.New("boom")))
	hooks.OnCleanup(ctx, event(block.PhaseCleanup, "Hash.Sha2-256", nil))

	out := buf.String()
	assert.Contains(t, out, "msg=block_warmup")
	assert.Contains(t, out, "level=WARN msg=block_failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "msg=block_cleanup")
	assert.Contains(t, out, "context_id=ctx-1")
}
