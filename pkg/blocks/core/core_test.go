package core

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warmed(t *testing.T, ctx *block.Context, b block.Block, params map[string]value.Value) *block.Instance {
	t.Helper()
	inst := block.NewInstance(b)
	for name, v := range params {
		require.NoError(t, inst.SetParam(name, v))
	}
	require.NoError(t, inst.Warmup(ctx))
	t.Cleanup(inst.Cleanup)
	return inst
}

func TestConst(t *testing.T) {
	ctx := block.NewContext(context.Background(), nil)
	c := warmed(t, ctx, NewConst(), map[string]value.Value{"Value": value.Float3(0, 1, 0)})

	out, err := c.Activate(ctx, value.String("ignored"))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Float3(0, 1, 0), out))
	assert.Equal(t, "float3", c.Block().OutputTypes().Name())

	assert.ErrorIs(t, block.SetParamByName(NewConst(), "Value", value.ContextVar("x")), fault.ErrInvalidParameter)
}

func TestSetGet_RoundTrip(t *testing.T) {
	table := vars.NewTable()
	ctx := block.NewContext(context.Background(), table)

	set := warmed(t, ctx, NewSet(), map[string]value.Value{"Name": value.String("Greeting")})
	get := warmed(t, ctx, NewGet(), map[string]value.Value{"Name": value.String("Greeting")})

	buf := []byte("hi")
	out, err := set.Activate(ctx, value.Bytes(buf))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Bytes([]byte("hi")), out), "Set passes its input through")

	buf[0] = 'H'
	got, err := get.Activate(ctx, value.None())
	require.NoError(t, err)
	b, _ := got.AsBytes()
	assert.Equal(t, "hi", string(b), "Set stores a copy")

	snap := table.Snapshot()
	assert.Contains(t, snap, "Greeting")
}

func TestGet_Unset(t *testing.T) {
	ctx := block.NewContext(context.Background(), nil)

	get := warmed(t, ctx, NewGet(), map[string]value.Value{"Name": value.String("Missing")})
	_, err := get.Activate(ctx, value.None())
	assert.ErrorIs(t, err, fault.ErrNotFound)
	assert.Contains(t, err.Error(), `variable "Missing" is not set`)

	withDefault := warmed(t, ctx, NewGet(), map[string]value.Value{
		"Name":    value.String("Missing"),
		"Default": value.Int(7),
	})
	out, err := withDefault.Activate(ctx, value.None())
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(7), out))
}

func TestDescriptors(t *testing.T) {
	set := NewSet()
	require.NoError(t, block.SetParamByName(set, "Name", value.String("X")))
	assert.Equal(t, []string{"X"}, set.ExposedVariables().Names())

	get := NewGet()
	require.NoError(t, block.SetParamByName(get, "Name", value.String("X")))
	assert.Equal(t, []string{"X"}, get.RequiredVariables().Names())

	require.NoError(t, block.SetParamByName(get, "Default", value.Int(0)))
	assert.Empty(t, get.RequiredVariables(), "a default makes the variable optional")
}

func TestWarmup_RequiresName(t *testing.T) {
	ctx := block.NewContext(context.Background(), nil)
	for _, ctor := range []block.Constructor{NewSet, NewGet} {
		inst := block.NewInstance(ctor())
		assert.ErrorIs(t, inst.Warmup(ctx), fault.ErrInvalidParameter)
		inst.Cleanup()
	}
}
