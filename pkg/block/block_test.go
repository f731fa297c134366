package block

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter adds its input to a shared variable and returns the new total.
type counter struct {
	Base
	warmupErr error
	total     vars.Param
	cleanups  int
}

func newCounter() Block {
	c := &counter{}
	c.total.SetName("Total")
	return c
}

func (c *counter) Name() string        { return "Test.Counter" }
func (c *counter) Hash() value.TypeTag { return HashOf("Test.Counter") }

func (c *counter) InputTypes() value.Types  { return value.Types{value.IntType} }
func (c *counter) OutputTypes() value.Types { return value.Types{value.IntType} }

func (c *counter) Parameters() Parameters {
	return Parameters{{Name: "Total", Help: "Variable holding the sum.", Types: value.Types{value.VarOf(value.IntType)}}}
}

func (c *counter) SetParam(i int, v value.Value) error {
	if i != 0 {
		return c.Base.SetParam(i, v)
	}
	c.total.SetParam(v)
	return nil
}

func (c *counter) GetParam(i int) value.Value {
	if i != 0 {
		return value.None()
	}
	return c.total.GetParam()
}

func (c *counter) RequiredVariables() Descriptor {
	return Descriptor{{Name: c.total.Name(), Type: value.IntType}}
}

func (c *counter) Warmup(ctx *Context) error {
	c.total.Warmup(ctx.Variables())
	return c.warmupErr
}

func (c *counter) Activate(ctx *Context, input value.Value) (value.Value, error) {
	n, _ := input.AsInt()
	current, err := c.total.Get().AsInt()
	if err != nil && !c.total.Get().IsNone() {
		return value.None(), err
	}
	c.total.Set(value.Int(current + n))
	return c.total.Get(), nil
}

func (c *counter) Cleanup() {
	c.cleanups++
	c.total.Cleanup()
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newCounter))

	err := reg.Register(newCounter)
	assert.ErrorIs(t, err, ErrDuplicateBlock)

	b, err := reg.Create("Test.Counter")
	require.NoError(t, err)
	assert.Equal(t, "Test.Counter", b.Name())

	_, err = reg.Create("Missing")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	assert.Equal(t, []string{"Test.Counter"}, reg.List())
}

func TestRegistry_TagCollision(t *testing.T) {
	reg := NewRegistry()
	tag := value.Tag("Physics.Simulation-go-0x20200101")

	require.NoError(t, reg.RegisterType("Physics.Simulation", tag))
	require.NoError(t, reg.RegisterType("Physics.Simulation", tag), "same identity is idempotent")

	err := reg.RegisterType("Physics.RigidBody", tag)
	assert.ErrorIs(t, err, ErrTagCollision)

	err = reg.RegisterType("Zero", 0)
	assert.ErrorIs(t, err, ErrTagCollision)

	identity, ok := reg.TypeOf(tag)
	require.True(t, ok)
	assert.Equal(t, "Physics.Simulation", identity)
}

func TestInstance_Lifecycle(t *testing.T) {
	table := vars.NewTable()
	ctx := NewContext(context.Background(), table)

	var events []Phase
	record := func(_ context.Context, e *Event) {
		events = append(events, e.Phase)
		assert.Equal(t, "Test.Counter", e.Block)
		assert.Equal(t, ctx.ID(), e.ContextID)
	}
	inst := NewInstance(newCounter(), WithHooks(Hooks{OnWarmup: record, OnActivate: record, OnCleanup: record}))

	require.NoError(t, inst.Warmup(ctx))
	out, err := inst.Activate(ctx, value.Int(2))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(2), out))

	out, err = inst.Activate(ctx, value.Int(3))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(5), out))

	total, ok := table.Lookup("Total")
	require.True(t, ok)
	assert.True(t, value.Equal(value.Int(5), total))

	inst.Cleanup()
	inst.Cleanup()
	assert.Equal(t, 1, inst.Block().(*counter).cleanups)
	assert.Equal(t, []Phase{PhaseWarmup, PhaseActivate, PhaseActivate, PhaseCleanup}, events)
	assert.Empty(t, table.Names(), "cleanup released the only reference")
}

func TestInstance_InputValidated(t *testing.T) {
	ctx := NewContext(context.Background(), nil)
	inst := NewInstance(newCounter())
	require.NoError(t, inst.Warmup(ctx))
	defer inst.Cleanup()

	_, err := inst.Activate(ctx, value.String("two"))
	require.ErrorIs(t, err, fault.ErrShapeMismatch)

	var f *fault.Error
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "Test.Counter", f.Block)
}

func TestInstance_FailedWarmupStillCleansUp(t *testing.T) {
	table := vars.NewTable()
	ctx := NewContext(context.Background(), table)
	c := newCounter().(*counter)
	c.warmupErr = errors.New("device busy")
	inst := NewInstance(c)

	err := inst.Warmup(ctx)
	require.ErrorIs(t, err, fault.ErrExternalFailure)
	assert.Equal(t, "Test.Counter: device busy", err.Error())

	inst.Cleanup()
	inst.Cleanup()
	assert.Equal(t, 1, c.cleanups)
	assert.Empty(t, table.Names())
}

func TestInstance_ContractViolations(t *testing.T) {
	ctx := NewContext(context.Background(), nil)

	t.Run("activate before warmup", func(t *testing.T) {
		inst := NewInstance(newCounter())
		assert.Panics(t, func() { inst.Activate(ctx, value.Int(1)) })
	})

	t.Run("activate after cleanup", func(t *testing.T) {
		inst := NewInstance(newCounter())
		require.NoError(t, inst.Warmup(ctx))
		inst.Cleanup()
		assert.Panics(t, func() { inst.Activate(ctx, value.Int(1)) })
	})

	t.Run("double warmup", func(t *testing.T) {
		inst := NewInstance(newCounter())
		require.NoError(t, inst.Warmup(ctx))
		defer inst.Cleanup()
		assert.Panics(t, func() { inst.Warmup(ctx) })
	})

	t.Run("set param while warmed", func(t *testing.T) {
		inst := NewInstance(newCounter())
		require.NoError(t, inst.Warmup(ctx))
		defer inst.Cleanup()
		assert.Panics(t, func() { inst.SetParam("Total", value.ContextVar("Other")) })
	})
}

func TestSetParamByName(t *testing.T) {
	b := newCounter()

	require.NoError(t, SetParamByName(b, "Total", value.ContextVar("Sum")))
	assert.Equal(t, []string{"Sum"}, b.RequiredVariables().Names(), "descriptor follows the parameter")

	err := SetParamByName(b, "Total", value.Int(1))
	assert.ErrorIs(t, err, fault.ErrInvalidParameter)

	err = SetParamByName(b, "Nope", value.Int(1))
	assert.ErrorIs(t, err, fault.ErrInvalidParameter)

	got, err := GetParamByName(b, "Total")
	require.NoError(t, err)
	assert.True(t, value.Equal(value.ContextVar("Sum"), got))
}

func TestDescribe(t *testing.T) {
	info := Describe(newCounter())
	assert.Equal(t, "Test.Counter", info.Name)
	assert.Equal(t, HashOf("Test.Counter").String(), info.Hash)
	assert.Equal(t, "int", info.InputTypes)
	require.Len(t, info.Parameters, 1)
	assert.Equal(t, "var(int)", info.Parameters[0].Types)
	assert.Equal(t, ".Total", info.Parameters[0].Current)
	require.Len(t, info.Required, 1)
	assert.Equal(t, "Total", info.Required[0].Name)
	assert.Empty(t, info.Exposed)
}

func TestJoinHooks(t *testing.T) {
	var calls []string
	a := Hooks{OnActivate: func(context.Context, *Event) { calls = append(calls, "a") }}
	b := Hooks{
		OnActivate: func(context.Context, *Event) { calls = append(calls, "b") },
		OnCleanup:  func(context.Context, *Event) { calls = append(calls, "b-cleanup") },
	}

	joined := JoinHooks(a, b)
	joined.fire(context.Background(), &Event{Phase: PhaseActivate})
	joined.fire(context.Background(), &Event{Phase: PhaseCleanup})
	joined.fire(context.Background(), &Event{Phase: PhaseWarmup})
	assert.Equal(t, []string{"a", "b", "b-cleanup"}, calls)
	assert.Nil(t, joined.OnWarmup)
}

func TestContext_Await(t *testing.T) {
	ctx := NewContext(context.Background(), nil, WithID("ctx-1"))
	assert.Equal(t, "ctx-1", ctx.ID())
	assert.NotNil(t, ctx.Variables())

	out, err := ctx.Await(func(context.Context) (value.Value, error) {
		return value.Bool(true), nil
	})
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Bool(true), out))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewContext(cancelled, nil).Await(func(ctx context.Context) (value.Value, error) {
		<-ctx.Done()
		return value.None(), ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
