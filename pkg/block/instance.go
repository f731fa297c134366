package block

import (
	"time"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// State is the lifecycle state of an Instance.
type State int

const (
	StateCreated State = iota
	StateWarmed
	StateCleaned
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateWarmed:
		return "warmed"
	case StateCleaned:
		return "cleaned"
	default:
		return "unknown"
	}
}

// Instance drives one block through its lifecycle and enforces the order
// of calls. Hosts should always go through an Instance rather than calling
// a Block directly.
type Instance struct {
	block Block
	ctx   *Context
	hooks Hooks
	state State
}

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithHooks installs lifecycle callbacks.
func WithHooks(h Hooks) InstanceOption {
	return func(i *Instance) {
		i.hooks = h
	}
}

// NewInstance wraps b.
func NewInstance(b Block, opts ...InstanceOption) *Instance {
	i := &Instance{block: b}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Instance) Block() Block { return i.block }

func (i *Instance) Name() string { return i.block.Name() }

func (i *Instance) State() State { return i.state }

// SetParam validates and sets a parameter by name. Parameters are frozen
// while the instance is warmed.
func (i *Instance) SetParam(name string, v value.Value) error {
	if i.state == StateWarmed {
		fault.Violation("%s: parameter %s set after warmup", i.Name(), name)
	}
	return SetParamByName(i.block, name, v)
}

// Warmup binds the block to ctx. The instance counts as warmed even if the
// block fails, so Cleanup still releases whatever was acquired.
func (i *Instance) Warmup(ctx *Context) error {
	if i.state == StateWarmed {
		fault.Violation("%s: warmup called twice without cleanup", i.Name())
	}

	start := time.Now()
	err := i.block.Warmup(ctx)
	i.state = StateWarmed
	i.ctx = ctx

	err = fault.WithBlock(err, i.Name())
	i.emit(PhaseWarmup, start, err)
	if err != nil {
		ctx.Logger().Debug("block warmup failed", "block", i.Name(), "error", err)
	}
	return err
}

// Activate validates input against the declared input types and runs the
// block. Activating an instance that is not warmed is a contract violation.
func (i *Instance) Activate(ctx *Context, input value.Value) (value.Value, error) {
	if i.state != StateWarmed {
		fault.Violation("%s: activate called in state %s", i.Name(), i.state)
	}

	start := time.Now()
	if err := i.block.InputTypes().Validate(input); err != nil {
		err = fault.WithBlock(err, i.Name())
		i.emit(PhaseActivate, start, err)
		return value.None(), err
	}

	out, err := i.block.Activate(ctx, input)
	err = fault.WithBlock(err, i.Name())
	i.emit(PhaseActivate, start, err)
	if err != nil {
		return value.None(), err
	}
	return out, nil
}

// Cleanup releases the block. It runs the block's Cleanup exactly once per
// warmup; further calls are no-ops.
func (i *Instance) Cleanup() {
	if i.state != StateWarmed {
		return
	}

	start := time.Now()
	i.block.Cleanup()
	i.state = StateCleaned
	i.emit(PhaseCleanup, start, nil)
	i.ctx = nil
}

func (i *Instance) emit(phase Phase, start time.Time, err error) {
	if i.ctx == nil {
		return
	}
	i.hooks.fire(i.ctx.Context(), &Event{
		Timestamp: start,
		Phase:     phase,
		Block:     i.Name(),
		ContextID: i.ctx.ID(),
		Duration:  time.Since(start),
		Err:       err,
	})
}
