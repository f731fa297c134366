package chain

import (
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Chain runs blocks in order over one shared context.
type Chain struct {
	name      string
	hooks     block.Hooks
	instances []*block.Instance
	ctx       *block.Context
}

// Option configures a Chain.
type Option func(*Chain)

// WithName names the chain in errors and logs.
func WithName(name string) Option {
	return func(c *Chain) {
		c.name = name
	}
}

// WithHooks installs lifecycle hooks on every block of the chain.
func WithHooks(h block.Hooks) Option {
	return func(c *Chain) {
		c.hooks = h
	}
}

// New creates a chain over blocks. Parameters must be set on the blocks
// before Warmup.
func New(blocks []block.Block, opts ...Option) *Chain {
	c := &Chain{name: "main"}
	for _, opt := range opts {
		opt(c)
	}

	c.instances = make([]*block.Instance, len(blocks))
	for i, b := range blocks {
		c.instances[i] = block.NewInstance(b, block.WithHooks(c.hooks))
	}
	return c
}

func (c *Chain) Name() string { return c.name }

func (c *Chain) Len() int { return len(c.instances) }

// Blocks returns the blocks in order.
func (c *Chain) Blocks() []block.Block {
	out := make([]block.Block, len(c.instances))
	for i, inst := range c.instances {
		out[i] = inst.Block()
	}
	return out
}

// Validate checks the wiring without running any block. input is what the
// host feeds the first block and provided lists the variables the host
// sets before warmup. Every required variable must be provided or exposed
// by an earlier block with a compatible type, and every block must accept
// what the previous one produces.
func (c *Chain) Validate(input value.Types, provided block.Descriptor) error {
	available := make(map[string]block.ExposedInfo, len(provided))
	for _, info := range provided {
		available[info.Name] = info
	}

	var issues []Issue
	report := func(i int, b block.Block, err error) {
		issues = append(issues, Issue{Index: i, Block: b.Name(), Err: err})
	}

	previous := input
	for i, inst := range c.instances {
		b := inst.Block()

		for _, required := range b.RequiredVariables() {
			exposed, ok := available[required.Name]
			if !ok {
				report(i, b, fault.NotFound("required variable %q is not exposed by any earlier block", required.Name))
				continue
			}
			if err := checkVariable(required, exposed); err != nil {
				report(i, b, err)
			}
		}

		if !b.InputTypes().Intersects(previous) {
			report(i, b, fault.ShapeMismatch(b.InputTypes().Name(), previous.Name()))
		}

		for _, info := range b.ExposedVariables() {
			available[info.Name] = info
		}
		previous = b.OutputTypes()
	}

	if len(issues) == 0 {
		return nil
	}
	return &WiringError{Chain: c.name, Issues: issues}
}

func checkVariable(required, exposed block.ExposedInfo) error {
	want, got := inner(required.Types()), inner(exposed.Types())
	if want.Intersects(got) {
		return nil
	}
	if len(want) == 1 && len(got) == 1 && want[0].Kind == value.KindObject && got[0].Kind == value.KindObject {
		return fault.TypeTagMismatch("variable %q holds %s, expected %s", required.Name, got.Name(), want.Name())
	}
	return fault.Wrap(fault.KindShapeMismatch, fault.ShapeMismatch(want.Name(), got.Name()), "variable %q", required.Name)
}

func inner(ts value.Types) value.Types {
	out := make(value.Types, len(ts))
	for i, t := range ts {
		out[i] = t.Inner()
	}
	return out
}

// Warmup warms every block in order. If one fails, the blocks warmed so far
// are cleaned up in reverse order and the error is returned.
func (c *Chain) Warmup(ctx *block.Context) error {
	c.ctx = ctx
	for i, inst := range c.instances {
		if err := inst.Warmup(ctx); err != nil {
			c.cleanup(i)
			c.ctx = nil
			return err
		}
	}
	ctx.Logger().Debug("chain warmed", "chain", c.name, "blocks", len(c.instances))
	return nil
}

// Activate feeds input through every block and returns the last output. It
// stops at the first error or when the context is done.
func (c *Chain) Activate(input value.Value) (value.Value, error) {
	if c.ctx == nil {
		fault.Violation("chain %s activated before warmup", c.name)
	}

	current := input
	for _, inst := range c.instances {
		if err := c.ctx.Err(); err != nil {
			return value.None(), err
		}
		out, err := inst.Activate(c.ctx, current)
		if err != nil {
			return value.None(), err
		}
		current = out
	}
	return current, nil
}

// Cleanup releases every block in reverse order. Consumers are released
// before the providers whose variables they hold.
func (c *Chain) Cleanup() {
	if c.ctx == nil {
		return
	}
	c.cleanup(len(c.instances) - 1)
	c.ctx.Logger().Debug("chain cleaned up", "chain", c.name)
	c.ctx = nil
}

func (c *Chain) cleanup(last int) {
	for i := last; i >= 0; i-- {
		c.instances[i].Cleanup()
	}
}

// Run warms the chain, activates it once with input and cleans it up.
func (c *Chain) Run(ctx *block.Context, input value.Value) (value.Value, error) {
	if err := c.Warmup(ctx); err != nil {
		return value.None(), err
	}
	defer c.Cleanup()
	return c.Activate(input)
}

// Snapshot returns the serializable variables of the warmed chain's scope.
// Native objects are skipped. It returns nil when the chain is not warmed.
func (c *Chain) Snapshot() map[string]value.Value {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Variables().Snapshot()
}
