package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/physics"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/spf13/cobra"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run built-in demonstrations",
	}
	cmd.AddCommand(newPhysicsDemoCmd(opts))
	return cmd
}

type physicsDemo struct {
	bodies      int
	impulse     string
	steps       int
	removeFirst bool
}

func newPhysicsDemoCmd(opts *rootOptions) *cobra.Command {
	demo := &physicsDemo{}

	cmd := &cobra.Command{
		Use:   "physics",
		Short: "Push rigid bodies through a shared simulation",
		Long: `Builds the chain Physics.Simulation -> Physics.RigidBody -> Physics.Impulse -> Physics.Position,
applies the impulse on the first activation and prints the body positions after every step.

With --remove-first the first body is removed afterwards: the collection's handle goes stale,
the next activation fails with a not found error and a body inserted in the freed slot gets a new generation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()
			return demo.run(cmd, rt)
		},
	}

	cmd.Flags().IntVar(&demo.bodies, "bodies", 3, "Number of rigid bodies")
	cmd.Flags().StringVar(&demo.impulse, "impulse", "0,5,0", "Impulse applied on the first step, as x,y,z")
	cmd.Flags().IntVar(&demo.steps, "steps", 5, "Number of activations")
	cmd.Flags().BoolVar(&demo.removeFirst, "remove-first", false, "Remove the first body after the run and show the stale handle")
	return cmd
}

func parseFloat3(s string) (value.Value, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return value.None(), fmt.Errorf("invalid vector %q, expected x,y,z", s)
	}
	xs := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return value.None(), fmt.Errorf("invalid vector %q: %w", s, err)
		}
		xs[i] = f
	}
	return value.Float3(xs[0], xs[1], xs[2]), nil
}

func (d *physicsDemo) chain(rt *lattice.Runtime) (*chain.Chain, error) {
	bodies := make([]value.Value, d.bodies)
	for i := range bodies {
		t := value.NewTable()
		t.Set("Position", value.Float3(float64(2*i), 0, 0))
		t.Set("Mass", value.Float(float64(i+1)))
		bodies[i] = value.TableOf(t)
	}
	collection := value.ContextVar(physics.RigidBodyVariable)

	steps := []struct {
		name   string
		params map[string]value.Value
	}{
		{"Physics.Simulation", nil},
		{"Physics.RigidBody", map[string]value.Value{"Bodies": value.Seq(bodies...)}},
		{"Physics.Impulse", map[string]value.Value{"RigidBody": collection}},
		{"Physics.Position", map[string]value.Value{"RigidBody": collection}},
	}

	blocks := make([]block.Block, len(steps))
	for i, step := range steps {
		b, err := rt.Registry().Create(step.name)
		if err != nil {
			return nil, err
		}
		for name, v := range step.params {
			if err := block.SetParamByName(b, name, v); err != nil {
				return nil, err
			}
		}
		blocks[i] = b
	}
	return rt.NewChain(blocks, chain.WithName("physics-demo")), nil
}

func (d *physicsDemo) run(cmd *cobra.Command, rt *lattice.Runtime) error {
	if d.bodies < 1 || d.steps < 1 {
		return errors.New("--bodies and --steps must be positive")
	}
	impulse, err := parseFloat3(d.impulse)
	if err != nil {
		return err
	}

	c, err := d.chain(rt)
	if err != nil {
		return err
	}
	if err := c.Validate(value.Types{value.Float3Type}, nil); err != nil {
		return err
	}

	ctx := rt.NewContext(cmd.Context(), nil)
	if err := c.Warmup(ctx); err != nil {
		return err
	}
	defer c.Cleanup()

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"STEP"}
	for i := range d.bodies {
		header = append(header, fmt.Sprintf("BODY %d", i))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	in := impulse
	for step := range d.steps {
		positions, err := c.Activate(in)
		if err != nil {
			return err
		}
		in = value.Float3(0, 0, 0)

		row := []string{strconv.Itoa(step)}
		for _, p := range positions.All() {
			row = append(row, p.String())
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if d.removeFirst {
		return removeFirst(cmd, c, ctx)
	}
	return nil
}

// removeFirst removes the first body behind the chain's back and shows
// that its handle is rejected afterwards.
func removeFirst(cmd *cobra.Command, c *chain.Chain, ctx *block.Context) error {
	simValue, _ := ctx.Variables().Lookup(physics.SimulationVariable)
	sim, err := physics.SimulationFrom(simValue)
	if err != nil {
		return err
	}
	rbValue, _ := ctx.Variables().Lookup(physics.RigidBodyVariable)
	rb, err := physics.RigidBodyFrom(rbValue)
	if err != nil {
		return err
	}

	stale := rb.Handles[0]
	if err := sim.Remove(stale); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "removed body %s, %d bodies left\n", stale, sim.Len())

	_, err = c.Activate(value.Float3(0, 0, 0))
	if !errors.Is(err, fault.ErrNotFound) {
		return fmt.Errorf("expected a stale handle error, got %v", err)
	}
	fmt.Fprintf(out, "activation rejected: %v\n", err)

	fresh := sim.Insert(physics.Body{Mass: 1})
	fmt.Fprintf(out, "inserted body %s, stale handle still valid: %t\n", fresh, sim.Contains(stale))
	return nil
}
