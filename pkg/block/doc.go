/*
Package block defines the contract between a host engine and the blocks it
drives.

A block is created from a Registry, configured through SetParam, then moved
through Warmup, repeated Activate calls and Cleanup by an Instance:

	reg := block.NewRegistry()
	reg.MustRegister(physics.NewImpulse)

	b, _ := reg.Create("Physics.Impulse")
	inst := block.NewInstance(b)
	ctx := block.NewContext(context.Background(), table)

	if err := inst.Warmup(ctx); err != nil {
		...
	}
	defer inst.Cleanup()
	out, err := inst.Activate(ctx, value.Float3(0, 1, 0))

Blocks that need to wait on the OS or the network do so through
Context.Await, which offloads the call and abandons it on cancellation.
*/
package block
