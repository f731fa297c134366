/*
Package lattice is a kit for writing processing blocks that extend a host dataflow engine.

A host owns graph construction and scheduling; blocks are leaf units driven through a fixed lifecycle: parameters are set, the block is warmed up against an execution context, activated any number of times and finally cleaned up. Blocks exchange tagged values, share state through named context variables and declare which variables they need and provide, so a host can validate wiring before anything runs.

# Concept

  - Values: a discriminated union (pkg/value) with explicit shapes. Native objects travel as tagged references and are only reinterpreted after their TypeTag is checked.
  - Variables: a scoped, ref-counted table (pkg/vars). Parameters either hold a literal or refer to a variable resolved at warmup.
  - Blocks: the ABI in pkg/block, with an explicit Registry and a lifecycle-guarded Instance.
  - Shared simulation: pkg/physics keeps rigid bodies in a generation-checked handle arena that several blocks of one graph mutate.

# Usage

The Runtime bundles a registry with every built-in block, a worker pool for blocking calls and Prometheus metrics fed by lifecycle hooks.

	rt, err := lattice.New()
	if err != nil {
		log.Fatal(err)
	}
	defer rt.Close()

	c, err := rt.LoadChain("impulse.yaml")
	if err != nil {
		log.Fatal(err)
	}
	if err := c.Validate(value.Types{value.Float3Type}, nil); err != nil {
		log.Fatal(err)
	}

	out, err := c.Run(rt.NewContext(context.Background(), nil), value.Float3(0, 4, 0))

The reference host in pkg/chain runs blocks strictly in sequence. Adapters expose the registry over HTTP (pkg/adapters/http) and MCP (pkg/adapters/mcp), and persist variable snapshots in memory, on disk or in Redis.
*/
package lattice
