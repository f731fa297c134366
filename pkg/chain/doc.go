// Package chain is a small sequential host for blocks.
//
// A Chain wires blocks one after another: the output of each block is the
// input of the next, and all of them share one variable table. It exists to
// exercise blocks from tests, the CLI and the HTTP adapter; it does not
// schedule, branch or run blocks concurrently.
//
//	c := chain.New([]block.Block{sim, bodies, impulse})
//	if err := c.Validate(nil, nil); err != nil {
//	    return err
//	}
//	out, err := c.Run(ctx, value.Float3(0, 1, 0))
//
// Validate checks the wiring statically from the block descriptors, so
// missing variables and mismatched shapes are reported before any block
// is warmed.
package chain
