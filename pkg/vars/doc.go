// Package vars implements variable binding between blocks.
//
// A Table holds named variables in nested scopes. Blocks never read a
// Table directly: they declare a Param, bind it during warmup and release
// it during cleanup.
//
//	p := vars.NewParam(value.ContextVar("Physics.Simulation"))
//	p.Warmup(table)
//	defer p.Cleanup()
//	sim := p.Get()
package vars
