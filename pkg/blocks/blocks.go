// Package blocks wires every built-in block into a registry.
package blocks

import (
	"net/http"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/blocks/browse"
	"github.com/aretw0/lattice/pkg/blocks/casting"
	"github.com/aretw0/lattice/pkg/blocks/core"
	"github.com/aretw0/lattice/pkg/blocks/ecdsa"
	"github.com/aretw0/lattice/pkg/blocks/hash"
	httpblocks "github.com/aretw0/lattice/pkg/blocks/http"
	"github.com/aretw0/lattice/pkg/blocks/physics"
)

// Options carries the external dependencies of the built-in blocks.
type Options struct {
	// Opener launches URLs for Browse. Nil uses the platform launcher.
	Opener browse.Opener
	// HTTPClient performs Http.Get requests. Nil uses http.DefaultClient.
	HTTPClient *http.Client
	// Simulation sets the defaults of Physics.Simulation blocks.
	Simulation []physics.SimulationOption
}

// RegisterAll adds every built-in block to reg.
func RegisterAll(reg *block.Registry, opts Options) error {
	if err := core.Register(reg); err != nil {
		return err
	}
	if err := hash.Register(reg); err != nil {
		return err
	}
	if err := ecdsa.Register(reg); err != nil {
		return err
	}
	if err := casting.Register(reg); err != nil {
		return err
	}
	if err := physics.Register(reg, opts.Simulation...); err != nil {
		return err
	}
	if err := reg.Register(browse.New(opts.Opener)); err != nil {
		return err
	}
	return reg.Register(httpblocks.New(opts.HTTPClient))
}
