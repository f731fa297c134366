// Package browse provides the block that opens a URL in the user's browser.
package browse

import (
	"context"

	"github.com/aretw0/lattice/pkg/adapters/process"
	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// Opener opens a target such as a URL.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// Browse opens its string input and passes it through. The blocking launch
// is offloaded through the execution context.
type Browse struct {
	block.Base
	opener Opener
}

// New returns a constructor for Browse blocks using opener. A nil opener
// uses the platform launcher.
func New(opener Opener) block.Constructor {
	if opener == nil {
		opener = process.NewLauncher()
	}
	return func() block.Block {
		return &Browse{opener: opener}
	}
}

func (b *Browse) Name() string { return "Browse" }

func (b *Browse) Hash() value.TypeTag { return block.HashOf(b.Name()) }

func (b *Browse) Help() string { return "Opens the input URL with the default browser." }

func (b *Browse) InputTypes() value.Types { return value.Types{value.StringType} }

func (b *Browse) OutputTypes() value.Types { return value.Types{value.StringType} }

func (b *Browse) Activate(ctx *block.Context, input value.Value) (value.Value, error) {
	target, err := input.AsString()
	if err != nil {
		return value.None(), err
	}

	_, err = ctx.Await(func(c context.Context) (value.Value, error) {
		return value.None(), b.opener.Open(c, target)
	})
	if err != nil {
		if ctx.Err() != nil {
			return value.None(), err
		}
		ctx.Logger().Warn("browse failed", "target", target, "error", err)
		return value.None(), fault.External(err, "Failed to browse.")
	}
	return input, nil
}
