// Package hash provides the message digest blocks.
package hash

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	gohash "hash"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"golang.org/x/crypto/sha3"
)

// InputTypes are the shapes every digest block accepts. Sequences are
// hashed as the concatenation of their elements.
var InputTypes = value.Types{value.BytesType, value.BytesSeqType, value.StringType, value.StringsType}

// Algorithm names one digest function.
type Algorithm struct {
	Name string
	Help string
	New  func() gohash.Hash
}

var Algorithms = []Algorithm{
	{Name: "Hash.Keccak-256", Help: "Legacy Keccak-256, as used by Ethereum.", New: sha3.NewLegacyKeccak256},
	{Name: "Hash.Keccak-512", Help: "Legacy Keccak-512.", New: sha3.NewLegacyKeccak512},
	{Name: "Hash.Sha3-256", Help: "FIPS 202 SHA3-256.", New: sha3.New256},
	{Name: "Hash.Sha3-512", Help: "FIPS 202 SHA3-512.", New: sha3.New512},
	{Name: "Hash.Sha2-256", Help: "FIPS 180-4 SHA-256.", New: sha256.New},
	{Name: "Hash.Sha2-512", Help: "FIPS 180-4 SHA-512.", New: sha512.New},
}

// Hasher is a digest block. It keeps one hash state and one output buffer
// across activations; every output is a copy, so values returned earlier
// are never overwritten.
type Hasher struct {
	block.Base
	algo   Algorithm
	state  gohash.Hash
	output []byte
}

// New returns a constructor for the digest block of algo.
func New(algo Algorithm) block.Constructor {
	return func() block.Block {
		return &Hasher{algo: algo}
	}
}

func (h *Hasher) Name() string { return h.algo.Name }

func (h *Hasher) Hash() value.TypeTag { return block.HashOf(h.algo.Name) }

func (h *Hasher) Help() string { return h.algo.Help }

func (h *Hasher) InputTypes() value.Types { return InputTypes }

func (h *Hasher) OutputTypes() value.Types { return value.BytesTypes }

func (h *Hasher) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	if h.state == nil {
		h.state = h.algo.New()
	}
	h.state.Reset()

	if input.IsSeq() {
		for i, item := range input.All() {
			if err := write(h.state, item); err != nil {
				return value.None(), fault.Wrap(fault.KindShapeMismatch, err, "element %d", i)
			}
		}
	} else if err := write(h.state, input); err != nil {
		return value.None(), err
	}

	h.output = h.state.Sum(h.output[:0])
	return value.Bytes(bytes.Clone(h.output)), nil
}

func write(w gohash.Hash, v value.Value) error {
	switch v.Kind() {
	case value.KindBytes:
		b, _ := v.AsBytes()
		w.Write(b)
	case value.KindString:
		s, _ := v.AsString()
		w.Write([]byte(s))
	default:
		return fault.ShapeMismatch("bytes|string", v.Shape())
	}
	return nil
}

// Register adds every digest block to reg.
func Register(reg *block.Registry) error {
	for _, algo := range Algorithms {
		if err := reg.Register(New(algo)); err != nil {
			return err
		}
	}
	return nil
}
