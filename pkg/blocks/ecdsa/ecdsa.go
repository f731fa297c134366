// Package ecdsa provides secp256k1 signing blocks.
package ecdsa

import (
	"encoding/hex"
	"strings"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/aretw0/lattice/pkg/vars"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var keyTypes = value.Types{
	value.BytesType,
	value.VarOf(value.BytesType),
	value.StringType,
	value.VarOf(value.StringType),
}

// ParseKey reads a private key from 32 raw bytes or their hex encoding.
func ParseKey(v value.Value) (*secp256k1.PrivateKey, error) {
	var raw []byte
	switch v.Kind() {
	case value.KindBytes:
		raw, _ = v.AsBytes()
	case value.KindString:
		s, _ := v.AsString()
		decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return nil, fault.External(err, "Failed to parse key's hex string")
		}
		raw = decoded
	default:
		return nil, fault.ShapeMismatch("bytes|string", v.Shape())
	}

	if len(raw) != secp256k1.PrivKeyBytesLen {
		return nil, fault.New(fault.KindExternalFailure, "Failed to parse secret key")
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, fault.New(fault.KindExternalFailure, "Failed to parse secret key")
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

// Sign signs a 32 byte message hash. Its output is the seq
// [signature, recovery id] where signature is r||s.
type Sign struct {
	block.Base
	key vars.Param
}

func NewSign() block.Block { return &Sign{} }

func (s *Sign) Name() string { return "ECDSA.Sign" }

func (s *Sign) Hash() value.TypeTag { return block.HashOf(s.Name()) }

func (s *Sign) Help() string {
	return "Signs the input message hash with a secp256k1 private key."
}

func (s *Sign) InputTypes() value.Types { return value.BytesTypes }

func (s *Sign) OutputTypes() value.Types { return value.Types{value.AnySeqType} }

func (s *Sign) Parameters() block.Parameters {
	return block.Parameters{{
		Name:  "Key",
		Help:  "The private key to be used to sign the hashed message input.",
		Types: keyTypes,
	}}
}

func (s *Sign) SetParam(i int, v value.Value) error {
	if i != 0 {
		return s.Base.SetParam(i, v)
	}
	s.key.SetParam(v)
	return nil
}

func (s *Sign) GetParam(i int) value.Value {
	if i != 0 {
		return value.None()
	}
	return s.key.GetParam()
}

func (s *Sign) RequiredVariables() block.Descriptor {
	if !s.key.IsVariable() {
		return nil
	}
	return block.Descriptor{{
		Name:  s.key.Name(),
		Help:  "The private key, as raw bytes or hex.",
		Type:  value.BytesType,
		OneOf: value.Types{value.BytesType, value.StringType},
	}}
}

func (s *Sign) Warmup(ctx *block.Context) error {
	s.key.Warmup(ctx.Variables())
	return nil
}

func (s *Sign) Cleanup() {
	s.key.Cleanup()
}

func (s *Sign) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	msg, err := input.AsBytes()
	if err != nil {
		return value.None(), err
	}

	key, err := ParseKey(s.key.Get())
	if err != nil {
		return value.None(), err
	}
	if len(msg) != 32 {
		return value.None(), fault.New(fault.KindExternalFailure, "Failed to parse input message hash")
	}

	// SignCompact prefixes r||s with 27 + recovery id.
	compact := ecdsa.SignCompact(key, msg, false)
	recovery := int64(compact[0] - 27)
	return value.Seq(value.Bytes(compact[1:]), value.Int(recovery)), nil
}

// PublicKey derives the public key of its private key input.
type PublicKey struct {
	block.Base
	compressed bool
}

func NewPublicKey() block.Block { return &PublicKey{} }

func (p *PublicKey) Name() string { return "ECDSA.PublicKey" }

func (p *PublicKey) Hash() value.TypeTag { return block.HashOf(p.Name()) }

func (p *PublicKey) Help() string {
	return "Outputs the secp256k1 public key of the input private key."
}

func (p *PublicKey) InputTypes() value.Types {
	return value.Types{value.BytesType, value.StringType}
}

func (p *PublicKey) OutputTypes() value.Types { return value.BytesTypes }

func (p *PublicKey) Parameters() block.Parameters {
	return block.Parameters{{
		Name:  "Compressed",
		Help:  "If the output PublicKey should use the compressed format.",
		Types: value.Types{value.BoolType},
	}}
}

func (p *PublicKey) SetParam(i int, v value.Value) error {
	if i != 0 {
		return p.Base.SetParam(i, v)
	}
	b, err := v.AsBool()
	if err != nil {
		return fault.Wrap(fault.KindInvalidParameter, err, "Compressed must be a bool")
	}
	p.compressed = b
	return nil
}

func (p *PublicKey) GetParam(i int) value.Value {
	if i != 0 {
		return value.None()
	}
	return value.Bool(p.compressed)
}

func (p *PublicKey) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	key, err := ParseKey(input)
	if err != nil {
		return value.None(), err
	}
	pub := key.PubKey()
	if p.compressed {
		return value.Bytes(pub.SerializeCompressed()), nil
	}
	return value.Bytes(pub.SerializeUncompressed()), nil
}

// Register adds the ECDSA blocks to reg.
func Register(reg *block.Registry) error {
	if err := reg.Register(NewSign); err != nil {
		return err
	}
	return reg.Register(NewPublicKey)
}
