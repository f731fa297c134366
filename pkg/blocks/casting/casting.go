// Package casting provides blocks converting between byte strings and their
// textual encodings.
package casting

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/mr-tron/base58"
)

// convert is a parameterless block defined by a single function.
type convert struct {
	block.Base
	fn     func(value.Value) (value.Value, error)
	name   string
	help   string
	input  value.Types
	output value.Types
}

func (c *convert) Name() string { return c.name }

func (c *convert) Hash() value.TypeTag { return block.HashOf(c.name) }

func (c *convert) Help() string { return c.help }

func (c *convert) InputTypes() value.Types { return c.input }

func (c *convert) OutputTypes() value.Types { return c.output }

func (c *convert) Activate(_ *block.Context, input value.Value) (value.Value, error) {
	return c.fn(input)
}

var bytesOrString = value.Types{value.BytesType, value.StringType}

func raw(v value.Value) []byte {
	if b, err := v.AsBytes(); err == nil {
		return b
	}
	s, _ := v.AsString()
	return []byte(s)
}

// NewToHex converts bytes, strings and ints to a 0x prefixed hex string.
// Ints are encoded big endian, without leading zero bytes.
func NewToHex() block.Block {
	return &convert{
		name:   "ToHex",
		help:   "Converts the input into a 0x prefixed hex string.",
		input:  value.Types{value.BytesType, value.StringType, value.IntType},
		output: value.Types{value.StringType},
		fn: func(v value.Value) (value.Value, error) {
			if i, err := v.AsInt(); err == nil {
				var buf [8]byte
				binary.BigEndian.PutUint64(buf[:], uint64(i))
				trimmed := strings.TrimLeft(hex.EncodeToString(buf[:]), "0")
				if trimmed == "" {
					trimmed = "0"
				}
				return value.String("0x" + trimmed), nil
			}
			return value.String("0x" + hex.EncodeToString(raw(v))), nil
		},
	}
}

// NewHexToBytes parses a hex string, with or without 0x prefix.
func NewHexToBytes() block.Block {
	return &convert{
		name:   "HexToBytes",
		help:   "Parses a hex string, with or without 0x prefix, into bytes.",
		input:  value.Types{value.StringType},
		output: value.BytesTypes,
		fn: func(v value.Value) (value.Value, error) {
			s, _ := v.AsString()
			s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
			if len(s)%2 == 1 {
				s = "0" + s
			}
			b, err := hex.DecodeString(s)
			if err != nil {
				return value.None(), fault.External(err, "Failed to parse hex string")
			}
			return value.Bytes(b), nil
		},
	}
}

// NewBase58Encode encodes bytes or a string with the Bitcoin alphabet.
func NewBase58Encode() block.Block {
	return &convert{
		name:   "Base58.Encode",
		help:   "Encodes the input using the Bitcoin base58 alphabet.",
		input:  bytesOrString,
		output: value.Types{value.StringType},
		fn: func(v value.Value) (value.Value, error) {
			return value.String(base58.Encode(raw(v))), nil
		},
	}
}

// NewBase58Decode decodes a base58 string.
func NewBase58Decode() block.Block {
	return &convert{
		name:   "Base58.Decode",
		help:   "Decodes a base58 string into bytes.",
		input:  value.Types{value.StringType},
		output: value.BytesTypes,
		fn: func(v value.Value) (value.Value, error) {
			s, _ := v.AsString()
			b, err := base58.Decode(s)
			if err != nil {
				return value.None(), fault.External(err, "Failed to decode base58 string")
			}
			return value.Bytes(b), nil
		},
	}
}

// Register adds the casting blocks to reg.
func Register(reg *block.Registry) error {
	for _, ctor := range []block.Constructor{NewToHex, NewHexToBytes, NewBase58Encode, NewBase58Decode} {
		if err := reg.Register(ctor); err != nil {
			return err
		}
	}
	return nil
}
