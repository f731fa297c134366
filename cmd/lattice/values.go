package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/chain"
	"github.com/aretw0/lattice/pkg/value"
)

// parseValue reads a command line value. The wire form
// ({"kind":"float3","value":[0,1,0]}) is tried first, then plain JSON;
// anything else is taken as a string.
func parseValue(s string) (value.Value, error) {
	if s == "" {
		return value.None(), nil
	}
	var v value.Value
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, nil
	}
	v, err := value.FromNative(parseNative(s))
	if err != nil {
		return value.None(), err
	}
	return vectorize(v), nil
}

// vectorize turns a non-empty sequence of numbers into a vector.
func vectorize(v value.Value) value.Value {
	if v.Kind() != value.KindSeq || v.Len() == 0 {
		return v
	}
	xs := make([]float64, 0, v.Len())
	for _, item := range v.All() {
		switch item.Kind() {
		case value.KindInt:
			i, _ := item.AsInt()
			xs = append(xs, float64(i))
		case value.KindFloat:
			f, _ := item.AsFloat()
			xs = append(xs, f)
		default:
			return v
		}
	}
	return value.Vector(xs...)
}

func parseNative(s string) any {
	var native any
	if err := json.Unmarshal([]byte(s), &native); err != nil {
		return s
	}
	return native
}

// parseParam reads a Name=<value> flag for b. Plain JSON goes through the
// same conversion as chain definitions, so [0,1,0] becomes a vector and
// {"var":"Name"} a variable reference.
func parseParam(b block.Block, flag string) (string, value.Value, error) {
	name, raw, ok := strings.Cut(flag, "=")
	if !ok || name == "" {
		return "", value.None(), fmt.Errorf("invalid param %q, expected Name=<value>", flag)
	}
	var v value.Value
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return name, v, nil
	}
	v, err := chain.ParamValue(b, name, parseNative(raw))
	return name, v, err
}

// formatValue renders an output for the terminal: strings verbatim, bytes
// as 0x prefixed hex and everything else in wire form.
func formatValue(v value.Value) (string, error) {
	if b, err := v.AsBytes(); err == nil {
		return "0x" + hex.EncodeToString(b), nil
	}
	if s, err := v.AsString(); err == nil {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("output is not printable: %w", err)
	}
	return string(data), nil
}
