package value

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/lattice/pkg/fault"
)

// FromNative converts a loosely typed Go value (as produced by JSON or YAML
// decoding) into a Value.
func FromNative(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return None(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return None(), fault.ShapeMismatch("number", x.String())
		}
		return Float(f), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case []float64:
		return Vector(x...), nil
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = String(s)
		}
		return Seq(items...), nil
	case []any:
		items := make([]Value, len(x))
		for i, elem := range x {
			item, err := FromNative(elem)
			if err != nil {
				return None(), fault.Wrap(fault.KindOf(err), err, "element %d", i)
			}
			items[i] = item
		}
		return Seq(items...), nil
	case map[string]any:
		t := NewTable()
		for k, elem := range x {
			item, err := FromNative(elem)
			if err != nil {
				return None(), fault.Wrap(fault.KindOf(err), err, "key %q", k)
			}
			t.Set(k, item)
		}
		return TableOf(t), nil
	default:
		return None(), fault.ShapeMismatch("native value", fmt.Sprintf("%T", in))
	}
}

// ToNative converts v into plain Go values: nil, bool, int64, float64,
// []float64, string, []byte, []any and map[string]any. Objects yield their
// native pointer and context variables their name.
func ToNative(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.num
	case KindVector:
		return slices.Clone(v.vec)
	case KindString, KindContextVar:
		return v.str
	case KindBytes:
		return v.bytes
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = ToNative(item)
		}
		return out
	case KindTable:
		out := make(map[string]any, v.table.Len())
		for k, item := range v.table.All() {
			out[k] = ToNative(item)
		}
		return out
	case KindObject:
		return v.obj
	default:
		return nil
	}
}
