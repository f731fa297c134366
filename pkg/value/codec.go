package value

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aretw0/lattice/pkg/fault"
)

// wireValue is the JSON wire form. Every encoded value carries its
// discriminant explicitly, e.g. {"kind":"float3","value":[0,1,0]}.
type wireValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// vectorKinds maps the fixed-length vector kinds to their length.
var vectorKinds = map[string]int{"float2": 2, "float3": 3, "float4": 4}

// MarshalJSON encodes v in the wire form. Native objects are references
// into process memory and cannot be encoded.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.kind.String()}

	var payload any
	switch v.kind {
	case KindNone:
		return json.Marshal(w)
	case KindBool:
		payload = v.b
	case KindInt:
		payload = v.i
	case KindFloat:
		payload = v.num
	case KindVector:
		if _, ok := vectorKinds[v.Shape()]; ok {
			w.Kind = v.Shape()
		} else {
			w.Kind = "vector"
		}
		payload = v.vec
	case KindString, KindContextVar:
		payload = v.str
	case KindBytes:
		payload = v.bytes
	case KindSeq:
		items := v.seq
		if items == nil {
			items = []Value{}
		}
		payload = items
	case KindTable:
		entries := make(map[string]Value, v.table.Len())
		for k, item := range v.table.All() {
			entries[k] = item
		}
		payload = entries
	default:
		return nil, fault.ShapeMismatch("serializable value", v.Shape())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	w.Value = raw
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	decode := func(target any) error {
		if len(w.Value) == 0 {
			return fault.New(fault.KindShapeMismatch, "value of kind %q has no payload", w.Kind)
		}
		if err := json.Unmarshal(w.Value, target); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", w.Kind, err)
		}
		return nil
	}

	switch {
	case w.Kind == "none":
		*v = None()
	case w.Kind == "bool":
		var b bool
		if err := decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case w.Kind == "int":
		var i int64
		if err := decode(&i); err != nil {
			return err
		}
		*v = Int(i)
	case w.Kind == "float":
		var f float64
		if err := decode(&f); err != nil {
			return err
		}
		*v = Float(f)
	case w.Kind == "vector" || vectorKinds[w.Kind] > 0:
		var xs []float64
		if err := decode(&xs); err != nil {
			return err
		}
		if n := vectorKinds[w.Kind]; n > 0 && n != len(xs) {
			return fault.ShapeMismatch(w.Kind, "float"+strconv.Itoa(len(xs)))
		}
		*v = Value{kind: KindVector, vec: xs}
	case w.Kind == "string":
		var s string
		if err := decode(&s); err != nil {
			return err
		}
		*v = String(s)
	case w.Kind == "context-var":
		var s string
		if err := decode(&s); err != nil {
			return err
		}
		*v = ContextVar(s)
	case w.Kind == "bytes":
		var b []byte
		if err := decode(&b); err != nil {
			return err
		}
		*v = Bytes(b)
	case w.Kind == "seq":
		var items []Value
		if err := decode(&items); err != nil {
			return err
		}
		*v = Seq(items...)
	case w.Kind == "table":
		var entries map[string]Value
		if err := decode(&entries); err != nil {
			return err
		}
		t := NewTable()
		for k, item := range entries {
			t.Set(k, item)
		}
		*v = TableOf(t)
	default:
		return fault.New(fault.KindShapeMismatch, "unsupported value kind %q", w.Kind)
	}
	return nil
}
