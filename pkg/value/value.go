package value

import (
	"bytes"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/fault"
)

// Kind is the discriminant of a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindAny       // type descriptors only, matches every value
	KindBool
	KindInt
	KindFloat
	KindVector
	KindString
	KindBytes
	KindSeq
	KindTable
	KindObject
	KindContextVar
)

var kindNames = [...]string{
	KindNone:       "none",
	KindAny:        "any",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindVector:     "vector",
	KindString:     "string",
	KindBytes:      "bytes",
	KindSeq:        "seq",
	KindTable:      "table",
	KindObject:     "object",
	KindContextVar: "context-var",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged value crossing the block boundary.
//
// The payload fields are unexported and only set by the constructors below,
// so the discriminant always agrees with the payload. Seq and Table values
// own their containers; Object values are non-owning references into memory
// whose lifetime belongs to another block.
type Value struct {
	obj   any
	table *Table
	str   string // string payload and context-var name
	bytes []byte
	vec   []float64
	seq   []Value
	num   float64
	i     int64
	tag   TypeTag
	b     bool
	kind  Kind
}

func None() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, num: f} }

// Vector creates a numeric vector. The components are copied.
func Vector(xs ...float64) Value {
	return Value{kind: KindVector, vec: slices.Clone(xs)}
}

func Float2(x, y float64) Value { return Vector(x, y) }

func Float3(x, y, z float64) Value { return Vector(x, y, z) }

func Float4(x, y, z, w float64) Value { return Vector(x, y, z, w) }

func String(s string) Value { return Value{kind: KindString, str: s} }

// Bytes wraps b without copying. Use Clone to decouple the value from b.
func Bytes(b []byte) Value { return Value{kind: KindBytes, bytes: b} }

// Seq wraps items without copying.
func Seq(items ...Value) Value { return Value{kind: KindSeq, seq: items} }

// TableOf wraps t. A nil table becomes an empty one.
func TableOf(t *Table) Value {
	if t == nil {
		t = NewTable()
	}
	return Value{kind: KindTable, table: t}
}

// Object wraps a native pointer stamped with the type tag of its semantic
// type. The value does not own ptr.
func Object(tag TypeTag, ptr any) Value {
	return Value{kind: KindObject, tag: tag, obj: ptr}
}

// ContextVar references a named variable. It is how parameters are bound
// to shared variables instead of literals.
func ContextVar(name string) Value {
	return Value{kind: KindContextVar, str: name}
}

// Kind returns the discriminant.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) IsSeq() bool { return v.kind == KindSeq }

// Shape returns a short description used in mismatch diagnostics.
func (v Value) Shape() string {
	switch v.kind {
	case KindVector:
		return "float" + strconv.Itoa(len(v.vec))
	case KindObject:
		return fmt.Sprintf("object(0x%08x)", uint32(v.tag))
	default:
		return v.kind.String()
	}
}

func (v Value) mismatch(expected string) error {
	return fault.ShapeMismatch(expected, v.Shape())
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch("bool")
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.mismatch("int")
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, v.mismatch("float")
	}
	return v.num, nil
}

// AsVector returns the vector components. The slice aliases the value.
func (v Value) AsVector() ([]float64, error) {
	if v.kind != KindVector {
		return nil, v.mismatch("vector")
	}
	return v.vec, nil
}

func (v Value) AsFloat3() (x, y, z float64, err error) {
	if v.kind != KindVector || len(v.vec) != 3 {
		return 0, 0, 0, v.mismatch("float3")
	}
	return v.vec[0], v.vec[1], v.vec[2], nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch("string")
	}
	return v.str, nil
}

// AsBytes returns the payload without copying.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.mismatch("bytes")
	}
	return v.bytes, nil
}

// AsSeq returns the backing slice of a sequence. Callers must not modify it.
func (v Value) AsSeq() ([]Value, error) {
	if v.kind != KindSeq {
		return nil, v.mismatch("seq")
	}
	return v.seq, nil
}

func (v Value) AsTable() (*Table, error) {
	if v.kind != KindTable {
		return nil, v.mismatch("table")
	}
	return v.table, nil
}

// AsContextVar returns the referenced variable name.
func (v Value) AsContextVar() (string, error) {
	if v.kind != KindContextVar {
		return "", v.mismatch("context-var")
	}
	return v.str, nil
}

// Tag returns the type tag of an object value, or zero.
func (v Value) Tag() TypeTag {
	if v.kind != KindObject {
		return 0
	}
	return v.tag
}

// Len returns the number of elements in a sequence, vector, table, string
// or bytes value and zero for anything else.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.seq)
	case KindVector:
		return len(v.vec)
	case KindTable:
		return v.table.Len()
	case KindString:
		return len(v.str)
	case KindBytes:
		return len(v.bytes)
	default:
		return 0
	}
}

// Index returns element i of a sequence.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindSeq {
		return Value{}, v.mismatch("seq")
	}
	if i < 0 || i >= len(v.seq) {
		return Value{}, fault.New(fault.KindShapeMismatch, "index %d out of range [0,%d)", i, len(v.seq))
	}
	return v.seq[i], nil
}

// All iterates over the elements of a sequence without copying it. Non
// sequence values yield nothing.
func (v Value) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if v.kind != KindSeq {
			return
		}
		for i, item := range v.seq {
			if !yield(i, item) {
				return
			}
		}
	}
}

// ObjectAs reinterprets an object value as *T after checking that its tag
// is the expected one. The tag check is never skipped: two unrelated
// semantic types may share the same Go representation.
func ObjectAs[T any](v Value, tag TypeTag) (*T, error) {
	if v.kind != KindObject {
		return nil, v.mismatch("object")
	}
	if v.tag != tag {
		return nil, fault.TypeTagMismatch("expected type tag 0x%08x, got 0x%08x", uint32(tag), uint32(v.tag))
	}
	ptr, ok := v.obj.(*T)
	if !ok || ptr == nil {
		return nil, fault.TypeTagMismatch("object tagged 0x%08x does not hold a %T", uint32(tag), ptr)
	}
	return ptr, nil
}

// Clone returns a deep copy. Bytes, vectors, sequences and tables are
// copied so the result shares no storage with v. Objects remain non-owning
// references to the same native value.
func (v Value) Clone() Value {
	out := v
	switch v.kind {
	case KindBytes:
		if v.bytes != nil {
			out.bytes = bytes.Clone(v.bytes)
		}
	case KindVector:
		out.vec = slices.Clone(v.vec)
	case KindSeq:
		if v.seq != nil {
			out.seq = make([]Value, len(v.seq))
			for i, item := range v.seq {
				out.seq[i] = item.Clone()
			}
		}
	case KindTable:
		out.table = v.table.Clone()
	}
	return out
}

// Equal reports whether a and b have the same kind and payload. Objects are
// equal when they share tag and pointer.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNone:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.num == b.num
	case KindVector:
		return slices.Equal(a.vec, b.vec)
	case KindString, KindContextVar:
		return a.str == b.str
	case KindBytes:
		return bytes.Equal(a.bytes, b.bytes)
	case KindSeq:
		return slices.EqualFunc(a.seq, b.seq, Equal)
	case KindTable:
		return a.table.Equal(b.table)
	case KindObject:
		return a.tag == b.tag && a.obj == b.obj
	default:
		return false
	}
}

// String renders the value for logs and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindVector:
		parts := make([]string, len(v.vec))
		for i, x := range v.vec {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindString:
		return strconv.Quote(v.str)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.bytes)
	case KindSeq:
		parts := make([]string, len(v.seq))
		for i, item := range v.seq {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindTable:
		return v.table.String()
	case KindObject:
		return fmt.Sprintf("object(0x%08x)", uint32(v.tag))
	case KindContextVar:
		return "." + v.str
	default:
		return v.kind.String()
	}
}
