package value

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/fault"
)

// Type describes an accepted or produced value shape. Hosts use it to
// validate wiring statically, without running block logic.
type Type struct {
	// Elem constrains sequence elements. Nil accepts any element.
	Elem *Type
	// Label names object types in diagnostics.
	Label string
	Kind  Kind
	// Len constrains vector length. Zero accepts any length.
	Len int
	// Tag constrains object values. Zero accepts any object.
	Tag TypeTag
	// Variable marks a parameter slot holding a ContextVar whose target
	// is expected to be of this type.
	Variable bool
}

// Types is a set of alternatives; a value matches if any member matches.
type Types []Type

var (
	AnyType      = Type{Kind: KindAny}
	NoneType     = Type{Kind: KindNone}
	BoolType     = Type{Kind: KindBool}
	IntType      = Type{Kind: KindInt}
	FloatType    = Type{Kind: KindFloat}
	Float2Type   = Type{Kind: KindVector, Len: 2}
	Float3Type   = Type{Kind: KindVector, Len: 3}
	Float4Type   = Type{Kind: KindVector, Len: 4}
	StringType   = Type{Kind: KindString}
	BytesType    = Type{Kind: KindBytes}
	TableType    = Type{Kind: KindTable}
	AnySeqType   = Type{Kind: KindSeq}
	StringsType  = SeqOf(StringType)
	BytesSeqType = SeqOf(BytesType)
	Float3sType  = SeqOf(Float3Type)
	TablesType   = SeqOf(TableType)

	AnyTypes   = Types{AnyType}
	NoneTypes  = Types{NoneType}
	BytesTypes = Types{BytesType}
)

// SeqOf describes a sequence whose elements all match elem.
func SeqOf(elem Type) Type {
	return Type{Kind: KindSeq, Elem: &elem}
}

// ObjectType describes a native object of one semantic type.
func ObjectType(label string, tag TypeTag) Type {
	return Type{Kind: KindObject, Label: label, Tag: tag}
}

// VarOf describes a parameter slot bound to a variable holding t.
func VarOf(t Type) Type {
	t.Variable = true
	return t
}

// Inner returns t without the Variable flag.
func (t Type) Inner() Type {
	t.Variable = false
	return t
}

// Name returns the human-readable name of the type (e.g. "float3", "[bytes]").
func (t Type) Name() string {
	if t.Variable {
		return "var(" + t.Inner().Name() + ")"
	}
	switch t.Kind {
	case KindVector:
		if t.Len > 0 {
			return "float" + strconv.Itoa(t.Len)
		}
		return "vector"
	case KindSeq:
		if t.Elem != nil {
			return "[" + t.Elem.Name() + "]"
		}
		return "seq"
	case KindObject:
		if t.Label != "" {
			return t.Label
		}
		if t.Tag != 0 {
			return "object(" + t.Tag.String() + ")"
		}
		return "object"
	default:
		return t.Kind.String()
	}
}

// Validate checks that v conforms to t.
func (t Type) Validate(v Value) error {
	if t.Variable {
		if v.kind != KindContextVar {
			return fault.ShapeMismatch(t.Name(), v.Shape())
		}
		return nil
	}

	if t.Kind == KindAny {
		return nil
	}
	if t.Kind != v.kind {
		return fault.ShapeMismatch(t.Name(), v.Shape())
	}

	switch t.Kind {
	case KindVector:
		if t.Len > 0 && len(v.vec) != t.Len {
			return fault.ShapeMismatch(t.Name(), v.Shape())
		}
	case KindSeq:
		if t.Elem == nil {
			return nil
		}
		for i, item := range v.seq {
			if err := t.Elem.Validate(item); err != nil {
				return fault.Wrap(fault.KindOf(err), err, "element %d of %s", i, t.Name())
			}
		}
	case KindObject:
		if t.Tag != 0 && v.tag != t.Tag {
			return fault.TypeTagMismatch("expected %s (%s), got object tagged %s", t.Name(), t.Tag, v.tag)
		}
	}
	return nil
}

// Name joins the alternatives (e.g. "bytes|string").
func (ts Types) Name() string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name()
	}
	return strings.Join(names, "|")
}

// Validate accepts v if any alternative matches. An empty set has no
// constraint. A tag mismatch is reported in preference to a shape mismatch
// since it means the shape was right but the semantic type was not.
func (ts Types) Validate(v Value) error {
	if len(ts) == 0 {
		return nil
	}

	var tagErr error
	for _, t := range ts {
		err := t.Validate(v)
		if err == nil {
			return nil
		}
		if tagErr == nil && errors.Is(err, fault.ErrTypeTagMismatch) {
			tagErr = err
		}
	}

	if tagErr != nil {
		return tagErr
	}
	return fault.ShapeMismatch(ts.Name(), v.Shape())
}

// Accepts reports whether v matches any alternative.
func (ts Types) Accepts(v Value) bool {
	return ts.Validate(v) == nil
}

// Intersects reports whether some value could satisfy both sets. An empty
// set intersects everything.
func (ts Types) Intersects(other Types) bool {
	if len(ts) == 0 || len(other) == 0 {
		return true
	}
	for _, a := range ts {
		for _, b := range other {
			if Compatible(a, b) {
				return true
			}
		}
	}
	return false
}

// Compatible reports whether a value of type a may satisfy type b.
func Compatible(a, b Type) bool {
	if a.Variable != b.Variable {
		return false
	}
	if a.Kind == KindAny || b.Kind == KindAny {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindVector:
		return a.Len == 0 || b.Len == 0 || a.Len == b.Len
	case KindSeq:
		if a.Elem == nil || b.Elem == nil {
			return true
		}
		return Compatible(*a.Elem, *b.Elem)
	case KindObject:
		return a.Tag == 0 || b.Tag == 0 || a.Tag == b.Tag
	}
	return true
}

// Type returns the most specific Type describing v. Sequences report no
// element constraint.
func (v Value) Type() Type {
	switch v.kind {
	case KindVector:
		return Type{Kind: KindVector, Len: len(v.vec)}
	case KindObject:
		return Type{Kind: KindObject, Tag: v.tag}
	case KindContextVar:
		return VarOf(AnyType)
	default:
		return Type{Kind: v.kind}
	}
}
