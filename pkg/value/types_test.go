package value

import (
	"testing"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/stretchr/testify/assert"
)

func TestType_Name(t *testing.T) {
	simTag := Tag("Physics.Simulation-go-0x20200101")
	cases := []struct {
		typ  Type
		want string
	}{
		{Float3Type, "float3"},
		{Type{Kind: KindVector}, "vector"},
		{BytesSeqType, "[bytes]"},
		{AnySeqType, "seq"},
		{ObjectType("Physics.Simulation", simTag), "Physics.Simulation"},
		{VarOf(ObjectType("Physics.Simulation", simTag)), "var(Physics.Simulation)"},
		{Type{Kind: KindObject}, "object"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.typ.Name())
	}
	assert.Equal(t, "bytes|string", Types{BytesType, StringType}.Name())
}

func TestTypes_Validate(t *testing.T) {
	simTag := Tag("Physics.Simulation-go-0x20200101")
	bodyTag := Tag("Physics.RigidBody-go-0x20200101")
	hashInput := Types{BytesType, StringType, BytesSeqType, StringsType}

	tests := []struct {
		name    string
		types   Types
		input   Value
		wantErr error
	}{
		{"bytes accepted", hashInput, Bytes(nil), nil},
		{"strings seq accepted", hashInput, Seq(String("a"), String("b")), nil},
		{"mixed seq rejected", hashInput, Seq(String("a"), Int(1)), fault.ErrShapeMismatch},
		{"int rejected", hashInput, Int(1), fault.ErrShapeMismatch},
		{"empty set has no constraint", nil, Int(1), nil},
		{"any", AnyTypes, Float(1), nil},
		{"vector length", Types{Float3Type}, Float2(1, 2), fault.ErrShapeMismatch},
		{"object tag", Types{ObjectType("sim", simTag)}, Object(bodyTag, new(int)), fault.ErrTypeTagMismatch},
		{"variable slot", Types{VarOf(ObjectType("sim", simTag))}, ContextVar("s"), nil},
		{"variable slot rejects literal", Types{VarOf(ObjectType("sim", simTag))}, String("s"), fault.ErrShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.types.Validate(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, tt.types.Accepts(tt.input))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTypes_Intersects(t *testing.T) {
	simTag := Tag("a")
	bodyTag := Tag("b")

	assert.True(t, Types{BytesType, StringType}.Intersects(Types{StringType}))
	assert.False(t, Types{BytesType}.Intersects(Types{IntType}))
	assert.True(t, AnyTypes.Intersects(Types{Float3Type}))
	assert.True(t, Types{}.Intersects(Types{IntType}))
	assert.False(t, Types{Float3Type}.Intersects(Types{Float4Type}))
	assert.True(t, Types{Float3Type}.Intersects(Types{Type{Kind: KindVector}}))
	assert.False(t, Types{BytesSeqType}.Intersects(Types{StringsType}))
	assert.False(t, Types{ObjectType("a", simTag)}.Intersects(Types{ObjectType("b", bodyTag)}))
	assert.False(t, Types{VarOf(StringType)}.Intersects(Types{StringType}))
}

func TestValue_Type(t *testing.T) {
	assert.Equal(t, "float3", Float3(1, 2, 3).Type().Name())
	assert.Equal(t, "none", None().Type().Name())
	assert.Equal(t, "seq", Seq(Int(1)).Type().Name())

	tag := Tag("Test.Object")
	ot := Object(tag, new(int)).Type()
	assert.True(t, Compatible(ot, ObjectType("Test.Object", tag)))
	assert.False(t, Compatible(ot, ObjectType("Other", Tag("Other"))))

	assert.True(t, Types{Float3Type}.Intersects(Types{Float3(0, 1, 0).Type()}))
	assert.False(t, Types{Float3Type}.Intersects(Types{Float2(0, 1).Type()}))
}
