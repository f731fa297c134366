package value

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WireForm(t *testing.T) {
	data, err := json.Marshal(Float3(0, 1, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"float3","value":[0,1,0]}`, string(data))

	data, err = json.Marshal(None())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"none"}`, string(data))
}

func TestJSON_VectorKinds(t *testing.T) {
	cases := map[string]Value{
		"float2": Float2(1, 2),
		"float4": Float4(1, 2, 3, 4),
		"vector": Vector(1, 2, 3, 4, 5),
	}
	for kind, original := range cases {
		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"kind":"`+kind+`"`)

		var decoded Value
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, Equal(original, decoded), kind)
	}
}

func TestJSON_NestedRoundTrip(t *testing.T) {
	body := NewTable()
	body.Set("mass", Float(2))
	body.Set("position", Float3(1, 2, 3))
	original := Seq(TableOf(body), Bytes([]byte("sig")), ContextVar("Physics.Simulation"), Int(-4))

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, Equal(original, decoded), "got %s", decoded)
}

func TestJSON_Errors(t *testing.T) {
	t.Run("objects are not serializable", func(t *testing.T) {
		_, err := json.Marshal(Seq(Object(Tag("x"), new(int))))
		assert.ErrorIs(t, err, fault.ErrShapeMismatch)
	})

	t.Run("vector length must match kind", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"kind":"float3","value":[1,2]}`), &v)
		assert.ErrorIs(t, err, fault.ErrShapeMismatch)
	})

	t.Run("unknown kind", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"kind":"matrix","value":1}`), &v)
		assert.ErrorIs(t, err, fault.ErrShapeMismatch)
	})

	t.Run("only fixed vector kinds are accepted", func(t *testing.T) {
		for _, kind := range []string{"floating", "float0", "float5", "float3x"} {
			var v Value
			err := json.Unmarshal([]byte(`{"kind":"`+kind+`","value":[1,2]}`), &v)
			require.ErrorIs(t, err, fault.ErrShapeMismatch, kind)
			assert.Contains(t, err.Error(), "unsupported value kind", kind)
		}
	})

	t.Run("missing payload", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"kind":"int"}`), &v)
		assert.ErrorIs(t, err, fault.ErrShapeMismatch)
	})
}

func TestNative(t *testing.T) {
	v, err := FromNative(map[string]any{
		"name":  "box",
		"mass":  1.5,
		"count": 3,
		"tags":  []any{"a", true},
		"empty": nil,
	})
	require.NoError(t, err)

	tb, err := v.AsTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "empty", "mass", "name", "tags"}, tb.Keys())

	count, _ := tb.Get("count")
	assert.True(t, Equal(Int(3), count))

	back := ToNative(v).(map[string]any)
	assert.Equal(t, "box", back["name"])
	assert.Equal(t, int64(3), back["count"])
	assert.Equal(t, []any{"a", true}, back["tags"])
	assert.Nil(t, back["empty"])

	_, err = FromNative(struct{}{})
	assert.ErrorIs(t, err, fault.ErrShapeMismatch)

	_, err = FromNative([]any{1, make(chan int)})
	assert.ErrorIs(t, err, fault.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "element 1")
}
