package hash

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func activate(t *testing.T, name string, input value.Value) (value.Value, error) {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, Register(reg))

	b, err := reg.Create(name)
	require.NoError(t, err)
	inst := block.NewInstance(b)
	ctx := block.NewContext(context.Background(), nil)
	require.NoError(t, inst.Warmup(ctx))
	defer inst.Cleanup()
	return inst.Activate(ctx, input)
}

func digest(t *testing.T, name string, input value.Value) string {
	t.Helper()
	out, err := activate(t, name, input)
	require.NoError(t, err)
	b, err := out.AsBytes()
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func TestKnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		want  string
	}{
		{"Hash.Sha2-256", value.String(""), "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"Hash.Sha2-256", value.String("abc"), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"Hash.Keccak-256", value.Bytes(nil), "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"Hash.Sha3-256", value.String(""), "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, digest(t, tt.name, tt.input))
		})
	}
}

func TestWideDigests(t *testing.T) {
	msg := []byte("lattice")

	k := sha3.NewLegacyKeccak512()
	k.Write(msg)
	assert.Equal(t, hex.EncodeToString(k.Sum(nil)), digest(t, "Hash.Keccak-512", value.Bytes(msg)))

	s3 := sha3.Sum512(msg)
	assert.Equal(t, hex.EncodeToString(s3[:]), digest(t, "Hash.Sha3-512", value.Bytes(msg)))

	s2 := sha512.Sum512(msg)
	assert.Equal(t, hex.EncodeToString(s2[:]), digest(t, "Hash.Sha2-512", value.String("lattice")))
}

func TestSeqIsConcatenated(t *testing.T) {
	whole := digest(t, "Hash.Sha2-256", value.String("abc"))
	assert.Equal(t, whole, digest(t, "Hash.Sha2-256", value.Seq(value.String("a"), value.String("bc"))))
	assert.Equal(t, whole, digest(t, "Hash.Sha2-256", value.Seq(value.Bytes([]byte("ab")), value.Bytes([]byte("c")))))
}

func TestOutputsAreIndependent(t *testing.T) {
	b := New(Algorithms[4])()
	ctx := block.NewContext(context.Background(), nil)

	first, err := b.Activate(ctx, value.String("one"))
	require.NoError(t, err)
	firstBytes, _ := first.AsBytes()
	snapshot := hex.EncodeToString(firstBytes)

	_, err = b.Activate(ctx, value.String("two"))
	require.NoError(t, err)
	assert.Equal(t, snapshot, hex.EncodeToString(firstBytes), "a later activation must not corrupt an earlier output")
}

func TestRejectsOtherShapes(t *testing.T) {
	_, err := activate(t, "Hash.Keccak-256", value.Int(1))
	assert.ErrorIs(t, err, fault.ErrShapeMismatch)

	_, err = activate(t, "Hash.Keccak-256", value.Seq(value.String("a"), value.Int(1)))
	assert.ErrorIs(t, err, fault.ErrShapeMismatch)
}

func TestMixedSeqWhenCalledDirectly(t *testing.T) {
	b := New(Algorithms[4])()
	ctx := block.NewContext(context.Background(), nil)

	out, err := b.Activate(ctx, value.Seq(value.String("a"), value.Bytes([]byte("bc"))))
	require.NoError(t, err)
	got, _ := out.AsBytes()
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(got))

	_, err = b.Activate(ctx, value.Seq(value.Float(1)))
	assert.ErrorIs(t, err, fault.ErrShapeMismatch)
}
