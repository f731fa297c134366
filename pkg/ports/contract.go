package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a
// SnapshotStore implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	snapshotID := "contract-test-snapshot-" + time.Now().Format("20060102150405")

	sample := func() map[string]value.Value {
		body := value.NewTable()
		body.Set("Mass", value.Float(2))
		body.Set("Position", value.Float3(0, 5, 0))
		return map[string]value.Value{
			"Seed":   value.String("lattice"),
			"Count":  value.Int(42),
			"Key":    value.Bytes([]byte{0xde, 0xad}),
			"Bodies": value.Seq(value.TableOf(body)),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample()
		require.NoError(t, store.Save(ctx, snapshotID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, snapshotID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, len(snap))
		for name, want := range snap {
			assert.True(t, value.Equal(want, loaded[name]), "variable %s: want %s, got %s", name, want, loaded[name])
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshotID, map[string]value.Value{"Count": value.Int(1)}))

		loaded, err := store.Load(ctx, snapshotID)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.True(t, value.Equal(value.Int(1), loaded["Count"]))
	})

	t.Run("Saved Copy Is Isolated", func(t *testing.T) {
		buf := []byte{1, 2, 3}
		require.NoError(t, store.Save(ctx, snapshotID, map[string]value.Value{"Key": value.Bytes(buf)}))
		buf[0] = 9

		loaded, err := store.Load(ctx, snapshotID)
		require.NoError(t, err)
		got, err := loaded["Key"].AsBytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, got)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+snapshotID)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshotID, sample()))

		require.NoError(t, store.Delete(ctx, snapshotID), "Delete should not return error")

		_, err := store.Load(ctx, snapshotID)
		assert.ErrorIs(t, err, ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, snapshotID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := snapshotID + "-1"
		id2 := snapshotID + "-2"
		_ = store.Save(ctx, id1, sample())
		_ = store.Save(ctx, id2, sample())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunLockerContract verifies mutual exclusion and cancellation of a Locker.
func RunLockerContract(t *testing.T, locker Locker) {
	ctx := context.Background()
	key := "contract-test-lock-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		assert.NoError(t, unlock(ctx))
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "a held lock blocks until the context is done")

		require.NoError(t, unlock(ctx))

		again, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		assert.NoError(t, again(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlockA(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		unlockB, err := locker.Lock(waitCtx, key+"-b", 5*time.Second)
		require.NoError(t, err)
		assert.NoError(t, unlockB(waitCtx))
	})
}
