package ports

import (
	"context"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists under the
// given id. It matches fault.ErrNotFound.
var ErrSnapshotNotFound = fault.New(fault.KindNotFound, "snapshot not found")

// SnapshotStore persists the serializable context variables of a host
// scope between runs.
type SnapshotStore interface {
	// Save stores snap under id, replacing any previous snapshot.
	Save(ctx context.Context, id string, snap map[string]value.Value) error
	// Load retrieves the snapshot stored under id or ErrSnapshotNotFound.
	Load(ctx context.Context, id string) (map[string]value.Value, error)
	// Delete removes the snapshot. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// List returns the ids of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
