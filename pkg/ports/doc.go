/*
Package ports defines the driven ports of a lattice host.

Hosts persist the serializable context variables of a run (everything but
native objects) so a later run can restore them into a fresh variable
table. Adapters live under pkg/adapters.

# Key Interfaces

  - SnapshotStore: saves, loads, deletes and lists variable snapshots.
  - Locker: serializes the load-run-save cycle of one snapshot id.

RunSnapshotStoreContract and RunLockerContract are shared test suites
every adapter runs against itself.
*/
package ports
