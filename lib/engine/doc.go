// Package engine defines the storage-engine collaborator interface: a
// versioned, named collection of keyed object stores with secondary indexes,
// transactions and cursors. The higher layers (schema registry, transaction
// coordinator, migration reconciler) are written exclusively against these
// interfaces, so any conforming engine can back them.
//
// The package focuses on:
//   - A unified interface (Engine, Connection, Tx, Cursor) for object-store
//     operations across different backends
//   - Key semantics shared by all engines: valid key types, cross-type total
//     ordering and key ranges (KeyRange)
//   - The structural primitives (UpgradeTx) that are only legal inside the
//     exclusive version-upgrade transaction
//
// Key Components:
//
//   - Engine: the entry point. Open connects to a named database at a target
//     version. If the target version is higher than the stored one, the
//     engine runs the caller-supplied UpgradeFunc inside a single exclusive
//     upgrade transaction; a failed upgrade rolls back atomically and the
//     database remains at its prior version. If another connection is still
//     open, the attempt is rejected rather than silently blocked.
//
//   - Tx: one atomic unit of work over an explicit store scope. Mutations
//     staged in a transaction become visible only on Commit; Abort discards
//     them. Read-write transactions serialize against each other, read-only
//     transactions may interleave.
//
//   - Cursor: a resumable ordered iterator over a store or one of its
//     indexes, optionally bounded by a KeyRange, walking in one of four
//     directions (ascending/descending, optionally skipping duplicate index
//     keys). Cursors support in-place update and delete, which is how bulk
//     mutations stay inside a single transaction.
//
// Implementations:
//
//   - In-Memory Engine (memdb): a complete single-process implementation
//     backed by copy-on-write B-trees, suitable for tests, tooling and
//     ephemeral data. Available in the
//     "github.com/leegeunhyeok/box-db/lib/engine/engines/memdb" package.
//
// The EngineFactory pattern used throughout the library injects engines into
// the higher layers, keeping application logic independent of the backend.
package engine
