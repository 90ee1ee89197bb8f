// Package memdb implements the engine interface entirely in memory. It is
// the reference engine used by the tests and the interactive shell: a
// process-wide registry of named, versioned databases whose stores and
// secondary indexes live in B-trees.
//
// Key Features:
//   - Full engine contract: versioned open with exclusive upgrade
//     transaction, blocked-open rejection, store/index structural edits,
//     cursors in all four traversal directions
//   - Transactional atomicity through copy-on-write B-tree clones
//   - Auto-increment sequences and unique-index constraint enforcement
//   - Connection lifecycle events (versionchange, abort, close)
//
// Implementation Details:
//
//   - Copy-on-Write Staging: a read-write transaction clones each store it
//     touches (a cheap O(1) B-tree clone) and applies every mutation to the
//     clone. Commit swaps the clones into the database; Abort simply drops
//     them. The version-upgrade transaction works the same way over the full
//     store set, which is why a failed upgrade can never leave storage in a
//     partially migrated state.
//
//   - Locking: each database carries one RWMutex. Read-write transactions
//     (and the upgrade transaction) hold it exclusively from Begin to
//     Commit/Abort, so conflicting writers serialize; read-only transactions
//     hold the read side and interleave freely.
//
//   - Cursors: a cursor materializes its ordered position list when opened
//     (applying the key range, direction and duplicate-skipping up front)
//     and resolves the current record from the live working store at every
//     step, so it observes the transaction's own staged mutations and skips
//     records the transaction has deleted mid-iteration.
//
//   - Blocked Open: opening a database at a higher version while other
//     connections are live broadcasts a versionchange event to them and
//     rejects the attempt with a concurrency error rather than queueing it
//     behind connections that may never close.
//
// Data is not persisted between process restarts. For the shared key
// semantics (valid key types, ordering, ranges) see the engine package.
package memdb
