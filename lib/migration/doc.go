// Package migration reconciles declared store definitions against the
// engine's live structural state whenever the database version changes.
//
// The reconciler runs once per version upgrade, inside the engine's single
// exclusive upgrade transaction, and emits the minimal set of structural
// edits without destroying unrelated data:
//
//   - stores that exist live but are no longer declared are deleted
//   - stores declared with the force flag are dropped and recreated from
//     scratch, discarding their data
//   - for surviving stores, the primary-key path and auto-increment flag are
//     immutable: any mismatch is a definition error
//   - indexes diff by keyPath set; relaxing unique to non-unique recreates
//     the index in place, promoting non-unique to unique is a definition
//     error, and live-only/declared-only indexes are deleted/created
//   - declared stores with no live counterpart are created with their full
//     index set
//
// Failure handling is deliberately fail-fast: engines of this kind revert an
// entire version-upgrade transaction atomically, so the reconciler never
// needs partial-rollback logic of its own. It only needs to detect an
// invalid transition and return before issuing the engine call that would
// otherwise need undoing.
package migration
