// Package task defines the Task descriptor: the immutable description of one
// storage operation, and the factory that produces well-formed descriptors
// for each operation kind.
//
// A Task is created per call, consumed exactly once by the transaction
// coordinator, then discarded. The factory constructors validate payloads
// against the model's schema and key configuration synchronously, so a
// malformed operation is rejected with a CodeValidation error before any
// engine interaction and no partial state is ever created.
//
// Bulk kinds (BulkGet, BulkUpdate, BulkDelete) carry up to two selection
// mechanisms: a key range over the primary key or a named index, and an
// ordered chain of predicates combined with logical AND. Supplying neither
// selects all records.
//
// The Interrupt task is the sole cancellation primitive: executed inside a
// batch it aborts that batch's transaction; executed standalone it aborts
// the caller's currently open transaction scope.
package task
