// Package boxerr defines the unified error taxonomy used across the library.
// Every error returned by the schema, task, transaction, migration and engine
// packages is a *boxerr.Error carrying one of the typed codes, so callers can
// make informed decisions based on specific error conditions rather than
// generic errors.
//
// The codes map onto distinct failure classes:
//
//   - CodeValidation: a task payload failed shape or type checks. These errors
//     are always raised synchronously, before any engine interaction.
//   - CodeDefinition: a schema registration conflict (duplicate store name,
//     multiple in-line keys, unique-without-index) or an illegal migration
//     transition (immutable key change, non-unique to unique promotion).
//     Also raised synchronously.
//   - CodeConcurrency: an operation was attempted against a connection that is
//     not ready, or an open attempt was blocked by an older live connection.
//   - CodeEngine: the storage engine itself reported a failure (constraint
//     violation, unknown store, invalid transaction usage).
//   - CodeAbort: an interrupt task or an engine-initiated abort terminated an
//     in-flight transaction.
//   - CodeUnsupported: the underlying engine does not support the requested
//     operation.
//
// Use GetCode or Is to branch on error classes:
//
//	if boxerr.Is(err, boxerr.CodeConcurrency) {
//		// retry after the blocking connection closes
//	}
package boxerr
