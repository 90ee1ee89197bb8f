// Package transaction implements the task execution engine: it accepts one
// task descriptor or an ordered batch, opens the appropriate engine
// transaction, executes each task and settles a Future per submission.
//
// Atomicity Contract:
//
//	A batch submitted via RunAll runs inside a single read-write transaction
//	scoped to exactly the union of the referenced store names, in submission
//	order. The transaction commits only if every task completes without an
//	engine-level error. On any failure the whole batch is rolled back by the
//	engine and the future rejects with the failing task's error: effects
//	applied before the failure are never observable and no task in the batch
//	is reported as succeeded. Non-task batch members reject the call before
//	any engine operation starts.
//
// Bulk Operations:
//
//	BulkGet, BulkUpdate and BulkDelete are cursor-driven: the coordinator
//	chooses a cursor source (index range, primary range or unfiltered
//	primary), advances record by record, AND-evaluates the task's predicates
//	and applies the per-record operation inside the same transaction. BulkGet
//	stops once its limit is reached and returns the accumulated ordered
//	sequence; the mutating kinds run to cursor exhaustion.
//
// Cancellation:
//
//	The Interrupt task is the sole cancellation primitive. Standalone, it
//	flags the caller's currently open transaction scope; inside a batch, it
//	aborts that batch. Either way the affected future rejects with a
//	CodeAbort error and the engine discards the transaction's mutations. The
//	executing goroutine itself observes the flag between tasks and between
//	cursor steps, so each transaction stays owned by a single goroutine.
//
// Submissions are queued onto an ants worker pool; ordering across
// independent Run/RunAll calls is whatever the engine's lock manager
// provides (read-write transactions over overlapping stores serialize,
// read-only transactions interleave). The coordinator imposes no additional
// ordering of its own.
package transaction
