package task

import (
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// --------------------------------------------------------------------------
// Task Kinds
// --------------------------------------------------------------------------

// Kind identifies one storage operation.
type Kind int

const (
	KindAdd Kind = iota
	KindGet
	KindPut
	KindDelete
	KindClear
	KindCount
	KindBulkGet
	KindBulkUpdate
	KindBulkDelete
	KindInterrupt
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "Add"
	case KindGet:
		return "Get"
	case KindPut:
		return "Put"
	case KindDelete:
		return "Delete"
	case KindClear:
		return "Clear"
	case KindCount:
		return "Count"
	case KindBulkGet:
		return "BulkGet"
	case KindBulkUpdate:
		return "BulkUpdate"
	case KindBulkDelete:
		return "BulkDelete"
	case KindInterrupt:
		return "Interrupt"
	default:
		return "Unknown"
	}
}

// Mutates reports whether the kind requires a read-write transaction.
func (k Kind) Mutates() bool {
	switch k {
	case KindGet, KindCount, KindBulkGet, KindInterrupt:
		return false
	default:
		return true
	}
}

// Bulk reports whether the kind is a cursor-driven bulk operation.
func (k Kind) Bulk() bool {
	switch k {
	case KindBulkGet, KindBulkUpdate, KindBulkDelete:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// Predicate is a boolean function over a candidate record. Multiple
// predicates on one task combine with logical AND.
type Predicate func(engine.Record) bool

// Match evaluates all predicates against the candidate. An empty predicate
// set matches every record.
func Match(preds []Predicate, rec engine.Record) bool {
	for _, p := range preds {
		if !p(rec) {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Task Descriptor
// --------------------------------------------------------------------------

// Task is the immutable description of one storage operation. Instances are
// created per call by the factory functions in this package, consumed
// exactly once by the transaction coordinator, then discarded.
type Task struct {
	Kind      Kind
	StoreName string // ignored for Interrupt

	// Operation-specific payload: a value (with optional out-of-line key)
	// for Add/Put, a key for Get/Delete, an update value for BulkUpdate.
	Key   engine.Key
	Value engine.Record

	// Selection for bulk kinds. Neither set means "all records".
	Range      *engine.KeyRange
	Predicates []Predicate

	// Traversal direction and result cap for bulk reads.
	Order engine.Direction
	Limit int
}
