package transaction

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/task"
)

// --------------------------------------------------------------------------
// Bulk Operations
// --------------------------------------------------------------------------

// runBulk drives the cursor loop shared by BulkGet, BulkUpdate and
// BulkDelete. The cursor and every per-record mutation live inside the
// transaction already opened by the caller, so a failure mid-iteration
// aborts all mutations performed so far in the batch.
//
// Cursor source selection: a range naming an index opens an index cursor,
// a range without one opens a primary cursor over that range, and no range
// opens an unfiltered primary cursor. Each cursor advance is one suspension
// point; predicate evaluation and the per-record operation are ordinary
// sequential code in between.
func (c *Coordinator) runBulk(tx engine.Tx, state *batchState, t *task.Task) (Result, error) {
	var index string
	if t.Range != nil {
		index = t.Range.Index
	}

	cur, err := tx.OpenCursor(t.StoreName, index, t.Range, t.Order)
	if err != nil {
		return Result{}, err
	}

	var records []engine.Record
	for {
		if state.isInterrupted() {
			return Result{}, boxerr.Abortf("transaction interrupted")
		}
		ok, err := cur.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		rec, err := cur.Value()
		if err != nil {
			return Result{}, err
		}
		if !task.Match(t.Predicates, rec) {
			continue
		}

		switch t.Kind {
		case task.KindBulkGet:
			records = append(records, rec)
			if t.Limit > 0 && len(records) >= t.Limit {
				return Result{Records: records}, nil
			}

		case task.KindBulkUpdate:
			// The update value merges over the existing record's fields and
			// is written back at the same key. No limit applies to mutation.
			merged := rec.Clone()
			for field, v := range t.Value {
				merged[field] = v
			}
			if err := cur.Update(merged); err != nil {
				return Result{}, err
			}

		case task.KindBulkDelete:
			if err := cur.Delete(); err != nil {
				return Result{}, err
			}
		}
	}

	if t.Kind == task.KindBulkGet {
		return Result{Records: records}, nil
	}
	return Result{}, nil
}
