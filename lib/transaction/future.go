package transaction

import (
	"context"
	"sync"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// --------------------------------------------------------------------------
// Task Results
// --------------------------------------------------------------------------

// Result is the outcome of one task: the inserted key for Add/Put, the
// fetched record for Get, the matching records for BulkGet, the record
// count for Count, and void for everything else.
type Result struct {
	Key     engine.Key
	Record  engine.Record
	Records []engine.Record
	Count   uint64
}

// --------------------------------------------------------------------------
// Futures
// --------------------------------------------------------------------------

// Future is the per-task outcome handle returned by the coordinator. It
// resolves exactly once, either with a Result or with an error.
type Future struct {
	done chan struct{}
	once sync.Once
	res  Result
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(res Result) {
	f.once.Do(func() {
		f.res = res
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or the context is canceled.
func (f *Future) Await(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, boxerr.Abortf("await canceled: %v", ctx.Err())
	}
}

// settled returns a future that is already resolved.
func settled(res Result) *Future {
	f := newFuture()
	f.resolve(res)
	return f
}

// failed returns a future that is already rejected.
func failed(err error) *Future {
	f := newFuture()
	f.reject(err)
	return f
}
