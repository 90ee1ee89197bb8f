package transaction

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/schema"
	"github.com/leegeunhyeok/box-db/lib/task"
	"github.com/panjf2000/ants/v2"
)

// default size of the task submission pool
const defaultPoolSize = 8

// --------------------------------------------------------------------------
// Batch State
// --------------------------------------------------------------------------

// batchState tracks one in-flight transaction scope so a standalone
// interrupt can cancel it. The executing goroutine polls the flag between
// tasks and between cursor steps and aborts its own transaction, which
// keeps every transaction single-goroutine.
type batchState struct {
	interrupted atomic.Bool
}

func (b *batchState) interrupt() {
	b.interrupted.Store(true)
}

func (b *batchState) isInterrupted() bool {
	return b.interrupted.Load()
}

// --------------------------------------------------------------------------
// Transaction Coordinator
// --------------------------------------------------------------------------

// Coordinator executes task descriptors as atomic engine transactions.
// Submissions are queued onto a worker pool and settle a Future per call;
// the engine's own lock manager orders conflicting transactions.
type Coordinator struct {
	conn engine.Connection
	reg  *schema.Registry
	pool *ants.Pool

	mu      sync.Mutex
	current *batchState
	closed  bool
}

// Options configures the coordinator.
type Options struct {
	// PoolSize is the number of goroutines accepting task submissions
	// (default: 8). Conflicting transactions still serialize inside the
	// engine; the pool only bounds queued submissions.
	PoolSize int
}

// NewCoordinator creates a coordinator bound to an open connection and the
// sealed registry for its version.
func NewCoordinator(conn engine.Connection, reg *schema.Registry, opts *Options) (*Coordinator, error) {
	if conn == nil {
		return nil, boxerr.Concurrencyf("coordinator requires an open connection")
	}
	if reg == nil {
		return nil, boxerr.Definitionf("coordinator requires a schema registry")
	}
	size := defaultPoolSize
	if opts != nil && opts.PoolSize > 0 {
		size = opts.PoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, boxerr.Enginef("task pool: %v", err)
	}
	return &Coordinator{
		conn: conn,
		reg:  reg,
		pool: pool,
	}, nil
}

// Close releases the submission pool. In-flight tasks finish; new
// submissions are rejected.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.pool.Release()
}

// --------------------------------------------------------------------------
// Single Task Execution
// --------------------------------------------------------------------------

// Run executes one task in its own transaction, scoped to the task's store
// and opened with the access mode its kind implies. The returned future
// resolves with the engine's result or rejects with the task's error.
//
// An Interrupt task is the exception: it does not open a transaction but
// flags the caller's currently open transaction scope for abort, resolving
// void once the flag is set.
func (c *Coordinator) Run(ctx context.Context, t *task.Task) *Future {
	if t == nil {
		return failed(boxerr.Validationf("task is required"))
	}
	if t.Kind == task.KindInterrupt {
		c.mu.Lock()
		if c.current != nil {
			c.current.interrupt()
		}
		c.mu.Unlock()
		countTask(t.Kind)
		return settled(Result{})
	}
	return c.submit(ctx, []*task.Task{t}, false)
}

// RunAll executes an ordered batch of tasks inside a single read-write
// transaction scoped to the union of all referenced store names. Execution
// order is submission order. The transaction commits only if every task
// completes; any failure rolls the whole batch back and rejects the future
// with that task's error, so no task in the batch is ever reported as
// succeeded after a failure.
func (c *Coordinator) RunAll(ctx context.Context, tasks []*task.Task) *Future {
	if len(tasks) == 0 {
		return failed(boxerr.Validationf("empty task batch"))
	}
	// Every element must be a well-formed task before anything is
	// submitted: no partial submission.
	for i, t := range tasks {
		if t == nil {
			return failed(boxerr.Validationf("batch element %d is not a task", i))
		}
	}
	return c.submit(ctx, tasks, true)
}

// submit queues the batch onto the pool and wires its future.
func (c *Coordinator) submit(ctx context.Context, tasks []*task.Task, batch bool) *Future {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failed(boxerr.Concurrencyf("coordinator is closed"))
	}
	c.mu.Unlock()

	fut := newFuture()
	job := func() {
		res, err := c.execute(ctx, tasks, batch)
		if err != nil {
			fut.reject(err)
			return
		}
		fut.resolve(res)
	}
	if err := c.pool.Submit(job); err != nil {
		return failed(boxerr.Concurrencyf("task pool rejected submission: %v", err))
	}
	return fut
}

// --------------------------------------------------------------------------
// Execution
// --------------------------------------------------------------------------

// execute opens one transaction for the batch and runs its tasks in order.
func (c *Coordinator) execute(ctx context.Context, tasks []*task.Task, batch bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, boxerr.Abortf("submission canceled: %v", err)
	}

	mode := engine.ReadOnly
	scopeSet := make(map[string]bool)
	var scope []string
	for _, t := range tasks {
		if t.Kind == task.KindInterrupt {
			continue
		}
		if t.Kind.Mutates() || batch {
			mode = engine.ReadWrite
		}
		if !scopeSet[t.StoreName] {
			scopeSet[t.StoreName] = true
			scope = append(scope, t.StoreName)
		}
	}

	tx, err := c.conn.Begin(mode, scope)
	if err != nil {
		return Result{}, err
	}

	state := &batchState{}
	c.mu.Lock()
	c.current = state
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.current = nil
		c.mu.Unlock()
	}()

	var last Result
	for _, t := range tasks {
		if state.isInterrupted() || t.Kind == task.KindInterrupt {
			_ = tx.Abort()
			countAbort()
			return Result{}, boxerr.Abortf("transaction interrupted")
		}
		res, err := c.executeTask(tx, state, t)
		if err != nil {
			// Already-applied effects are discarded with the transaction;
			// nothing in the batch may be treated as committed.
			_ = tx.Abort()
			countAbort()
			return Result{}, err
		}
		countTask(t.Kind)
		last = res
	}
	if state.isInterrupted() {
		_ = tx.Abort()
		countAbort()
		return Result{}, boxerr.Abortf("transaction interrupted")
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	countCommit()
	if batch {
		// Batch futures resolve void: per-task results are meaningless once
		// heterogeneous kinds share one transaction.
		return Result{}, nil
	}
	return last, nil
}

// executeTask dispatches one task against the open transaction.
func (c *Coordinator) executeTask(tx engine.Tx, state *batchState, t *task.Task) (Result, error) {
	switch t.Kind {
	case task.KindAdd:
		key, err := tx.Insert(t.StoreName, t.Key, t.Value)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key}, nil

	case task.KindPut:
		key, err := tx.Put(t.StoreName, t.Key, t.Value)
		if err != nil {
			return Result{}, err
		}
		return Result{Key: key}, nil

	case task.KindGet:
		rec, _, err := tx.Get(t.StoreName, t.Key)
		if err != nil {
			return Result{}, err
		}
		return Result{Record: rec}, nil

	case task.KindDelete:
		return Result{}, tx.Delete(t.StoreName, t.Key)

	case task.KindClear:
		return Result{}, tx.Clear(t.StoreName)

	case task.KindCount:
		n, err := tx.Count(t.StoreName)
		if err != nil {
			return Result{}, err
		}
		return Result{Count: n}, nil

	case task.KindBulkGet, task.KindBulkUpdate, task.KindBulkDelete:
		return c.runBulk(tx, state, t)

	default:
		return Result{}, boxerr.Validationf("unknown task kind %d", t.Kind)
	}
}
