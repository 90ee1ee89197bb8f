package box

import (
	"context"

	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/schema"
	"github.com/leegeunhyeok/box-db/lib/task"
)

// --------------------------------------------------------------------------
// Model Handle
// --------------------------------------------------------------------------

// Model is the typed handle for one declared store. Its methods build task
// descriptors and route them through the coordinator for immediate
// execution; the *Task variants build deferred descriptors for batching
// into RunAll.
type Model struct {
	db   *DB
	meta *schema.ModelMeta
}

// Meta returns the store's immutable declaration.
func (m *Model) Meta() *schema.ModelMeta {
	return m.meta
}

// NewRecord returns a record with every declared field defaulted.
func (m *Model) NewRecord() engine.Record {
	return m.meta.NewRecord()
}

// --------------------------------------------------------------------------
// Immediate Operations
// --------------------------------------------------------------------------

// Add inserts a record and returns its key. For out-of-line stores without
// auto-increment an explicit key is required.
func (m *Model) Add(ctx context.Context, value engine.Record, key ...engine.Key) (engine.Key, error) {
	t, err := task.Add(m.meta, value, key...)
	if err != nil {
		return nil, err
	}
	res, err := m.db.Run(ctx, t)
	if err != nil {
		return nil, err
	}
	return res.Key, nil
}

// Get fetches the record stored under key. A missing record returns nil.
func (m *Model) Get(ctx context.Context, key engine.Key) (engine.Record, error) {
	t, err := task.Get(m.meta, key)
	if err != nil {
		return nil, err
	}
	res, err := m.db.Run(ctx, t)
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

// Put upserts a record.
func (m *Model) Put(ctx context.Context, value engine.Record, key ...engine.Key) (engine.Key, error) {
	t, err := task.Put(m.meta, value, key...)
	if err != nil {
		return nil, err
	}
	res, err := m.db.Run(ctx, t)
	if err != nil {
		return nil, err
	}
	return res.Key, nil
}

// Delete removes the record stored under key.
func (m *Model) Delete(ctx context.Context, key engine.Key) error {
	t, err := task.Delete(m.meta, key)
	if err != nil {
		return err
	}
	_, err = m.db.Run(ctx, t)
	return err
}

// Clear removes every record in the store.
func (m *Model) Clear(ctx context.Context) error {
	t, err := task.Clear(m.meta)
	if err != nil {
		return err
	}
	_, err = m.db.Run(ctx, t)
	return err
}

// Count returns the number of records in the store.
func (m *Model) Count(ctx context.Context) (uint64, error) {
	t, err := task.Count(m.meta)
	if err != nil {
		return 0, err
	}
	res, err := m.db.Run(ctx, t)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// --------------------------------------------------------------------------
// Deferred Task Builders (for RunAll batching)
// --------------------------------------------------------------------------

func (m *Model) AddTask(value engine.Record, key ...engine.Key) (*task.Task, error) {
	return task.Add(m.meta, value, key...)
}

func (m *Model) PutTask(value engine.Record, key ...engine.Key) (*task.Task, error) {
	return task.Put(m.meta, value, key...)
}

func (m *Model) DeleteTask(key engine.Key) (*task.Task, error) {
	return task.Delete(m.meta, key)
}

// --------------------------------------------------------------------------
// Bulk Queries
// --------------------------------------------------------------------------

// Query is a fluent builder over the store's bulk operations: an optional
// key range (primary or index) plus an AND-combined predicate chain.
type Query struct {
	m *Model
	q task.Query
}

// Find starts a bulk query. Supplying neither a range nor predicates
// selects all records.
func (m *Model) Find(rng *engine.KeyRange, preds ...task.Predicate) *Query {
	return &Query{
		m: m,
		q: task.Query{Range: rng, Predicates: preds},
	}
}

// Order sets the traversal direction.
func (q *Query) Order(d engine.Direction) *Query {
	q.q.Order = d
	return q
}

// Limit caps the number of records a Get returns. It does not apply to
// Update or Delete.
func (q *Query) Limit(n int) *Query {
	q.q.Limit = n
	return q
}

// Get returns the matching records in traversal order.
func (q *Query) Get(ctx context.Context) ([]engine.Record, error) {
	t, err := task.BulkGet(q.m.meta, q.q)
	if err != nil {
		return nil, err
	}
	res, err := q.m.db.Run(ctx, t)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Update merges value over every matching record.
func (q *Query) Update(ctx context.Context, value engine.Record) error {
	t, err := task.BulkUpdate(q.m.meta, q.q, value)
	if err != nil {
		return err
	}
	_, err = q.m.db.Run(ctx, t)
	return err
}

// Delete removes every matching record.
func (q *Query) Delete(ctx context.Context) error {
	t, err := task.BulkDelete(q.m.meta, q.q)
	if err != nil {
		return err
	}
	_, err = q.m.db.Run(ctx, t)
	return err
}

// GetTask, UpdateTask and DeleteTask build the deferred bulk descriptors
// for batching into RunAll.
func (q *Query) GetTask() (*task.Task, error) {
	return task.BulkGet(q.m.meta, q.q)
}

func (q *Query) UpdateTask(value engine.Record) (*task.Task, error) {
	return task.BulkUpdate(q.m.meta, q.q, value)
}

func (q *Query) DeleteTask() (*task.Task, error) {
	return task.BulkDelete(q.m.meta, q.q)
}
