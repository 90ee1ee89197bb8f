package task

import (
	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/schema"
)

// --------------------------------------------------------------------------
// Task Factory
// --------------------------------------------------------------------------
//
// Each constructor validates its payload against the model's schema and key
// configuration synchronously, before the task ever reaches an engine. A
// returned task is well-formed by construction and usable either for
// immediate execution or for deferred batching into RunAll.

// Add builds an insert task. For in-line key stores the key travels inside
// the value; for out-of-line stores an explicit key may be supplied (and is
// required unless the store auto-increments).
func Add(meta *schema.ModelMeta, value engine.Record, key ...engine.Key) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	if err := meta.Validate(value); err != nil {
		return nil, err
	}
	k, err := resolveExplicitKey(meta, key)
	if err != nil {
		return nil, err
	}
	if meta.PrimaryKeyPath == "" && !meta.AutoIncrement && k == nil {
		return nil, boxerr.Validationf("store %s: out-of-line key is required", meta.Name)
	}
	return &Task{Kind: KindAdd, StoreName: meta.Name, Key: k, Value: value.Clone()}, nil
}

// Put builds an upsert task. Key rules match Add.
func Put(meta *schema.ModelMeta, value engine.Record, key ...engine.Key) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	if err := meta.Validate(value); err != nil {
		return nil, err
	}
	k, err := resolveExplicitKey(meta, key)
	if err != nil {
		return nil, err
	}
	if meta.PrimaryKeyPath == "" && !meta.AutoIncrement && k == nil {
		return nil, boxerr.Validationf("store %s: out-of-line key is required", meta.Name)
	}
	return &Task{Kind: KindPut, StoreName: meta.Name, Key: k, Value: value.Clone()}, nil
}

// Get builds a fetch-by-key task.
func Get(meta *schema.ModelMeta, key engine.Key) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	k, ok := engine.NormalizeKey(key)
	if !ok {
		return nil, boxerr.Validationf("store %s: invalid key of type %T", meta.Name, key)
	}
	return &Task{Kind: KindGet, StoreName: meta.Name, Key: k}, nil
}

// Delete builds a delete-by-key task.
func Delete(meta *schema.ModelMeta, key engine.Key) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	k, ok := engine.NormalizeKey(key)
	if !ok {
		return nil, boxerr.Validationf("store %s: invalid key of type %T", meta.Name, key)
	}
	return &Task{Kind: KindDelete, StoreName: meta.Name, Key: k}, nil
}

// Clear builds a clear-all task.
func Clear(meta *schema.ModelMeta) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	return &Task{Kind: KindClear, StoreName: meta.Name}, nil
}

// Count builds a count task.
func Count(meta *schema.ModelMeta) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	return &Task{Kind: KindCount, StoreName: meta.Name}, nil
}

// Interrupt builds the cancellation task: it aborts whatever transaction
// scope is currently open for the issuing caller and produces no result.
func Interrupt() *Task {
	return &Task{Kind: KindInterrupt}
}

// --------------------------------------------------------------------------
// Bulk Task Constructors
// --------------------------------------------------------------------------

// Query bundles the selection mechanisms of a bulk task: an optional key
// range (over the primary key or a named index), an optional AND-combined
// predicate chain, a traversal direction and a result cap.
type Query struct {
	Range      *engine.KeyRange
	Predicates []Predicate
	Order      engine.Direction
	Limit      int
}

func (q *Query) validate(meta *schema.ModelMeta) error {
	if q.Limit < 0 {
		return boxerr.Validationf("store %s: negative limit", meta.Name)
	}
	if q.Range == nil {
		return nil
	}
	if err := q.Range.Validate(); err != nil {
		return err
	}
	if q.Range.Index != "" {
		if _, ok := meta.Index(q.Range.Index); !ok {
			return boxerr.Validationf("store %s: range targets unknown index %s", meta.Name, q.Range.Index)
		}
	}
	return nil
}

// BulkGet builds a bulk read task: records matching the query, in traversal
// order, up to Limit (zero = unlimited).
func BulkGet(meta *schema.ModelMeta, q Query) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	if err := q.validate(meta); err != nil {
		return nil, err
	}
	return &Task{
		Kind:       KindBulkGet,
		StoreName:  meta.Name,
		Range:      q.Range,
		Predicates: q.Predicates,
		Order:      q.Order,
		Limit:      q.Limit,
	}, nil
}

// BulkUpdate builds a bulk mutation task: value merges over every matching
// record's fields. The update value is validated partially, so it can never
// carry unknown fields or rewrite the in-line key. No limit applies to
// mutation; Limit is ignored.
func BulkUpdate(meta *schema.ModelMeta, q Query, value engine.Record) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	if err := q.validate(meta); err != nil {
		return nil, err
	}
	if err := meta.ValidatePartial(value); err != nil {
		return nil, err
	}
	return &Task{
		Kind:       KindBulkUpdate,
		StoreName:  meta.Name,
		Value:      value.Clone(),
		Range:      q.Range,
		Predicates: q.Predicates,
		Order:      q.Order,
	}, nil
}

// BulkDelete builds a bulk delete task over every matching record.
func BulkDelete(meta *schema.ModelMeta, q Query) (*Task, error) {
	if meta == nil {
		return nil, boxerr.Validationf("model metadata is required")
	}
	if err := q.validate(meta); err != nil {
		return nil, err
	}
	return &Task{
		Kind:       KindBulkDelete,
		StoreName:  meta.Name,
		Range:      q.Range,
		Predicates: q.Predicates,
		Order:      q.Order,
	}, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// resolveExplicitKey checks the optional explicit key of Add/Put against
// the store's key configuration.
func resolveExplicitKey(meta *schema.ModelMeta, key []engine.Key) (engine.Key, error) {
	if len(key) == 0 || key[0] == nil {
		return nil, nil
	}
	if len(key) > 1 {
		return nil, boxerr.Validationf("store %s: at most one explicit key", meta.Name)
	}
	if meta.PrimaryKeyPath != "" {
		return nil, boxerr.Validationf("store %s: explicit key conflicts with in-line key path %s", meta.Name, meta.PrimaryKeyPath)
	}
	k, ok := engine.NormalizeKey(key[0])
	if !ok {
		return nil, boxerr.Validationf("store %s: invalid key of type %T", meta.Name, key[0])
	}
	return k, nil
}
