package task

import (
	"testing"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/schema"
)

func userMeta(t *testing.T) *schema.ModelMeta {
	t.Helper()
	meta, err := schema.NewModel("user", schema.Schema{
		"id":   {Type: schema.TypeNumber, Key: true},
		"name": {Type: schema.TypeString, Index: true},
		"age":  {Type: schema.TypeNumber},
	}, &schema.ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return meta
}

func outOfLineMeta(t *testing.T, autoIncrement bool) *schema.ModelMeta {
	t.Helper()
	meta, err := schema.NewModel("blob", schema.Schema{
		"data": {Type: schema.TypeString},
	}, &schema.ModelOptions{AutoIncrement: autoIncrement})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return meta
}

func expectCode(t *testing.T, err error, code boxerr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	if !boxerr.Is(err, code) {
		t.Fatalf("expected code %v, got %v", code, err)
	}
}

// TestAddTask tests insert-task construction and its key rules.
func TestAddTask(t *testing.T) {
	meta := userMeta(t)

	tk, err := Add(meta, engine.Record{"name": "kim", "age": float64(20)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if tk.Kind != KindAdd || tk.StoreName != "user" {
		t.Errorf("task = %v %q", tk.Kind, tk.StoreName)
	}
	if !tk.Kind.Mutates() {
		t.Error("add should be a mutating kind")
	}

	// the payload is copied, not aliased
	src := engine.Record{"name": "lee", "age": float64(30)}
	tk, err = Add(meta, src)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	src["name"] = "mutated"
	if tk.Value["name"] != "lee" {
		t.Error("task value should not alias the caller's record")
	}

	// explicit key on an in-line key store is a conflict
	_, err = Add(meta, engine.Record{"name": "kim", "age": float64(1)}, float64(7))
	expectCode(t, err, boxerr.CodeValidation)

	// schema violations surface synchronously
	_, err = Add(meta, engine.Record{"name": "kim", "age": "old"})
	expectCode(t, err, boxerr.CodeValidation)
	_, err = Add(meta, engine.Record{"name": "kim", "age": float64(1), "nick": "k"})
	expectCode(t, err, boxerr.CodeValidation)
}

// TestAddTaskOutOfLineKey tests the explicit-key requirement for
// out-of-line stores.
func TestAddTaskOutOfLineKey(t *testing.T) {
	manual := outOfLineMeta(t, false)

	// key required without auto increment
	_, err := Add(manual, engine.Record{"data": "x"})
	expectCode(t, err, boxerr.CodeValidation)

	tk, err := Add(manual, engine.Record{"data": "x"}, "k1")
	if err != nil {
		t.Fatalf("Add with explicit key failed: %v", err)
	}
	if tk.Key != "k1" {
		t.Errorf("task key = %v, want \"k1\"", tk.Key)
	}

	// numeric keys normalize to float64
	tk, err = Add(manual, engine.Record{"data": "x"}, 42)
	if err != nil {
		t.Fatalf("Add with int key failed: %v", err)
	}
	if tk.Key != float64(42) {
		t.Errorf("task key = %v (%T), want float64(42)", tk.Key, tk.Key)
	}

	// invalid explicit key type
	_, err = Add(manual, engine.Record{"data": "x"}, true)
	expectCode(t, err, boxerr.CodeValidation)

	// auto-increment stores may omit the key
	auto := outOfLineMeta(t, true)
	if _, err := Add(auto, engine.Record{"data": "x"}); err != nil {
		t.Errorf("auto-increment add without key failed: %v", err)
	}
}

// TestKeyedTasks tests Get and Delete key normalization.
func TestKeyedTasks(t *testing.T) {
	meta := userMeta(t)

	tk, err := Get(meta, 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tk.Kind != KindGet || tk.Key != float64(3) {
		t.Errorf("get task = %v key %v", tk.Kind, tk.Key)
	}
	if tk.Kind.Mutates() {
		t.Error("get should be read-only")
	}

	_, err = Get(meta, struct{}{})
	expectCode(t, err, boxerr.CodeValidation)

	tk, err = Delete(meta, 3)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if tk.Kind != KindDelete || !tk.Kind.Mutates() {
		t.Error("delete should be a mutating kind")
	}

	_, err = Delete(meta, nil)
	expectCode(t, err, boxerr.CodeValidation)
}

// TestBulkTaskValidation tests the query checks shared by the bulk
// constructors.
func TestBulkTaskValidation(t *testing.T) {
	meta := userMeta(t)

	// a range over a declared index is fine
	tk, err := BulkGet(meta, Query{Range: engine.RangeLowerBound("a", false).On("name"), Limit: 5})
	if err != nil {
		t.Fatalf("BulkGet over declared index failed: %v", err)
	}
	if !tk.Kind.Bulk() || tk.Kind.Mutates() {
		t.Error("bulk get should be a read-only bulk kind")
	}

	// unknown index
	_, err = BulkGet(meta, Query{Range: engine.RangeEqual("a").On("ghost")})
	expectCode(t, err, boxerr.CodeValidation)

	// negative limit
	_, err = BulkGet(meta, Query{Limit: -1})
	expectCode(t, err, boxerr.CodeValidation)

	// inverted range
	_, err = BulkGet(meta, Query{Range: engine.RangeBound(float64(9), float64(1), false, false)})
	expectCode(t, err, boxerr.CodeValidation)
}

// TestBulkUpdateTask tests partial validation of the update payload.
func TestBulkUpdateTask(t *testing.T) {
	meta := userMeta(t)

	tk, err := BulkUpdate(meta, Query{}, engine.Record{"age": float64(1)})
	if err != nil {
		t.Fatalf("BulkUpdate failed: %v", err)
	}
	if tk.Kind != KindBulkUpdate || !tk.Kind.Mutates() || !tk.Kind.Bulk() {
		t.Error("bulk update should be a mutating bulk kind")
	}

	// key field rewrite rejected synchronously
	_, err = BulkUpdate(meta, Query{}, engine.Record{"id": float64(9)})
	expectCode(t, err, boxerr.CodeValidation)

	// unknown field rejected synchronously
	_, err = BulkUpdate(meta, Query{}, engine.Record{"nick": "k"})
	expectCode(t, err, boxerr.CodeValidation)

	// empty payload
	_, err = BulkUpdate(meta, Query{}, engine.Record{})
	expectCode(t, err, boxerr.CodeValidation)
}

// TestPredicateMatch tests AND-combination of predicate chains.
func TestPredicateMatch(t *testing.T) {
	adult := func(r engine.Record) bool { return r["age"].(float64) >= 18 }
	named := func(r engine.Record) bool { return r["name"] != "" }

	rec := engine.Record{"name": "kim", "age": float64(20)}
	if !Match([]Predicate{adult, named}, rec) {
		t.Error("record should match both predicates")
	}

	minor := engine.Record{"name": "kim", "age": float64(10)}
	if Match([]Predicate{adult, named}, minor) {
		t.Error("record should fail the age predicate")
	}

	// an empty chain matches everything
	if !Match(nil, minor) {
		t.Error("empty predicate chain should match")
	}
}

// TestInterruptTask tests the cancellation task shape.
func TestInterruptTask(t *testing.T) {
	tk := Interrupt()
	if tk.Kind != KindInterrupt {
		t.Errorf("kind = %v", tk.Kind)
	}
	if tk.Kind.Mutates() || tk.Kind.Bulk() {
		t.Error("interrupt is neither mutating nor bulk")
	}
}
