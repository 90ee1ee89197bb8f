package schema

import (
	"testing"
	"time"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

func userSchema() Schema {
	return Schema{
		"id":   {Type: TypeNumber, Key: true},
		"name": {Type: TypeString, Index: true},
		"mail": {Type: TypeString, Index: true, Unique: true},
		"age":  {Type: TypeNumber},
	}
}

// expectCode asserts that err carries the given error code.
func expectCode(t *testing.T, err error, code boxerr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	if !boxerr.Is(err, code) {
		t.Fatalf("expected code %v, got %v", code, err)
	}
}

// TestNewModel tests key and index derivation from field flags.
func TestNewModel(t *testing.T) {
	meta, err := NewModel("user", userSchema(), &ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	if meta.PrimaryKeyPath != "id" {
		t.Errorf("key path = %q, want \"id\"", meta.PrimaryKeyPath)
	}
	if !meta.AutoIncrement {
		t.Error("auto increment flag should be carried over")
	}
	if len(meta.IndexList) != 2 {
		t.Fatalf("expected 2 indexes, got %d", len(meta.IndexList))
	}

	idx, ok := meta.Index("mail")
	if !ok || !idx.Unique {
		t.Error("mail index should be declared unique")
	}
	idx, ok = meta.Index("name")
	if !ok || idx.Unique {
		t.Error("name index should be declared non-unique")
	}
	if _, ok := meta.Index("age"); ok {
		t.Error("age is not indexed")
	}
}

// TestNewModelDefinitionErrors tests the declaration-time conflicts.
func TestNewModelDefinitionErrors(t *testing.T) {
	// two in-line key fields
	_, err := NewModel("s", Schema{
		"a": {Type: TypeNumber, Key: true},
		"b": {Type: TypeString, Key: true},
	}, nil)
	expectCode(t, err, boxerr.CodeDefinition)

	// unique without index
	_, err = NewModel("s", Schema{
		"a": {Type: TypeString, Unique: true},
	}, nil)
	expectCode(t, err, boxerr.CodeDefinition)

	// non-keyable key field
	_, err = NewModel("s", Schema{
		"a": {Type: TypeBoolean, Key: true},
	}, nil)
	expectCode(t, err, boxerr.CodeDefinition)

	// non-keyable index field
	_, err = NewModel("s", Schema{
		"a": {Type: TypeObject, Index: true},
	}, nil)
	expectCode(t, err, boxerr.CodeDefinition)

	// unknown type tag
	_, err = NewModel("s", Schema{
		"a": {Type: "integer"},
	}, nil)
	expectCode(t, err, boxerr.CodeDefinition)

	// empty store name
	_, err = NewModel("", Schema{"a": {Type: TypeString}}, nil)
	expectCode(t, err, boxerr.CodeDefinition)
}

// TestNewRecordDefaults tests that the record factory fills every field with
// its type's zero value.
func TestNewRecordDefaults(t *testing.T) {
	meta, err := NewModel("thing", Schema{
		"flag": {Type: TypeBoolean},
		"num":  {Type: TypeNumber},
		"str":  {Type: TypeString, Key: true},
		"when": {Type: TypeDate},
		"list": {Type: TypeArray},
		"obj":  {Type: TypeObject},
		"blob": {Type: TypeBinary},
		"free": {Type: TypeAny},
	}, nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	rec := meta.NewRecord()
	if len(rec) != 8 {
		t.Fatalf("expected 8 defaulted fields, got %d", len(rec))
	}
	if rec["flag"] != false {
		t.Errorf("boolean default = %v", rec["flag"])
	}
	if rec["num"] != float64(0) {
		t.Errorf("number default = %v", rec["num"])
	}
	if rec["str"] != "" {
		t.Errorf("string default = %v", rec["str"])
	}
	if !rec["when"].(time.Time).IsZero() {
		t.Errorf("date default = %v", rec["when"])
	}
	if rec["list"] == nil || rec["obj"] == nil || rec["blob"] == nil {
		t.Error("array, object and binary defaults should be empty, not nil")
	}
	if rec["free"] != nil {
		t.Errorf("any default = %v, want nil", rec["free"])
	}

	// a defaulted record validates against its own schema
	if err := meta.Validate(rec); err != nil {
		t.Errorf("defaulted record should validate: %v", err)
	}
}

// TestValidate tests the strict full-record check.
func TestValidate(t *testing.T) {
	meta, err := NewModel("user", userSchema(), &ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	ok := engine.Record{"id": float64(1), "name": "kim", "mail": "kim@x.io", "age": float64(20)}
	if err := meta.Validate(ok); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	// generated in-line key may be absent
	noKey := engine.Record{"name": "kim", "mail": "kim@x.io", "age": float64(20)}
	if err := meta.Validate(noKey); err != nil {
		t.Errorf("auto-increment key should be optional: %v", err)
	}

	// unknown field
	extra := engine.Record{"id": float64(1), "name": "kim", "mail": "kim@x.io", "age": float64(20), "nick": "k"}
	expectCode(t, meta.Validate(extra), boxerr.CodeValidation)

	// missing required field
	missing := engine.Record{"id": float64(1), "name": "kim", "age": float64(20)}
	expectCode(t, meta.Validate(missing), boxerr.CodeValidation)

	// type mismatch
	wrongType := engine.Record{"id": float64(1), "name": "kim", "mail": "kim@x.io", "age": "twenty"}
	expectCode(t, meta.Validate(wrongType), boxerr.CodeValidation)

	// nil record
	expectCode(t, meta.Validate(nil), boxerr.CodeValidation)
}

// TestValidatePartial tests the update-value check used for bulk updates.
func TestValidatePartial(t *testing.T) {
	meta, err := NewModel("user", userSchema(), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	if err := meta.ValidatePartial(engine.Record{"age": float64(30)}); err != nil {
		t.Errorf("partial update rejected: %v", err)
	}

	// updating the in-line key field is forbidden
	expectCode(t, meta.ValidatePartial(engine.Record{"id": float64(2)}), boxerr.CodeValidation)

	// unknown field
	expectCode(t, meta.ValidatePartial(engine.Record{"nick": "k"}), boxerr.CodeValidation)

	// type mismatch
	expectCode(t, meta.ValidatePartial(engine.Record{"age": "old"}), boxerr.CodeValidation)

	// empty update
	expectCode(t, meta.ValidatePartial(engine.Record{}), boxerr.CodeValidation)
}

// TestRegistry tests registration order, duplicates and sealing.
func TestRegistry(t *testing.T) {
	reg := NewRegistry(3)
	if reg.Version() != 3 {
		t.Errorf("Version() = %d, want 3", reg.Version())
	}

	user, _ := NewModel("user", userSchema(), nil)
	item, _ := NewModel("item", Schema{"sku": {Type: TypeString, Key: true}}, nil)

	if err := reg.Register(user); err != nil {
		t.Fatalf("Register(user) failed: %v", err)
	}
	if err := reg.Register(item); err != nil {
		t.Fatalf("Register(item) failed: %v", err)
	}

	// duplicate names are a definition conflict
	expectCode(t, reg.Register(user), boxerr.CodeDefinition)

	// declaration order is preserved
	models := reg.Models()
	if len(models) != 2 || models[0].Name != "user" || models[1].Name != "item" {
		t.Errorf("Models() order wrong: %v", models)
	}

	got, ok := reg.Get("item")
	if !ok || got != item {
		t.Error("Get(item) should return the registered meta")
	}
	if _, ok := reg.Get("ghost"); ok {
		t.Error("Get of an unregistered store should fail")
	}

	// no registration after sealing
	reg.Seal()
	if !reg.Sealed() {
		t.Error("registry should report sealed")
	}
	late, _ := NewModel("late", Schema{"k": {Type: TypeString, Key: true}}, nil)
	expectCode(t, reg.Register(late), boxerr.CodeConcurrency)
}
