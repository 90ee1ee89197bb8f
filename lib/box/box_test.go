package box

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
	"github.com/leegeunhyeok/box-db/lib/engine/engines/memdb"
	"github.com/leegeunhyeok/box-db/lib/schema"
)

var boxDBCounter atomic.Uint64

func freshName() string {
	return fmt.Sprintf("box-test-%d", boxDBCounter.Add(1))
}

func userSchema() schema.Schema {
	return schema.Schema{
		"id":   {Type: schema.TypeNumber, Key: true},
		"name": {Type: schema.TypeString, Index: true},
		"age":  {Type: schema.TypeNumber},
	}
}

// openUserDB declares a "user" store, opens the database and seeds n users
// named u1..un with ages 10, 20, ...
func openUserDB(t *testing.T, n int) (*DB, *Model) {
	t.Helper()

	db := New(func() engine.Engine { return memdb.New() }, freshName(), 1)
	user, err := db.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := db.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i := 1; i <= n; i++ {
		_, err := user.Add(context.Background(), engine.Record{
			"name": fmt.Sprintf("u%d", i),
			"age":  float64(i * 10),
		})
		if err != nil {
			t.Fatalf("seed add failed: %v", err)
		}
	}
	return db, user
}

func expectCode(t *testing.T, err error, code boxerr.Code) {
	t.Helper()
	if !boxerr.Is(err, code) {
		t.Fatalf("expected code %v, got %v", code, err)
	}
}

// TestLifecycle tests declare, open, roundtrip, close.
func TestLifecycle(t *testing.T) {
	db, user := openUserDB(t, 0)
	ctx := context.Background()

	if !db.Ready() {
		t.Fatal("database should be ready after Open")
	}

	key, err := user.Add(ctx, engine.Record{"name": "kim", "age": float64(20)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	rec, err := user.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec["name"] != "kim" || rec["id"] != key {
		t.Errorf("record = %v", rec)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if db.Ready() {
		t.Error("database should not be ready after Close")
	}

	// operations against a closed database are concurrency errors
	_, err = user.Get(ctx, key)
	expectCode(t, err, boxerr.CodeConcurrency)

	// closing twice is a no-op
	if err := db.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
}

// TestOperationsBeforeOpen tests that task routing requires an open
// connection.
func TestOperationsBeforeOpen(t *testing.T) {
	db := New(func() engine.Engine { return memdb.New() }, freshName(), 1)
	user, err := db.Create("user", userSchema(), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = user.Count(context.Background())
	expectCode(t, err, boxerr.CodeConcurrency)

	err = db.On(engine.EventClose, func(engine.Event) {})
	expectCode(t, err, boxerr.CodeConcurrency)
}

// TestCreateAfterOpen tests that the registry is sealed by Open.
func TestCreateAfterOpen(t *testing.T) {
	db, _ := openUserDB(t, 0)

	_, err := db.Create("late", schema.Schema{"k": {Type: schema.TypeString, Key: true}}, nil)
	expectCode(t, err, boxerr.CodeConcurrency)

	// duplicate declaration before open is a definition error
	db2 := New(func() engine.Engine { return memdb.New() }, freshName(), 1)
	if _, err := db2.Create("user", userSchema(), nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = db2.Create("user", userSchema(), nil)
	expectCode(t, err, boxerr.CodeDefinition)
}

// TestQueryBuilder tests the fluent bulk surface end to end.
func TestQueryBuilder(t *testing.T) {
	_, user := openUserDB(t, 5) // ages 10..50
	ctx := context.Background()

	recs, err := user.Find(nil).Order(engine.Desc).Limit(2).Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(recs) != 2 || recs[0]["id"] != float64(5) {
		t.Errorf("descending limited query = %v", recs)
	}

	adult := func(r engine.Record) bool { return r["age"].(float64) >= 30 }
	if err := user.Find(nil, adult).Update(ctx, engine.Record{"age": float64(99)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	updated, err := user.Find(nil, func(r engine.Record) bool { return r["age"].(float64) == 99 }).Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(updated) != 3 {
		t.Errorf("expected 3 updated records, got %d", len(updated))
	}

	if err := user.Find(engine.RangeUpperBound(float64(2), false)).Delete(ctx); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	n, err := user.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("count after range delete = %d, want 3", n)
	}
}

// TestRunAllBatch tests atomic batching of deferred model tasks.
func TestRunAllBatch(t *testing.T) {
	db, user := openUserDB(t, 1)
	ctx := context.Background()

	add, err := user.AddTask(engine.Record{"name": "a", "age": float64(1)})
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	del, err := user.DeleteTask(float64(1))
	if err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := db.RunAll(ctx, add, del); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	n, _ := user.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	// a batch carrying Interrupt aborts wholesale
	add2, _ := user.AddTask(engine.Record{"name": "b", "age": float64(2)})
	err = db.RunAll(ctx, add2, db.Interrupt())
	expectCode(t, err, boxerr.CodeAbort)
	n, _ = user.Count(ctx)
	if n != 1 {
		t.Errorf("count after aborted batch = %d, want 1", n)
	}
}

// TestBlockedOpenAndUpgrade tests the versionchange handshake: an upgrade
// open is rejected while an older connection is live and succeeds once it
// closes.
func TestBlockedOpenAndUpgrade(t *testing.T) {
	eng := memdb.New()
	factory := func() engine.Engine { return eng }
	name := freshName()
	ctx := context.Background()

	db1 := New(factory, name, 1)
	user1, err := db1.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := db1.Open(ctx); err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	var notified atomic.Bool
	if err := db1.On(engine.EventVersionChange, func(ev engine.Event) {
		if ev.OldVersion == 1 && ev.NewVersion == 2 {
			notified.Store(true)
		}
	}); err != nil {
		t.Fatalf("On failed: %v", err)
	}

	if _, err := user1.Add(ctx, engine.Record{"name": "kim", "age": float64(20)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// upgrade open against a live older connection is rejected
	db2 := New(factory, name, 2)
	user2, err := db2.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err = db2.Open(ctx)
	expectCode(t, err, boxerr.CodeConcurrency)
	if !notified.Load() {
		t.Error("live connection should have received a versionchange event")
	}

	// once the older connection closes, the upgrade proceeds and the
	// reconciled store keeps its data
	if err := db1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db2.Open(ctx); err != nil {
		t.Fatalf("upgrade Open failed: %v", err)
	}
	defer db2.Close()

	rec, err := user2.Get(ctx, float64(1))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec == nil || rec["name"] != "kim" {
		t.Errorf("data should survive the version upgrade, got %v", rec)
	}
}

// TestForceRecreate tests that the force flag discards the store's data on
// the next upgrade.
func TestForceRecreate(t *testing.T) {
	eng := memdb.New()
	factory := func() engine.Engine { return eng }
	name := freshName()
	ctx := context.Background()

	db1 := New(factory, name, 1)
	user1, _ := db1.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err := db1.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := user1.Add(ctx, engine.Record{"name": "kim", "age": float64(20)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	db1.Close()

	db2 := New(factory, name, 2)
	user2, _ := db2.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true, Force: true})
	if err := db2.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db2.Close()

	n, err := user2.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("forced store should be empty, got %d records", n)
	}
}

// TestMigrationFailureRejectsOpen tests that an illegal schema transition
// aborts the upgrade and leaves the prior version intact.
func TestMigrationFailureRejectsOpen(t *testing.T) {
	eng := memdb.New()
	factory := func() engine.Engine { return eng }
	name := freshName()
	ctx := context.Background()

	db1 := New(factory, name, 1)
	user1, _ := db1.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err := db1.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := user1.Add(ctx, engine.Record{"name": "kim", "age": float64(20)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	db1.Close()

	// promoting the name index to unique is an illegal transition
	promoted := userSchema()
	promoted["name"] = schema.Field{Type: schema.TypeString, Index: true, Unique: true}
	db2 := New(factory, name, 2)
	db2.Create("user", promoted, &schema.ModelOptions{AutoIncrement: true})
	err := db2.Open(ctx)
	expectCode(t, err, boxerr.CodeDefinition)

	// the failed upgrade left version 1 fully usable
	db3 := New(factory, name, 1)
	user3, _ := db3.Create("user", userSchema(), &schema.ModelOptions{AutoIncrement: true})
	if err := db3.Open(ctx); err != nil {
		t.Fatalf("reopen at prior version failed: %v", err)
	}
	defer db3.Close()

	rec, err := user3.Get(ctx, float64(1))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec == nil || rec["name"] != "kim" {
		t.Errorf("data should survive the failed upgrade, got %v", rec)
	}
}

// TestCloseEvent tests that Close fires the close event before listeners
// are discarded.
func TestCloseEvent(t *testing.T) {
	db, _ := openUserDB(t, 0)

	var closed atomic.Bool
	if err := db.On(engine.EventClose, func(ev engine.Event) {
		closed.Store(true)
	}); err != nil {
		t.Fatalf("On failed: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !closed.Load() {
		t.Error("close listener should have fired")
	}
}

// TestNewRecordRoundtrip tests that a factory-defaulted record is
// immediately storable.
func TestNewRecordRoundtrip(t *testing.T) {
	_, user := openUserDB(t, 0)
	ctx := context.Background()

	rec := user.NewRecord()
	rec["name"] = "fresh"
	delete(rec, "id") // let the sequence generate the key

	key, err := user.Add(ctx, rec)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := user.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["name"] != "fresh" || got["age"] != float64(0) {
		t.Errorf("record = %v", got)
	}
}
