package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
	"github.com/leegeunhyeok/box-db/lib/engine"
)

// EngineFactory is a function that creates a fresh instance of an engine
// implementation.
type EngineFactory func() engine.Engine

// RunEngineTests runs a comprehensive conformance suite for an engine
// implementation.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("OpenAndUpgrade", func(t *testing.T) {
			testOpenAndUpgrade(t, factory())
		})

		t.Run("Insert&Get", func(t *testing.T) {
			testInsertGet(t, factory())
		})

		t.Run("PutUpsert", func(t *testing.T) {
			testPutUpsert(t, factory())
		})

		t.Run("Delete&Clear&Count", func(t *testing.T) {
			testDeleteClearCount(t, factory())
		})

		t.Run("AutoIncrement", func(t *testing.T) {
			testAutoIncrement(t, factory())
		})

		t.Run("InlineKey", func(t *testing.T) {
			testInlineKey(t, factory())
		})

		t.Run("UniqueIndex", func(t *testing.T) {
			testUniqueIndex(t, factory())
		})

		t.Run("CursorTraversal", func(t *testing.T) {
			testCursorTraversal(t, factory())
		})

		t.Run("IndexCursor", func(t *testing.T) {
			testIndexCursor(t, factory())
		})

		t.Run("TxAtomicity", func(t *testing.T) {
			testTxAtomicity(t, factory())
		})

		t.Run("TxScope", func(t *testing.T) {
			testTxScope(t, factory())
		})

		t.Run("ReadOnlyRejectsWrites", func(t *testing.T) {
			testReadOnlyRejectsWrites(t, factory())
		})

		t.Run("BlockedOpen", func(t *testing.T) {
			testBlockedOpen(t, factory())
		})

		t.Run("VersionRegression", func(t *testing.T) {
			testVersionRegression(t, factory())
		})

		t.Run("UpgradeRollback", func(t *testing.T) {
			testUpgradeRollback(t, factory())
		})

		t.Run("ClosedConnection", func(t *testing.T) {
			testClosedConnection(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var dbCounter int

// openSimple opens a fresh database at version 1 with one out-of-line,
// auto-increment store named "item" carrying an "age" index.
func openSimple(t testing.TB, e engine.Engine) engine.Connection {
	t.Helper()
	dbCounter++
	name := fmt.Sprintf("conformance-%d", dbCounter)
	conn, err := e.Open(context.Background(), name, 1, func(tx engine.UpgradeTx, _, _ uint64) error {
		if err := tx.CreateStore("item", "", true); err != nil {
			return err
		}
		return tx.CreateIndex("item", "age", false)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return conn
}

func mustBegin(t testing.TB, conn engine.Connection, mode engine.AccessMode, scope []string) engine.Tx {
	t.Helper()
	tx, err := conn.Begin(mode, scope)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx
}

func mustCommit(t testing.TB, tx engine.Tx) {
	t.Helper()
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
}

func insertAll(t testing.TB, conn engine.Connection, store string, recs ...engine.Record) {
	t.Helper()
	tx := mustBegin(t, conn, engine.ReadWrite, []string{store})
	for _, rec := range recs {
		if _, err := tx.Insert(store, nil, rec); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	mustCommit(t, tx)
}

func expectCode(t testing.TB, err error, code boxerr.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !boxerr.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testOpenAndUpgrade(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "open-upgrade", 2, func(tx engine.UpgradeTx, old, new uint64) error {
		if old != 0 || new != 2 {
			t.Errorf("expected upgrade 0 -> 2, got %d -> %d", old, new)
		}
		if len(tx.Stores()) != 0 {
			t.Errorf("expected empty structural snapshot on first open")
		}
		return tx.CreateStore("user", "id", false)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	if conn.Version() != 2 {
		t.Errorf("expected version 2, got %d", conn.Version())
	}

	// Re-opening at the same version must not run the upgrade again.
	conn2, err := e.Open(context.Background(), "open-upgrade", 2, func(engine.UpgradeTx, uint64, uint64) error {
		t.Error("upgrade must not run when the version is unchanged")
		return nil
	})
	if err != nil {
		t.Fatalf("re-open failed: %v", err)
	}
	conn2.Close()
}

func testInsertGet(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	key, err := tx.Insert("item", float64(1), engine.Record{"name": "a", "age": float64(10)})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if engine.CompareKeys(key, float64(1)) != 0 {
		t.Errorf("expected key 1, got %v", key)
	}

	// add on an existing key is a constraint error
	_, err = tx.Insert("item", float64(1), engine.Record{"name": "b", "age": float64(20)})
	expectCode(t, err, boxerr.CodeEngine)
	mustCommit(t, tx)

	tx = mustBegin(t, conn, engine.ReadOnly, []string{"item"})
	rec, found, err := tx.Get("item", float64(1))
	if err != nil || !found {
		t.Fatalf("expected record at key 1, got found=%t err=%v", found, err)
	}
	if rec["name"] != "a" {
		t.Errorf("expected name a, got %v", rec["name"])
	}
	_, found, err = tx.Get("item", float64(42))
	if err != nil || found {
		t.Errorf("expected no record at key 42, got found=%t err=%v", found, err)
	}
	mustCommit(t, tx)
}

func testPutUpsert(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	if _, err := tx.Put("item", float64(7), engine.Record{"name": "old", "age": float64(1)}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := tx.Put("item", float64(7), engine.Record{"name": "new", "age": float64(2)}); err != nil {
		t.Fatalf("put over existing key failed: %v", err)
	}
	rec, found, err := tx.Get("item", float64(7))
	if err != nil || !found {
		t.Fatalf("expected record at key 7, got found=%t err=%v", found, err)
	}
	if rec["name"] != "new" {
		t.Errorf("expected replaced record, got %v", rec)
	}
	mustCommit(t, tx)
}

func testDeleteClearCount(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	insertAll(t, conn, "item",
		engine.Record{"name": "a", "age": float64(1)},
		engine.Record{"name": "b", "age": float64(2)},
		engine.Record{"name": "c", "age": float64(3)},
	)

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	if n, _ := tx.Count("item"); n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
	if err := tx.Delete("item", float64(2)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// deleting a missing key is a no-op
	if err := tx.Delete("item", float64(99)); err != nil {
		t.Fatalf("delete of missing key failed: %v", err)
	}
	if n, _ := tx.Count("item"); n != 2 {
		t.Errorf("expected count 2 after delete, got %d", n)
	}
	if err := tx.Clear("item"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if n, _ := tx.Count("item"); n != 0 {
		t.Errorf("expected count 0 after clear, got %d", n)
	}
	mustCommit(t, tx)
}

func testAutoIncrement(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	k1, err := tx.Insert("item", nil, engine.Record{"name": "a"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	k2, err := tx.Insert("item", nil, engine.Record{"name": "b"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if engine.CompareKeys(k1, k2) >= 0 {
		t.Errorf("expected generated keys to increase, got %v then %v", k1, k2)
	}
	// an explicit key above the sequence pushes the generator past it
	if _, err := tx.Insert("item", float64(100), engine.Record{"name": "c"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	k3, err := tx.Insert("item", nil, engine.Record{"name": "d"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if engine.CompareKeys(k3, float64(100)) <= 0 {
		t.Errorf("expected generated key above 100, got %v", k3)
	}
	mustCommit(t, tx)
}

func testInlineKey(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "inline-key", 1, func(tx engine.UpgradeTx, _, _ uint64) error {
		return tx.CreateStore("user", "id", false)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"user"})
	key, err := tx.Insert("user", nil, engine.Record{"id": "u-1", "name": "a"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if key != "u-1" {
		t.Errorf("expected extracted key u-1, got %v", key)
	}

	// explicit key conflicts with the in-line key path
	_, err = tx.Insert("user", "u-2", engine.Record{"id": "u-2"})
	expectCode(t, err, boxerr.CodeEngine)

	// a value without its key field cannot be stored
	_, err = tx.Insert("user", nil, engine.Record{"name": "keyless"})
	expectCode(t, err, boxerr.CodeEngine)
	mustCommit(t, tx)
}

func testUniqueIndex(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "unique-index", 1, func(tx engine.UpgradeTx, _, _ uint64) error {
		if err := tx.CreateStore("user", "", true); err != nil {
			return err
		}
		return tx.CreateIndex("user", "email", true)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"user"})
	if _, err := tx.Insert("user", nil, engine.Record{"email": "a@x"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	_, err = tx.Insert("user", nil, engine.Record{"email": "a@x"})
	expectCode(t, err, boxerr.CodeEngine)

	// updating a record to keep its own index key is not a violation
	k, err := tx.Insert("user", nil, engine.Record{"email": "b@x"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := tx.Put("user", k, engine.Record{"email": "b@x", "extra": true}); err != nil {
		t.Errorf("self-referential unique update failed: %v", err)
	}
	mustCommit(t, tx)
}

func testCursorTraversal(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	for i := 1; i <= 5; i++ {
		if _, err := tx.Insert("item", float64(i), engine.Record{"age": float64(i * 10)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	collect := func(rng *engine.KeyRange, dir engine.Direction) []engine.Key {
		cur, err := tx.OpenCursor("item", "", rng, dir)
		if err != nil {
			t.Fatalf("open cursor failed: %v", err)
		}
		var keys []engine.Key
		for {
			ok, err := cur.Next()
			if err != nil {
				t.Fatalf("next failed: %v", err)
			}
			if !ok {
				break
			}
			keys = append(keys, cur.Key())
		}
		return keys
	}

	asc := collect(nil, engine.Asc)
	if len(asc) != 5 || engine.CompareKeys(asc[0], float64(1)) != 0 || engine.CompareKeys(asc[4], float64(5)) != 0 {
		t.Errorf("unexpected ascending keys: %v", asc)
	}

	desc := collect(nil, engine.Desc)
	if len(desc) != 5 || engine.CompareKeys(desc[0], float64(5)) != 0 {
		t.Errorf("unexpected descending keys: %v", desc)
	}

	bounded := collect(engine.RangeBound(float64(2), float64(4), false, true), engine.Asc)
	if len(bounded) != 2 || engine.CompareKeys(bounded[0], float64(2)) != 0 || engine.CompareKeys(bounded[1], float64(3)) != 0 {
		t.Errorf("unexpected bounded keys: %v", bounded)
	}

	equal := collect(engine.RangeEqual(float64(3)), engine.Asc)
	if len(equal) != 1 || engine.CompareKeys(equal[0], float64(3)) != 0 {
		t.Errorf("unexpected equality keys: %v", equal)
	}
	mustCommit(t, tx)
}

func testIndexCursor(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	// duplicate age values across distinct records
	insertAll(t, conn, "item",
		engine.Record{"name": "a", "age": float64(10)},
		engine.Record{"name": "b", "age": float64(10)},
		engine.Record{"name": "c", "age": float64(20)},
	)

	tx := mustBegin(t, conn, engine.ReadOnly, []string{"item"})
	defer tx.Commit()

	cur, err := tx.OpenCursor("item", "age", nil, engine.Asc)
	if err != nil {
		t.Fatalf("open index cursor failed: %v", err)
	}
	var total int
	for {
		ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		total++
	}
	if total != 3 {
		t.Errorf("expected 3 index entries, got %d", total)
	}

	cur, err = tx.OpenCursor("item", "age", nil, engine.AscUnique)
	if err != nil {
		t.Fatalf("open unique index cursor failed: %v", err)
	}
	var unique int
	for {
		ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		unique++
	}
	if unique != 2 {
		t.Errorf("expected 2 distinct index keys, got %d", unique)
	}
}

func testTxAtomicity(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	if _, err := tx.Insert("item", float64(1), engine.Record{"name": "staged"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := tx.Abort(); err != nil {
		t.Fatalf("abort failed: %v", err)
	}

	tx = mustBegin(t, conn, engine.ReadOnly, []string{"item"})
	_, found, err := tx.Get("item", float64(1))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if found {
		t.Error("aborted insert must not be observable")
	}
	mustCommit(t, tx)
}

func testTxScope(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadWrite, []string{"item"})
	_, _, err := tx.Get("other", float64(1))
	expectCode(t, err, boxerr.CodeEngine)
	mustCommit(t, tx)
}

func testReadOnlyRejectsWrites(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadOnly, []string{"item"})
	_, err := tx.Insert("item", nil, engine.Record{"name": "x"})
	expectCode(t, err, boxerr.CodeEngine)
	mustCommit(t, tx)
}

func testBlockedOpen(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "blocked", 1, func(tx engine.UpgradeTx, _, _ uint64) error {
		return tx.CreateStore("item", "", true)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	var gotVersionChange bool
	conn.OnEvent(func(ev engine.Event) {
		if ev.Type == engine.EventVersionChange {
			gotVersionChange = true
		}
	})

	_, err = e.Open(context.Background(), "blocked", 2, func(tx engine.UpgradeTx, _, _ uint64) error {
		t.Error("upgrade logic must not run while an older connection is open")
		return nil
	})
	expectCode(t, err, boxerr.CodeConcurrency)
	if !gotVersionChange {
		t.Error("the live connection must receive a versionchange event")
	}

	// after the old connection closes, the upgrade proceeds
	conn.Close()
	conn2, err := e.Open(context.Background(), "blocked", 2, nil)
	if err != nil {
		t.Fatalf("open after close failed: %v", err)
	}
	conn2.Close()
}

func testVersionRegression(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "regression", 3, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	conn.Close()

	_, err = e.Open(context.Background(), "regression", 1, nil)
	expectCode(t, err, boxerr.CodeEngine)
}

func testUpgradeRollback(t *testing.T, e engine.Engine) {
	conn, err := e.Open(context.Background(), "rollback", 1, func(tx engine.UpgradeTx, _, _ uint64) error {
		return tx.CreateStore("keep", "", true)
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	insertAll(t, conn, "keep", engine.Record{"name": "survivor"})
	conn.Close()

	// the failing upgrade makes structural and data edits that must all revert
	_, err = e.Open(context.Background(), "rollback", 2, func(tx engine.UpgradeTx, _, _ uint64) error {
		if err := tx.CreateStore("doomed", "", true); err != nil {
			return err
		}
		if err := tx.Clear("keep"); err != nil {
			return err
		}
		return boxerr.Definitionf("simulated migration failure")
	})
	expectCode(t, err, boxerr.CodeDefinition)

	conn, err = e.Open(context.Background(), "rollback", 1, nil)
	if err != nil {
		t.Fatalf("re-open at prior version failed: %v", err)
	}
	defer conn.Close()

	tx := mustBegin(t, conn, engine.ReadOnly, nil)
	if n, _ := tx.Count("keep"); n != 1 {
		t.Errorf("expected data untouched after failed upgrade, count=%d", n)
	}
	if _, err := tx.Count("doomed"); err == nil {
		t.Error("store created by a failed upgrade must not exist")
	}
	mustCommit(t, tx)
}

func testClosedConnection(t *testing.T, e engine.Engine) {
	conn := openSimple(t, e)

	var gotClose bool
	conn.OnEvent(func(ev engine.Event) {
		if ev.Type == engine.EventClose {
			gotClose = true
		}
	})
	if err := conn.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !gotClose {
		t.Error("expected a close event")
	}
	// closing twice is a no-op
	if err := conn.Close(); err != nil {
		t.Fatalf("double close failed: %v", err)
	}

	_, err := conn.Begin(engine.ReadOnly, nil)
	expectCode(t, err, boxerr.CodeConcurrency)
}
