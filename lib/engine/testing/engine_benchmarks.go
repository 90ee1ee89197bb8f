package testing

import (
	"fmt"
	"testing"

	"github.com/leegeunhyeok/box-db/lib/engine"
)

// RunEngineBenchmarks runs all benchmarks for an engine implementation
func RunEngineBenchmarks(b *testing.B, name string, factory EngineFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Insert", func(b *testing.B) {
			benchmarkInsert(b, factory())
		})

		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("Delete", func(b *testing.B) {
			benchmarkDelete(b, factory())
		})

		b.Run("CursorScan", func(b *testing.B) {
			benchmarkCursorScan(b, factory())
		})

		b.Run("IndexCursorScan", func(b *testing.B) {
			benchmarkIndexCursorScan(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// seed inserts n records with keys 1..n and a numeric "age" field in one
// transaction.
func seed(b *testing.B, conn engine.Connection, n int) {
	b.Helper()
	tx := mustBegin(b, conn, engine.ReadWrite, []string{"item"})
	for i := 1; i <= n; i++ {
		if _, err := tx.Insert("item", float64(i), engine.Record{
			"name": fmt.Sprintf("item-%d", i),
			"age":  float64(i % 100),
		}); err != nil {
			b.Fatalf("seed insert failed: %v", err)
		}
	}
	mustCommit(b, tx)
}

func benchmarkInsert(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })

	tx := mustBegin(b, conn, engine.ReadWrite, []string{"item"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tx.Insert("item", float64(i+1), engine.Record{"age": float64(i % 100)}); err != nil {
			b.Fatalf("insert failed: %v", err)
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}

func benchmarkPut(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })

	tx := mustBegin(b, conn, engine.ReadWrite, []string{"item"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// small keyspace forces mostly-overwrite behavior
		if _, err := tx.Put("item", float64(i%1024), engine.Record{"age": float64(i % 100)}); err != nil {
			b.Fatalf("put failed: %v", err)
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}

func benchmarkGet(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })
	seed(b, conn, 1024)

	tx := mustBegin(b, conn, engine.ReadOnly, []string{"item"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := tx.Get("item", float64(i%1024+1)); err != nil {
			b.Fatalf("get failed: %v", err)
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}

func benchmarkDelete(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })
	seed(b, conn, 1024)

	tx := mustBegin(b, conn, engine.ReadWrite, []string{"item"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// deleting a missing key is a no-op, so wrap-around stays valid
		if err := tx.Delete("item", float64(i%1024+1)); err != nil {
			b.Fatalf("delete failed: %v", err)
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}

func benchmarkCursorScan(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })
	seed(b, conn, 1024)

	tx := mustBegin(b, conn, engine.ReadOnly, []string{"item"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cur, err := tx.OpenCursor("item", "", nil, engine.Asc)
		if err != nil {
			b.Fatalf("open cursor failed: %v", err)
		}
		for {
			ok, err := cur.Next()
			if err != nil {
				b.Fatalf("next failed: %v", err)
			}
			if !ok {
				break
			}
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}

func benchmarkIndexCursorScan(b *testing.B, e engine.Engine) {
	conn := openSimple(b, e)
	b.Cleanup(func() { conn.Close() })
	seed(b, conn, 1024)

	tx := mustBegin(b, conn, engine.ReadOnly, []string{"item"})
	rng := engine.RangeBound(float64(10), float64(50), false, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cur, err := tx.OpenCursor("item", "age", rng, engine.Asc)
		if err != nil {
			b.Fatalf("open index cursor failed: %v", err)
		}
		for {
			ok, err := cur.Next()
			if err != nil {
				b.Fatalf("next failed: %v", err)
			}
			if !ok {
				break
			}
		}
	}
	b.StopTimer()
	mustCommit(b, tx)
}
