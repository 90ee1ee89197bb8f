package memdb

import (
	"testing"

	"github.com/leegeunhyeok/box-db/lib/engine"
	enginetesting "github.com/leegeunhyeok/box-db/lib/engine/testing"
)

func Test(t *testing.T) {
	enginetesting.RunEngineTests(t, "MemDB", func() engine.Engine {
		return New()
	})
}

func Benchmark(b *testing.B) {
	enginetesting.RunEngineBenchmarks(b, "MemDB", func() engine.Engine {
		return New()
	})
}
