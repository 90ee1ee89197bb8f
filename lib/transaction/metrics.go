package transaction

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/leegeunhyeok/box-db/lib/task"
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// countTask increments the per-kind task counter.
func countTask(kind task.Kind) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`boxdb_tasks_total{kind=%q}`, kind)).Inc()
}

// countCommit increments the committed-transaction counter.
func countCommit() {
	metrics.GetOrCreateCounter(`boxdb_transactions_total{result="committed"}`).Inc()
}

// countAbort increments the aborted-transaction counter.
func countAbort() {
	metrics.GetOrCreateCounter(`boxdb_transactions_total{result="aborted"}`).Inc()
}

// WriteMetrics dumps every registered counter in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
