package monitor

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	valuesIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_values_indexed_total",
		Help: "The total number of field values indexed",
	})

	valuesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_values_deleted_total",
		Help: "The total number of field values removed from the index",
	})

	rangeQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_range_queries_total",
		Help: "The total number of range queries answered",
	})

	subrangesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_subranges_total",
		Help: "The total number of trie subranges produced by range splitting",
	})

	termsVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_terms_visited_total",
		Help: "The total number of dictionary terms visited by range queries",
	})

	persistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triedb_persist_errors_total",
		Help: "The total number of failed batch writes to the backend",
	})
)

// WorkloadStats keeps per-store counters; every Record call also feeds the
// process-wide Prometheus counters.
type WorkloadStats struct {
	IndexCount    uint64
	DeleteCount   uint64
	QueryCount    uint64
	SubrangeCount uint64
	TermCount     uint64
	PersistErrors uint64
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

func (ws *WorkloadStats) RecordIndex() {
	atomic.AddUint64(&ws.IndexCount, 1)
	valuesIndexed.Inc()
}

func (ws *WorkloadStats) RecordDelete() {
	atomic.AddUint64(&ws.DeleteCount, 1)
	valuesDeleted.Inc()
}

// RecordQuery counts one range query that produced subranges and visited terms.
func (ws *WorkloadStats) RecordQuery(subranges, terms int) {
	atomic.AddUint64(&ws.QueryCount, 1)
	atomic.AddUint64(&ws.SubrangeCount, uint64(subranges))
	atomic.AddUint64(&ws.TermCount, uint64(terms))
	rangeQueries.Inc()
	subrangesEmitted.Add(float64(subranges))
	termsVisited.Add(float64(terms))
}

func (ws *WorkloadStats) RecordPersistError() {
	atomic.AddUint64(&ws.PersistErrors, 1)
	persistErrors.Inc()
}

// AvgTermsPerQuery is the mean number of dictionary terms a query visited.
func (ws *WorkloadStats) AvgTermsPerQuery() float64 {
	queries := atomic.LoadUint64(&ws.QueryCount)
	terms := atomic.LoadUint64(&ws.TermCount)

	if queries == 0 {
		return 0.0
	}
	return float64(terms) / float64(queries)
}

// Snapshot returns the counters as a map for the stats endpoint.
func (ws *WorkloadStats) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"values_indexed":      atomic.LoadUint64(&ws.IndexCount),
		"values_deleted":      atomic.LoadUint64(&ws.DeleteCount),
		"range_queries":       atomic.LoadUint64(&ws.QueryCount),
		"subranges_emitted":   atomic.LoadUint64(&ws.SubrangeCount),
		"terms_visited":       atomic.LoadUint64(&ws.TermCount),
		"persist_errors":      atomic.LoadUint64(&ws.PersistErrors),
		"avg_terms_per_query": ws.AvgTermsPerQuery(),
	}
}
