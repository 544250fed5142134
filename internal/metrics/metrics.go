// Package metrics exposes the Prometheus counters the metadata store
// increments inline. No HTTP exporter
// is wired by default; ServeLoopback starts one only when the daemon
// is asked to via CHRONOLOG_METRICS_ADDR, mirroring the promhttp
// wiring an example code-intelligence indexer in this codebase's
// lineage uses for its own `index` command.
package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RevisionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronolog_revisions_recorded_total",
		Help: "Number of revisions recorded by the metadata store.",
	})

	BytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronolog_bytes_stored_total",
		Help: "Total bytes written to the object store.",
	})

	SearchQueriesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronolog_search_queries_total",
		Help: "Number of search/advanced_search queries served.",
	})

	LockContentionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronolog_lock_contention_retries_total",
		Help: "Number of times a writer retried metadata store lock acquisition.",
	})
)

// ServeLoopback starts a /metrics HTTP handler bound to addr (expected
// to be a loopback address) and returns the listener so the caller can
// shut it down. Intended for the daemon process only.
func ServeLoopback(addr string) (net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.Serve(lis, mux)
	return lis, nil
}
