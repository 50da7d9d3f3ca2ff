// Package metrics exposes Prometheus counters/gauges for the codec's
// throughput and malformed-input diagnostics, plus an optional HTTP
// endpoint so a long-running conversion of a large graph can be scraped
// while it's still in flight.
package metrics

import (
	"net/http"
	"sync"

	"github.com/kstaniek/grph/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus collectors.
var (
	LinesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grph_lines_scanned_total",
		Help: "Total TSV edge lines scanned, counted once per serialize (first pass only).",
	})
	VerticesCompacted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grph_vertices_compacted",
		Help: "Number of distinct vertex identifiers in the most recent serialize.",
	})
	EdgesEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grph_edges_emitted",
		Help: "Number of upper-adjacency entries emitted in the most recent serialize.",
	})
	LoopsEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grph_loops_emitted",
		Help: "Number of self-loop entries emitted in the most recent serialize.",
	})
	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grph_bytes_written_total",
		Help: "Total bytes written to the binary or text sink.",
	})
	TextLinesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grph_text_lines_emitted_total",
		Help: "Total edge lines written by the deserializer.",
	})
	MalformedInput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grph_malformed_input_total",
		Help: "Rejected malformed input, labeled by error taxonomy entry.",
	}, []string{"kind"})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "grph_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Malformed-input label constants (stable values to bound cardinality),
// one per error taxonomy entry in the format's error handling design.
const (
	KindParse            = "parse"
	KindOverflow         = "overflow"
	KindBadHeader        = "bad_header"
	KindUnexpectedEOF    = "unexpected_eof"
	KindMalformedVarint  = "malformed_varint"
	KindCorruptAdjacency = "corrupt_adjacency"
	KindCorruptLoops     = "corrupt_loops"
)

// IncMalformed increments the malformed-input counter for the given kind.
func IncMalformed(kind string) {
	MalformedInput.WithLabelValues(kind).Inc()
}

// AddLinesScanned adds n to the scanned-line counter.
func AddLinesScanned(n int) {
	LinesScanned.Add(float64(n))
}

// SetVertices records the vertex count of the most recent serialize.
func SetVertices(n int) {
	VerticesCompacted.Set(float64(n))
}

// SetEdges records the upper-adjacency entry count of the most recent serialize.
func SetEdges(n int) {
	EdgesEmitted.Set(float64(n))
}

// SetLoops records the loop-entry count of the most recent serialize.
func SetLoops(n int) {
	LoopsEmitted.Set(float64(n))
}

// AddBytesWritten adds n to the bytes-written counter.
func AddBytesWritten(n int) {
	BytesWritten.Add(float64(n))
}

// AddTextLines adds n to the deserializer's emitted-line counter.
func AddTextLines(n int) {
	TextLinesEmitted.Add(float64(n))
}

// InitBuildInfo sets the build info gauge and pre-registers every
// malformed-input label so the first failure doesn't pay registration
// latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, kind := range []string{
		KindParse, KindOverflow, KindBadHeader, KindUnexpectedEOF,
		KindMalformedVarint, KindCorruptAdjacency, KindCorruptLoops,
	} {
		MalformedInput.WithLabelValues(kind).Add(0)
	}
}

// StartHTTP serves Prometheus metrics at /metrics and a readiness probe at
// /ready. The conversion itself runs single-threaded; this server exists
// purely so an external scraper can observe progress during a long-running
// large-graph conversion.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
