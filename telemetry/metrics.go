// Package telemetry provides Prometheus metrics, OpenTelemetry tracing and
// correlation-id aware logging helpers.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PagesFetched      prometheus.Counter
	PageFetchRetries  prometheus.Counter
	PageFetchFailures prometheus.Counter
	CommentsSkipped   prometheus.Counter // null commenter (deleted/banned)
	CommentsRetained  prometheus.Counter
	KeywordMatches    prometheus.Counter
	ExportsWritten    prometheus.Counter
	ExportsPruned     prometheus.Counter
	Scans             *prometheus.CounterVec // label result=ok|error|empty

	// Histograms (seconds)
	PageFetchDuration prometheus.Observer
	ScanDuration      prometheus.Observer

	// Gauges
	ActiveScans prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PagesFetched = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_pages_fetched_total", Help: "Comment pages fetched from the feed"})
		PageFetchRetries = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_page_fetch_retries_total", Help: "Page fetch attempts retried after a timeout"})
		PageFetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_page_fetch_failures_total", Help: "Page fetches that failed fatally"})
		CommentsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_comments_skipped_total", Help: "Feed entries dropped because the commenter is null"})
		CommentsRetained = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_comments_retained_total", Help: "Comments accumulated inside a requested window"})
		KeywordMatches = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_keyword_matches_total", Help: "Record/keyword matches before export dedup"})
		ExportsWritten = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_exports_written_total", Help: "Export artifacts persisted"})
		ExportsPruned = promauto.NewCounter(prometheus.CounterOpts{Name: "chatscan_exports_pruned_total", Help: "Export artifacts deleted by retention"})
		Scans = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chatscan_scans_total", Help: "Completed scans by result"}, []string{"result"})
		PageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chatscan_page_fetch_duration_seconds", Help: "Page fetch duration seconds (all attempts)", Buckets: prometheus.DefBuckets})
		ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chatscan_scan_duration_seconds", Help: "End-to-end scan duration seconds", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}})
		ActiveScans = promauto.NewGauge(prometheus.GaugeOpts{Name: "chatscan_active_scans", Help: "Scans currently running"})
	})
}

// Inc increments c when metrics are initialized.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// Add adds n to c when metrics are initialized.
func Add(c prometheus.Counter, n int) {
	if c != nil && n > 0 {
		c.Add(float64(n))
	}
}

// Observe records d on obs when metrics are initialized.
func Observe(obs prometheus.Observer, d time.Duration) {
	if obs != nil {
		obs.Observe(d.Seconds())
	}
}

// ScanResult counts a finished scan under result.
func ScanResult(result string) {
	if Scans != nil {
		Scans.WithLabelValues(result).Inc()
	}
}

// TrackActiveScan bumps the active gauge and returns the matching decrement.
func TrackActiveScan() func() {
	if ActiveScans == nil {
		return func() {}
	}
	ActiveScans.Inc()
	return ActiveScans.Dec
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}
