package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for lessondeck.
type Metrics struct {
	ExportsTotal     *prometheus.CounterVec
	ExportDuration   *prometheus.HistogramVec
	SlidesCaptured   prometheus.Counter
	CaptureDuration  prometheus.Histogram
	PersistFailures  prometheus.Counter
	SlidePatches     *prometheus.CounterVec
	DownloadsSaved   prometheus.Counter
	DownloadBytes    prometheus.Counter
	ExportQueueDepth prometheus.Gauge
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// New creates and registers all metrics on the default registry. Later calls
// return the same instance.
func New() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ExportsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lessondeck_exports_total",
					Help: "Deck exports by mode and outcome",
				},
				[]string{"mode", "outcome"},
			),
			ExportDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lessondeck_export_duration_seconds",
					Help:    "Wall time of a full deck export",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
				},
				[]string{"mode"},
			),
			SlidesCaptured: promauto.NewCounter(prometheus.CounterOpts{
				Name: "lessondeck_slides_captured_total",
				Help: "Slides rasterized for export",
			}),
			CaptureDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "lessondeck_capture_duration_seconds",
				Help:    "Time to rasterize one slide",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			}),
			PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "lessondeck_persist_failures_total",
				Help: "Best-effort server persists that failed",
			}),
			SlidePatches: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lessondeck_slide_patches_total",
					Help: "Slide field edits by outcome",
				},
				[]string{"outcome"},
			),
			DownloadsSaved: promauto.NewCounter(prometheus.CounterOpts{
				Name: "lessondeck_downloads_saved_total",
				Help: "PDFs written to the downloads directory",
			}),
			DownloadBytes: promauto.NewCounter(prometheus.CounterOpts{
				Name: "lessondeck_download_bytes_total",
				Help: "Bytes written to the downloads directory",
			}),
			ExportQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "lessondeck_export_queue_depth",
				Help: "Export jobs waiting for the worker",
			}),
		}
	})
	return sharedMetrics
}
