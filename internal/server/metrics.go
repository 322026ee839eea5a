package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mapstore_plugins"

type metrics struct {
	registry       *prometheus.Registry
	uploads        *prometheus.CounterVec
	uninstalls     *prometheus.CounterVec
	uploadDuration prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uploads_total",
			Help:      "Plugin bundle uploads by result",
		}, []string{"result"}),
		uninstalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "uninstalls_total",
			Help:      "Plugin uninstalls by result",
		}, []string{"result"}),
		uploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upload_duration_seconds",
			Help:      "Time spent validating, extracting and registering a plugin bundle",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
