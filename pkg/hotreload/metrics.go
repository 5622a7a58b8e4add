package hotreload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagesync",
		Name:      "connections",
		Help:      "Number of pages holding an open reload channel.",
	})
	metricReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagesync",
		Name:      "reloads_total",
		Help:      "Reload broadcasts sent to connected pages.",
	})
	metricFileChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagesync",
		Name:      "file_changes_total",
		Help:      "Debounced file changes seen by the watcher.",
	})
)
