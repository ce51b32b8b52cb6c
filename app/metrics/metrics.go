// Package metrics exposes the per-run counters the collection core
// emits for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunsSkipped     *prometheus.CounterVec
	ItemsCollected  *prometheus.CounterVec
	ItemsDropped    *prometheus.CounterVec
	DuplicateWrites *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	LastSuccess     *prometheus.GaugeVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewire_runs_total",
			Help: "Collection runs by source and outcome.",
		}, []string{"source", "outcome"}),
		RunsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewire_runs_skipped_total",
			Help: "Triggers skipped because the previous run was still in flight.",
		}, []string{"source"}),
		ItemsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewire_items_collected_total",
			Help: "Items durably written, by source.",
		}, []string{"source"}),
		ItemsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewire_items_dropped_total",
			Help: "Items dropped by normalization or storage failure, by source.",
		}, []string{"source"}),
		DuplicateWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewire_duplicate_writes_total",
			Help: "Writes short-circuited as duplicates, by source.",
		}, []string{"source"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsewire_run_duration_seconds",
			Help:    "Duration of collection runs, by source.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"source"}),
		LastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsewire_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run, by source.",
		}, []string{"source"}),
	}
}

// Handler serves the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
