package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"swipesort/internal/core"
)

// Metrics implements core.Recorder on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	SwipesTotal         *prometheus.CounterVec
	RemovalsTotal       *prometheus.CounterVec
	MutationErrorsTotal *prometheus.CounterVec
	PagesTotal          *prometheus.CounterVec
	ItemsFetchedTotal   *prometheus.CounterVec
	PreviewsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	DeckSize            prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		Registry: prometheus.NewRegistry(),
		SwipesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_swipes_total",
				Help: "Total number of swipe decisions",
			},
			[]string{"mode", "direction"},
		),
		RemovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_removals_total",
				Help: "Total number of tracks removed remotely",
			},
			[]string{"source"},
		),
		MutationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_mutation_errors_total",
				Help: "Total number of failed library mutations",
			},
			[]string{"op"},
		),
		PagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_listing_pages_total",
				Help: "Total number of listing pages fetched",
			},
			[]string{"mode"},
		),
		ItemsFetchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_listing_items_total",
				Help: "Total number of listing items fetched",
			},
			[]string{"mode"},
		),
		PreviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swipesort_previews_total",
				Help: "Preview resolutions by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swipesort_request_duration_seconds",
				Help:    "Time spent serving API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
		DeckSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swipesort_deck_size",
				Help: "Current number of cards in the deck",
			},
		),
	}

	metrics.Registry.MustRegister(
		metrics.SwipesTotal,
		metrics.RemovalsTotal,
		metrics.MutationErrorsTotal,
		metrics.PagesTotal,
		metrics.ItemsFetchedTotal,
		metrics.PreviewsTotal,
		metrics.RequestDuration,
		metrics.DeckSize,
	)
	return metrics
}

func (m *Metrics) RecordSwipe(mode string, direction core.Direction) {
	m.SwipesTotal.WithLabelValues(mode, direction.String()).Inc()
}

func (m *Metrics) RecordRemoval(source core.RemovalSource) {
	m.RemovalsTotal.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) RecordMutationError(op string) {
	m.MutationErrorsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordPageFetched(mode string, items int) {
	m.PagesTotal.WithLabelValues(mode).Inc()
	m.ItemsFetchedTotal.WithLabelValues(mode).Add(float64(items))
}

func (m *Metrics) RecordPreview(outcome string) {
	m.PreviewsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetDeckSize(size int) {
	m.DeckSize.Set(float64(size))
}
