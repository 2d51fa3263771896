package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meteor_impact"

// Metrics holds the Prometheus counters, histograms, and gauges of the impact service.
type Metrics struct {
	// Strike metrics.
	Strikes             prometheus.Counter
	StrikesRejected     prometheus.Counter
	DevastationRadiusKm prometheus.Histogram
	EnergyMegatons      prometheus.Histogram
	StrikeDuration      prometheus.Histogram
	LastStrikeSequence  prometheus.Gauge

	// Narrative metrics.
	NarrativeRequests *prometheus.CounterVec // labels: status={ok,disabled,location_unavailable,generation_failed}
	NarrativeCache    *prometheus.CounterVec // labels: result={hit,miss}
	NarrativeDuration prometheus.Histogram
	NarrativeEnabled  prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// Event publishing metrics.
	EventsPublished  prometheus.Counter
	EventsDropped    prometheus.Counter
	PublishErrors    prometheus.Counter
	PublishBatchSize prometheus.Histogram
	PublisherRunning prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Strikes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strikes_total",
			Help:      "Total simulated impacts.",
		}),
		StrikesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strikes_rejected_total",
			Help:      "Strike requests rejected for invalid meteor parameters or an unknown place.",
		}),
		DevastationRadiusKm: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "devastation_radius_km",
			Help:      "Devastation radius of simulated impacts in kilometers.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		EnergyMegatons: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "energy_megatons",
			Help:      "Kinetic energy of simulated impacts in megatons of TNT.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 10, 14),
		}),
		StrikeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "strike_duration_seconds",
			Help:      "Time to compute an impact and its footprint.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		LastStrikeSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_strike_sequence",
			Help:      "Sequence number of the most recent strike.",
		}),
		NarrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative requests by final status.",
		}, []string{"status"}),
		NarrativeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_cache_total",
			Help:      "Narrative cache lookups by result.",
		}, []string{"result"}),
		NarrativeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "narrative_api_duration_seconds",
			Help:      "Gemini API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		NarrativeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "narrative_enabled",
			Help:      "1 when narrative generation is enabled, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place resolution is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Impact events written to the Kafka topic.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Impact events dropped because the publish queue was full.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to write an event batch to Kafka.",
		}),
		PublishBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_batch_size",
			Help:      "Number of events per batch written to Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      "1 when the event publisher is active, 0 when shut down.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Strikes,
		m.StrikesRejected,
		m.DevastationRadiusKm,
		m.EnergyMegatons,
		m.StrikeDuration,
		m.LastStrikeSequence,
		m.NarrativeRequests,
		m.NarrativeCache,
		m.NarrativeDuration,
		m.NarrativeEnabled,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.EventsPublished,
		m.EventsDropped,
		m.PublishErrors,
		m.PublishBatchSize,
		m.PublisherRunning,
	}
}
