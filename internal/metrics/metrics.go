package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adaptive-routing/banditsim/internal/api"
)

// Metrics holds all Prometheus instruments for the simulation host. The
// engine core stays metrics-free; the host observes engine snapshots after
// each command and mirrors them here.
type Metrics struct {
	StepsTotal    prometheus.Counter
	RequestsTotal *prometheus.CounterVec

	Selections *prometheus.GaugeVec
	Confusion  *prometheus.GaugeVec
	PriorAlpha *prometheus.GaugeVec
	PriorBeta  *prometheus.GaugeVec
	Recall     prometheus.Gauge
	Precision  prometheus.Gauge
	QueueDepth prometheus.Gauge

	SessionsLive    prometheus.Gauge
	SessionsEvicted prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		StepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bsim_steps_total",
			Help: "Total number of simulation steps executed across all sessions",
		}),
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bsim_requests_total",
				Help: "Total number of API requests by endpoint",
			},
			[]string{"endpoint"},
		),

		Selections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bsim_selections",
				Help: "Cumulative selection count per classifier for the most recently observed session",
			},
			[]string{"model"},
		),
		Confusion: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bsim_confusion_counts",
				Help: "Confusion matrix tallies (tp, fn, fp, tn) for the most recently observed session",
			},
			[]string{"category"},
		),
		PriorAlpha: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bsim_prior_alpha",
				Help: "Beta prior alpha per classifier",
			},
			[]string{"model"},
		),
		PriorBeta: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bsim_prior_beta",
				Help: "Beta prior beta per classifier",
			},
			[]string{"model"},
		),
		Recall: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bsim_recall",
			Help: "Recall over resolved fraudulent transactions",
		}),
		Precision: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bsim_precision",
			Help: "Precision over resolved predictions",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bsim_feedback_queue_depth",
			Help: "Number of in-flight predictions awaiting delayed feedback",
		}),

		SessionsLive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bsim_sessions_live",
			Help: "Number of live simulation sessions",
		}),
		SessionsEvicted: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bsim_sessions_evicted",
			Help: "Number of sessions evicted from the session store",
		}),
	}
}

// ObserveState mirrors one engine snapshot into the gauges.
func (m *Metrics) ObserveState(st api.EngineState) {
	for model, n := range st.SelectionCounts {
		m.Selections.WithLabelValues(model).Set(float64(n))
	}
	for model, p := range st.Priors {
		m.PriorAlpha.WithLabelValues(model).Set(p.Alpha)
		m.PriorBeta.WithLabelValues(model).Set(p.Beta)
	}
	m.Confusion.WithLabelValues("tp").Set(float64(st.Counts.TruePositives))
	m.Confusion.WithLabelValues("fn").Set(float64(st.Counts.FalseNegatives))
	m.Confusion.WithLabelValues("fp").Set(float64(st.Counts.FalsePositives))
	m.Confusion.WithLabelValues("tn").Set(float64(st.Counts.TrueNegatives))
	m.Recall.Set(st.Recall)
	m.Precision.Set(st.Precision)
	m.QueueDepth.Set(float64(st.QueueDepth))
}
