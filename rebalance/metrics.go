package rebalance

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "poolhand"

// Metrics counts pass and action outcomes for the bot's optional scrape
// endpoint. All fields are safe for concurrent use.
type Metrics struct {
	Passes       prometheus.Counter
	PassFailures prometheus.Counter
	Actions      *prometheus.CounterVec
}

// NewMetrics builds and registers the bot metrics. A nil registerer falls
// back to the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rebalance",
			Name:      "passes_total",
			Help:      "Completed rebalance passes, including passes that planned nothing.",
		}),
		PassFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rebalance",
			Name:      "pass_failures_total",
			Help:      "Rebalance passes aborted before execution.",
		}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rebalance",
			Name:      "actions_total",
			Help:      "Dispatched stake moves by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(m.Passes, m.PassFailures, m.Actions)
	return m
}

func (m *Metrics) observe(results []Result) {
	if m == nil {
		return
	}
	for _, res := range results {
		outcome := "submitted"
		if res.Err != nil {
			outcome = "rejected"
		}
		m.Actions.WithLabelValues(res.Action.Kind.String(), outcome).Inc()
	}
}
