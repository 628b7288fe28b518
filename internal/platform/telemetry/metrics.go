package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ifthenpay"

// Metrics holds the Prometheus collectors of the gateway
type Metrics struct {
	notifications      *prometheus.CounterVec
	stateTransitions   *prometheus.CounterVec
	aggregatorRequests *prometheus.CounterVec
	pollAttempts       prometheus.Histogram
}

// NewMetrics creates and registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Server-to-server notifications received, by result.",
		}, []string{"result"}),
		stateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Transaction state transitions, by origin state, target state and triggering flow.",
		}, []string{"from", "to", "source"}),
		aggregatorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregator_requests_total",
			Help:      "Calls to the aggregator API, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		pollAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_poll_attempts",
			Help:      "Status requests issued per poll.",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20},
		}),
	}

	reg.MustRegister(m.notifications, m.stateTransitions, m.aggregatorRequests, m.pollAttempts)
	return m
}

// ObserveNotification counts a webhook call
func (m *Metrics) ObserveNotification(result string) {
	m.notifications.WithLabelValues(result).Inc()
}

// ObserveStateTransition counts a persisted state change
func (m *Metrics) ObserveStateTransition(from, to, source string) {
	m.stateTransitions.WithLabelValues(from, to, source).Inc()
}

// ObserveAggregatorRequest counts an aggregator call
func (m *Metrics) ObserveAggregatorRequest(endpoint, outcome string) {
	m.aggregatorRequests.WithLabelValues(endpoint, outcome).Inc()
}

// ObservePollAttempts records how many status requests one poll needed
func (m *Metrics) ObservePollAttempts(attempts int) {
	m.pollAttempts.Observe(float64(attempts))
}
