package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for consent, session and webhook traffic.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ConsentsRecorded prometheus.Counter

	// Session lifecycle transitions by mode ("LIVE", "MOCK", or "" before issue)
	SessionEvents *prometheus.CounterVec

	// Broker round trips by outcome
	BrokerRequests *prometheus.CounterVec
	BrokerLatency  prometheus.Histogram

	// Webhook deliveries by outcome: "accepted", "rejected"
	Webhooks *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConsentsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "selfie_consents_recorded_total",
			Help: "Total consent records written",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selfie_session_events_total",
			Help: "Verification session transitions by event and mode",
		}, []string{"event", "mode"}),
		BrokerRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selfie_broker_requests_total",
			Help: "Provider session requests by outcome",
		}, []string{"outcome"}),
		BrokerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "selfie_broker_request_duration_seconds",
			Help:    "Duration of provider session requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		Webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selfie_webhooks_total",
			Help: "Provider webhook deliveries by outcome",
		}, []string{"outcome"}),
		gatherer: gatherer,
	}
}

func (m *Metrics) IncConsent() {
	if m != nil {
		m.ConsentsRecorded.Inc()
	}
}

func (m *Metrics) IncSessionEvent(event, mode string) {
	if m != nil {
		m.SessionEvents.WithLabelValues(event, mode).Inc()
	}
}

// ObserveBroker records one provider round trip.
func (m *Metrics) ObserveBroker(outcome string, d time.Duration) {
	if m != nil {
		m.BrokerRequests.WithLabelValues(outcome).Inc()
		m.BrokerLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncWebhook(outcome string) {
	if m != nil {
		m.Webhooks.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
