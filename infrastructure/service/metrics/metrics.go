package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jurix/jurix/internal/domain"
)

const namespace = "jurix"

// Metrics holds the Prometheus collectors for the HTTP layer and the
// contract state machine
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	versions      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	auditFailures prometheus.Counter
}

// New registers all collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		versions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contract_versions_total",
				Help:      "contract versions written, by the action that produced them",
			},
			[]string{"action"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contract_transitions_total",
				Help:      "contract status transitions",
			},
			[]string{"from", "to"},
		),
		auditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_record_failures_total",
				Help:      "audit entries that could not be written with their mutation",
			},
		),
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) VersionCreated(action domain.AuditAction) {
	m.versions.WithLabelValues(string(action)).Inc()
}

func (m *Metrics) StatusChanged(from, to domain.ContractStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) AuditRecordFailed() {
	m.auditFailures.Inc()
}
