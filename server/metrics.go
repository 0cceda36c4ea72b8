package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Server updates as
// connections open and close and as commands are processed.
type Metrics struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	idsIssued         prometheus.Counter
	commandErrors     *prometheus.CounterVec
}

// NewMetrics builds a Metrics and registers its collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "redflake_connections_active",
			Help: "Number of currently open client connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redflake_connections_total",
			Help: "Total number of client connections accepted.",
		}),
		idsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redflake_ids_issued_total",
			Help: "Total number of Snowflake IDs issued by NEXT.",
		}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redflake_command_errors_total",
			Help: "Total number of command-layer errors, labeled by command.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.connectionsActive, m.connectionsTotal, m.idsIssued, m.commandErrors)
	return m
}
