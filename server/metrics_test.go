package server

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics_RegistersAndUpdates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
	m.idsIssued.Inc()
	m.commandErrors.WithLabelValues("next").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	for _, name := range []string{
		"redflake_connections_active",
		"redflake_connections_total",
		"redflake_ids_issued_total",
		"redflake_command_errors_total",
	} {
		if _, ok := byName[name]; !ok {
			t.Errorf("metric %s was not registered", name)
		}
	}
}
