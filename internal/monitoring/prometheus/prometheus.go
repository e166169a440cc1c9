// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime *prometheus.HistogramVec
	dependency   *prometheus.GaugeVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	metric, err := m.responseTime.GetMetricWith(m.withDefaults(tags, "route", "method", "status"))
	if err != nil {
		return err
	}

	metric.Observe(value)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	metric, err := m.dependency.GetMetricWith(m.withDefaults(tags, "component"))
	if err != nil {
		return err
	}

	metric.Set(value)
	return nil
}

// withDefaults fills missing expected labels with empty values so that
// GetMetricWith never fails on label cardinality.
func (m *Monitor) withDefaults(tags map[string]string, expected ...string) prometheus.Labels {
	labels := prometheus.Labels{"service": m.service}
	for _, k := range expected {
		labels[k] = tags[k]
	}
	return labels
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "route", "method", "status"},
	)

	m.dependency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "Availability of external dependencies (1 up, 0 down).",
		},
		[]string{"service", "component"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.dependency} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Warnf("metric registration failed: %v", err)
		}
	}

	return m
}
