// Copyright 2020 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/rcrowley/go-metrics"
)

// PrometheusCollector bridges the go-metrics registry the rest of this
// package writes to into a prometheus.Collector, so a node's metrics HTTP
// handler can register it once (prometheus.MustRegister) and let every
// go-metrics gauge/counter/meter/timer show up on the scrape endpoint
// without a second registration call per metric.
type PrometheusCollector struct {
	registry  metrics.Registry
	namespace string
}

// NewPrometheusCollector returns a Collector over the given go-metrics
// registry, prefixing every exported metric with namespace. Pass a nil
// registry to collect from DefaultRegistry.
func NewPrometheusCollector(registry metrics.Registry, namespace string) *PrometheusCollector {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &PrometheusCollector{registry: registry, namespace: namespace}
}

// Describe is intentionally a no-op: go-metrics metrics are registered and
// unregistered dynamically at runtime, so this collector is unchecked
// (consistent with prometheus.Collector's documented escape hatch for
// collectors whose metric set isn't known ahead of time).
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {}

// Collect snapshots every metric currently in the registry and emits it as
// a prometheus.Metric.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Each(func(name string, i interface{}) {
		fqName := c.fqName(name)
		switch m := i.(type) {
		case metrics.Gauge:
			ch <- mustGauge(fqName, float64(m.Snapshot().Value()))
		case metrics.GaugeFloat64:
			ch <- mustGauge(fqName, m.Snapshot().Value())
		case metrics.Counter:
			ch <- mustCounter(fqName+"_total", float64(m.Snapshot().Count()))
		case metrics.Meter:
			ch <- mustCounter(fqName+"_total", float64(m.Snapshot().Count()))
		case metrics.Timer:
			snap := m.Snapshot()
			ch <- mustCounter(fqName+"_count", float64(snap.Count()))
			ch <- mustGauge(fqName+"_mean_seconds", snap.Mean()/1e9)
		}
	})
}

func (c *PrometheusCollector) fqName(name string) string {
	sanitized := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(name)
	if c.namespace == "" {
		return sanitized
	}
	return c.namespace + "_" + sanitized
}

func mustGauge(name string, value float64) prometheus.Metric {
	return prometheus.MustNewConstMetric(
		prometheus.NewDesc(name, name+" gauge", nil, nil),
		prometheus.GaugeValue,
		value,
	)
}

func mustCounter(name string, value float64) prometheus.Metric {
	return prometheus.MustNewConstMetric(
		prometheus.NewDesc(name, name+" counter", nil, nil),
		prometheus.CounterValue,
		value,
	)
}
