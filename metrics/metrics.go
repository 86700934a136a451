// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics wraps github.com/rcrowley/go-metrics the way the node's
// own storage and chain-data-fetching subsystems do: package-level
// gauges/counters/meters registered against a single default registry, with
// an Enabled switch so a node can disable metrics collection without
// touching call sites.
package metrics

import (
	metrics "github.com/rcrowley/go-metrics"
)

// Enabled is checked by the constructors below; when false, every
// constructor returns a no-op implementation so callers don't need to
// branch on whether metrics are turned on.
var Enabled = false

// DefaultRegistry is where every Registered* constructor below registers
// its metric, mirroring go-metrics' own package-level DefaultRegistry.
var DefaultRegistry = metrics.DefaultRegistry

type (
	Gauge   = metrics.Gauge
	Counter = metrics.Counter
	Meter   = metrics.Meter
	Timer   = metrics.Timer
)

// NewRegisteredGauge constructs and registers a new Gauge, or returns a
// no-op Gauge when metrics are disabled.
func NewRegisteredGauge(name string, r metrics.Registry) metrics.Gauge {
	if !Enabled {
		return new(metrics.NilGauge)
	}
	if r == nil {
		r = DefaultRegistry
	}
	return metrics.GetOrRegisterGauge(name, r)
}

// NewRegisteredCounter constructs and registers a new Counter, or returns a
// no-op Counter when metrics are disabled.
func NewRegisteredCounter(name string, r metrics.Registry) metrics.Counter {
	if !Enabled {
		return new(metrics.NilCounter)
	}
	if r == nil {
		r = DefaultRegistry
	}
	return metrics.GetOrRegisterCounter(name, r)
}

// NewRegisteredMeter constructs and registers a new Meter, or returns a
// no-op Meter when metrics are disabled.
func NewRegisteredMeter(name string, r metrics.Registry) metrics.Meter {
	if !Enabled {
		return metrics.NilMeter{}
	}
	if r == nil {
		r = DefaultRegistry
	}
	return metrics.GetOrRegisterMeter(name, r)
}

// NewRegisteredTimer constructs and registers a new Timer, or returns a
// no-op Timer when metrics are disabled.
func NewRegisteredTimer(name string, r metrics.Registry) metrics.Timer {
	if !Enabled {
		return &metrics.NilTimer{}
	}
	if r == nil {
		r = DefaultRegistry
	}
	return metrics.GetOrRegisterTimer(name, r)
}
