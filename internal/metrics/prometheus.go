// SPDX-License-Identifier: AGPL-3.0-or-later
// MeshHES - A DLMS/COSEM head-end system for pmesh-routed meters
// Copyright (C) 2023 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/MeshHES>

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// Push ingestion metrics
	PacketsTotal             *prometheus.CounterVec
	AssembliesCompletedTotal *prometheus.CounterVec
	AssembliesDroppedTotal   *prometheus.CounterVec
	SinkErrorsTotal          prometheus.Counter
	EvictionDuration         prometheus.Histogram
	EvictedSlotsTotal        prometheus.Counter
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		PacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_packets_total",
			Help: "The total number of push packets received, by disposition",
		}, []string{"result"}),
		AssembliesCompletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_assemblies_completed_total",
			Help: "The total number of profile assemblies handed to the persistence sink",
		}, []string{"profile"}),
		AssembliesDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_assemblies_dropped_total",
			Help: "The total number of profile assemblies dropped without emission",
		}, []string{"profile", "reason"}),
		SinkErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_sink_errors_total",
			Help: "The total number of persistence sink failures",
		}),
		EvictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "push_eviction_duration_seconds",
			Help:    "Duration of stale-slot eviction sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		EvictedSlotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "push_evicted_slots_total",
			Help: "The total number of reassembly slots cleared for staleness",
		}),
	}
	metrics.register()
	return metrics
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.PacketsTotal)
	prometheus.MustRegister(m.AssembliesCompletedTotal)
	prometheus.MustRegister(m.AssembliesDroppedTotal)
	prometheus.MustRegister(m.SinkErrorsTotal)
	prometheus.MustRegister(m.EvictionDuration)
	prometheus.MustRegister(m.EvictedSlotsTotal)
}

// Push ingestion metrics methods
func (m *Metrics) RecordPacket(result string) {
	if m == nil {
		return
	}
	m.PacketsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordAssemblyCompleted(profile string) {
	if m == nil {
		return
	}
	m.AssembliesCompletedTotal.WithLabelValues(profile).Inc()
}

func (m *Metrics) RecordAssemblyDropped(profile, reason string) {
	if m == nil {
		return
	}
	m.AssembliesDroppedTotal.WithLabelValues(profile, reason).Inc()
}

func (m *Metrics) RecordSinkError() {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.Inc()
}

func (m *Metrics) RecordEviction(duration float64, evicted int) {
	if m == nil {
		return
	}
	m.EvictionDuration.Observe(duration)
	m.EvictedSlotsTotal.Add(float64(evicted))
}
