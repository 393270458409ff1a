// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine counters. Each engine owns its own registry so
// several engines can live in one process, no exporter is started.
type Metrics struct {
	registry *prometheus.Registry

	ServerFrames     prometheus.Counter
	Snapshots        prometheus.Counter
	DroppedUsercmds  prometheus.Counter
	FloodedCommands  prometheus.Counter
	LoopbackPackets  *prometheus.CounterVec
	LoopbackOverruns *prometheus.CounterVec
	ZoneBytes        *prometheus.GaugeVec
	FrameDuration    prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ServerFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "server_frames_total",
			Help: "Server simulation frames run",
		}),
		Snapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "server_snapshots_total",
			Help: "Client snapshots built",
		}),
		DroppedUsercmds: f.NewCounter(prometheus.CounterOpts{
			Name: "server_usercmds_dropped_total",
			Help: "Usercmds dropped for not advancing server time",
		}),
		FloodedCommands: f.NewCounter(prometheus.CounterOpts{
			Name: "server_client_commands_flooded_total",
			Help: "Client commands dropped by flood protection",
		}),
		LoopbackPackets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loopback_packets_total",
			Help: "Packets sent through the loopback transport",
		}, []string{"direction"}),
		LoopbackOverruns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loopback_overruns_total",
			Help: "Unread loopback packets overwritten by newer ones",
		}, []string{"direction"}),
		ZoneBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zone_bytes",
			Help: "Bytes allocated from the zone per tag",
		}, []string{"tag"}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_frame_duration_seconds",
			Help:    "Time spent in an engine frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

// Gatherer exposes the registry to an embedder that wants to export it.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
