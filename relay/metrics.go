// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/textrelay/lib/chunk"
)

// Direction labels for traffic metrics.
const (
	DirectionToSocket = "to_socket"
	DirectionToText   = "to_text"
)

// Metrics records relay traffic. A nil *Metrics records nothing, so
// engines built without metrics need no special casing.
type Metrics struct {
	chunks    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	malformed prometheus.Counter
	commands  *prometheus.CounterVec
	running   prometheus.Gauge
}

// NewMetrics creates the relay collectors and registers them with
// registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textrelay",
			Name:      "chunks_total",
			Help:      "Chunks relayed, by direction and kind.",
		}, []string{"direction", "kind"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textrelay",
			Name:      "bytes_total",
			Help:      "Payload bytes relayed, by direction.",
		}, []string{"direction"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "textrelay",
			Name:      "malformed_lines_total",
			Help:      "Chunks discarded because a line failed to decode.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textrelay",
			Name:      "commands_total",
			Help:      "Command chunks received from the text side, by command.",
		}, []string{"command"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "textrelay",
			Name:      "running",
			Help:      "1 while both pumps are relaying.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		metrics.chunks, metrics.bytes, metrics.malformed, metrics.commands, metrics.running,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (m *Metrics) chunk(direction string, kind chunk.Kind, size int) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(direction, kind.String()).Inc()
	if size > 0 {
		m.bytes.WithLabelValues(direction).Add(float64(size))
	}
}

func (m *Metrics) malformedLine() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *Metrics) command(command Command) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command.String()).Inc()
}

func (m *Metrics) setRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}
