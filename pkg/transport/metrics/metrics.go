// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package metrics implements a transport counting entries per level on
// prometheus collectors.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mia-platform/chirp/pkg/chirp"
)

const (
	namespace = "chirp"
	levelKey  = "level"
)

var _ chirp.Transport = &Transport{}

// Transport increments a counter for every entry it receives.
type Transport struct {
	entries *prometheus.CounterVec
	fields  prometheus.Counter
}

// New returns a Transport. The constant labels are attached to every series.
func New(constLabels prometheus.Labels) *Transport {
	t := &Transport{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "entries_total",
			Help:        "Number of log entries written, by level.",
			ConstLabels: constLabels,
		}, []string{levelKey}),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "entry_fields_total",
			Help:        "Number of extra fields carried by the written log entries.",
			ConstLabels: constLabels,
		}),
	}

	// pre-create every level series so that they are exported as zero
	for _, level := range chirp.Levels() {
		t.entries.WithLabelValues(levelLabel(level))
	}
	return t
}

// Write implements chirp.Transport.
func (t *Transport) Write(entry chirp.Entry) error {
	t.entries.WithLabelValues(levelLabel(entry.Level)).Inc()
	t.fields.Add(float64(len(entry.Fields)))
	return nil
}

// Collectors returns the collectors to register on a prometheus registry.
func (t *Transport) Collectors() []prometheus.Collector {
	return []prometheus.Collector{t.entries, t.fields}
}

func levelLabel(level chirp.Level) string {
	return strings.ToLower(level.String())
}
