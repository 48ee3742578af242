// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bisq-network/datastore/outcome"
)

// label names
const (
	storeLabel  = "store"
	resultLabel = "result"
)

// Metrics - per store tallies exported to prometheus
//
// a nil *Metrics is valid and records nothing
type Metrics struct {
	outcomes *prometheus.CounterVec
	entries  *prometheus.GaugeVec
	writes   *prometheus.CounterVec
}

// NewMetrics - create unregistered collectors under namespace
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_outcomes_total",
			Help:      "Writes offered to a store, by result.",
		}, []string{storeLabel, resultLabel}),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Records currently held by a store.",
		}, []string{storeLabel}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Snapshot writes, by result.",
		}, []string{storeLabel, resultLabel}),
	}
}

// Register - add all collectors to reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.outcomes, m.entries, m.writes} {
		if err := reg.Register(c); nil != err {
			return err
		}
	}
	return nil
}

// Observe - count one write outcome
func (m *Metrics) Observe(store string, o outcome.Outcome) {
	if nil == m {
		return
	}
	m.outcomes.WithLabelValues(store, o.Reason().String()).Inc()
}

// SetEntries - current map size of a store
func (m *Metrics) SetEntries(store string, n int) {
	if nil == m {
		return
	}
	m.entries.WithLabelValues(store).Set(float64(n))
}

// Persisted - count one snapshot write
func (m *Metrics) Persisted(store string, err error) {
	if nil == m {
		return
	}
	result := "ok"
	if nil != err {
		result = "error"
	}
	m.writes.WithLabelValues(store, result).Inc()
}
