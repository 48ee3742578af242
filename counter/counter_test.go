// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/outcome"
)

func TestCounter(t *testing.T) {
	var c counter.Counter
	assert.Equal(t, uint64(0), c.Value(), "new counter")

	assert.Equal(t, uint64(1), c.Increment())
	assert.Equal(t, uint64(4), c.Add(3))
	assert.Equal(t, uint64(4), c.Value())
}

func TestCounterShared(t *testing.T) {
	var c counter.Counter
	var wg sync.WaitGroup
	for i := 0; i < 8; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j += 1 {
				c.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8000), c.Value(), "lost increments")
}

func TestMetrics(t *testing.T) {
	m := counter.NewMetrics("test")
	reg := prometheus.NewRegistry()
	assert.NoError(t, m.Register(reg))

	m.Observe("mailbox", outcome.Accepted())
	m.Observe("mailbox", outcome.Accepted())
	m.Observe("mailbox", outcome.Rejected(outcome.SequenceNumberInvalid))
	m.SetEntries("mailbox", 7)
	m.Persisted("mailbox", nil)
	m.Persisted("mailbox", errors.New("disk full"))

	families, err := reg.Gather()
	assert.NoError(t, err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			key := f.GetName()
			for _, l := range metric.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case nil != metric.GetCounter():
				values[key] = metric.GetCounter().GetValue()
			case nil != metric.GetGauge():
				values[key] = metric.GetGauge().GetValue()
			}
		}
	}

	// labels are gathered in name order: result then store
	assert.Equal(t, 2.0, values["test_write_outcomes_total/Accepted/mailbox"])
	assert.Equal(t, 1.0, values["test_write_outcomes_total/SequenceNumberInvalid/mailbox"])
	assert.Equal(t, 7.0, values["test_entries/mailbox"])
	assert.Equal(t, 1.0, values["test_snapshot_writes_total/ok/mailbox"])
	assert.Equal(t, 1.0, values["test_snapshot_writes_total/error/mailbox"])
}

func TestNilMetrics(t *testing.T) {
	var m *counter.Metrics
	m.Observe("x", outcome.Accepted())
	m.SetEntries("x", 1)
	m.Persisted("x", nil)
}
