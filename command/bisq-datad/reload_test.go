// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/dataservice"
	"github.com/bisq-network/datastore/fixtures"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/store"
)

func newService(t *testing.T, c *Configuration, metrics *counter.Metrics) *dataservice.Service {
	sc, err := c.serviceConfig(nil)
	require.NoError(t, err)
	sc.Metrics = metrics
	s, err := dataservice.New(sc, nil)
	require.NoError(t, err)
	return s
}

func TestApply(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, testConfiguration)
	defer cleanup()

	c, err := getConfiguration(fileName)
	require.NoError(t, err)

	s := newService(t, c, nil)
	defer s.Shutdown()

	require.NoError(t, apply(logger.New("test"), c, s))

	_, ok := s.Store(store.AppendOnlyFamily, fixtures.AppendOnlyMeta.TypeName)
	assert.True(t, ok, "append only store")
	_, ok = s.Store(store.MailboxFamily, fixtures.MailboxMeta.TypeName)
	assert.True(t, ok, "mailbox store")
	assert.Equal(t, 2, len(s.Stores()))

	// second apply is harmless
	require.NoError(t, apply(logger.New("test"), c, s))
	assert.Equal(t, 2, len(s.Stores()))

	// changed metadata keeps the running store
	c.Stores[1].MaxSize = 8192
	require.NoError(t, apply(logger.New("test"), c, s))
	st, _ := s.Store(store.MailboxFamily, fixtures.MailboxMeta.TypeName)
	assert.Equal(t, uint32(4096), st.MetaData().MaxSizeBytes)
}

func TestReloaderAppliesChanges(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, testConfiguration)
	defer cleanup()

	c, err := getConfiguration(fileName)
	require.NoError(t, err)

	s := newService(t, c, nil)
	defer s.Shutdown()
	require.NoError(t, apply(logger.New("test"), c, s))

	channels := newWatcherChannel()
	bg := background.Start(background.Processes{newReloader(fileName, 0, channels, s)}, nil)
	defer bg.Stop()

	text := strings.Replace(testConfiguration, "min_bits = 2, max_bits = 6", "min_bits = 3, max_bits = 7", 1)
	text = strings.Replace(text, "M.stores = {", `M.stores = {
    { family = "authenticated", type_name = "Offer", ttl = 3600, max_size = 2048, priority = 3 },`, 1)
	require.NoError(t, ioutil.WriteFile(fileName, []byte(text), 0600))
	channels.change <- struct{}{}

	expected := pow.Policy{MinBits: 3, MaxBits: 7, BytesPerBit: 256}
	assert.True(t, waitFor(5*time.Second, func() bool {
		return expected == s.Policy()
	}), "policy")
	assert.True(t, waitFor(5*time.Second, func() bool {
		_, ok := s.Store(store.AuthenticatedFamily, fixtures.AuthenticatedMeta.TypeName)
		return ok
	}), "new store")

	// a broken file leaves the running settings alone
	require.NoError(t, ioutil.WriteFile(fileName, []byte("return {"), 0600))
	channels.change <- struct{}{}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, expected, s.Policy())
}

func TestGatherText(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, testConfiguration)
	defer cleanup()

	c, err := getConfiguration(fileName)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := counter.NewMetrics("test")
	require.NoError(t, metrics.Register(registry))

	s := newService(t, c, metrics)
	defer s.Shutdown()
	require.NoError(t, apply(logger.New("test"), c, s))

	s.Process("", fixtures.AppendOnly("counted"))

	text, err := gatherText(registry)
	require.NoError(t, err)
	assert.Contains(t, text, "test_write_outcomes_total")
	assert.Contains(t, text, `store="appendonly-AccountAgeWitness"`)
}
