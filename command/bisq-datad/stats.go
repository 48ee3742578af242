// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/bisq-network/datastore/dataservice"
)

const (
	statsDelay = 60 * time.Second
	mega       = 1048576
)

func memstats() {

	log := logger.New("memory")

	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		text, err := json.Marshal(m)
		if nil != err {
			log.Errorf("marshal error: %s", err)
		} else {
			log.Infof("stats: %s", text)
		}
		a := m.Alloc / mega
		t := m.TotalAlloc / mega
		s := m.Sys / mega
		log.Warnf("allocated: %d M  cumulative: %d M  OS virtual: %d M", a, t, s)

		time.Sleep(statsDelay)
	}
}

// storeStats - periodic log of store sizes and the exported metrics
type storeStats struct {
	period   time.Duration
	service  *dataservice.Service
	gatherer prometheus.Gatherer
	log      *logger.L
}

func (st *storeStats) Run(args interface{}, shutdown <-chan struct{}) {
	log := st.log
	delay := time.After(st.period)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-delay:
			delay = time.After(st.period)
			for _, s := range st.service.Stores() {
				log.Infof("store: %s  entries: %d", s.Key(), s.Size())
			}
			text, err := gatherText(st.gatherer)
			if nil != err {
				log.Errorf("gather error: %s", err)
				continue loop
			}
			log.Debugf("metrics:\n%s", text)
		}
	}
}

// text exposition format of every metric family
func gatherText(gatherer prometheus.Gatherer) (string, error) {
	families, err := gatherer.Gather()
	if nil != err {
		return "", err
	}
	buffer := bytes.Buffer{}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buffer, mf); nil != err {
			return "", err
		}
	}
	return buffer.String(), nil
}
