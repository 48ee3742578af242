// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/fault"
)

// DefaultInterval - minimum time between two writes of one store
const DefaultInterval = time.Second

// shortest wait before retrying a failed write
const retryDelay = 100 * time.Millisecond

// Snapshotter - produces the complete current state of a store
type Snapshotter func() []byte

// Writer - coalescing, rate limited snapshot writer for one store
//
// Request never blocks; the snapshot is taken when the write happens
// so any number of requests inside one interval cost a single write
type Writer struct {
	sync.Mutex

	key      string
	backend  Backend
	snapshot Snapshotter
	limiter  *rate.Limiter
	log      *logger.L
	metrics  *counter.Metrics

	dirty   int32
	request chan struct{}
	bg      *background.T
	stopped bool

	writes   counter.Counter
	failures counter.Counter
}

// NewWriter - a writer for key; call Start before Request
func NewWriter(key string, backend Backend, interval time.Duration, snapshot Snapshotter, metrics *counter.Metrics) (*Writer, error) {
	if nil == backend {
		return nil, fault.ErrBackendNotConfigured
	}
	if nil == snapshot || "" == key {
		return nil, fault.ErrMissingParameters
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &Writer{
		key:      key,
		backend:  backend,
		snapshot: snapshot,
		limiter:  rate.NewLimiter(limit, 1),
		log:      logger.New("persistence"),
		metrics:  metrics,
		request:  make(chan struct{}, 1),
	}, nil
}

// Start - launch the background writer
func (w *Writer) Start() {
	w.Lock()
	defer w.Unlock()

	if nil != w.bg || w.stopped {
		return
	}
	w.bg = background.Start(background.Processes{w}, nil)
}

// Request - mark the store as changed
func (w *Writer) Request() {
	atomic.StoreInt32(&w.dirty, 1)
	select {
	case w.request <- struct{}{}:
	default:
	}
}

// Stop - stop the background writer and write any pending change
func (w *Writer) Stop() error {
	w.Lock()
	bg := w.bg
	w.bg = nil
	w.stopped = true
	w.Unlock()

	bg.Stop()

	if 1 == atomic.LoadInt32(&w.dirty) {
		return w.write()
	}
	return nil
}

// Writes - number of successful writes
func (w *Writer) Writes() uint64 {
	return w.writes.Value()
}

// Failures - number of failed writes
func (w *Writer) Failures() uint64 {
	return w.failures.Value()
}

// Run - background loop, one write per request at most once per interval
func (w *Writer) Run(args interface{}, shutdown <-chan struct{}) {
	w.log.Infof("%s: starting…", w.key)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-w.request:
		}

		r := w.limiter.Reserve()
		if delay := r.Delay(); delay > 0 {
			select {
			case <-shutdown:
				r.Cancel()
				break loop
			case <-time.After(delay):
			}
		}

		if err := w.write(); nil != err {
			select {
			case <-shutdown:
				break loop
			case <-time.After(retryDelay):
			}
			// try again on the next interval
			w.Request()
		}
	}

	w.log.Infof("%s: stopped", w.key)
}

// write the current snapshot if anything changed since the last write
func (w *Writer) write() error {
	if !atomic.CompareAndSwapInt32(&w.dirty, 1, 0) {
		return nil
	}

	blob := w.snapshot()
	err := w.backend.Save(w.key, blob)
	w.metrics.Persisted(w.key, err)
	if nil != err {
		atomic.StoreInt32(&w.dirty, 1)
		w.failures.Increment()
		w.log.Criticalf("%s: snapshot write failed: %s", w.key, err)
		return err
	}

	w.writes.Increment()
	w.log.Debugf("%s: wrote %d bytes", w.key, len(blob))
	return nil
}
