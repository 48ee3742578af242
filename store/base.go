// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/record"
)

// DefaultMaxBytes - byte budget of one store if none is configured
const DefaultMaxBytes = 10 * 1024 * 1024

// DefaultPruneInterval - how often expired records are removed
const DefaultPruneInterval = time.Minute

// Options - construction parameters shared by all stores
type Options struct {
	MetaData      record.MetaData
	MaxBytes      uint64              // budget; max entries = MaxBytes / MetaData.MaxSizeBytes
	MaxEntries    int                 // overrides MaxBytes if positive
	Backend       persistence.Backend // nil: memory only
	Interval      time.Duration       // minimum time between snapshot writes
	PruneInterval time.Duration       // zero: DefaultPruneInterval
	Metrics       *counter.Metrics
	Clock         func() time.Time
}

// Item - one hash as seen by the inventory exchange
//
// Requests is what a peer needs to reach the same state: the stored
// request and, for a refreshed record, the latest refresh
type Item struct {
	Hash     digest.Digest
	Sequence uint32
	Created  int64
	Removed  bool
	Requests []record.Request
}

// one stored hash
type entry struct {
	sequence uint32          // MaxSequence for a mailbox tombstone
	request  record.Request  // the accepted add or remove
	refresh  *record.Request // latest accepted refresh, authenticated only
}

func (e entry) isRemoved() bool {
	return e.request.IsRemove()
}

// created time used for expiry: a refresh restarts the clock
func (e entry) created() int64 {
	if nil != e.refresh && e.refresh.Created() > e.request.Created() {
		return e.refresh.Created()
	}
	return e.request.Created()
}

func (e entry) item(hash digest.Digest) Item {
	requests := []record.Request{e.request}
	if nil != e.refresh {
		requests = append(requests, *e.refresh)
	}
	return Item{
		Hash:     hash,
		Sequence: e.sequence,
		Created:  e.created(),
		Removed:  e.isRemoved(),
		Requests: requests,
	}
}

// base - state and behaviour common to all stores
//
// the mutex guards the map only; persistence and notification happen
// after it is released
type base struct {
	sync.Mutex

	kind       string
	key        string
	meta       record.MetaData
	maxEntries int
	entries    map[digest.Digest]entry
	shutdown   bool
	prunable   bool

	writer    *persistence.Writer
	listeners *notify.Listeners
	log       *logger.L
	metrics   *counter.Metrics
	clock     func() time.Time
	bg        *background.T
}

func newBase(kind string, options Options) (*base, error) {
	meta := options.MetaData
	if err := meta.Validate(); nil != err {
		return nil, err
	}

	maxEntries := options.MaxEntries
	if maxEntries <= 0 {
		budget := options.MaxBytes
		if 0 == budget {
			budget = DefaultMaxBytes
		}
		maxEntries = meta.MaxEntries(budget)
	}

	clock := options.Clock
	if nil == clock {
		clock = time.Now
	}

	key := kind + "-" + meta.TypeName
	log := logger.New(kind + ":" + meta.TypeName)

	b := &base{
		kind:       kind,
		key:        key,
		meta:       meta,
		maxEntries: maxEntries,
		entries:    make(map[digest.Digest]entry),
		listeners:  notify.New(log),
		log:        log,
		metrics:    options.Metrics,
		clock:      clock,
	}

	if nil != options.Backend {
		if err := b.restore(options.Backend); nil != err {
			return nil, err
		}
		w, err := persistence.NewWriter(key, options.Backend, options.Interval, b.encode, options.Metrics)
		if nil != err {
			return nil, err
		}
		b.writer = w
		w.Start()
	}

	b.metrics.SetEntries(key, len(b.entries))
	log.Infof("max entries: %d  restored: %d", maxEntries, len(b.entries))
	return b, nil
}

// load the last snapshot if there is one
func (b *base) restore(backend persistence.Backend) error {
	blob, err := backend.Load(b.key)
	if fault.ErrNotFound == err {
		return nil
	}
	if nil != err {
		return err
	}

	entries, err := decodeSnapshot(blob, b.meta)
	if nil != err {
		b.log.Errorf("restore: %s", err)
		return err
	}
	for _, e := range entries {
		b.entries[e.request.Hash()] = e
	}
	return nil
}

// snapshot of the map, called by the persistence writer
func (b *base) encode() []byte {
	b.Lock()
	entries := make([]entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	b.Unlock()

	// stable file contents for identical maps
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].request.Hash().Less(entries[j].request.Hash())
	})
	return encodeSnapshot(b.meta, entries)
}

// must hold lock
func (b *base) isFull() bool {
	return len(b.entries) >= b.maxEntries
}

// record the outcome and return it
func (b *base) observe(o outcome.Outcome) outcome.Outcome {
	b.metrics.Observe(b.key, o)
	if o.IsSecurityRelevant() {
		b.log.Warnf("rejected: %s", o)
	} else if !o.IsAccepted() {
		b.log.Debugf("rejected: %s", o)
	}
	return o
}

// after an accepted change: persist then notify, lock not held
func (b *base) changed(size int, event *notify.Event) {
	if nil != b.writer {
		b.writer.Request()
	}
	b.metrics.SetEntries(b.key, size)
	if nil != event {
		b.listeners.Notify(*event)
	}
}

// wrong request kind or record type for this store
func (b *base) wrongKind(req record.Request) outcome.Outcome {
	b.log.Errorf("request kind: %s type: %q not handled", req.Kind, req.TypeName())
	return b.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
}

// a request for this store must carry identical metadata
func (b *base) accepts(req record.Request, kinds ...record.Kind) bool {
	if nil != req.Validate() || req.MetaData() != b.meta {
		return false
	}
	for _, k := range kinds {
		if k == req.Kind {
			return true
		}
	}
	return false
}

// Key - "<kind>-<type name>", also the persistence key
func (b *base) Key() string {
	return b.key
}

// MetaData - declared limits of the stored type
func (b *base) MetaData() record.MetaData {
	return b.meta
}

// MaxEntries - capacity of the store
func (b *base) MaxEntries() int {
	return b.maxEntries
}

// Size - number of hashes held, tombstones included
func (b *base) Size() int {
	b.Lock()
	defer b.Unlock()
	return len(b.entries)
}

// Get - the stored request for hash
func (b *base) Get(hash digest.Digest) (record.Request, bool) {
	b.Lock()
	defer b.Unlock()
	e, ok := b.entries[hash]
	return e.request, ok
}

// GetSequenceNumber - stored sequence number, zero if absent
func (b *base) GetSequenceNumber(hash digest.Digest) uint32 {
	b.Lock()
	defer b.Unlock()
	return b.entries[hash].sequence
}

// Snapshot - read-only copy of the map
func (b *base) Snapshot() map[digest.Digest]record.Request {
	b.Lock()
	defer b.Unlock()

	m := make(map[digest.Digest]record.Request, len(b.entries))
	for h, e := range b.entries {
		m[h] = e.request
	}
	return m
}

// Sequences - hash to stored sequence number
func (b *base) Sequences() map[digest.Digest]uint32 {
	b.Lock()
	defer b.Unlock()

	m := make(map[digest.Digest]uint32, len(b.entries))
	for h, e := range b.entries {
		m[h] = e.sequence
	}
	return m
}

// Items - current contents for the inventory exchange
func (b *base) Items() []Item {
	b.Lock()
	defer b.Unlock()

	items := make([]Item, 0, len(b.entries))
	for h, e := range b.entries {
		items = append(items, e.item(h))
	}
	return items
}

// Subscribe - receive events for this store
func (b *base) Subscribe(handler notify.Handler) *notify.Subscription {
	return b.listeners.Subscribe(handler)
}

// Shutdown - refuse further writes and write any pending change
func (b *base) Shutdown() error {
	b.Lock()
	if b.shutdown {
		b.Unlock()
		return nil
	}
	b.shutdown = true
	bg := b.bg
	b.Unlock()

	bg.Stop()

	b.log.Info("shutdown")
	if nil != b.writer {
		return b.writer.Stop()
	}
	return nil
}

// rejects writes after shutdown, must hold lock
func (b *base) isShutdown() bool {
	return b.shutdown
}
