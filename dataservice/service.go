// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dataservice - admission pipeline from request to store to peers
//
// Every write, local or from the network, goes through Process: the
// gate first, then the store for the request's family and type. An
// accepted request is queued for broadcast to the other peers.
package dataservice

import (
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/counter"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/gate"
	"github.com/bisq-network/datastore/inventory"
	"github.com/bisq-network/datastore/limitedset"
	"github.com/bisq-network/datastore/messagebus"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/record"
	"github.com/bisq-network/datastore/store"
)

// defaults
const (
	DefaultMaxStores        = 64
	DefaultSeenHashes       = 10000
	DefaultBroadcastTimeout = 30 * time.Second
)

// Config - construction parameters
type Config struct {
	Policy           pow.Policy
	MaxBytes         uint64 // budget of each store
	MaxStores        int
	InventoryMaxSize int
	MaxFilterEntries int
	Backend          persistence.Backend
	Interval         time.Duration
	PruneInterval    time.Duration
	Metrics          *counter.Metrics
	QueueSize        int
	SeenHashes       int
	BroadcastTimeout time.Duration
	Clock            func() time.Time
}

type storeKey struct {
	family   store.Family
	typeName string
}

// Service - owns the stores of one node
type Service struct {
	sync.RWMutex

	config    Config
	stores    map[storeKey]store.Store
	gate      *gate.Gate
	responder *inventory.Responder
	listeners *notify.Listeners
	queue     *messagebus.Queue
	seen      *limitedset.LimitedSet
	transport Broadcaster
	shutdown  bool

	log *logger.L
	bg  *background.T
}

// New - create a service, transport may be nil for a node that does
// not relay
func New(config Config, transport Broadcaster) (*Service, error) {
	g, err := gate.New(config.Policy)
	if nil != err {
		return nil, err
	}
	if config.MaxStores <= 0 {
		config.MaxStores = DefaultMaxStores
	}
	if config.SeenHashes <= 0 {
		config.SeenHashes = DefaultSeenHashes
	}
	if config.BroadcastTimeout <= 0 {
		config.BroadcastTimeout = DefaultBroadcastTimeout
	}
	if nil == config.Clock {
		config.Clock = time.Now
	}

	log := logger.New("dataservice")
	s := &Service{
		config:    config,
		stores:    make(map[storeKey]store.Store),
		gate:      g,
		responder: inventory.NewResponder(config.InventoryMaxSize),
		listeners: notify.New(log),
		queue:     messagebus.New(config.QueueSize),
		seen:      limitedset.New(config.SeenHashes),
		transport: transport,
		log:       log,
	}

	processes := background.Processes{}
	if nil != transport {
		processes = append(processes, &relay{s: s})
	}
	s.bg = background.Start(processes, nil)
	return s, nil
}

// Register - create the store for a known record type
//
// requests for the type must then carry exactly this metadata
func (s *Service) Register(family store.Family, meta record.MetaData) (store.Store, error) {
	if store.NoFamily == family {
		return nil, fault.ErrInvalidStoreFamily
	}
	return s.storeFor(family, meta)
}

// Store - the store for a family and type, if it exists
func (s *Service) Store(family store.Family, typeName string) (store.Store, bool) {
	s.RLock()
	defer s.RUnlock()
	st, ok := s.stores[storeKey{family: family, typeName: typeName}]
	return st, ok
}

// Stores - all stores, ordered by key
func (s *Service) Stores() []store.Store {
	s.RLock()
	stores := make([]store.Store, 0, len(s.stores))
	for _, st := range s.stores {
		stores = append(stores, st)
	}
	s.RUnlock()

	sort.Slice(stores, func(i, j int) bool {
		return stores[i].Key() < stores[j].Key()
	})
	return stores
}

// find or create a store; an unknown type gets a store with the
// metadata of the request that introduced it
func (s *Service) storeFor(family store.Family, meta record.MetaData) (store.Store, error) {
	key := storeKey{family: family, typeName: meta.TypeName}

	s.RLock()
	st, ok := s.stores[key]
	s.RUnlock()
	if !ok {
		s.Lock()
		defer s.Unlock()
		st, ok = s.stores[key]
	}
	if ok {
		if st.MetaData() != meta {
			return nil, fault.ErrMetaDataMismatch
		}
		return st, nil
	}

	// write lock is held
	if s.shutdown {
		return nil, fault.ErrStoreShutdown
	}
	if len(s.stores) >= s.config.MaxStores {
		s.log.Warnf("no store created for: %s %q", family, meta.TypeName)
		return nil, fault.ErrTooManyStores
	}

	st, err := store.New(family, store.Options{
		MetaData:      meta,
		MaxBytes:      s.config.MaxBytes,
		Backend:       s.config.Backend,
		Interval:      s.config.Interval,
		PruneInterval: s.config.PruneInterval,
		Metrics:       s.config.Metrics,
		Clock:         s.config.Clock,
	})
	if nil != err {
		s.log.Errorf("create store: %s %q: error: %s", family, meta.TypeName, err)
		return nil, err
	}
	st.Subscribe(s.listeners.Notify)
	s.stores[key] = st
	s.log.Infof("store: %s", st.Key())
	return st, nil
}

// Process - admit a request from peer from ("" for a local request)
//
// an accepted request is relayed to every peer except from
func (s *Service) Process(from string, req record.Request) outcome.Outcome {
	family := store.FamilyOf(req.Kind)
	if store.NoFamily == family {
		return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
	}

	if o := s.gate.Check(req); !o.IsAccepted() {
		return s.observe(o)
	}

	st, err := s.storeFor(family, req.MetaData())
	if fault.ErrMetaDataMismatch == err {
		return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
	}
	if nil != err {
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}

	o := st.Apply(req)
	if o.IsAccepted() {
		s.relay(from, req)
	}
	return o
}

// gate and service level rejections, stores record their own
func (s *Service) observe(o outcome.Outcome) outcome.Outcome {
	s.config.Metrics.Observe("gate", o)
	return o
}

// queue an accepted request for broadcast, once
func (s *Service) relay(from string, req record.Request) {
	if nil == s.transport {
		return
	}
	if !s.seen.Add(digest.NewDigest(req.Marshal())) {
		return
	}
	if !s.queue.Send(from, req) {
		s.log.Warnf("broadcast queue full, dropped: %s", req.Hash().Short())
	}
}

// Subscribe - events from every store
func (s *Service) Subscribe(handler notify.Handler) *notify.Subscription {
	return s.listeners.Subscribe(handler)
}

// SetPolicy - replace the proof of work policy
func (s *Service) SetPolicy(policy pow.Policy) error {
	return s.gate.SetPolicy(policy)
}

// Policy - current proof of work policy
func (s *Service) Policy() pow.Policy {
	return s.gate.Policy()
}

// SetInventoryMaxSize - replace the inventory response size cap
func (s *Service) SetInventoryMaxSize(maxSize int) {
	s.responder.SetMaxSize(maxSize)
}

// Filters - one filter per store, sent to a peer on connection
func (s *Service) Filters() []inventory.Filter {
	stores := s.Stores()
	filters := make([]inventory.Filter, 0, len(stores))
	for _, st := range stores {
		filters = append(filters, inventory.BuildFilter(st, s.config.MaxFilterEntries))
	}
	return filters
}

// GetInventory - answer a peer's filter
func (s *Service) GetInventory(filter inventory.Filter) inventory.Inventory {
	stores := s.Stores()
	sources := make([]inventory.Source, 0, len(stores))
	for _, st := range stores {
		sources = append(sources, st)
	}
	return s.responder.GetInventory(filter, sources...)
}

// ApplyInventory - process every request of a peer's response
func (s *Service) ApplyInventory(from string, inv inventory.Inventory) inventory.Result {
	result := inventory.Apply(inv, func(req record.Request) outcome.Outcome {
		return s.Process(from, req)
	})
	if result.Security > 0 {
		s.log.Warnf("inventory from: %s  rejected: %d  security relevant: %d", from, result.Rejected, result.Security)
	}
	return result
}

// Shutdown - stop relaying and shut down every store
func (s *Service) Shutdown() error {
	s.Lock()
	if s.shutdown {
		s.Unlock()
		return nil
	}
	s.shutdown = true
	s.Unlock()

	s.bg.Stop()
	s.queue.Close()

	var first error
	for _, st := range s.Stores() {
		if err := st.Shutdown(); nil != err && nil == first {
			first = err
		}
	}
	s.log.Info("shutdown")
	return first
}
