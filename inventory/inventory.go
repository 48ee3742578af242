// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package inventory - reconcile the stores of two peers
//
// A peer describes what it holds as a filter of {hash, sequence}
// pairs. The other side answers with the requests the first peer is
// missing or holds in an older version, and the first peer applies
// them through its normal admission path.
package inventory

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
	"github.com/bisq-network/datastore/store"
)

// limits
const (
	MaxFilterEntries = 100000
	DefaultMaxSize   = 2000 * 1024 // bytes of serialized requests per response
)

// FilterEntry - one hash the requesting peer already holds
type FilterEntry struct {
	Hash     digest.Digest
	Sequence uint32
}

// Filter - what the requesting peer holds for one record type
type Filter struct {
	TypeName string
	Entries  []FilterEntry
}

// Inventory - the response to a filter
type Inventory struct {
	TypeName       string
	Requests       []record.Request
	MaxSizeReached bool
}

// Source - read access to a store
type Source interface {
	MetaData() record.MetaData
	Items() []store.Item
}

// Processor - admission path for received requests
type Processor func(req record.Request) outcome.Outcome

// BuildFilter - describe the contents of source
//
// if there are more than maxEntries items the most recent are kept
func BuildFilter(source Source, maxEntries int) Filter {
	if maxEntries <= 0 || maxEntries > MaxFilterEntries {
		maxEntries = MaxFilterEntries
	}

	items := source.Items()
	if len(items) > maxEntries {
		sort.Slice(items, func(i, j int) bool {
			return items[i].Created > items[j].Created
		})
		items = items[:maxEntries]
	}

	entries := make([]FilterEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, FilterEntry{
			Hash:     item.Hash,
			Sequence: item.Sequence,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Hash.Less(entries[j].Hash)
	})

	return Filter{
		TypeName: source.MetaData().TypeName,
		Entries:  entries,
	}
}

// Responder - answers filters from peers
type Responder struct {
	maxSize int64
	clock   func() time.Time
	log     *logger.L
}

// NewResponder - create a responder, maxSize <= 0 selects DefaultMaxSize
func NewResponder(maxSize int) *Responder {
	r := &Responder{
		clock: time.Now,
		log:   logger.New("inventory"),
	}
	r.SetMaxSize(maxSize)
	return r
}

// SetMaxSize - change the response size cap
func (r *Responder) SetMaxSize(maxSize int) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	atomic.StoreInt64(&r.maxSize, int64(maxSize))
}

// MaxSize - current response size cap in bytes
func (r *Responder) MaxSize() int {
	return int(atomic.LoadInt64(&r.maxSize))
}

type candidate struct {
	item     store.Item
	priority uint32
}

// GetInventory - requests held by sources of the filter's type that
// the filter shows as absent or older
//
// adds come before removes and higher priority types first; expired
// records are not relayed
func (r *Responder) GetInventory(filter Filter, sources ...Source) Inventory {
	entries := filter.Entries
	if len(entries) > MaxFilterEntries {
		r.log.Warnf("%s: filter entries: %d truncated", filter.TypeName, len(entries))
		entries = entries[:MaxFilterEntries]
	}
	known := make(map[digest.Digest]uint32, len(entries))
	for _, e := range entries {
		known[e.Hash] = e.Sequence
	}

	now := r.clock()
	candidates := make([]candidate, 0, 64)
	for _, source := range sources {
		meta := source.MetaData()
		if meta.TypeName != filter.TypeName {
			continue
		}
		for _, item := range source.Items() {
			if sequence, ok := known[item.Hash]; ok && sequence >= item.Sequence {
				continue
			}
			if meta.IsExpired(item.Created, now) {
				continue
			}
			candidates = append(candidates, candidate{
				item:     item,
				priority: meta.Priority,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.item.Removed != b.item.Removed {
			return !a.item.Removed
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.item.Hash.Less(b.item.Hash)
	})

	inv := Inventory{
		TypeName: filter.TypeName,
		Requests: make([]record.Request, 0, len(candidates)),
	}
	maxSize := r.MaxSize()
	size := 0

fill_loop:
	for _, c := range candidates {
		n := 0
		for _, req := range c.item.Requests {
			n += len(req.Marshal())
		}
		if size+n > maxSize {
			inv.MaxSizeReached = true
			break fill_loop
		}
		size += n
		inv.Requests = append(inv.Requests, c.item.Requests...)
	}

	r.log.Debugf("%s: filter: %d  response: %d requests  %d bytes  truncated: %t",
		filter.TypeName, len(entries), len(inv.Requests), size, inv.MaxSizeReached)
	return inv
}

// Result - counts from applying an inventory
type Result struct {
	Accepted int
	Rejected int
	Security int // rejections that reflect on the responding peer
}

// Apply - feed every request of inv through process, in order
func Apply(inv Inventory, process Processor) Result {
	result := Result{}
	for _, req := range inv.Requests {
		o := process(req)
		switch {
		case o.IsAccepted():
			result.Accepted += 1
		case o.IsSecurityRelevant():
			result.Security += 1
			result.Rejected += 1
		default:
			result.Rejected += 1
		}
	}
	return result
}
