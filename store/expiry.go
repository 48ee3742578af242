// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"time"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/notify"
)

// pruner - background removal of records older than their TTL
type pruner struct {
	b        *base
	interval time.Duration
}

// start pruning, no-op for types without a TTL
func (b *base) startPruning(interval time.Duration) {
	b.prunable = true
	if b.meta.TTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	b.bg = background.Start(background.Processes{&pruner{b: b, interval: interval}}, nil)
}

// Run - prune on every tick until shutdown
func (p *pruner) Run(args interface{}, shutdown <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			p.b.Prune()
		}
	}
}

// Prune - remove every expired record, returns the number removed
//
// append-only records are never removed, they are only not relayed
//
// listeners get a Removed event for each expired live record;
// expired tombstones go silently
func (b *base) Prune() int {
	now := b.clock()

	b.Lock()
	if !b.prunable || b.meta.TTL <= 0 {
		b.Unlock()
		return 0
	}
	events := make([]notify.Event, 0, 8)
	removed := 0
	for hash, e := range b.entries {
		if !b.meta.IsExpired(e.created(), now) {
			continue
		}
		delete(b.entries, hash)
		removed += 1
		if !e.isRemoved() {
			events = append(events, notify.Event{
				Kind:     notify.Removed,
				Hash:     hash,
				TypeName: b.meta.TypeName,
				Sequence: e.sequence,
				Request:  e.request,
			})
		}
	}
	size := len(b.entries)
	b.Unlock()

	if 0 == removed {
		return 0
	}
	b.log.Infof("pruned: %d expired  remaining: %d", removed, size)
	b.changed(size, nil)
	for _, e := range events {
		b.listeners.Notify(e)
	}
	return removed
}
