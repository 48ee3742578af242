// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limitedset - a set of record hashes that forgets the least
// recently added entries once full
package limitedset

import (
	"container/ring"
	"sync"

	"github.com/bisq-network/datastore/digest"
)

// LimitedSet - bounded set of digests
type LimitedSet struct {
	sync.Mutex
	size int
	ring *ring.Ring
	hash map[digest.Digest]*ring.Ring
}

// New - create a limited set that holds up to n items
func New(n int) *LimitedSet {
	if n < 1 {
		n = 1
	}
	return &LimitedSet{
		size: n,
		ring: ring.New(n),
		hash: make(map[digest.Digest]*ring.Ring, n),
	}
}

// Add - add an item, returns false if it was already present
//
// a present item is moved to the most recent position
func (ls *LimitedSet) Add(item digest.Digest) bool {
	ls.Lock()
	defer ls.Unlock()

	if r, ok := ls.hash[item]; ok {
		switch r {
		case ls.ring.Prev():
		case ls.ring:
			// oldest of a full ring becomes the newest
			ls.ring = ls.ring.Next()
		default:
			r = r.Prev().Unlink(1)
			ls.ring.Prev().Link(r)
		}
		return false
	}
	if oldItem, ok := ls.ring.Value.(digest.Digest); ok {
		delete(ls.hash, oldItem)
	}
	ls.ring.Value = item
	ls.hash[item] = ls.ring
	ls.ring = ls.ring.Next()
	return true
}

// Exists - check if an item is in the set
func (ls *LimitedSet) Exists(item digest.Digest) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.hash[item]
	return ok
}

// Len - number of items held
func (ls *LimitedSet) Len() int {
	ls.Lock()
	defer ls.Unlock()
	return len(ls.hash)
}
