// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package counter - atomic counters and the store metrics built on
// prometheus collectors
package counter

import (
	"sync/atomic"
)

// Counter - a running total that only grows, such as the number of
// snapshots a writer has saved
//
// the zero value is ready to use and must not be copied after first use
type Counter struct {
	n uint64
}

// Increment - count one event and return the total
func (c *Counter) Increment() uint64 {
	return c.Add(1)
}

// Add - count delta events at once
func (c *Counter) Add(delta uint64) uint64 {
	return atomic.AddUint64(&c.n, delta)
}

// Value - total so far
func (c *Counter) Value() uint64 {
	return atomic.LoadUint64(&c.n)
}
