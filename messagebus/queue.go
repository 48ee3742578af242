// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueSize - used when a size of zero is given
const DefaultQueueSize = 1000

// Message - an item and the component that queued it
type Message struct {
	From string
	Item interface{}
}

// Queue - a bounded queue owned by one producer group and one consumer
type Queue struct {
	dropped uint64 // first for 64 bit alignment

	sync.RWMutex
	queue  chan Message
	closed bool
}

// New - create a queue
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		queue: make(chan Message, size),
	}
}

// Send - queue an item without blocking
//
// returns false if the queue is full or closed; the item is dropped
func (q *Queue) Send(from string, item interface{}) bool {
	q.RLock()
	defer q.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.queue <- Message{From: from, Item: item}:
		return true
	default:
	}
	atomic.AddUint64(&q.dropped, 1)
	return false
}

// Chan - channel to read from, closed by Close
func (q *Queue) Chan() <-chan Message {
	return q.queue
}

// Dropped - number of items refused because the queue was full
func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// Close - refuse further items; queued items can still be read
func (q *Queue) Close() {
	q.Lock()
	defer q.Unlock()

	if !q.closed {
		q.closed = true
		close(q.queue)
	}
}
