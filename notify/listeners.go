// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notify - fan out of store changes to local listeners
//
// the listener list is copy on write: Notify iterates a snapshot so
// Subscribe and Cancel may be called from inside a handler. A handler
// cancelled while a notification is in flight is skipped if it has not
// been reached yet.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/record"
)

// EventKind - what happened to a record
type EventKind int

// kinds of event
const (
	Added EventKind = iota
	Removed
	Refreshed
)

// String - for logging
func (k EventKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Refreshed:
		return "Refreshed"
	}
	return "Unknown"
}

// Event - an accepted change
//
// Request is the accepted request; handlers must not modify it
type Event struct {
	Kind     EventKind
	Hash     digest.Digest
	TypeName string
	Sequence uint32
	Request  record.Request
}

// Handler - callback for an event
type Handler func(Event)

// Subscription - token returned by Subscribe
type Subscription struct {
	active  int32
	handler Handler
	owner   *Listeners
}

// Listeners - a set of handlers
type Listeners struct {
	sync.Mutex // serialises writers only
	list       atomic.Value
	log        *logger.L
}

// New - empty listener set, panics from handlers are logged to log
func New(log *logger.L) *Listeners {
	l := &Listeners{
		log: log,
	}
	l.list.Store([]*Subscription{})
	return l
}

// Subscribe - add a handler
func (l *Listeners) Subscribe(handler Handler) *Subscription {
	s := &Subscription{
		active:  1,
		handler: handler,
		owner:   l,
	}

	l.Lock()
	defer l.Unlock()

	current := l.snapshot()
	next := make([]*Subscription, len(current), len(current)+1)
	copy(next, current)
	l.list.Store(append(next, s))
	return s
}

// Cancel - remove the handler; it will not be called again
func (s *Subscription) Cancel() {
	if nil == s || !atomic.CompareAndSwapInt32(&s.active, 1, 0) {
		return
	}

	l := s.owner
	l.Lock()
	defer l.Unlock()

	current := l.snapshot()
	next := make([]*Subscription, 0, len(current))
	for _, item := range current {
		if item != s {
			next = append(next, item)
		}
	}
	l.list.Store(next)
}

// Len - number of active subscriptions
func (l *Listeners) Len() int {
	return len(l.snapshot())
}

// Notify - call every active handler once, in subscription order
//
// must be called without holding any store lock
func (l *Listeners) Notify(e Event) {
	for _, s := range l.snapshot() {
		if 0 == atomic.LoadInt32(&s.active) {
			continue
		}
		l.call(s, e)
	}
}

func (l *Listeners) call(s *Subscription, e Event) {
	defer func() {
		if r := recover(); nil != r && nil != l.log {
			l.log.Errorf("%s %s handler panic: %v", e.Kind, e.Hash.Short(), r)
		}
	}()
	s.handler(e)
}

func (l *Listeners) snapshot() []*Subscription {
	return l.list.Load().([]*Subscription)
}
