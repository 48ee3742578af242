// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
)

// AppendOnlyStore - facts that are never retracted, deduplicated by hash
type AppendOnlyStore struct {
	*base
}

// NewAppendOnly - create a store and restore its last snapshot
func NewAppendOnly(options Options) (*AppendOnlyStore, error) {
	b, err := newBase(appendOnlyName, options)
	if nil != err {
		return nil, err
	}
	return &AppendOnlyStore{base: b}, nil
}

// Apply - dispatch a request
func (s *AppendOnlyStore) Apply(req record.Request) outcome.Outcome {
	switch req.Kind {
	case record.AddAppendOnlyKind:
		return s.Add(req)
	default:
		return s.wrongKind(req)
	}
}

// Add - store a new fact
//
// a duplicate is reported before a full store so that the benign
// duplicate case is never mistaken for a capacity problem
func (s *AppendOnlyStore) Add(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.AddAppendOnlyKind) {
		return s.wrongKind(req)
	}
	hash := req.Hash()

	s.Lock()
	if s.isShutdown() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	if _, ok := s.entries[hash]; ok {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.PayloadAlreadyStored))
	}
	if s.isFull() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	s.entries[hash] = entry{
		request: req,
	}
	size := len(s.entries)
	s.Unlock()

	s.changed(size, &notify.Event{
		Kind:     notify.Added,
		Hash:     hash,
		TypeName: s.meta.TypeName,
		Request:  req,
	})
	return s.observe(outcome.Accepted())
}
