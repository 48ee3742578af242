// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
)

// AuthenticatedStore - owner signed records such as offers
//
// the owner may add, refresh and remove; every change carries a higher
// sequence number than the one stored for the hash
type AuthenticatedStore struct {
	*base
}

// NewAuthenticated - create a store, restore its last snapshot and
// start pruning expired records
func NewAuthenticated(options Options) (*AuthenticatedStore, error) {
	b, err := newBase(authenticatedName, options)
	if nil != err {
		return nil, err
	}
	b.startPruning(options.PruneInterval)
	return &AuthenticatedStore{base: b}, nil
}

// Apply - dispatch a request
func (s *AuthenticatedStore) Apply(req record.Request) outcome.Outcome {
	switch req.Kind {
	case record.AddAuthenticatedKind:
		return s.Add(req)
	case record.RemoveAuthenticatedKind:
		return s.Remove(req)
	case record.RefreshAuthenticatedKind:
		return s.Refresh(req)
	default:
		return s.wrongKind(req)
	}
}

// owner hash declared by a stored add
func ownerOf(e entry) (digest.Digest, bool) {
	if record.AddAuthenticatedKind != e.request.Kind {
		return digest.Digest{}, false
	}
	return e.request.AddAuthenticated.Data.OwnerPublicKeyHash, true
}

// Add - store or replace a record
//
// a stored remove signed by a different key does not block the add,
// otherwise anyone could reserve the hash of a future offer
func (s *AuthenticatedStore) Add(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.AddAuthenticatedKind) {
		return s.wrongKind(req)
	}
	hash := req.Hash()
	sequence := req.Sequence()
	owner := req.AddAuthenticated.Data.OwnerPublicKeyHash

	s.Lock()
	if s.isShutdown() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	e, ok := s.entries[hash]
	if ok && e.isRemoved() && keypair.PublicKeyHash(e.request.PublicKey()) != owner {
		ok = false
	}
	if ok {
		if !e.isRemoved() && e.request.Sequence() == sequence && bytes.Equal(e.request.Signature(), req.Signature()) {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.PayloadAlreadyStored))
		}
		if e.sequence >= sequence {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
		}
	} else if _, present := s.entries[hash]; !present && s.isFull() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	s.entries[hash] = entry{
		sequence: sequence,
		request:  req,
	}
	size := len(s.entries)
	s.Unlock()

	s.changed(size, &notify.Event{
		Kind:     notify.Added,
		Hash:     hash,
		TypeName: s.meta.TypeName,
		Sequence: sequence,
		Request:  req,
	})
	return s.observe(outcome.Accepted())
}

// Remove - retract a record, only its owner may do this
//
// the remove is kept so that stale copies of the add are refused
func (s *AuthenticatedStore) Remove(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.RemoveAuthenticatedKind) {
		return s.wrongKind(req)
	}
	hash := req.Hash()
	sequence := req.Sequence()
	signer := keypair.PublicKeyHash(req.PublicKey())

	s.Lock()
	if s.isShutdown() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	e, ok := s.entries[hash]
	if !ok {
		if s.isFull() {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
		}
		s.entries[hash] = entry{
			sequence: sequence,
			request:  req,
		}
		size := len(s.entries)
		s.Unlock()

		s.changed(size, nil)
		return s.observe(outcome.AcceptedWithNote(outcome.NoEntry))
	}

	if e.sequence >= sequence {
		s.Unlock()
		if e.isRemoved() {
			return s.observe(outcome.RejectedWithNote(outcome.SequenceNumberInvalid, outcome.AlreadyRemoved))
		}
		return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
	}

	if e.isRemoved() {
		// only the key that wrote the tombstone may move it forward
		if keypair.PublicKeyHash(e.request.PublicKey()) != signer {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
		}
		// keep the newest remove so that the register stays monotonic
		s.entries[hash] = entry{
			sequence: sequence,
			request:  req,
		}
		size := len(s.entries)
		s.Unlock()

		s.changed(size, nil)
		return s.observe(outcome.AcceptedWithNote(outcome.AlreadyRemoved))
	}

	if owner, _ := ownerOf(e); owner != signer {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
	}
	s.entries[hash] = entry{
		sequence: sequence,
		request:  req,
	}
	size := len(s.entries)
	s.Unlock()

	s.changed(size, &notify.Event{
		Kind:     notify.Removed,
		Hash:     hash,
		TypeName: s.meta.TypeName,
		Sequence: sequence,
		Request:  e.request,
	})
	return s.observe(outcome.Accepted())
}

// Refresh - extend the life of a stored record without resending it
func (s *AuthenticatedStore) Refresh(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.RefreshAuthenticatedKind) {
		return s.wrongKind(req)
	}
	hash := req.Hash()
	sequence := req.Sequence()
	signer := keypair.PublicKeyHash(req.PublicKey())

	s.Lock()
	if s.isShutdown() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	e, ok := s.entries[hash]
	if !ok {
		s.Unlock()
		return s.observe(outcome.RejectedWithNote(outcome.SequenceNumberInvalid, outcome.NoEntry))
	}
	if e.isRemoved() {
		s.Unlock()
		return s.observe(outcome.RejectedWithNote(outcome.SequenceNumberInvalid, outcome.AlreadyRemoved))
	}
	if e.sequence >= sequence {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
	}
	if owner, _ := ownerOf(e); owner != signer {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
	}
	refresh := req
	e.sequence = sequence
	e.refresh = &refresh
	s.entries[hash] = e
	size := len(s.entries)
	s.Unlock()

	s.changed(size, &notify.Event{
		Kind:     notify.Refreshed,
		Hash:     hash,
		TypeName: s.meta.TypeName,
		Sequence: sequence,
		Request:  e.request,
	})
	return s.observe(outcome.Accepted())
}
