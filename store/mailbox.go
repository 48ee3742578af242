// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
)

// MailboxStore - encrypted point to point messages
//
// each hash is a monotonic register: a write is accepted only with a
// sequence number above the stored one. A remove stores MaxSequence so
// the hash can never be added again.
type MailboxStore struct {
	*base
}

// NewMailbox - create a store, restore its last snapshot and start
// pruning expired messages
func NewMailbox(options Options) (*MailboxStore, error) {
	b, err := newBase(mailboxName, options)
	if nil != err {
		return nil, err
	}
	b.startPruning(options.PruneInterval)
	return &MailboxStore{base: b}, nil
}

// Apply - dispatch a request
func (s *MailboxStore) Apply(req record.Request) outcome.Outcome {
	switch req.Kind {
	case record.AddMailboxKind:
		return s.Add(req)
	case record.RemoveMailboxKind:
		return s.Remove(req)
	default:
		return s.wrongKind(req)
	}
}

// CanAdd - false if the message was already removed by its receiver
//
// lets a sender avoid building a request that must fail
func (s *MailboxStore) CanAdd(data *record.MailboxData) bool {
	hash := data.Hash()

	s.Lock()
	defer s.Unlock()

	e, ok := s.entries[hash]
	if !ok || isForeignTombstone(e, data.ReceiverPublicKeyHash) {
		return true
	}
	return e.sequence < record.MaxSequence
}

// a remove signed by anyone but the receiver cannot block the message
func isForeignTombstone(e entry, receiver digest.Digest) bool {
	return e.isRemoved() && keypair.PublicKeyHash(e.request.PublicKey()) != receiver
}

// Add - store a message if its sequence number is above the stored one
func (s *MailboxStore) Add(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.AddMailboxKind) {
		return s.wrongKind(req)
	}
	hash := req.Hash()
	sequence := req.Sequence()

	// MaxSequence is reserved for tombstones
	if record.MaxSequence == sequence {
		return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
	}

	s.Lock()
	if s.isShutdown() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	e, ok := s.entries[hash]
	if ok && isForeignTombstone(e, req.AddMailbox.Data.ReceiverPublicKeyHash) {
		ok = false
	}
	if ok && e.sequence >= sequence {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
	}
	if _, present := s.entries[hash]; !present && s.isFull() {
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

// Remove - tombstone a message
//
// only the receiver may remove: the request must be signed with the
// key whose hash is stored in the message. A remove for an unknown
// hash is kept as a tombstone so that the add, arriving later, is
// refused.
func (s *MailboxStore) Remove(req record.Request) outcome.Outcome {
	if !s.accepts(req, record.RemoveMailboxKind) {
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
	if ok {
		if e.sequence >= sequence {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.SequenceNumberInvalid))
		}
		if signer != e.request.AddMailbox.Data.ReceiverPublicKeyHash {
			s.Unlock()
			return s.observe(outcome.Rejected(outcome.AuthenticityCheckFailed))
		}
	} else if s.isFull() {
		s.Unlock()
		return s.observe(outcome.Rejected(outcome.MaxMapSizeReached))
	}
	s.entries[hash] = entry{
		sequence: record.MaxSequence,
		request:  req,
	}
	size := len(s.entries)
	s.Unlock()

	if !ok {
		s.changed(size, nil)
		return s.observe(outcome.AcceptedWithNote(outcome.NoEntry))
	}

	s.changed(size, &notify.Event{
		Kind:     notify.Removed,
		Hash:     hash,
		TypeName: s.meta.TypeName,
		Sequence: record.MaxSequence,
		Request:  e.request,
	})
	return s.observe(outcome.Accepted())
}
