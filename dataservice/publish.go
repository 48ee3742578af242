// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dataservice

import (
	"context"

	"github.com/bisq-network/datastore/confidential"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
	"github.com/bisq-network/datastore/store"
)

// MailboxHandler - called with the plaintext of a message for the
// subscribed receiver
type MailboxHandler func(plaintext []byte, data record.MailboxData)

// creation time of a local request in ms
func (s *Service) now() int64 {
	return s.config.Clock().UnixNano() / 1000000
}

// next sequence number for hash, one above the stored number
func (s *Service) nextSequence(family store.Family, meta record.MetaData, hash digest.Digest) (uint32, error) {
	st, ok := s.Store(family, meta.TypeName)
	if !ok {
		return 1, nil
	}
	current := st.GetSequenceNumber(hash)
	if current >= record.MaxSequence-1 {
		return 0, fault.ErrWrongSequence
	}
	return current + 1, nil
}

// a request that could not be built; the outcome is never accepted
//
// a spent sequence register is reported as such, anything else means
// the request could not be signed
func failed(err error) (record.Request, outcome.Outcome, error) {
	reason := outcome.AuthenticityCheckFailed
	switch err {
	case fault.ErrTombstoned, fault.ErrWrongSequence:
		reason = outcome.SequenceNumberInvalid
	}
	return record.Request{}, outcome.Rejected(reason), err
}

// mint, sign and process a local request
func (s *Service) publish(ctx context.Context, req record.Request, signer *keypair.KeyBundle) (record.Request, outcome.Outcome, error) {
	if err := req.Authorise(ctx, s.gate.Policy(), signer); nil != err {
		return failed(err)
	}
	return req, s.Process("", req), nil
}

// PublishAppendOnly - add a fact
func (s *Service) PublishAppendOnly(ctx context.Context, payload []byte, meta record.MetaData) (record.Request, outcome.Outcome, error) {
	req := record.FromAddAppendOnly(&record.AddAppendOnlyRequest{
		Data: record.AppendOnly{
			Payload:  payload,
			MetaData: meta,
		},
		Created: s.now(),
	})
	return s.publish(ctx, req, nil)
}

// PublishMailbox - seal plaintext for receiver and add it
func (s *Service) PublishMailbox(ctx context.Context, sender *keypair.KeyBundle, receiver keypair.PublicKeys, plaintext []byte, meta record.MetaData) (record.Request, outcome.Outcome, error) {
	if nil == sender {
		return failed(fault.ErrMissingParameters)
	}
	env, err := confidential.Seal(plaintext, receiver, sender)
	if nil != err {
		return failed(err)
	}
	data := record.MailboxData{
		Envelope:              env,
		MetaData:              meta,
		SenderPublicKeyHash:   sender.PublicKeyHash(),
		ReceiverPublicKeyHash: keypair.PublicKeyHash(receiver.Signing),
	}
	return s.RepublishMailbox(ctx, sender, data)
}

// RepublishMailbox - add an existing message again with a higher
// sequence number
//
// the stored envelope must be reused: sealing the plaintext again
// gives a different hash and so a different message
func (s *Service) RepublishMailbox(ctx context.Context, sender *keypair.KeyBundle, data record.MailboxData) (record.Request, outcome.Outcome, error) {
	if st, ok := s.Store(store.MailboxFamily, data.MetaData.TypeName); ok {
		if mailbox, ok := st.(*store.MailboxStore); ok && !mailbox.CanAdd(&data) {
			return failed(fault.ErrTombstoned)
		}
	}
	sequence, err := s.nextSequence(store.MailboxFamily, data.MetaData, data.Hash())
	if nil != err {
		return failed(err)
	}
	req := record.FromAddMailbox(&record.AddMailboxRequest{
		Data: data,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  s.now(),
		},
	})
	return s.publish(ctx, req, sender)
}

// RemoveMailbox - the receiver retracts a message it has read
func (s *Service) RemoveMailbox(ctx context.Context, receiver *keypair.KeyBundle, data record.MailboxData) (record.Request, outcome.Outcome, error) {
	target := record.Target{
		Hash:     data.Hash(),
		MetaData: data.MetaData,
	}
	sequence, err := s.nextSequence(store.MailboxFamily, data.MetaData, target.Hash)
	if nil != err {
		return failed(err)
	}
	req := record.FromRemoveMailbox(&record.RemoveMailboxRequest{
		Target: target,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  s.now(),
		},
	})
	return s.publish(ctx, req, receiver)
}

// PublishAuthenticated - add or replace an owner signed record
func (s *Service) PublishAuthenticated(ctx context.Context, owner *keypair.KeyBundle, payload []byte, meta record.MetaData) (record.Request, outcome.Outcome, error) {
	if nil == owner {
		return failed(fault.ErrMissingParameters)
	}
	data := record.AuthenticatedData{
		Payload:            payload,
		MetaData:           meta,
		OwnerPublicKeyHash: owner.PublicKeyHash(),
	}
	sequence, err := s.nextSequence(store.AuthenticatedFamily, meta, data.Hash())
	if nil != err {
		return failed(err)
	}
	req := record.FromAddAuthenticated(&record.AddAuthenticatedRequest{
		Data: data,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  s.now(),
		},
	})
	return s.publish(ctx, req, owner)
}

// RemoveAuthenticated - the owner retracts a record
func (s *Service) RemoveAuthenticated(ctx context.Context, owner *keypair.KeyBundle, data record.AuthenticatedData) (record.Request, outcome.Outcome, error) {
	target, sequence, err := s.target(data)
	if nil != err {
		return failed(err)
	}
	req := record.FromRemoveAuthenticated(&record.RemoveAuthenticatedRequest{
		Target: target,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  s.now(),
		},
	})
	return s.publish(ctx, req, owner)
}

// RefreshAuthenticated - the owner keeps a record from expiring
func (s *Service) RefreshAuthenticated(ctx context.Context, owner *keypair.KeyBundle, data record.AuthenticatedData) (record.Request, outcome.Outcome, error) {
	target, sequence, err := s.target(data)
	if nil != err {
		return failed(err)
	}
	req := record.FromRefreshAuthenticated(&record.RefreshAuthenticatedRequest{
		Target: target,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  s.now(),
		},
	})
	return s.publish(ctx, req, owner)
}

func (s *Service) target(data record.AuthenticatedData) (record.Target, uint32, error) {
	target := record.Target{
		Hash:     data.Hash(),
		MetaData: data.MetaData,
	}
	sequence, err := s.nextSequence(store.AuthenticatedFamily, data.MetaData, target.Hash)
	return target, sequence, err
}

// SubscribeMailbox - deliver messages addressed to receiver
//
// envelopes for other receivers are ignored silently
func (s *Service) SubscribeMailbox(receiver *keypair.KeyBundle, handler MailboxHandler) *notify.Subscription {
	return s.Subscribe(func(e notify.Event) {
		if notify.Added != e.Kind || record.AddMailboxKind != e.Request.Kind {
			return
		}
		data := e.Request.AddMailbox.Data
		plaintext, err := confidential.Open(data.Envelope, receiver)
		if fault.ErrNotForReceiver == err {
			return
		}
		if nil != err {
			s.log.Warnf("mailbox: %s open error: %s", e.Hash.Short(), err)
			return
		}
		handler(plaintext, data)
	})
}
