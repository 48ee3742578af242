// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gate - admission checks run before a request reaches a store
//
// The gate verifies everything that can be verified from the request
// alone: declared size, proof of work, age and signatures. Checks that
// need stored state (sequence numbers, ownership of a stored record)
// belong to the stores.
package gate

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"

	"github.com/bisq-network/datastore/confidential"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/record"
)

// how long a verified request is remembered
const (
	defaultTimeout    = 10 * time.Minute
	defaultExpiration = 20 * time.Minute
)

// Gate - stateless apart from the policy and the verification cache
type Gate struct {
	policy   atomic.Value // pow.Policy
	verified *cache.Cache
	clock    func() time.Time
	log      *logger.L
}

// New - create a gate with the given proof of work policy
func New(policy pow.Policy) (*Gate, error) {
	if err := policy.Validate(); nil != err {
		return nil, err
	}
	g := &Gate{
		verified: cache.New(defaultTimeout, defaultExpiration),
		clock:    time.Now,
		log:      logger.New("gate"),
	}
	g.policy.Store(policy)
	return g, nil
}

// Policy - the current proof of work policy
func (g *Gate) Policy() pow.Policy {
	return g.policy.Load().(pow.Policy)
}

// SetPolicy - replace the proof of work policy
//
// requests verified under the old policy are checked again
func (g *Gate) SetPolicy(policy pow.Policy) error {
	if err := policy.Validate(); nil != err {
		return err
	}
	g.policy.Store(policy)
	g.verified.Flush()
	g.log.Infof("policy: %s", policy)
	return nil
}

// Check - Accepted if the request may be offered to a store
func (g *Gate) Check(req record.Request) outcome.Outcome {
	if err := req.Validate(); nil != err {
		g.log.Warnf("invalid request: %s", err)
		return outcome.Rejected(outcome.AuthenticityCheckFailed)
	}

	meta := req.MetaData()
	size := req.DataSize()

	// no work requirement is defined beyond the declared maximum
	if size > int(meta.MaxSizeBytes) {
		g.log.Warnf("%s: size: %d exceeds: %d", meta.TypeName, size, meta.MaxSizeBytes)
		return outcome.Rejected(outcome.ProofOfWorkInvalid)
	}

	if meta.IsExpired(req.Created(), g.clock()) {
		g.log.Debugf("%s: expired", meta.TypeName)
		return outcome.Rejected(outcome.Expired)
	}

	key := digest.NewDigest(req.Marshal()).String()
	if _, ok := g.verified.Get(key); ok {
		return outcome.Accepted()
	}

	if !g.Policy().Check(req.Challenge(), size, req.Proof()) {
		g.log.Warnf("%s: %s proof of work invalid", meta.TypeName, req.Kind)
		return outcome.Rejected(outcome.ProofOfWorkInvalid)
	}

	if !g.authentic(req) {
		g.log.Warnf("%s: %s authenticity check failed", meta.TypeName, req.Kind)
		return outcome.Rejected(outcome.AuthenticityCheckFailed)
	}

	g.verified.SetDefault(key, struct{}{})
	return outcome.Accepted()
}

// signatures and the binding of the signer to the data
func (g *Gate) authentic(req record.Request) bool {
	switch req.Kind {

	case record.AddAppendOnlyKind:
		return true

	case record.AddMailboxKind:
		data := req.AddMailbox.Data
		publicKey := req.PublicKey()
		if keypair.PublicKeyHash(publicKey) != data.SenderPublicKeyHash {
			return false
		}
		if !bytes.Equal(data.Envelope.SenderPublicKey, publicKey) {
			return false
		}
		return confidential.VerifySignature(data.Envelope) && verify(req)

	case record.AddAuthenticatedKind:
		if keypair.PublicKeyHash(req.PublicKey()) != req.AddAuthenticated.Data.OwnerPublicKeyHash {
			return false
		}
		return verify(req)

	// the stores compare the signer with the stored record
	case record.RemoveMailboxKind,
		record.RemoveAuthenticatedKind,
		record.RefreshAuthenticatedKind:
		return verify(req)

	default:
		return false
	}
}

func verify(req record.Request) bool {
	return keypair.Verify(req.PublicKey(), req.SigningBytes(), req.Signature())
}
