// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gate_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/fixtures"
	"github.com/bisq-network/datastore/gate"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/record"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func newGate(t *testing.T) *gate.Gate {
	g, err := gate.New(fixtures.Policy)
	require.NoError(t, err)
	return g
}

func TestValidRequests(t *testing.T) {
	g := newGate(t)

	sender := fixtures.Keys()
	receiver := fixtures.Keys()
	mail := fixtures.MailboxData("message", sender, receiver)
	offer := fixtures.AuthenticatedData("offer", sender)

	requests := []record.Request{
		fixtures.AppendOnly("witness"),
		fixtures.AddMailbox(mail, 1, sender),
		fixtures.RemoveMailbox(mail, 2, receiver),
		fixtures.AddAuthenticated(offer, 1, sender),
		fixtures.RefreshAuthenticated(offer, 2, sender),
		fixtures.RemoveAuthenticated(offer, 3, sender),
	}
	for _, req := range requests {
		assert.Equal(t, outcome.Accepted(), g.Check(req), req.Kind.String())

		// second time from the cache
		assert.Equal(t, outcome.Accepted(), g.Check(req), req.Kind.String())
	}
}

func TestBadSignature(t *testing.T) {
	g := newGate(t)

	owner := fixtures.Keys()
	req := fixtures.AddAuthenticated(fixtures.AuthenticatedData("offer", owner), 1, owner)
	require.True(t, g.Check(req).IsAccepted())

	req.AddAuthenticated.Signature = append([]byte{}, req.AddAuthenticated.Signature...)
	req.AddAuthenticated.Signature[0] ^= 0x01
	assert.Equal(t, outcome.Rejected(outcome.AuthenticityCheckFailed), g.Check(req))
}

func TestSignerMustOwnData(t *testing.T) {
	g := newGate(t)

	owner := fixtures.Keys()
	thief := fixtures.Keys()
	offer := fixtures.AddAuthenticated(fixtures.AuthenticatedData("offer", owner), 1, thief)
	assert.Equal(t, outcome.Rejected(outcome.AuthenticityCheckFailed), g.Check(offer))

	mail := fixtures.MailboxData("message", owner, fixtures.Keys())
	assert.Equal(t, outcome.Rejected(outcome.AuthenticityCheckFailed), g.Check(fixtures.AddMailbox(mail, 1, thief)))
}

func TestTamperedEnvelope(t *testing.T) {
	g := newGate(t)

	sender := fixtures.Keys()
	mail := fixtures.MailboxData("message", sender, fixtures.Keys())
	mail.Envelope.Ciphertext[0] ^= 0x01

	// the request signature is valid, the envelope signature is not
	assert.Equal(t, outcome.Rejected(outcome.AuthenticityCheckFailed), g.Check(fixtures.AddMailbox(mail, 1, sender)))
}

func TestProofOfWork(t *testing.T) {
	g := newGate(t)

	req := fixtures.AppendOnly("cheap")
	req.AddAppendOnly.Proof.Bits = 0
	assert.Equal(t, outcome.Rejected(outcome.ProofOfWorkInvalid), g.Check(req))

	// work done under the old policy is not enough under the new one
	valid := fixtures.AppendOnly("valid")
	require.True(t, g.Check(valid).IsAccepted())
	require.NoError(t, g.SetPolicy(pow.Policy{MinBits: 40, MaxBits: 40, BytesPerBit: 1}))
	assert.Equal(t, outcome.Rejected(outcome.ProofOfWorkInvalid), g.Check(valid))
	assert.Equal(t, uint8(40), g.Policy().MinBits)
}

func TestOversize(t *testing.T) {
	g := newGate(t)

	req := fixtures.AppendOnly(strings.Repeat("x", int(fixtures.AppendOnlyMeta.MaxSizeBytes)+1))
	assert.Equal(t, outcome.Rejected(outcome.ProofOfWorkInvalid), g.Check(req))
}

func TestExpired(t *testing.T) {
	g := newGate(t)

	owner := fixtures.Keys()
	req := record.FromAddAuthenticated(&record.AddAuthenticatedRequest{
		Data: fixtures.AuthenticatedData("stale offer", owner),
		Authorisation: record.Authorisation{
			Sequence: 1,
			Created:  fixtures.Now() - int64(2*fixtures.AuthenticatedMeta.TTL/time.Millisecond),
		},
	})
	require.NoError(t, req.Authorise(context.Background(), fixtures.Policy, owner))

	assert.Equal(t, outcome.Rejected(outcome.Expired), g.Check(req))
}

func TestInvalidRequest(t *testing.T) {
	g := newGate(t)

	assert.Equal(t, outcome.Rejected(outcome.AuthenticityCheckFailed), g.Check(record.Request{}))
}

func TestInvalidPolicy(t *testing.T) {
	_, err := gate.New(pow.Policy{MinBits: 10, MaxBits: 5, BytesPerBit: 1})
	assert.Equal(t, fault.ErrInvalidDifficulty, err)

	g := newGate(t)
	assert.Equal(t, fault.ErrInvalidDifficulty, g.SetPolicy(pow.Policy{}))
	assert.Equal(t, fixtures.Policy, g.Policy())
}
