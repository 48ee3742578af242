// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package outcome_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/outcome"
)

func TestClassification(t *testing.T) {
	items := []struct {
		o        outcome.Outcome
		accepted bool
		security bool
		benign   bool
		text     string
	}{
		{outcome.Accepted(), true, false, false, "Accepted"},
		{outcome.AcceptedWithNote(outcome.NoEntry), true, false, false, "Accepted(NoEntry)"},
		{outcome.AcceptedWithNote(outcome.AlreadyRemoved), true, false, false, "Accepted(AlreadyRemoved)"},
		{outcome.Rejected(outcome.MaxMapSizeReached), false, false, true, "Rejected(MaxMapSizeReached)"},
		{outcome.Rejected(outcome.PayloadAlreadyStored), false, false, true, "Rejected(PayloadAlreadyStored)"},
		{outcome.Rejected(outcome.SequenceNumberInvalid), false, false, true, "Rejected(SequenceNumberInvalid)"},
		{outcome.Rejected(outcome.Expired), false, false, true, "Rejected(Expired)"},
		{outcome.Rejected(outcome.AuthenticityCheckFailed), false, true, false, "Rejected(AuthenticityCheckFailed)"},
		{outcome.Rejected(outcome.ProofOfWorkInvalid), false, true, false, "Rejected(ProofOfWorkInvalid)"},
		{outcome.RejectedWithNote(outcome.SequenceNumberInvalid, outcome.NoEntry), false, false, true, "Rejected(SequenceNumberInvalid, NoEntry)"},
		{outcome.RejectedWithNote(outcome.SequenceNumberInvalid, outcome.AlreadyRemoved), false, false, true, "Rejected(SequenceNumberInvalid, AlreadyRemoved)"},
	}

	for i, item := range items {
		assert.Equal(t, item.accepted, item.o.IsAccepted(), "%d: accepted", i)
		assert.Equal(t, item.security, item.o.IsSecurityRelevant(), "%d: security", i)
		assert.Equal(t, item.benign, item.o.IsBenign(), "%d: benign", i)
		assert.Equal(t, item.text, item.o.String(), "%d: string", i)
	}
}

// a rejection must always carry a reason
func TestRejectedWithoutReason(t *testing.T) {
	o := outcome.Rejected(outcome.None)
	assert.False(t, o.IsAccepted(), "rejection without reason was accepted")
	assert.Equal(t, outcome.AuthenticityCheckFailed, o.Reason())
}

func TestRejectedWithNote(t *testing.T) {
	o := outcome.RejectedWithNote(outcome.None, outcome.AlreadyRemoved)
	assert.False(t, o.IsAccepted(), "rejection without reason was accepted")
	assert.Equal(t, outcome.AuthenticityCheckFailed, o.Reason())
	assert.Equal(t, outcome.AlreadyRemoved, o.Note())
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "Unknown", outcome.Reason(99).String())
	assert.Equal(t, "Expired", outcome.Expired.String())
}
