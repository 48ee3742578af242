// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package outcome - the result of offering a write to a store
//
// An outcome is data, not an error: callers use it to tell a harmless
// duplicate from a capacity limit from a peer that is attacking.
package outcome

// Reason - why a write was rejected
type Reason int

// all rejection reasons; None means the write was accepted
const (
	None Reason = iota
	MaxMapSizeReached
	PayloadAlreadyStored
	SequenceNumberInvalid
	AuthenticityCheckFailed
	ProofOfWorkInvalid
	Expired
	maximumReason
)

// NumberOfReasons - size of a table indexed by Reason
const NumberOfReasons = int(maximumReason)

var reasonNames = [...]string{
	None:                    "Accepted",
	MaxMapSizeReached:       "MaxMapSizeReached",
	PayloadAlreadyStored:    "PayloadAlreadyStored",
	SequenceNumberInvalid:   "SequenceNumberInvalid",
	AuthenticityCheckFailed: "AuthenticityCheckFailed",
	ProofOfWorkInvalid:      "ProofOfWorkInvalid",
	Expired:                 "Expired",
}

// String - name of the reason
func (r Reason) String() string {
	if r < None || r >= maximumReason {
		return "Unknown"
	}
	return reasonNames[r]
}

// Note - extra information on the state of the hash
type Note int

// notes on removes and refreshes
const (
	NoNote Note = iota
	NoEntry
	AlreadyRemoved
)

// Outcome - Accepted or Rejected(reason)
type Outcome struct {
	reason Reason
	note   Note
}

// Accepted - the write was applied
func Accepted() Outcome {
	return Outcome{reason: None}
}

// AcceptedWithNote - the write was applied, with a remark for the caller
func AcceptedWithNote(note Note) Outcome {
	return Outcome{reason: None, note: note}
}

// Rejected - the write was not applied
func Rejected(reason Reason) Outcome {
	if reason <= None || reason >= maximumReason {
		reason = AuthenticityCheckFailed
	}
	return Outcome{reason: reason}
}

// RejectedWithNote - the write was not applied because of the state
// of the hash, e.g. a refresh of a record that was removed
func RejectedWithNote(reason Reason, note Note) Outcome {
	o := Rejected(reason)
	o.note = note
	return o
}

// IsAccepted - true if the store changed
func (o Outcome) IsAccepted() bool {
	return None == o.reason
}

// Reason - None if accepted
func (o Outcome) Reason() Reason {
	return o.reason
}

// Note - remark on the state of the hash
func (o Outcome) Note() Note {
	return o.note
}

// IsSecurityRelevant - rejected because the sender did not do the work
// or could not prove authorship
//
// the transport layer uses this to decide on peer reputation
func (o Outcome) IsSecurityRelevant() bool {
	return AuthenticityCheckFailed == o.reason || ProofOfWorkInvalid == o.reason
}

// IsBenign - rejected for an expected reason such as a duplicate
func (o Outcome) IsBenign() bool {
	return !o.IsAccepted() && !o.IsSecurityRelevant()
}

// String - for logging
func (o Outcome) String() string {
	note := ""
	switch o.note {
	case NoEntry:
		note = "NoEntry"
	case AlreadyRemoved:
		note = "AlreadyRemoved"
	}
	if o.IsAccepted() {
		if "" == note {
			return "Accepted"
		}
		return "Accepted(" + note + ")"
	}
	if "" == note {
		return "Rejected(" + o.reason.String() + ")"
	}
	return "Rejected(" + o.reason.String() + ", " + note + ")"
}
