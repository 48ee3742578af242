// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/pow"
)

// MaxSequence - the sequence number of a tombstone; no add can exceed it
const MaxSequence = math.MaxUint32

// wire field numbers shared by all request bodies
const (
	fieldData      protowire.Number = 1
	fieldHash      protowire.Number = 1
	fieldMetaData  protowire.Number = 2
	fieldSequence  protowire.Number = 3
	fieldCreated   protowire.Number = 4
	fieldPublicKey protowire.Number = 5
	fieldProofBits protowire.Number = 10
	fieldNonce     protowire.Number = 11
	fieldSignature protowire.Number = 12
)

// Authorisation - the signed part of every mutable record request
type Authorisation struct {
	Sequence  uint32
	Created   int64 // unix milliseconds
	PublicKey []byte
	Proof     pow.Proof
	Signature []byte
}

// Target - identifies an existing record for a remove or refresh
type Target struct {
	Hash     digest.Digest
	MetaData MetaData
}

// AddAppendOnlyRequest - publish an append-only fact
type AddAppendOnlyRequest struct {
	Data    AppendOnly
	Created int64
	Proof   pow.Proof
}

// AddMailboxRequest - publish a mailbox message, signed by the sender
type AddMailboxRequest struct {
	Data MailboxData
	Authorisation
}

// RemoveMailboxRequest - retract a mailbox message, signed by the receiver
type RemoveMailboxRequest struct {
	Target
	Authorisation
}

// AddAuthenticatedRequest - publish an owner signed record
type AddAuthenticatedRequest struct {
	Data AuthenticatedData
	Authorisation
}

// RemoveAuthenticatedRequest - retract an owner signed record
type RemoveAuthenticatedRequest struct {
	Target
	Authorisation
}

// RefreshAuthenticatedRequest - extend the life of an owner signed record
type RefreshAuthenticatedRequest struct {
	Target
	Authorisation
}

func (a *Authorisation) appendUnsigned(b []byte) []byte {
	b = codec.AppendVarint(b, fieldSequence, uint64(a.Sequence))
	b = codec.AppendVarint(b, fieldCreated, uint64(a.Created))
	return codec.AppendBytes(b, fieldPublicKey, a.PublicKey)
}

func (a *Authorisation) appendSigned(b []byte) []byte {
	b = appendProof(b, a.Proof)
	return codec.AppendBytes(b, fieldSignature, a.Signature)
}

// decode one field common to all authorised requests
func (a *Authorisation) decode(f codec.Field) {
	switch f.Number {
	case fieldSequence:
		a.Sequence = uint32(f.Varint)
	case fieldCreated:
		a.Created = int64(f.Varint)
	case fieldPublicKey:
		a.PublicKey = f.Bytes
	case fieldProofBits:
		a.Proof.Bits = uint8(f.Varint)
	case fieldNonce:
		a.Proof.Nonce = f.Varint
	case fieldSignature:
		a.Signature = f.Bytes
	}
}

func appendProof(b []byte, p pow.Proof) []byte {
	b = codec.AppendVarint(b, fieldProofBits, uint64(p.Bits))
	return codec.AppendVarint(b, fieldNonce, p.Nonce)
}

func (t *Target) appendTo(b []byte) []byte {
	b = codec.AppendBytes(b, fieldHash, t.Hash[:])
	return codec.AppendBytes(b, fieldMetaData, t.MetaData.Marshal())
}

func (t *Target) decode(f codec.Field) (err error) {
	switch f.Number {
	case fieldHash:
		err = digest.FromBytes(&t.Hash, f.Bytes)
	case fieldMetaData:
		t.MetaData, err = UnmarshalMetaData(f.Bytes)
	}
	return
}

func decodeTarget(b []byte) (Target, Authorisation, error) {
	t := Target{}
	a := Authorisation{}
	err := codec.Walk(b, func(f codec.Field) error {
		a.decode(f)
		return t.decode(f)
	})
	return t, a, err
}
