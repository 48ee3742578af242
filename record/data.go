// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/confidential"
	"github.com/bisq-network/datastore/digest"
)

// AppendOnly - a fact that is never retracted
type AppendOnly struct {
	Payload  []byte
	MetaData MetaData
}

// Marshal - canonical serialization, the input to Hash
func (a *AppendOnly) Marshal() []byte {
	b := codec.AppendBytes(nil, 1, a.Payload)
	return codec.AppendBytes(b, 2, a.MetaData.Marshal())
}

// Hash - the record key
func (a *AppendOnly) Hash() digest.Digest {
	return digest.NewDigest(a.Marshal())
}

func unmarshalAppendOnly(b []byte) (*AppendOnly, error) {
	a := &AppendOnly{}
	err := codec.Walk(b, func(f codec.Field) (err error) {
		switch f.Number {
		case 1:
			a.Payload = f.Bytes
		case 2:
			a.MetaData, err = UnmarshalMetaData(f.Bytes)
		}
		return
	})
	if nil != err {
		return nil, err
	}
	return a, nil
}

// MailboxData - an encrypted point to point message
//
// the hash covers the ciphertext, so re-encrypting the same message
// creates a different record
type MailboxData struct {
	Envelope              *confidential.Envelope
	MetaData              MetaData
	SenderPublicKeyHash   digest.Digest
	ReceiverPublicKeyHash digest.Digest
}

// Marshal - canonical serialization, the input to Hash
func (m *MailboxData) Marshal() []byte {
	var b []byte
	if nil != m.Envelope {
		b = codec.AppendBytes(b, 1, m.Envelope.Marshal())
	}
	b = codec.AppendBytes(b, 2, m.MetaData.Marshal())
	b = codec.AppendBytes(b, 3, m.SenderPublicKeyHash[:])
	return codec.AppendBytes(b, 4, m.ReceiverPublicKeyHash[:])
}

// Hash - the record key
func (m *MailboxData) Hash() digest.Digest {
	return digest.NewDigest(m.Marshal())
}

func unmarshalMailboxData(b []byte) (*MailboxData, error) {
	m := &MailboxData{}
	err := codec.Walk(b, func(f codec.Field) (err error) {
		switch f.Number {
		case 1:
			m.Envelope, err = confidential.Unmarshal(f.Bytes)
		case 2:
			m.MetaData, err = UnmarshalMetaData(f.Bytes)
		case 3:
			err = digest.FromBytes(&m.SenderPublicKeyHash, f.Bytes)
		case 4:
			err = digest.FromBytes(&m.ReceiverPublicKeyHash, f.Bytes)
		}
		return
	})
	if nil != err {
		return nil, err
	}
	return m, nil
}

// AuthenticatedData - an owner signed record that the owner may remove
// or refresh
type AuthenticatedData struct {
	Payload            []byte
	MetaData           MetaData
	OwnerPublicKeyHash digest.Digest
}

// Marshal - canonical serialization, the input to Hash
func (a *AuthenticatedData) Marshal() []byte {
	b := codec.AppendBytes(nil, 1, a.Payload)
	b = codec.AppendBytes(b, 2, a.MetaData.Marshal())
	return codec.AppendBytes(b, 3, a.OwnerPublicKeyHash[:])
}

// Hash - the record key
func (a *AuthenticatedData) Hash() digest.Digest {
	return digest.NewDigest(a.Marshal())
}

func unmarshalAuthenticatedData(b []byte) (*AuthenticatedData, error) {
	a := &AuthenticatedData{}
	err := codec.Walk(b, func(f codec.Field) (err error) {
		switch f.Number {
		case 1:
			a.Payload = f.Bytes
		case 2:
			a.MetaData, err = UnmarshalMetaData(f.Bytes)
		case 3:
			err = digest.FromBytes(&a.OwnerPublicKeyHash, f.Bytes)
		}
		return
	})
	if nil != err {
		return nil, err
	}
	return a, nil
}
