// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"context"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/pow"
)

// Kind - selects the populated field of a Request
type Kind uint8

// all request kinds
const (
	InvalidKind Kind = iota
	AddAppendOnlyKind
	AddMailboxKind
	RemoveMailboxKind
	AddAuthenticatedKind
	RemoveAuthenticatedKind
	RefreshAuthenticatedKind
	maximumKind
)

var kindNames = [...]string{
	InvalidKind:              "Invalid",
	AddAppendOnlyKind:        "AddAppendOnly",
	AddMailboxKind:           "AddMailbox",
	RemoveMailboxKind:        "RemoveMailbox",
	AddAuthenticatedKind:     "AddAuthenticated",
	RemoveAuthenticatedKind:  "RemoveAuthenticated",
	RefreshAuthenticatedKind: "RefreshAuthenticated",
}

// String - name of the kind
func (k Kind) String() string {
	if k >= maximumKind {
		return kindNames[InvalidKind]
	}
	return kindNames[k]
}

// Request - a closed variant over all record requests
//
// exactly one of the pointer fields is set, the one selected by Kind
type Request struct {
	Kind                 Kind
	AddAppendOnly        *AddAppendOnlyRequest
	AddMailbox           *AddMailboxRequest
	RemoveMailbox        *RemoveMailboxRequest
	AddAuthenticated     *AddAuthenticatedRequest
	RemoveAuthenticated  *RemoveAuthenticatedRequest
	RefreshAuthenticated *RefreshAuthenticatedRequest
}

// FromAddAppendOnly - wrap a request
func FromAddAppendOnly(r *AddAppendOnlyRequest) Request {
	return Request{Kind: AddAppendOnlyKind, AddAppendOnly: r}
}

// FromAddMailbox - wrap a request
func FromAddMailbox(r *AddMailboxRequest) Request {
	return Request{Kind: AddMailboxKind, AddMailbox: r}
}

// FromRemoveMailbox - wrap a request
func FromRemoveMailbox(r *RemoveMailboxRequest) Request {
	return Request{Kind: RemoveMailboxKind, RemoveMailbox: r}
}

// FromAddAuthenticated - wrap a request
func FromAddAuthenticated(r *AddAuthenticatedRequest) Request {
	return Request{Kind: AddAuthenticatedKind, AddAuthenticated: r}
}

// FromRemoveAuthenticated - wrap a request
func FromRemoveAuthenticated(r *RemoveAuthenticatedRequest) Request {
	return Request{Kind: RemoveAuthenticatedKind, RemoveAuthenticated: r}
}

// FromRefreshAuthenticated - wrap a request
func FromRefreshAuthenticated(r *RefreshAuthenticatedRequest) Request {
	return Request{Kind: RefreshAuthenticatedKind, RefreshAuthenticated: r}
}

// Validate - exactly the field selected by Kind is set and the
// metadata is usable
func (r Request) Validate() error {
	set := 0
	for _, isSet := range []bool{
		nil != r.AddAppendOnly,
		nil != r.AddMailbox,
		nil != r.RemoveMailbox,
		nil != r.AddAuthenticated,
		nil != r.RemoveAuthenticated,
		nil != r.RefreshAuthenticated,
	} {
		if isSet {
			set += 1
		}
	}
	if 1 != set {
		return fault.ErrInvalidRequestKind
	}

	ok := false
	switch r.Kind {
	case AddAppendOnlyKind:
		ok = nil != r.AddAppendOnly
	case AddMailboxKind:
		ok = nil != r.AddMailbox && nil != r.AddMailbox.Data.Envelope
	case RemoveMailboxKind:
		ok = nil != r.RemoveMailbox
	case AddAuthenticatedKind:
		ok = nil != r.AddAuthenticated
	case RemoveAuthenticatedKind:
		ok = nil != r.RemoveAuthenticated
	case RefreshAuthenticatedKind:
		ok = nil != r.RefreshAuthenticated
	}
	if !ok {
		return fault.ErrInvalidRequestKind
	}
	return r.MetaData().Validate()
}

// Hash - key of the record this request adds or targets
func (r Request) Hash() digest.Digest {
	switch r.Kind {
	case AddAppendOnlyKind:
		return r.AddAppendOnly.Data.Hash()
	case AddMailboxKind:
		return r.AddMailbox.Data.Hash()
	case RemoveMailboxKind:
		return r.RemoveMailbox.Hash
	case AddAuthenticatedKind:
		return r.AddAuthenticated.Data.Hash()
	case RemoveAuthenticatedKind:
		return r.RemoveAuthenticated.Hash
	case RefreshAuthenticatedKind:
		return r.RefreshAuthenticated.Hash
	}
	return digest.Digest{}
}

// MetaData - of the record type
func (r Request) MetaData() MetaData {
	switch r.Kind {
	case AddAppendOnlyKind:
		return r.AddAppendOnly.Data.MetaData
	case AddMailboxKind:
		return r.AddMailbox.Data.MetaData
	case RemoveMailboxKind:
		return r.RemoveMailbox.MetaData
	case AddAuthenticatedKind:
		return r.AddAuthenticated.Data.MetaData
	case RemoveAuthenticatedKind:
		return r.RemoveAuthenticated.MetaData
	case RefreshAuthenticatedKind:
		return r.RefreshAuthenticated.MetaData
	}
	return MetaData{}
}

// TypeName - of the record type, selects the store
func (r Request) TypeName() string {
	return r.MetaData().TypeName
}

// authorisation - nil for append-only requests
func (r Request) authorisation() *Authorisation {
	switch r.Kind {
	case AddMailboxKind:
		return &r.AddMailbox.Authorisation
	case RemoveMailboxKind:
		return &r.RemoveMailbox.Authorisation
	case AddAuthenticatedKind:
		return &r.AddAuthenticated.Authorisation
	case RemoveAuthenticatedKind:
		return &r.RemoveAuthenticated.Authorisation
	case RefreshAuthenticatedKind:
		return &r.RefreshAuthenticated.Authorisation
	}
	return nil
}

// Sequence - proposed sequence number, zero for append-only
func (r Request) Sequence() uint32 {
	if a := r.authorisation(); nil != a {
		return a.Sequence
	}
	return 0
}

// Created - unix milliseconds when the request was made
func (r Request) Created() int64 {
	if AddAppendOnlyKind == r.Kind && nil != r.AddAppendOnly {
		return r.AddAppendOnly.Created
	}
	if a := r.authorisation(); nil != a {
		return a.Created
	}
	return 0
}

// Proof - attached proof of work
func (r Request) Proof() pow.Proof {
	if AddAppendOnlyKind == r.Kind && nil != r.AddAppendOnly {
		return r.AddAppendOnly.Proof
	}
	if a := r.authorisation(); nil != a {
		return a.Proof
	}
	return pow.Proof{}
}

// PublicKey - signer's key, nil for append-only
func (r Request) PublicKey() []byte {
	if a := r.authorisation(); nil != a {
		return a.PublicKey
	}
	return nil
}

// Signature - nil for append-only
func (r Request) Signature() []byte {
	if a := r.authorisation(); nil != a {
		return a.Signature
	}
	return nil
}

// IsSigned - request kinds that carry a signature
func (r Request) IsSigned() bool {
	return AddAppendOnlyKind != r.Kind
}

// IsRemove - request retracts a record
func (r Request) IsRemove() bool {
	return RemoveMailboxKind == r.Kind || RemoveAuthenticatedKind == r.Kind
}

// DataSize - serialized size of the carried record, zero for requests
// that only target a hash
func (r Request) DataSize() int {
	switch r.Kind {
	case AddAppendOnlyKind:
		return len(r.AddAppendOnly.Data.Marshal())
	case AddMailboxKind:
		return len(r.AddMailbox.Data.Marshal())
	case AddAuthenticatedKind:
		return len(r.AddAuthenticated.Data.Marshal())
	}
	return 0
}

// body without proof and signature
func (r Request) unsignedBody() []byte {
	switch r.Kind {
	case AddAppendOnlyKind:
		b := codec.AppendBytes(nil, fieldData, r.AddAppendOnly.Data.Marshal())
		return codec.AppendVarint(b, fieldCreated, uint64(r.AddAppendOnly.Created))
	case AddMailboxKind:
		b := codec.AppendBytes(nil, fieldData, r.AddMailbox.Data.Marshal())
		return r.AddMailbox.appendUnsigned(b)
	case RemoveMailboxKind:
		return r.RemoveMailbox.appendUnsigned(r.RemoveMailbox.Target.appendTo(nil))
	case AddAuthenticatedKind:
		b := codec.AppendBytes(nil, fieldData, r.AddAuthenticated.Data.Marshal())
		return r.AddAuthenticated.appendUnsigned(b)
	case RemoveAuthenticatedKind:
		return r.RemoveAuthenticated.appendUnsigned(r.RemoveAuthenticated.Target.appendTo(nil))
	case RefreshAuthenticatedKind:
		return r.RefreshAuthenticated.appendUnsigned(r.RefreshAuthenticated.Target.appendTo(nil))
	}
	return nil
}

// SigningBytes - what the signature and the proof of work cover:
// everything except the proof and the signature
func (r Request) SigningBytes() []byte {
	return append([]byte{byte(r.Kind)}, r.unsignedBody()...)
}

// Challenge - the proof of work is bound to this digest
func (r Request) Challenge() digest.Digest {
	return digest.NewDigest(r.SigningBytes())
}

// Authorise - set the signer key, mint the proof of work and sign
//
// signer may be nil for append-only requests
func (r Request) Authorise(ctx context.Context, policy pow.Policy, signer *keypair.KeyBundle) error {
	if err := r.Validate(); nil != err {
		return err
	}

	a := r.authorisation()
	if nil != a {
		if nil == signer {
			return fault.ErrMissingParameters
		}
		a.PublicKey = append([]byte{}, signer.Public().Signing...)
	}

	proof, err := pow.Mint(ctx, r.Challenge(), policy.Required(r.DataSize()))
	if nil != err {
		return err
	}

	if nil == a {
		r.AddAppendOnly.Proof = proof
		return nil
	}
	a.Proof = proof
	a.Signature = signer.Sign(r.SigningBytes())
	return nil
}

// Marshal - wire form of the whole request
func (r Request) Marshal() []byte {
	var body []byte
	switch r.Kind {
	case AddAppendOnlyKind:
		body = appendProof(r.unsignedBody(), r.AddAppendOnly.Proof)
	case AddMailboxKind, RemoveMailboxKind, AddAuthenticatedKind,
		RemoveAuthenticatedKind, RefreshAuthenticatedKind:
		body = r.authorisation().appendSigned(r.unsignedBody())
	default:
		return nil
	}
	b := codec.AppendVarint(nil, 1, uint64(r.Kind))
	return codec.AppendBytes(b, 2, body)
}

// Unmarshal - inverse of Marshal; the result is validated
func Unmarshal(b []byte) (Request, error) {
	kind := InvalidKind
	var body []byte
	err := codec.Walk(b, func(f codec.Field) error {
		switch f.Number {
		case 1:
			kind = Kind(f.Varint)
		case 2:
			body = f.Bytes
		}
		return nil
	})
	if nil != err {
		return Request{}, err
	}

	r, err := decodeBody(kind, body)
	if nil != err {
		return Request{}, err
	}
	if err := r.Validate(); nil != err {
		return Request{}, err
	}
	return r, nil
}

func decodeBody(kind Kind, body []byte) (Request, error) {
	switch kind {
	case AddAppendOnlyKind:
		req := &AddAppendOnlyRequest{}
		err := codec.Walk(body, func(f codec.Field) error {
			switch f.Number {
			case fieldData:
				data, err := unmarshalAppendOnly(f.Bytes)
				if nil != err {
					return err
				}
				req.Data = *data
			case fieldCreated:
				req.Created = int64(f.Varint)
			case fieldProofBits:
				req.Proof.Bits = uint8(f.Varint)
			case fieldNonce:
				req.Proof.Nonce = f.Varint
			}
			return nil
		})
		return FromAddAppendOnly(req), err

	case AddMailboxKind:
		req := &AddMailboxRequest{}
		err := codec.Walk(body, func(f codec.Field) error {
			if fieldData == f.Number {
				data, err := unmarshalMailboxData(f.Bytes)
				if nil != err {
					return err
				}
				req.Data = *data
				return nil
			}
			req.Authorisation.decode(f)
			return nil
		})
		return FromAddMailbox(req), err

	case AddAuthenticatedKind:
		req := &AddAuthenticatedRequest{}
		err := codec.Walk(body, func(f codec.Field) error {
			if fieldData == f.Number {
				data, err := unmarshalAuthenticatedData(f.Bytes)
				if nil != err {
					return err
				}
				req.Data = *data
				return nil
			}
			req.Authorisation.decode(f)
			return nil
		})
		return FromAddAuthenticated(req), err

	case RemoveMailboxKind:
		t, a, err := decodeTarget(body)
		return FromRemoveMailbox(&RemoveMailboxRequest{Target: t, Authorisation: a}), err

	case RemoveAuthenticatedKind:
		t, a, err := decodeTarget(body)
		return FromRemoveAuthenticated(&RemoveAuthenticatedRequest{Target: t, Authorisation: a}), err

	case RefreshAuthenticatedKind:
		t, a, err := decodeTarget(body)
		return FromRefreshAuthenticated(&RefreshAuthenticatedRequest{Target: t, Authorisation: a}), err
	}
	return Request{}, fault.ErrInvalidRequestKind
}
