// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/notify"
	"github.com/bisq-network/datastore/outcome"
	"github.com/bisq-network/datastore/record"
)

// Family - which store handles a request kind
type Family int

// store families
const (
	NoFamily Family = iota
	AppendOnlyFamily
	MailboxFamily
	AuthenticatedFamily
)

// names used in store keys and log tags
const (
	appendOnlyName    = "appendonly"
	mailboxName       = "mailbox"
	authenticatedName = "authenticated"
)

// String - family name
func (f Family) String() string {
	switch f {
	case AppendOnlyFamily:
		return appendOnlyName
	case MailboxFamily:
		return mailboxName
	case AuthenticatedFamily:
		return authenticatedName
	}
	return "none"
}

// ParseFamily - family from its name, as used in configuration
func ParseFamily(name string) (Family, error) {
	switch name {
	case appendOnlyName:
		return AppendOnlyFamily, nil
	case mailboxName:
		return MailboxFamily, nil
	case authenticatedName:
		return AuthenticatedFamily, nil
	}
	return NoFamily, fault.ErrInvalidStoreFamily
}

// FamilyOf - the store family for a request kind
func FamilyOf(kind record.Kind) Family {
	switch kind {
	case record.AddAppendOnlyKind:
		return AppendOnlyFamily
	case record.AddMailboxKind, record.RemoveMailboxKind:
		return MailboxFamily
	case record.AddAuthenticatedKind, record.RemoveAuthenticatedKind, record.RefreshAuthenticatedKind:
		return AuthenticatedFamily
	}
	return NoFamily
}

// Store - the operations common to all stores
type Store interface {
	Key() string
	MetaData() record.MetaData
	Apply(req record.Request) outcome.Outcome
	Size() int
	Get(hash digest.Digest) (record.Request, bool)
	GetSequenceNumber(hash digest.Digest) uint32
	Snapshot() map[digest.Digest]record.Request
	Items() []Item
	Subscribe(handler notify.Handler) *notify.Subscription
	Shutdown() error
}

// New - create a store of the given family
func New(family Family, options Options) (Store, error) {
	var s Store
	var err error
	switch family {
	case AppendOnlyFamily:
		s, err = NewAppendOnly(options)
	case MailboxFamily:
		s, err = NewMailbox(options)
	case AuthenticatedFamily:
		s, err = NewAuthenticated(options)
	default:
		return nil, fault.ErrInvalidStoreFamily
	}
	if nil != err {
		return nil, err
	}
	return s, nil
}
