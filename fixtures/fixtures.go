// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared helpers for package tests
package fixtures

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/confidential"
	"github.com/bisq-network/datastore/keypair"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/record"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// Policy - cheap proof of work so tests run fast
var Policy = pow.Policy{
	MinBits:     2,
	MaxBits:     6,
	BytesPerBit: 256,
}

// record types used in tests
var (
	AppendOnlyMeta = record.MetaData{
		TTL:          0,
		MaxSizeBytes: 1024,
		TypeName:     "AccountAgeWitness",
		Priority:     1,
	}
	MailboxMeta = record.MetaData{
		TTL:          15 * 24 * time.Hour,
		MaxSizeBytes: 4096,
		TypeName:     "MailboxMessage",
		Priority:     2,
	}
	AuthenticatedMeta = record.MetaData{
		TTL:          time.Hour,
		MaxSizeBytes: 2048,
		TypeName:     "Offer",
		Priority:     3,
	}
)

// SetupTestLogger - log to a throw-away directory at critical level
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the directory
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}

// Now - creation time for requests
func Now() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Keys - a fresh key bundle, panics on failure
func Keys() *keypair.KeyBundle {
	k, err := keypair.New()
	if nil != err {
		panic(err)
	}
	return k
}

func authorise(r record.Request, signer *keypair.KeyBundle) record.Request {
	err := r.Authorise(context.Background(), Policy, signer)
	if nil != err {
		panic(err)
	}
	return r
}

// AppendOnly - an authorised append-only add
func AppendOnly(payload string) record.Request {
	return authorise(record.FromAddAppendOnly(&record.AddAppendOnlyRequest{
		Data: record.AppendOnly{
			Payload:  []byte(payload),
			MetaData: AppendOnlyMeta,
		},
		Created: Now(),
	}), nil)
}

// MailboxData - seal message from sender to receiver
func MailboxData(message string, sender *keypair.KeyBundle, receiver *keypair.KeyBundle) record.MailboxData {
	env, err := confidential.Seal([]byte(message), receiver.Public(), sender)
	if nil != err {
		panic(err)
	}
	return record.MailboxData{
		Envelope:              env,
		MetaData:              MailboxMeta,
		SenderPublicKeyHash:   sender.PublicKeyHash(),
		ReceiverPublicKeyHash: receiver.PublicKeyHash(),
	}
}

// AddMailbox - an authorised mailbox add for existing data
func AddMailbox(data record.MailboxData, sequence uint32, sender *keypair.KeyBundle) record.Request {
	return authorise(record.FromAddMailbox(&record.AddMailboxRequest{
		Data: data,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  Now(),
		},
	}), sender)
}

// RemoveMailbox - an authorised mailbox remove signed by receiver
func RemoveMailbox(data record.MailboxData, sequence uint32, receiver *keypair.KeyBundle) record.Request {
	return authorise(record.FromRemoveMailbox(&record.RemoveMailboxRequest{
		Target: record.Target{
			Hash:     data.Hash(),
			MetaData: data.MetaData,
		},
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  Now(),
		},
	}), receiver)
}

// AuthenticatedData - owner signed payload
func AuthenticatedData(payload string, owner *keypair.KeyBundle) record.AuthenticatedData {
	return record.AuthenticatedData{
		Payload:            []byte(payload),
		MetaData:           AuthenticatedMeta,
		OwnerPublicKeyHash: owner.PublicKeyHash(),
	}
}

// AddAuthenticated - an authorised authenticated add
func AddAuthenticated(data record.AuthenticatedData, sequence uint32, owner *keypair.KeyBundle) record.Request {
	return authorise(record.FromAddAuthenticated(&record.AddAuthenticatedRequest{
		Data: data,
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  Now(),
		},
	}), owner)
}

// RemoveAuthenticated - an authorised authenticated remove
func RemoveAuthenticated(data record.AuthenticatedData, sequence uint32, owner *keypair.KeyBundle) record.Request {
	return authorise(record.FromRemoveAuthenticated(&record.RemoveAuthenticatedRequest{
		Target: record.Target{
			Hash:     data.Hash(),
			MetaData: data.MetaData,
		},
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  Now(),
		},
	}), owner)
}

// RefreshAuthenticated - an authorised authenticated refresh
func RefreshAuthenticated(data record.AuthenticatedData, sequence uint32, owner *keypair.KeyBundle) record.Request {
	return authorise(record.FromRefreshAuthenticated(&record.RefreshAuthenticatedRequest{
		Target: record.Target{
			Hash:     data.Hash(),
			MetaData: data.MetaData,
		},
		Authorisation: record.Authorisation{
			Sequence: sequence,
			Created:  Now(),
		},
	}), owner)
}
