// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - the content hash that is the sole primary key of
// every stored record
package digest

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/bisq-network/datastore/fault"
)

// Length - number of bytes in the digest
const Length = 32

// Digest - SHA3-256 of a record's canonical serialized form
//
// to convert to bytes just use d[:]
type Digest [Length]byte

// NewDigest - create a digest from a serialized record
func NewDigest(serialized []byte) Digest {
	return sha3.Sum256(serialized)
}

// FromBytes - convert and validate a binary byte slice to a digest
func FromBytes(digest *Digest, buffer []byte) error {
	if Length != len(buffer) {
		return fault.ErrWrongDigestLength
	}
	copy(digest[:], buffer)
	return nil
}

// IsZero - true for the all zero digest
func (digest Digest) IsZero() bool {
	return digest == Digest{}
}

// Less - byte wise ordering, used to make listings deterministic
func (digest Digest) Less(other Digest) bool {
	return bytes.Compare(digest[:], other[:]) < 0
}

// String - hex value for the fmt package (for %s)
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// GoString - for the %#v format
func (digest Digest) GoString() string {
	return "<SHA3-256:" + hex.EncodeToString(digest[:]) + ">"
}

// Short - abbreviated form for log lines
func (digest Digest) Short() string {
	return hex.EncodeToString(digest[:4])
}

// Scan - convert a hex representation to a digest for use by the format package scan routines
func (digest *Digest) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
	})
	if nil != err {
		return err
	}
	return digest.UnmarshalText(token)
}

// MarshalText - convert digest to hex text
func (digest Digest) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(digest)))
	hex.Encode(buffer, digest[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	if Length != hex.DecodedLen(len(s)) {
		return fault.ErrWrongDigestLength
	}
	_, err := hex.Decode(digest[:], s)
	return err
}
