// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"fmt"
	"time"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/fault"
)

// MetaData - declared limits of a record type
//
// all records of one type share the same metadata; a store persists it
// once and refuses to load a snapshot written with different values
type MetaData struct {
	TTL          time.Duration // zero: never expires
	MaxSizeBytes uint32
	TypeName     string
	Priority     uint32 // higher is sent first in an inventory
}

// Validate - type name and size limit are mandatory
func (m MetaData) Validate() error {
	if "" == m.TypeName || 0 == m.MaxSizeBytes || m.TTL < 0 {
		return fault.ErrInvalidMetaData
	}
	return nil
}

// MaxEntries - number of records of this type that fit in budget bytes
func (m MetaData) MaxEntries(budget uint64) int {
	if 0 == m.MaxSizeBytes {
		return 1
	}
	n := budget / uint64(m.MaxSizeBytes)
	if n < 1 {
		return 1
	}
	return int(n)
}

// IsExpired - a record created at created (unix ms) has outlived its TTL
func (m MetaData) IsExpired(created int64, now time.Time) bool {
	if m.TTL <= 0 {
		return false
	}
	expiry := time.Unix(0, created*int64(time.Millisecond)).Add(m.TTL)
	return now.After(expiry)
}

// String - for logging
func (m MetaData) String() string {
	return fmt.Sprintf("%s(ttl: %s max: %d priority: %d)", m.TypeName, m.TTL, m.MaxSizeBytes, m.Priority)
}

// Marshal - canonical wire form
func (m MetaData) Marshal() []byte {
	b := codec.AppendVarint(nil, 1, uint64(m.TTL/time.Millisecond))
	b = codec.AppendVarint(b, 2, uint64(m.MaxSizeBytes))
	b = codec.AppendString(b, 3, m.TypeName)
	return codec.AppendVarint(b, 4, uint64(m.Priority))
}

// UnmarshalMetaData - inverse of Marshal
func UnmarshalMetaData(b []byte) (MetaData, error) {
	m := MetaData{}
	err := codec.Walk(b, func(f codec.Field) error {
		switch f.Number {
		case 1:
			m.TTL = time.Duration(f.Varint) * time.Millisecond
		case 2:
			m.MaxSizeBytes = uint32(f.Varint)
		case 3:
			m.TypeName = string(f.Bytes)
		case 4:
			m.Priority = uint32(f.Varint)
		}
		return nil
	})
	return m, err
}
