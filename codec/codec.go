// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package codec - protobuf wire format helpers for hand written records
//
// zero values are omitted on encode so that the serialization of a
// record is canonical: equal records always give equal bytes
package codec

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bisq-network/datastore/fault"
)

// Field - one decoded field; only Bytes or Varint is meaningful,
// selected by Type
type Field struct {
	Number protowire.Number
	Type   protowire.Type
	Bytes  []byte
	Varint uint64
}

// AppendBytes - length delimited field, omitted if empty
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if 0 == len(v) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendString - string field, omitted if empty
func AppendString(b []byte, num protowire.Number, v string) []byte {
	if "" == v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// AppendVarint - unsigned integer field, omitted if zero
func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if 0 == v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// Walk - call fn for each varint and bytes field in order
//
// fields of other wire types are skipped; byte values are copied so
// fn may keep them
func Walk(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fault.ErrTruncatedRecord
		}
		b = b[n:]

		f := Field{
			Number: num,
			Type:   typ,
		}
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fault.ErrTruncatedRecord
			}
			f.Bytes = append([]byte{}, v...)
			b = b[n:]

		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fault.ErrTruncatedRecord
			}
			f.Varint = v
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fault.ErrTruncatedRecord
			}
			b = b[n:]
			continue
		}

		if err := fn(f); nil != err {
			return err
		}
	}
	return nil
}
