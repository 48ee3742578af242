// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/record"
)

type tagType byte

// record types in a snapshot
const (
	taggedBOF   tagType = iota
	taggedEOF   tagType = iota
	taggedMeta  tagType = iota
	taggedEntry tagType = iota
)

// the BOF tag to check file version
// exact match is required
var bofData = []byte("bisq-store v1.0")

// largest single record accepted when reading
const maximumRecordLength = 64 * 1024 * 1024

// encode a complete store: BOF, META, one ENTRY per hash, EOF
func encodeSnapshot(meta record.MetaData, entries []entry) []byte {
	buffer := &bytes.Buffer{}

	writeRecord(buffer, taggedBOF, bofData)
	writeRecord(buffer, taggedMeta, meta.Marshal())
	for _, e := range entries {
		writeRecord(buffer, taggedEntry, e.marshal())
	}
	writeRecord(buffer, taggedEOF, []byte("EOF"))

	return buffer.Bytes()
}

// decode a snapshot, the metadata must match exactly
func decodeSnapshot(blob []byte, meta record.MetaData) ([]entry, error) {
	stored, entries, err := readSnapshot(blob)
	if nil != err {
		return nil, err
	}
	if stored != meta {
		return nil, fault.ErrMetaDataMismatch
	}
	return entries, nil
}

// ReadSnapshot - decode a persisted store for inspection
func ReadSnapshot(blob []byte) (record.MetaData, []Item, error) {
	meta, entries, err := readSnapshot(blob)
	if nil != err {
		return record.MetaData{}, nil, err
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.item(e.request.Hash()))
	}
	return meta, items, nil
}

func readSnapshot(blob []byte) (record.MetaData, []entry, error) {
	r := bytes.NewReader(blob)
	meta := record.MetaData{}

	// must have BOF record first
	tag, packed, err := readRecord(r)
	if nil != err {
		return meta, nil, err
	}
	if taggedBOF != tag || !bytes.Equal(bofData, packed) {
		return meta, nil, fault.ErrSnapshotBOF
	}

	entries := make([]entry, 0, 64)
	metaSeen := false

restore_loop:
	for {
		tag, packed, err := readRecord(r)
		if nil != err {
			return meta, nil, err
		}
		switch tag {

		case taggedEOF:
			break restore_loop

		case taggedMeta:
			meta, err = record.UnmarshalMetaData(packed)
			if nil != err {
				return meta, nil, err
			}
			metaSeen = true

		case taggedEntry:
			if !metaSeen {
				return meta, nil, fault.ErrSnapshotUnexpectedTag
			}
			e, err := unmarshalEntry(packed)
			if nil != err {
				return meta, nil, err
			}
			entries = append(entries, e)

		default:
			return meta, nil, fault.ErrSnapshotUnexpectedTag
		}
	}

	if !metaSeen {
		return meta, nil, fault.ErrInvalidMetaData
	}
	return meta, entries, nil
}

// write a tagged record: tag ‖ uint32 length ‖ data
func writeRecord(buffer *bytes.Buffer, tag tagType, packed []byte) {
	buffer.WriteByte(byte(tag))
	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(packed)))
	buffer.Write(count)
	buffer.Write(packed)
}

func readRecord(r io.Reader) (tagType, []byte, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); nil != err {
		return taggedEOF, nil, fault.ErrSnapshotTruncated
	}

	count := binary.BigEndian.Uint32(header[1:])
	if count > maximumRecordLength {
		return taggedEOF, nil, fault.ErrRecordTooLong
	}

	buffer := make([]byte, count)
	if _, err := io.ReadFull(r, buffer); nil != err {
		return taggedEOF, nil, fault.ErrSnapshotTruncated
	}
	return tagType(header[0]), buffer, nil
}

// entry wire form
func (e entry) marshal() []byte {
	b := codec.AppendVarint(nil, 1, uint64(e.sequence))
	b = codec.AppendBytes(b, 2, e.request.Marshal())
	if nil != e.refresh {
		b = codec.AppendBytes(b, 3, e.refresh.Marshal())
	}
	return b
}

func unmarshalEntry(b []byte) (entry, error) {
	e := entry{}
	err := codec.Walk(b, func(f codec.Field) error {
		switch f.Number {
		case 1:
			e.sequence = uint32(f.Varint)
		case 2:
			r, err := record.Unmarshal(f.Bytes)
			if nil != err {
				return err
			}
			e.request = r
		case 3:
			r, err := record.Unmarshal(f.Bytes)
			if nil != err {
				return err
			}
			e.refresh = &r
		}
		return nil
	})
	if nil != err {
		return entry{}, err
	}
	if record.InvalidKind == e.request.Kind {
		return entry{}, fault.ErrTruncatedRecord
	}
	return e, nil
}
