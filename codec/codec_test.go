// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/fault"
)

func TestWalk(t *testing.T) {
	b := codec.AppendBytes(nil, 1, []byte("abc"))
	b = codec.AppendVarint(b, 2, 300)
	b = protowire.AppendTag(b, 3, protowire.Fixed32Type) // skipped
	b = protowire.AppendFixed32(b, 7)
	b = codec.AppendString(b, 4, "type")

	var fields []codec.Field
	err := codec.Walk(b, func(f codec.Field) error {
		fields = append(fields, f)
		return nil
	})
	assert.NoError(t, err)
	if assert.Len(t, fields, 3) {
		assert.Equal(t, []byte("abc"), fields[0].Bytes)
		assert.Equal(t, uint64(300), fields[1].Varint)
		assert.Equal(t, protowire.Number(4), fields[2].Number)
		assert.Equal(t, "type", string(fields[2].Bytes))
	}
}

func TestZeroValuesOmitted(t *testing.T) {
	b := codec.AppendBytes(nil, 1, nil)
	b = codec.AppendVarint(b, 2, 0)
	b = codec.AppendString(b, 3, "")
	assert.Empty(t, b)
}

func TestTruncated(t *testing.T) {
	b := codec.AppendBytes(nil, 1, []byte("abcdef"))
	err := codec.Walk(b[:len(b)-2], func(f codec.Field) error {
		return nil
	})
	assert.Equal(t, fault.ErrTruncatedRecord, err)
}

func TestCallbackError(t *testing.T) {
	b := codec.AppendVarint(nil, 9, 1)
	err := codec.Walk(b, func(f codec.Field) error {
		return fault.ErrUnknownField
	})
	assert.Equal(t, fault.ErrUnknownField, err)
}
