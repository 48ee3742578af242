// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package digest_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
)

// SHA3-256("abc")
const abcHex = "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"

func TestNewDigest(t *testing.T) {
	d := digest.NewDigest([]byte("abc"))
	assert.Equal(t, abcHex, d.String(), "wrong digest")
	assert.Equal(t, "<SHA3-256:"+abcHex+">", fmt.Sprintf("%#v", d), "wrong go string")
	assert.Equal(t, abcHex[:8], d.Short(), "wrong short form")

	same := digest.NewDigest([]byte("abc"))
	assert.Equal(t, d, same, "digest is not deterministic")

	other := digest.NewDigest([]byte("abd"))
	assert.NotEqual(t, d, other, "different records collided")
}

func TestTextRoundTrip(t *testing.T) {
	d := digest.NewDigest([]byte("text"))

	text, err := d.MarshalText()
	assert.Nil(t, err, "marshal error")

	var back digest.Digest
	err = back.UnmarshalText(text)
	assert.Nil(t, err, "unmarshal error")
	assert.Equal(t, d, back, "round trip mismatch")

	var scanned digest.Digest
	n, err := fmt.Sscan(string(text), &scanned)
	assert.Nil(t, err, "scan error")
	assert.Equal(t, 1, n, "scan count")
	assert.Equal(t, d, scanned, "scan mismatch")
}

func TestFromBytes(t *testing.T) {
	var d digest.Digest
	err := digest.FromBytes(&d, []byte{1, 2, 3})
	assert.Equal(t, fault.ErrWrongDigestLength, err, "short buffer accepted")

	buffer := make([]byte, digest.Length)
	buffer[0] = 0x42
	err = digest.FromBytes(&d, buffer)
	assert.Nil(t, err, "valid buffer rejected")
	assert.Equal(t, byte(0x42), d[0], "copy failed")
	assert.False(t, d.IsZero(), "non-zero digest reported as zero")
	assert.True(t, digest.Digest{}.IsZero(), "zero digest not reported as zero")
}

func TestLess(t *testing.T) {
	a := digest.Digest{0x01}
	b := digest.Digest{0x02}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}
