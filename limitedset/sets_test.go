// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package limitedset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/limitedset"
)

func d(s string) digest.Digest {
	return digest.NewDigest([]byte(s))
}

func TestAddition(t *testing.T) {
	items := []string{
		"0123456789",
		"abcdefghijklmnopqrstuvwxyz",
		"abcdefg",
		"abcdefg",
		"abcdefg",
		"hijklmn",
		"opqrstu",
		"vwxyzab",
		"cdefghi",
		"jklmnop",
		"qrstuvw",
	}
	expected := []string{
		"opqrstu",
		"vwxyzab",
		"cdefghi",
		"jklmnop",
		"qrstuvw",
	}
	check(t, items, expected)
}

// re-adding an item refreshes it so it survives longer
func TestRefresh(t *testing.T) {
	items := []string{
		"a", "b", "c",
		"a", // oldest of a full ring
		"d",
		"a", // middle
		"e",
	}
	expected := []string{"a", "d", "e"}
	check(t, items, expected)
}

func TestAddReportsNew(t *testing.T) {
	ls := limitedset.New(4)
	assert.True(t, ls.Add(d("x")), "first add")
	assert.False(t, ls.Add(d("x")), "second add")
	assert.Equal(t, 1, ls.Len())
}

// add a list of items and check that all the expected ones are present
// and that every other item was forgotten
func check(t *testing.T, items []string, expected []string) {
	ls := limitedset.New(len(expected))
	for _, item := range items {
		ls.Add(d(item))
	}

	wanted := make(map[string]bool)
	for _, e := range expected {
		wanted[e] = true
		assert.True(t, ls.Exists(d(e)), "missing: %q", e)
	}
	for _, item := range items {
		if !wanted[item] {
			assert.False(t, ls.Exists(d(item)), "unexpected: %q", item)
		}
	}
	assert.Equal(t, len(expected), ls.Len())
}
