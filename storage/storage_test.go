// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/fixtures"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/storage"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func open(t *testing.T) (*storage.Database, func()) {
	dir, err := ioutil.TempDir("", "storage")
	require.NoError(t, err)

	d, err := storage.Open(filepath.Join(dir, "test.leveldb"), storage.ReadWrite)
	require.NoError(t, err)

	return d, func() {
		_ = d.Close()
		os.RemoveAll(dir)
	}
}

func TestPools(t *testing.T) {
	d, done := open(t)
	defer done()

	require.NoError(t, d.Snapshots.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, d.Meta.Put([]byte("k1"), []byte("m1")))

	v, err := d.Snapshots.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(v))

	v, err = d.Meta.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, "m1", string(v), "pools are not separated")

	ok, err := d.Snapshots.Has([]byte("k2"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.Snapshots.Get([]byte("k2"))
	assert.Equal(t, fault.ErrNotFound, err)

	require.NoError(t, d.Snapshots.Delete([]byte("k1")))
	_, err = d.Snapshots.Get([]byte("k1"))
	assert.Equal(t, fault.ErrNotFound, err)
}

func TestElements(t *testing.T) {
	d, done := open(t)
	defer done()

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, d.Snapshots.Put([]byte(k), []byte("x"+k)))
	}
	require.NoError(t, d.Meta.Put([]byte("z"), []byte("other pool")))

	elements, err := d.Snapshots.Elements()
	require.NoError(t, err)
	if assert.Len(t, elements, 3) {
		assert.Equal(t, "a", string(elements[0].Key))
		assert.Equal(t, "xa", string(elements[0].Value))
		assert.Equal(t, "c", string(elements[2].Key))
	}
}

func TestBackend(t *testing.T) {
	d, done := open(t)
	defer done()

	var b persistence.Backend = d.Backend()

	_, err := b.Load("appendonly-T")
	assert.Equal(t, fault.ErrNotFound, err)

	require.NoError(t, b.Save("appendonly-T", []byte("snapshot")))
	blob, err := b.Load("appendonly-T")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(blob))

	info, err := d.Backend().Info("appendonly-T")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), info.Length)
	assert.False(t, info.Saved.IsZero())

	keys, err := d.Backend().Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"appendonly-T"}, keys)
}

func TestClosed(t *testing.T) {
	d, done := open(t)
	defer done()

	require.NoError(t, d.Close())
	assert.Equal(t, fault.ErrNotInitialised, d.Snapshots.Put([]byte("k"), nil))
	assert.Equal(t, fault.ErrNotInitialised, d.Close())
}

func TestReopen(t *testing.T) {
	dir, err := ioutil.TempDir("", "storage")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "reopen.leveldb")
	d, err := storage.Open(path, storage.ReadWrite)
	require.NoError(t, err)
	require.NoError(t, d.Backend().Save("k", []byte("kept")))
	require.NoError(t, d.Close())

	d, err = storage.Open(path, storage.ReadOnly)
	require.NoError(t, err)
	defer d.Close()

	blob, err := d.Backend().Load("k")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(blob))
}
