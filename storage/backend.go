// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bisq-network/datastore/fault"
)

const snapshotInfoLength = 16

// SnapshotInfo - details recorded with every saved snapshot
type SnapshotInfo struct {
	Saved  time.Time
	Length uint64
}

// Backend - the persistence view of the database
//
// a snapshot and its info are written in one batch
type Backend struct {
	database *Database
}

// Backend - adapter for persistence.Writer
func (d *Database) Backend() *Backend {
	return &Backend{
		database: d,
	}
}

// Save - store the latest snapshot for key
func (b *Backend) Save(key string, blob []byte) error {
	d := b.database
	d.RLock()
	defer d.RUnlock()

	if nil == d.db {
		return fault.ErrNotInitialised
	}

	info := make([]byte, snapshotInfoLength)
	binary.BigEndian.PutUint64(info[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint64(info[8:], uint64(len(blob)))

	batch := new(leveldb.Batch)
	batch.Put(d.Snapshots.prefixKey([]byte(key)), blob)
	batch.Put(d.Meta.prefixKey([]byte(key)), info)

	if err := d.db.Write(batch, nil); nil != err {
		return errors.Wrapf(err, "save snapshot: %q", key)
	}
	return nil
}

// Load - the latest snapshot for key, fault.ErrNotFound if none
func (b *Backend) Load(key string) ([]byte, error) {
	blob, err := b.database.Snapshots.Get([]byte(key))
	if nil != err && fault.ErrNotFound != err {
		return nil, errors.Wrapf(err, "load snapshot: %q", key)
	}
	return blob, err
}

// Info - details of the latest snapshot for key
func (b *Backend) Info(key string) (SnapshotInfo, error) {
	info, err := b.database.Meta.Get([]byte(key))
	if nil != err {
		return SnapshotInfo{}, err
	}
	if snapshotInfoLength != len(info) {
		return SnapshotInfo{}, fault.ErrTruncatedRecord
	}
	return SnapshotInfo{
		Saved:  time.Unix(0, int64(binary.BigEndian.Uint64(info[:8]))),
		Length: binary.BigEndian.Uint64(info[8:]),
	}, nil
}

// Keys - all stores with a saved snapshot
func (b *Backend) Keys() ([]string, error) {
	elements, err := b.database.Snapshots.Elements()
	if nil != err {
		return nil, err
	}
	keys := make([]string, len(elements))
	for i, e := range elements {
		keys[i] = string(e.Key)
	}
	return keys, nil
}
