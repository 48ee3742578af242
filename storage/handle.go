// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bisq-network/datastore/fault"
)

// PoolHandle - one prefix range of the database
type PoolHandle struct {
	prefix   byte
	limit    []byte
	database *Database
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// Put - store a key/value bytes pair to the database
func (p *PoolHandle) Put(key []byte, value []byte) error {
	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return fault.ErrNotInitialised
	}
	return p.database.db.Put(p.prefixKey(key), value, nil)
}

// Delete - remove a key from the database
func (p *PoolHandle) Delete(key []byte) error {
	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return fault.ErrNotInitialised
	}
	return p.database.db.Delete(p.prefixKey(key), nil)
}

// Get - read a value for a given key
//
// returns fault.ErrNotFound if the key is not present
func (p *PoolHandle) Get(key []byte) ([]byte, error) {
	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return nil, fault.ErrNotInitialised
	}
	value, err := p.database.db.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, fault.ErrNotFound
	}
	return value, err
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) (bool, error) {
	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return false, fault.ErrNotInitialised
	}
	return p.database.db.Has(p.prefixKey(key), nil)
}

// Elements - all items in key order, with the prefix removed
func (p *PoolHandle) Elements() ([]Element, error) {
	maxRange := ldb_util.Range{
		Start: []byte{p.prefix}, // Start of key range, included in the range
		Limit: p.limit,          // Limit of key range, excluded from the range
	}

	p.database.RLock()
	defer p.database.RUnlock()

	if nil == p.database.db {
		return nil, fault.ErrNotInitialised
	}

	iter := p.database.db.NewIterator(&maxRange, nil)
	elements := make([]Element, 0, 16)
	for iter.Next() {

		// contents of the returned slice must not be modified, and are
		// only valid until the next call to Next
		key := iter.Key()
		value := iter.Value()

		dataKey := make([]byte, len(key)-1) // strip the prefix
		copy(dataKey, key[1:])              // ...

		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		elements = append(elements, Element{
			Key:   dataKey,
			Value: dataValue,
		})
	}
	iter.Release()
	return elements, iter.Error()
}
