// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bisq-network/datastore/fault"
)

// Database - an open LevelDB and its pools
//
// note all pools must be exported (i.e. initial capital) or Open will fail
type Database struct {
	sync.RWMutex
	db  *leveldb.DB
	log *logger.L

	Snapshots *PoolHandle `prefix:"S"`
	Meta      *PoolHandle `prefix:"M"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const currentVersion = 0x100

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Open - open or create the database at path
func Open(path string, readOnly bool) (*Database, error) {
	log := logger.New("storage")

	db, version, err := getDB(path, readOnly)
	if nil != err {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	// ensure no database downgrade
	if version > currentVersion {
		log.Criticalf("database version: %d > current version: %d", version, currentVersion)
		return nil, fmt.Errorf("database version: %d > current version: %d", version, currentVersion)
	}
	if 0 == version && !readOnly {
		if err := putVersion(db, currentVersion); nil != err {
			return nil, err
		}
	}

	d := &Database{
		db:  db,
		log: log,
	}

	// this will be a struct type
	dbType := reflect.TypeOf(d).Elem()

	// get write access by using pointer + Elem()
	dbValue := reflect.ValueOf(d).Elem()

	// scan each pool field
	for i := 0; i < dbType.NumField(); i += 1 {
		fieldInfo := dbType.Field(i)

		prefixTag, isPool := fieldInfo.Tag.Lookup("prefix")
		if !isPool {
			continue
		}
		if 1 != len(prefixTag) {
			return nil, fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		p := &PoolHandle{
			prefix:   prefix,
			limit:    limit,
			database: d,
		}
		dbValue.Field(i).Set(reflect.ValueOf(p))
	}

	log.Infof("opened: %s", path)
	ok = true // prevent db close
	return d, nil
}

// Close - close the database, pools become unusable
func (d *Database) Close() error {
	d.Lock()
	defer d.Unlock()

	if nil == d.db {
		return fault.ErrNotInitialised
	}
	err := d.db.Close()
	d.db = nil
	d.log.Info("closed")
	return err
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(version))

	return db.Put(versionKey, v, nil)
}
