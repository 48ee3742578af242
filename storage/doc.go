// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - a LevelDB database holding store snapshots
//
// The database is split into pools. Each pool is defined by a prefix
// byte obtained from the prefix tag in the Database struct.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. store key    = "<kind>-<type name>" as UTF-8 bytes
//
// Snapshots:
//
//   S ++ store key             - latest snapshot of a store
//                                data: tagged snapshot file
//
// Meta:
//
//   M ++ store key             - details of the latest snapshot
//                                data: saved time(big endian int64, unix ns) ++ snapshot length(big endian uint64)
package storage
