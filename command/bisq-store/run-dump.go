// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/urfave/cli"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/record"
	"github.com/bisq-network/datastore/storage"
	"github.com/bisq-network/datastore/store"
)

type metaDataResult struct {
	TypeName     string `json:"type_name"`
	TTL          string `json:"ttl"`
	MaxSizeBytes uint32 `json:"max_size_bytes"`
	Priority     uint32 `json:"priority"`
}

type requestResult struct {
	Kind   string `json:"kind"`
	Packed string `json:"packed,omitempty"`
}

type itemResult struct {
	Hash     string          `json:"hash"`
	Sequence uint32          `json:"sequence"`
	Created  time.Time       `json:"created"`
	Removed  bool            `json:"removed"`
	Requests []requestResult `json:"requests"`
}

type dumpResult struct {
	MetaData metaDataResult `json:"metadata"`
	Count    int            `json:"count"`
	Items    []itemResult   `json:"items"`
}

func runDump(c *cli.Context) error {
	m := getMetadata(c)

	fileName := c.String("file")
	directory := c.String("leveldb")
	key := c.String("key")

	var blob []byte
	var err error
	switch {
	case "" != fileName && "" == directory:
		blob, err = ioutil.ReadFile(fileName)
	case "" == fileName && "" != directory && "" != key:
		blob, err = loadSnapshot(directory, key)
	default:
		return fault.ErrMissingParameters
	}
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "snapshot: %d bytes\n", len(blob))
	}

	meta, items, err := store.ReadSnapshot(blob)
	if nil != err {
		return err
	}

	return printJson(m.w, dumpFrom(meta, items, c.Bool("requests")))
}

func dumpFrom(meta record.MetaData, items []store.Item, withRequests bool) dumpResult {
	result := dumpResult{
		MetaData: metaDataResult{
			TypeName:     meta.TypeName,
			TTL:          meta.TTL.String(),
			MaxSizeBytes: meta.MaxSizeBytes,
			Priority:     meta.Priority,
		},
		Count: len(items),
		Items: make([]itemResult, len(items)),
	}
	for i, item := range items {
		requests := make([]requestResult, len(item.Requests))
		for j, req := range item.Requests {
			requests[j].Kind = req.Kind.String()
			if withRequests {
				requests[j].Packed = hex.EncodeToString(req.Marshal())
			}
		}
		result.Items[i] = itemResult{
			Hash:     item.Hash.String(),
			Sequence: item.Sequence,
			Created:  time.Unix(0, item.Created*int64(time.Millisecond)).UTC(),
			Removed:  item.Removed,
			Requests: requests,
		}
	}
	return result
}

func loadSnapshot(directory string, key string) ([]byte, error) {
	database, err := storage.Open(directory, storage.ReadOnly)
	if nil != err {
		return nil, err
	}
	defer database.Close()

	return database.Backend().Load(key)
}
