// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/urfave/cli"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/storage"
)

type snapshotResult struct {
	Key    string    `json:"key"`
	Saved  time.Time `json:"saved"`
	Length uint64    `json:"length"`
}

func runList(c *cli.Context) error {
	m := getMetadata(c)

	directory := c.String("leveldb")
	if "" == directory {
		return fault.ErrMissingParameters
	}

	database, err := storage.Open(directory, storage.ReadOnly)
	if nil != err {
		return err
	}
	defer database.Close()

	backend := database.Backend()
	keys, err := backend.Keys()
	if nil != err {
		return err
	}

	result := make([]snapshotResult, 0, len(keys))
	for _, key := range keys {
		info, err := backend.Info(key)
		if nil != err {
			return err
		}
		result = append(result, snapshotResult{
			Key:    key,
			Saved:  info.Saved.UTC(),
			Length: info.Length,
		})
	}

	return printJson(m.w, result)
}
