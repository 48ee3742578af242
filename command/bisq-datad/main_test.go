// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/fixtures"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

const testConfiguration = `
local M = {}
M.data_directory = "."
M.reload_delay = 0
M.persistence = { backend = "memory" }
M.proof_of_work = { min_bits = 2, max_bits = 6, bytes_per_bit = 256 }
M.inventory = { max_size = 4096 }
M.stores = {
    { family = "appendonly", type_name = "AccountAgeWitness", max_size = 1024, priority = 1 },
    { family = "mailbox", type_name = "MailboxMessage", ttl = 1296000, max_size = 4096, priority = 2 },
}
M.logging = { levels = { DEFAULT = "critical" } }
return M
`

// write a configuration file into a fresh directory
func writeConfiguration(t *testing.T, text string) (string, func()) {
	dir, err := ioutil.TempDir("", "bisq-datad")
	require.NoError(t, err)
	fileName := filepath.Join(dir, "bisq-datad.conf")
	require.NoError(t, ioutil.WriteFile(fileName, []byte(text), 0600))
	return fileName, func() {
		os.RemoveAll(dir)
	}
}

func waitFor(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}
