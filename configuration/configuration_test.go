// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/configuration"
	"github.com/bisq-network/datastore/fault"
)

type storeType struct {
	Family   string `gluamapper:"family"`
	TypeName string `gluamapper:"type_name"`
	TTL      int    `gluamapper:"ttl"`
}

type testConfiguration struct {
	DataDirectory string      `gluamapper:"data_directory"`
	MaxBytes      uint64      `gluamapper:"max_bytes"`
	Untouched     string      `gluamapper:"untouched"`
	Types         []storeType `gluamapper:"types"`
}

const source = `
local M = {}
M.data_directory = arg and arg[0] or "none"
M.max_bytes = 4 * 1024
M.types = {
    { family = "mailbox", type_name = "MailboxMessage", ttl = 1296000 },
    { family = "authenticated", type_name = "Offer", ttl = 540 },
}
return M
`

func TestParseConfigurationFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "test.conf")
	err = ioutil.WriteFile(fileName, []byte(source), 0600)
	assert.Nil(t, err, "write")

	c := testConfiguration{
		Untouched: "default",
	}
	err = configuration.ParseConfigurationFile(fileName, &c)
	assert.Nil(t, err, "parse")

	assert.Equal(t, fileName, c.DataDirectory, "arg[0]")
	assert.Equal(t, uint64(4096), c.MaxBytes, "max bytes")
	assert.Equal(t, "default", c.Untouched, "default kept")
	assert.Equal(t, []storeType{
		{Family: "mailbox", TypeName: "MailboxMessage", TTL: 1296000},
		{Family: "authenticated", TypeName: "Offer", TTL: 540},
	}, c.Types, "types")
}

func TestParseConfigurationString(t *testing.T) {
	c := testConfiguration{}
	err := configuration.ParseConfigurationString(source, &c)
	assert.Nil(t, err, "parse")
	assert.Equal(t, "none", c.DataDirectory, "no arg table")
	assert.Equal(t, 2, len(c.Types), "types")
}

func TestParseErrors(t *testing.T) {
	c := testConfiguration{}

	err := configuration.ParseConfigurationString(source, c)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a pointer")

	err = configuration.ParseConfigurationString("return {", &c)
	assert.NotNil(t, err, "syntax error")

	err = configuration.ParseConfigurationString("return 42", &c)
	assert.NotNil(t, err, "not a table")

	err = configuration.ParseConfigurationFile("/does/not/exist.conf", &c)
	assert.NotNil(t, err, "missing file")
}

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/log", configuration.EnsureAbsolute("/data", "log"), "relative")
	assert.Equal(t, "/var/log", configuration.EnsureAbsolute("/data", "/var/log/"), "absolute")
	assert.True(t, configuration.EnsureFileExists("/"), "root exists")
	assert.False(t, configuration.EnsureFileExists("/does/not/exist"), "missing")
}
