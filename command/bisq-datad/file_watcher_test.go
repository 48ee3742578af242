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

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/background"
	"github.com/bisq-network/datastore/fault"
)

func received(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestFileWatcher(t *testing.T) {
	fileName, cleanup := writeConfiguration(t, "return {}")
	defer cleanup()

	channels := newWatcherChannel()
	w, err := newFileWatcher(fileName, logger.New("test"), channels)
	require.NoError(t, err)

	bg := background.Start(background.Processes{w}, nil)
	defer bg.Stop()
	time.Sleep(100 * time.Millisecond)

	// a different file in the same directory is ignored
	other := filepath.Join(filepath.Dir(fileName), "other")
	require.NoError(t, ioutil.WriteFile(other, []byte("x"), 0600))
	assert.False(t, received(channels.change, 200*time.Millisecond), "other file")

	require.NoError(t, ioutil.WriteFile(fileName, []byte("return { }"), 0600))
	assert.True(t, received(channels.change, 5*time.Second), "change")

	require.NoError(t, os.Remove(fileName))
	assert.True(t, received(channels.remove, 5*time.Second), "remove")
}

func TestFileWatcherMissingFile(t *testing.T) {
	_, err := newFileWatcher("/does/not/exist.conf", logger.New("test"), newWatcherChannel())
	assert.Equal(t, fault.ErrNotFound, err)
}

func TestSendEventDropsWhenFull(t *testing.T) {
	w := &FileWatcher{log: logger.New("test")}
	ch := make(chan struct{}, 1)

	assert.False(t, isChannelFull(ch))
	w.sendEvent(ch, "test")
	assert.True(t, isChannelFull(ch))

	// second event is discarded rather than blocking
	w.sendEvent(ch, "test")
	assert.Equal(t, 1, len(ch))
}
