// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence_test

import (
	"encoding/binary"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/fixtures"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/persistence/mocks"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

// poll until condition holds or the timeout expires
func waitFor(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}

type state struct {
	version uint64
}

func (s *state) snapshot() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, atomic.LoadUint64(&s.version))
	return b
}

func (s *state) change() {
	atomic.AddUint64(&s.version, 1)
}

func TestWriterCoalesces(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	s := &state{}

	w, err := persistence.NewWriter("coalesce", backend, 300*time.Millisecond, s.snapshot, nil)
	require.NoError(t, err)
	w.Start()

	for i := 0; i < 100; i += 1 {
		s.change()
		w.Request()
	}

	assert.True(t, waitFor(time.Second, func() bool { return w.Writes() >= 1 }), "no write")
	time.Sleep(50 * time.Millisecond)
	assert.True(t, w.Writes() <= 2, "writes were not coalesced: %d", w.Writes())

	// the latest state is on disk within one interval
	assert.True(t, waitFor(time.Second, func() bool {
		blob, err := backend.Load("coalesce")
		return nil == err && 100 == binary.BigEndian.Uint64(blob)
	}), "latest state not written")

	assert.NoError(t, w.Stop())
}

func TestStopFlushes(t *testing.T) {
	backend := persistence.NewMemoryBackend()
	s := &state{}

	w, err := persistence.NewWriter("flush", backend, time.Hour, s.snapshot, nil)
	require.NoError(t, err)
	w.Start()

	s.change()
	w.Request()
	assert.True(t, waitFor(time.Second, func() bool { return 1 == w.Writes() }), "first write")

	// throttled for an hour, so only Stop can write this
	s.change()
	w.Request()
	assert.NoError(t, w.Stop())

	blob, err := backend.Load("flush")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), binary.BigEndian.Uint64(blob))
	assert.Equal(t, uint64(2), w.Writes())
}

func TestFailedWriteRetries(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	m := mocks.NewMockBackend(ctl)
	first := m.EXPECT().Save("retry", gomock.Any()).Return(errors.New("disk full")).Times(1)
	m.EXPECT().Save("retry", gomock.Any()).Return(nil).After(first).MinTimes(1)

	s := &state{}
	w, err := persistence.NewWriter("retry", m, 10*time.Millisecond, s.snapshot, nil)
	require.NoError(t, err)
	w.Start()

	s.change()
	w.Request()

	assert.True(t, waitFor(2*time.Second, func() bool { return 1 == w.Writes() }), "no retry")
	assert.Equal(t, uint64(1), w.Failures())
	assert.NoError(t, w.Stop())
}

func TestNewWriterParameters(t *testing.T) {
	s := &state{}
	_, err := persistence.NewWriter("x", nil, time.Second, s.snapshot, nil)
	assert.Equal(t, fault.ErrBackendNotConfigured, err)

	_, err = persistence.NewWriter("", persistence.NewMemoryBackend(), time.Second, s.snapshot, nil)
	assert.Equal(t, fault.ErrMissingParameters, err)
}

func TestFileBackend(t *testing.T) {
	dir, err := ioutil.TempDir("", "persistence")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	f, err := persistence.NewFileBackend(filepath.Join(dir, "stores"))
	require.NoError(t, err)

	_, err = f.Load("mailbox-MailboxMessage")
	assert.Equal(t, fault.ErrNotFound, err)

	require.NoError(t, f.Save("mailbox-MailboxMessage", []byte("one")))
	require.NoError(t, f.Save("mailbox-MailboxMessage", []byte("two")))

	blob, err := f.Load("mailbox-MailboxMessage")
	require.NoError(t, err)
	assert.Equal(t, "two", string(blob))

	path := f.Path("mailbox-MailboxMessage")
	backup, err := ioutil.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "one", string(backup))

	// interrupted save: only the backup is left
	require.NoError(t, os.Remove(path))
	blob, err = f.Load("mailbox-MailboxMessage")
	require.NoError(t, err)
	assert.Equal(t, "one", string(blob))
}

func TestFileBackendKeyIsSanitised(t *testing.T) {
	dir, err := ioutil.TempDir("", "persistence")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	f, err := persistence.NewFileBackend(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_b_c.store"), f.Path("a/b:c"))
}

func TestMemoryBackendCopies(t *testing.T) {
	m := persistence.NewMemoryBackend()
	blob := []byte("abc")
	require.NoError(t, m.Save("k", blob))
	blob[0] = 'x'

	loaded, err := m.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(loaded))
}
