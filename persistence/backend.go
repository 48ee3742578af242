// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import (
	"sync"

	"github.com/bisq-network/datastore/fault"
)

//go:generate mockgen -source=backend.go -destination=mocks/backend.go -package=mocks

// Backend - durable key to blob map holding one snapshot per store
//
// Load returns fault.ErrNotFound if nothing was saved under key
type Backend interface {
	Save(key string, blob []byte) error
	Load(key string) ([]byte, error)
}

// MemoryBackend - keeps snapshots in memory, for tests and for nodes
// that do not need to survive a restart
type MemoryBackend struct {
	sync.Mutex
	blobs map[string][]byte
}

// NewMemoryBackend - empty backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		blobs: make(map[string][]byte),
	}
}

// Save - replace the blob for key
func (m *MemoryBackend) Save(key string, blob []byte) error {
	m.Lock()
	defer m.Unlock()
	m.blobs[key] = append([]byte{}, blob...)
	return nil
}

// Load - copy of the blob for key
func (m *MemoryBackend) Load(key string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return append([]byte{}, blob...), nil
}
