// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/bisq-network/datastore/fault"
)

// file name suffixes
const (
	storeSuffix  = ".store"
	backupSuffix = ".bak"
	tmpSuffix    = ".tmp"
)

// FileBackend - one file per store in a directory
//
// a save writes a temporary file, syncs it and renames it over the
// previous snapshot which is first kept as a backup
type FileBackend struct {
	directory string
}

// NewFileBackend - create the directory if necessary
func NewFileBackend(directory string) (*FileBackend, error) {
	if "" == directory {
		return nil, fault.ErrMissingParameters
	}
	if err := os.MkdirAll(directory, 0700); nil != err {
		return nil, errors.Wrapf(err, "create store directory: %q", directory)
	}
	return &FileBackend{
		directory: directory,
	}, nil
}

// Path - file holding the snapshot for key
func (f *FileBackend) Path(key string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, key)
	return filepath.Join(f.directory, name+storeSuffix)
}

// Save - atomically replace the snapshot for key
func (f *FileBackend) Save(key string, blob []byte) error {
	path := f.Path(key)
	tmp := path + tmpSuffix

	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if nil != err {
		return errors.Wrapf(err, "open: %q", tmp)
	}
	_, err = fh.Write(blob)
	if nil == err {
		err = fh.Sync()
	}
	if closeErr := fh.Close(); nil == err {
		err = closeErr
	}
	if nil != err {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "write: %q", tmp)
	}

	if _, err := os.Stat(path); nil == err {
		if err := os.Rename(path, path+backupSuffix); nil != err {
			return errors.Wrapf(err, "backup: %q", path)
		}
	}
	if err := os.Rename(tmp, path); nil != err {
		return errors.Wrapf(err, "rename: %q", tmp)
	}
	return nil
}

// Load - read the snapshot for key
//
// falls back to the backup if the snapshot itself is missing, which
// happens if a crash interrupted a save between its two renames
func (f *FileBackend) Load(key string) ([]byte, error) {
	path := f.Path(key)
	for _, name := range []string{path, path + backupSuffix} {
		blob, err := ioutil.ReadFile(name)
		if nil == err {
			return blob, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read: %q", name)
		}
	}
	return nil, fault.ErrNotFound
}
