// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/pkg/errors"

	"github.com/bisq-network/datastore/configuration"
	"github.com/bisq-network/datastore/dataservice"
	"github.com/bisq-network/datastore/inventory"
	"github.com/bisq-network/datastore/persistence"
	"github.com/bisq-network/datastore/pow"
	"github.com/bisq-network/datastore/record"
	"github.com/bisq-network/datastore/store"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultBackend         = backendFile
	defaultStoreDirectory  = "stores"
	defaultLevelDBDatabase = "stores.leveldb"

	defaultIntervalMs     = 1000
	defaultPruneInterval  = 60
	defaultMaxBytes       = store.DefaultMaxBytes
	defaultMetricsPrefix  = "bisq_datastore"
	defaultReloadDelaySec = 5

	defaultLogDirectory = "log"
	defaultLogFile      = "bisq-datad.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// persistence backends
const (
	backendFile    = "file"
	backendLevelDB = "leveldb"
	backendMemory  = "memory"
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type PersistenceType struct {
	Backend       string `gluamapper:"backend" json:"backend"`
	Directory     string `gluamapper:"directory" json:"directory"`
	IntervalMs    int    `gluamapper:"interval_ms" json:"interval_ms"`
	PruneInterval int    `gluamapper:"prune_interval" json:"prune_interval"`
}

type StorageType struct {
	MaxBytes  uint64 `gluamapper:"max_bytes" json:"max_bytes"`
	MaxStores int    `gluamapper:"max_stores" json:"max_stores"`
}

type ProofOfWorkType struct {
	MinBits     int `gluamapper:"min_bits" json:"min_bits"`
	MaxBits     int `gluamapper:"max_bits" json:"max_bits"`
	BytesPerBit int `gluamapper:"bytes_per_bit" json:"bytes_per_bit"`
}

type InventoryType struct {
	MaxSize          int `gluamapper:"max_size" json:"max_size"`
	MaxFilterEntries int `gluamapper:"max_filter_entries" json:"max_filter_entries"`
}

// one record type known to this node
type StoreType struct {
	Family   string `gluamapper:"family" json:"family"`
	TypeName string `gluamapper:"type_name" json:"type_name"`
	TTL      int    `gluamapper:"ttl" json:"ttl"` // seconds, zero: never expires
	MaxSize  int    `gluamapper:"max_size" json:"max_size"`
	Priority int    `gluamapper:"priority" json:"priority"`
}

type MetricsType struct {
	Listen    string `gluamapper:"listen" json:"listen"`
	Namespace string `gluamapper:"namespace" json:"namespace"`
	LogPeriod int    `gluamapper:"log_period" json:"log_period"` // seconds, zero: disabled
}

type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	ProfileHTTP   string               `gluamapper:"profile_http" json:"profile_http"`
	ReloadDelay   int                  `gluamapper:"reload_delay" json:"reload_delay"`
	Persistence   PersistenceType      `gluamapper:"persistence" json:"persistence"`
	Storage       StorageType          `gluamapper:"storage" json:"storage"`
	ProofOfWork   ProofOfWorkType      `gluamapper:"proof_of_work" json:"proof_of_work"`
	Inventory     InventoryType        `gluamapper:"inventory" json:"inventory"`
	Stores        []StoreType          `gluamapper:"stores" json:"stores"`
	Metrics       MetricsType          `gluamapper:"metrics" json:"metrics"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	policy := pow.DefaultPolicy()
	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		ReloadDelay:   defaultReloadDelaySec,

		Persistence: PersistenceType{
			Backend:       defaultBackend,
			Directory:     defaultStoreDirectory,
			IntervalMs:    defaultIntervalMs,
			PruneInterval: defaultPruneInterval,
		},

		Storage: StorageType{
			MaxBytes:  defaultMaxBytes,
			MaxStores: dataservice.DefaultMaxStores,
		},

		ProofOfWork: ProofOfWorkType{
			MinBits:     int(policy.MinBits),
			MaxBits:     int(policy.MaxBits),
			BytesPerBit: policy.BytesPerBit,
		},

		Inventory: InventoryType{
			MaxSize:          inventory.DefaultMaxSize,
			MaxFilterEntries: inventory.MaxFilterEntries,
		},

		Metrics: MetricsType{
			Namespace: defaultMetricsPrefix,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	options.DataDirectory = filepath.Clean(options.DataDirectory)

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory", options.DataDirectory)
	}

	switch options.Persistence.Backend {
	case backendFile, backendMemory:
	case backendLevelDB:
		if defaultStoreDirectory == options.Persistence.Directory {
			options.Persistence.Directory = defaultLevelDBDatabase
		}
	default:
		return nil, fmt.Errorf("Backend: %q is not one of: file, leveldb or memory", options.Persistence.Backend)
	}

	if _, err := options.policy(); nil != err {
		return nil, errors.Wrap(err, "proof_of_work")
	}

	if _, err := options.storeTypes(); nil != err {
		return nil, err
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = configuration.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = configuration.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("Files: %q is not plain name", *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Logging.Directory,
		&options.Persistence.Directory,
	} {
		*d = configuration.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// proof of work policy from its configuration section
func (c *Configuration) policy() (pow.Policy, error) {
	p := pow.Policy{
		MinBits:     uint8(c.ProofOfWork.MinBits),
		MaxBits:     uint8(c.ProofOfWork.MaxBits),
		BytesPerBit: c.ProofOfWork.BytesPerBit,
	}
	if c.ProofOfWork.MinBits < 0 || c.ProofOfWork.MaxBits > pow.MaximumBits {
		return p, errors.New("bits out of range")
	}
	return p, p.Validate()
}

type storeType struct {
	family store.Family
	meta   record.MetaData
}

// validated record types, duplicate type names are rejected
func (c *Configuration) storeTypes() ([]storeType, error) {
	seen := make(map[string]struct{})
	types := make([]storeType, 0, len(c.Stores))
	for i, st := range c.Stores {
		family, err := store.ParseFamily(st.Family)
		if nil != err {
			return nil, errors.Wrapf(err, "stores[%d]: %q", i, st.Family)
		}
		if st.TTL < 0 || st.MaxSize <= 0 || st.Priority < 0 {
			return nil, errors.Errorf("stores[%d]: invalid limits", i)
		}
		meta := record.MetaData{
			TTL:          time.Duration(st.TTL) * time.Second,
			MaxSizeBytes: uint32(st.MaxSize),
			TypeName:     st.TypeName,
			Priority:     uint32(st.Priority),
		}
		if err := meta.Validate(); nil != err {
			return nil, errors.Wrapf(err, "stores[%d]", i)
		}
		if _, ok := seen[st.TypeName]; ok {
			return nil, errors.Errorf("stores[%d]: duplicate type: %q", i, st.TypeName)
		}
		seen[st.TypeName] = struct{}{}
		types = append(types, storeType{family: family, meta: meta})
	}
	return types, nil
}

// service construction parameters, backend is supplied by the caller
func (c *Configuration) serviceConfig(backend persistence.Backend) (dataservice.Config, error) {
	policy, err := c.policy()
	if nil != err {
		return dataservice.Config{}, err
	}
	return dataservice.Config{
		Policy:           policy,
		MaxBytes:         c.Storage.MaxBytes,
		MaxStores:        c.Storage.MaxStores,
		InventoryMaxSize: c.Inventory.MaxSize,
		MaxFilterEntries: c.Inventory.MaxFilterEntries,
		Backend:          backend,
		Interval:         time.Duration(c.Persistence.IntervalMs) * time.Millisecond,
		PruneInterval:    time.Duration(c.Persistence.PruneInterval) * time.Second,
	}, nil
}
