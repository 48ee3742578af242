// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bisq-network/datastore/dataservice"
)

// reloader - apply the live tunables of a changed configuration file
//
// only the proof of work policy, the inventory size cap and new record
// types take effect; everything else needs a restart
type reloader struct {
	fileName string
	delay    time.Duration
	channels WatcherChannel
	service  *dataservice.Service
	log      *logger.L
}

func newReloader(fileName string, delay time.Duration, channels WatcherChannel, service *dataservice.Service) *reloader {
	return &reloader{
		fileName: fileName,
		delay:    delay,
		channels: channels,
		service:  service,
		log:      logger.New("reload"),
	}
}

func (r *reloader) Run(args interface{}, shutdown <-chan struct{}) {
	log := r.log
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-r.channels.remove:
			log.Warn("configuration file removed, keeping current settings")
		case <-r.channels.change:
			// let the writer finish before reading
			select {
			case <-shutdown:
				break loop
			case <-time.After(r.delay):
			}
			// coalesce events that arrived during the delay
			select {
			case <-r.channels.change:
			default:
			}
			if err := r.reload(); nil != err {
				log.Errorf("reload: %q  error: %s", r.fileName, err)
			}
		}
	}
	log.Info("stopped")
}

func (r *reloader) reload() error {
	c, err := getConfiguration(r.fileName)
	if nil != err {
		return err
	}
	return apply(r.log, c, r.service)
}

// apply - push configured tunables and record types into the service
func apply(log *logger.L, c *Configuration, service *dataservice.Service) error {
	policy, err := c.policy()
	if nil != err {
		return err
	}
	if policy != service.Policy() {
		if err := service.SetPolicy(policy); nil != err {
			return err
		}
	}
	service.SetInventoryMaxSize(c.Inventory.MaxSize)

	types, err := c.storeTypes()
	if nil != err {
		return err
	}
	for _, t := range types {
		s, err := service.Register(t.family, t.meta)
		if nil != err {
			// a changed metadata would invalidate the stored
			// records, keep the running store
			log.Errorf("register: %s %s  error: %s", t.family, t.meta, err)
			continue
		}
		log.Infof("store: %s  entries: %d/%d", s.Key(), s.Size(), t.meta.MaxEntries(c.Storage.MaxBytes))
	}
	return nil
}
