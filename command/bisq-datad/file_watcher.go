// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bisq-network/datastore/fault"
)

// WatcherChannel - signals from the watcher, a full channel drops the
// event since one pending signal is enough to trigger a reload
type WatcherChannel struct {
	change chan struct{}
	remove chan struct{}
}

func newWatcherChannel() WatcherChannel {
	return WatcherChannel{
		change: make(chan struct{}, 1),
		remove: make(chan struct{}, 1),
	}
}

// FileWatcher - watch the directory holding the configuration file
//
// editors often replace a file rather than write it, so the directory
// is watched and events are filtered by name
type FileWatcher struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	channels WatcherChannel
	filePath string
}

func newFileWatcher(targetFile string, log *logger.L, channels WatcherChannel) (*FileWatcher, error) {
	filePath, err := filepath.Abs(filepath.Clean(targetFile))
	if nil != err {
		return nil, err
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fault.ErrNotFound
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	return &FileWatcher{
		log:      log,
		watcher:  watcher,
		channels: channels,
		filePath: filePath,
	}, nil
}

// Run - background process forwarding events until shutdown
func (w *FileWatcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log
	defer w.watcher.Close()

	if err := w.watcher.Add(filepath.Dir(w.filePath)); nil != err {
		log.Errorf("watcher add error: %s, abort", err)
		<-shutdown
		return
	}

	log.Infof("watching: %q", w.filePath)
loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue loop
			}
			log.Debugf("file event: %v", event)

			switch {
			case watcherEventFileRemove(event):
				log.Warnf("file: %q removed", w.filePath)
				w.sendEvent(w.channels.remove, "remove")
			case watcherEventFileChange(event):
				w.sendEvent(w.channels.change, "change")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}
	log.Info("stopped")
}

func isChannelFull(ch chan<- struct{}) bool {
	return len(ch) == cap(ch)
}

func (w *FileWatcher) sendEvent(ch chan<- struct{}, name string) {
	if !isChannelFull(ch) {
		ch <- struct{}{}
	} else {
		w.log.Debugf("event channel %s full, discard event", name)
	}
}

func watcherEventFileRemove(event fsnotify.Event) bool {
	return event.Op&fsnotify.Remove == fsnotify.Remove ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}

func watcherEventFileChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Chmod == fsnotify.Chmod
}
