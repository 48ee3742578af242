// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dataservice

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/record"
)

//go:generate mockgen -source=broadcast.go -destination=mocks/broadcaster.go -package=mocks

// Broadcaster - the transport layer as seen by the service
type Broadcaster interface {
	Peers() []string
	Send(ctx context.Context, peer string, req record.Request) error
}

// BroadcastResult - outcome of sending one request to every peer
//
// failures are reported, not retried
type BroadcastResult struct {
	Hash     digest.Digest
	Peers    int
	Failures map[string]error
}

// Succeeded - number of peers that took the request
func (r BroadcastResult) Succeeded() int {
	return r.Peers - len(r.Failures)
}

// Broadcast - send req to every connected peer except from
func (s *Service) Broadcast(ctx context.Context, from string, req record.Request) BroadcastResult {
	result := BroadcastResult{
		Hash:     req.Hash(),
		Failures: make(map[string]error),
	}
	if nil == s.transport {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.BroadcastTimeout)
	defer cancel()

	lock := sync.Mutex{}
	g := errgroup.Group{}
	for _, peer := range s.transport.Peers() {
		if peer == from {
			continue
		}
		peer := peer
		result.Peers += 1
		g.Go(func() error {
			err := s.transport.Send(ctx, peer, req)
			if nil != err {
				lock.Lock()
				result.Failures[peer] = err
				lock.Unlock()
			}
			return err
		})
	}
	if err := g.Wait(); nil != err {
		s.log.Debugf("broadcast: %s  peers: %d  failed: %d  first error: %s",
			result.Hash.Short(), result.Peers, len(result.Failures), err)
	}
	return result
}

// relay - background process sending queued requests
type relay struct {
	s *Service
}

// Run - broadcast until shutdown
func (r *relay) Run(args interface{}, shutdown <-chan struct{}) {
	log := r.s.log
	log.Info("relay: starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	queue := r.s.queue.Chan()
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item, ok := <-queue:
			if !ok {
				break loop
			}
			req, ok := item.Item.(record.Request)
			if !ok {
				log.Errorf("relay: unexpected item: %T", item.Item)
				continue loop
			}
			result := r.s.Broadcast(ctx, item.From, req)
			log.Debugf("relay: %s %s  sent: %d/%d", req.Kind, result.Hash.Short(), result.Succeeded(), result.Peers)
		}
	}
	log.Info("relay: stopped")
}
