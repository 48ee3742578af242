// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notify_test

import (
	"os"
	"sync"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fixtures"
	"github.com/bisq-network/datastore/notify"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func event() notify.Event {
	return notify.Event{
		Kind:     notify.Added,
		Hash:     digest.NewDigest([]byte("record")),
		TypeName: "T",
	}
}

func TestExactlyOnce(t *testing.T) {
	l := notify.New(logger.New("test"))

	counts := make([]int, 3)
	for i := range counts {
		n := i
		l.Subscribe(func(e notify.Event) {
			counts[n] += 1
		})
	}

	l.Notify(event())
	assert.Equal(t, []int{1, 1, 1}, counts)
}

func TestCancel(t *testing.T) {
	l := notify.New(logger.New("test"))

	called := 0
	s := l.Subscribe(func(e notify.Event) {
		called += 1
	})
	assert.Equal(t, 1, l.Len())

	s.Cancel()
	s.Cancel()
	assert.Equal(t, 0, l.Len())

	l.Notify(event())
	assert.Equal(t, 0, called)
}

// a listener removed by an earlier handler during dispatch is skipped
func TestCancelDuringDispatch(t *testing.T) {
	l := notify.New(logger.New("test"))

	var second *notify.Subscription
	secondCalled := false

	l.Subscribe(func(e notify.Event) {
		second.Cancel()
	})
	second = l.Subscribe(func(e notify.Event) {
		secondCalled = true
	})

	l.Notify(event())
	assert.False(t, secondCalled, "cancelled listener was notified")
}

// subscribing from inside a handler must not deadlock and the new
// handler only sees later events
func TestSubscribeDuringDispatch(t *testing.T) {
	l := notify.New(logger.New("test"))

	lateCalls := 0
	once := sync.Once{}
	l.Subscribe(func(e notify.Event) {
		once.Do(func() {
			l.Subscribe(func(e notify.Event) {
				lateCalls += 1
			})
		})
	})

	l.Notify(event())
	assert.Equal(t, 0, lateCalls)

	l.Notify(event())
	assert.Equal(t, 1, lateCalls)
}

func TestPanickingHandler(t *testing.T) {
	l := notify.New(logger.New("test"))

	after := false
	l.Subscribe(func(e notify.Event) {
		panic("broken listener")
	})
	l.Subscribe(func(e notify.Event) {
		after = true
	})

	l.Notify(event())
	assert.True(t, after, "panic stopped dispatch")
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "Removed", notify.Removed.String())
	assert.Equal(t, "Unknown", notify.EventKind(9).String())
}
