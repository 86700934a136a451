// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package event implements one-to-many publish/subscribe plumbing. The
// storage synchronizer's default event-subscription notifier uses it to fan
// committed events out to independent subscribers; the mempool and
// storage-service sinks do not go through it.
package event

import "sync"

// Subscription represents a stream of events. The carrier of the events is
// typically a channel, but isn't part of the interface.
//
// Subscriptions can fail while established. Failures are reported through an
// error channel. It is safe to call Unsubscribe multiple times.
type Subscription interface {
	Err() <-chan error // returns a channel that is closed on unsubscribe
	Unsubscribe()       // ends the subscription
}

// NewSubscription runs a producer function as a goroutine and uses it to
// feed events to a subscription. Terminating the producer is left to the
// caller; when it returns, the subscription closes with the producer's
// returned error (if any).
func NewSubscription(producer func(<-chan struct{}) error) Subscription {
	s := &funcSub{unsub: make(chan struct{}), err: make(chan error, 1)}
	go func() {
		defer close(s.err)
		err := producer(s.unsub)
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.unsubscribed {
			if err != nil {
				s.err <- err
			}
			s.unsubscribed = true
		}
	}()
	return s
}

type funcSub struct {
	unsub        chan struct{}
	err          chan error
	mu           sync.Mutex
	unsubscribed bool
}

func (s *funcSub) Unsubscribe() {
	s.mu.Lock()
	if s.unsubscribed {
		s.mu.Unlock()
		return
	}
	s.unsubscribed = true
	close(s.unsub)
	s.mu.Unlock()
	<-s.err
}

func (s *funcSub) Err() <-chan error {
	return s.err
}

// Resubscribe calls fn to keep a subscription established. Each time the
// active subscription fails with an error, Resubscribe calls fn once more;
// it stops for good if fn returns an error or the subscription closes
// without one, and it does not retry or back off. Nothing in this
// repository calls it.
type resubscribeSub struct {
	fn     func() (Subscription, error)
	mu     sync.Mutex
	sub    Subscription
	unsub  chan struct{}
	err    chan error
	closed bool
}

// Resubscribe creates a subscription that attempts to keep itself connected
// by calling fn whenever the active connection is closed.
func Resubscribe(fn func() (Subscription, error)) Subscription {
	s := &resubscribeSub{fn: fn, unsub: make(chan struct{}), err: make(chan error)}
	go s.run()
	return s
}

func (s *resubscribeSub) run() {
	defer close(s.err)
	sub, err := s.fn()
	for {
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			if sub != nil {
				sub.Unsubscribe()
			}
			return
		}
		s.sub = sub
		s.mu.Unlock()

		select {
		case <-s.unsub:
			if sub != nil {
				sub.Unsubscribe()
			}
			return
		case subErr := <-sub.Err():
			if subErr == nil {
				return
			}
			sub, err = s.fn()
		}
	}
}

func (s *resubscribeSub) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.unsub)
	s.mu.Unlock()
	<-s.err
}

func (s *resubscribeSub) Err() <-chan error {
	return s.err
}
