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

package event

import (
	"errors"
	"reflect"
	"sync"
)

var errBadChannel = errors.New("event: Subscribe argument does not have sendable channel type")

// Feed implements one-to-many subscriptions where the carrier of events is
// a channel. Values sent to a Feed are delivered to all subscribed channels,
// one send per subscriber, blocking until every subscriber has received (or
// been removed). The zero value is ready to use.
type Feed struct {
	once sync.Once
	mu   sync.Mutex
	typ  reflect.Type
	subs map[*feedSub]struct{}
}

type feedSub struct {
	feed    *Feed
	channel reflect.Value
	once    sync.Once
	err     chan error
}

func (f *Feed) init(typ reflect.Type) {
	f.typ = typ
	f.subs = make(map[*feedSub]struct{})
}

// Subscribe adds a channel to the feed. Future sends are delivered on the
// channel until the returned Subscription is canceled. All channels added
// to the feed must have the same element type.
func (f *Feed) Subscribe(channel interface{}) Subscription {
	chanval := reflect.ValueOf(channel)
	chantyp := chanval.Type()
	if chantyp.Kind() != reflect.Chan || chantyp.ChanDir()&reflect.SendDir == 0 {
		panic(errBadChannel)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.once.Do(func() { f.init(chantyp.Elem()) })
	if f.typ != chantyp.Elem() {
		panic("event: Subscribe channel type does not match feed type")
	}

	sub := &feedSub{feed: f, channel: chanval, err: make(chan error, 1)}
	f.subs[sub] = struct{}{}
	return sub
}

func (sub *feedSub) Unsubscribe() {
	sub.once.Do(func() {
		sub.feed.mu.Lock()
		delete(sub.feed.subs, sub)
		sub.feed.mu.Unlock()
		close(sub.err)
	})
}

func (sub *feedSub) Err() <-chan error {
	return sub.err
}

// Send delivers value to every currently-subscribed channel and returns the
// number of subscribers it was delivered to. Send blocks until every
// subscribed channel has accepted the value or its subscription has been
// canceled, so subscribers competing
// with a full channel apply backpressure to the sender — callers that must
// not block (e.g. a worker that also needs to watch a stop channel) should
// select on a done channel alongside the feed-backed channel instead of
// calling Send from a context that cannot stall.
func (f *Feed) Send(value interface{}) int {
	rvalue := reflect.ValueOf(value)

	f.mu.Lock()
	if f.subs == nil {
		f.once.Do(func() { f.init(rvalue.Type()) })
	}
	if f.typ != rvalue.Type() {
		f.mu.Unlock()
		panic("event: Send called with wrong type")
	}
	targets := make([]*feedSub, 0, len(f.subs))
	for sub := range f.subs {
		targets = append(targets, sub)
	}
	f.mu.Unlock()

	delivered := 0
	for _, sub := range targets {
		// sub.err is closed by Unsubscribe, which releases a blocked send.
		chosen, _, _ := reflect.Select([]reflect.SelectCase{
			{Dir: reflect.SelectSend, Chan: sub.channel, Send: rvalue},
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(sub.err)},
		})
		if chosen == 0 {
			delivered++
		}
	}
	return delivered
}
