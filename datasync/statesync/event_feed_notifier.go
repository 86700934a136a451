// Copyright 2020 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package statesync

import "github.com/glowchain/glow/event"

// CommittedEventsEvent is sent on FeedEventSubscriptionNotifier's feed once
// per committed chunk, carrying the events the post-commit worker (C5) was
// just handed.
type CommittedEventsEvent struct {
	Events []Event
}

// FeedEventSubscriptionNotifier is the default EventSubscriptionNotifier: it
// republishes every committed chunk's events on an event.Feed, the same
// txFeed/SubscribeNewTxsEvent shape node/cn's transaction pool glue uses to
// let multiple independent subscribers (RPC filters, the driver, indexers)
// observe commits without C5 knowing who's listening.
type FeedEventSubscriptionNotifier struct {
	feed event.Feed
}

// NewFeedEventSubscriptionNotifier returns a ready-to-use notifier with no
// subscribers; NotifyCommit on a feed with no subscribers is a fast no-op.
func NewFeedEventSubscriptionNotifier() *FeedEventSubscriptionNotifier {
	return &FeedEventSubscriptionNotifier{}
}

// NotifyCommit publishes one CommittedEventsEvent per call, in the order C5
// invokes it, i.e. submission order (spec §4.5).
func (n *FeedEventSubscriptionNotifier) NotifyCommit(events []Event) error {
	n.feed.Send(CommittedEventsEvent{Events: events})
	return nil
}

// Subscribe registers ch to receive every subsequent CommittedEventsEvent.
// The caller must drain ch promptly: Feed.Send blocks until every
// subscriber has received (or been unsubscribed).
func (n *FeedEventSubscriptionNotifier) Subscribe(ch chan<- CommittedEventsEvent) event.Subscription {
	return n.feed.Subscribe(ch)
}
