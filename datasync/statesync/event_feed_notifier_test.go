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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedEventSubscriptionNotifier_DeliversToSubscriber(t *testing.T) {
	n := NewFeedEventSubscriptionNotifier()
	ch := make(chan CommittedEventsEvent, 1)
	sub := n.Subscribe(ch)
	defer sub.Unsubscribe()

	events := []Event{{Raw: []byte("a")}, {Raw: []byte("b")}}
	require.NoError(t, n.NotifyCommit(events))

	select {
	case got := <-ch:
		require.Equal(t, events, got.Events)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the committed-events notification")
	}
}

func TestFeedEventSubscriptionNotifier_NoSubscribersIsNoop(t *testing.T) {
	n := NewFeedEventSubscriptionNotifier()
	require.NoError(t, n.NotifyCommit([]Event{{Raw: []byte("a")}}))
}
