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

// send must never block, even when nobody is draining Out(); a burst of
// sends queued faster than the consumer reads must all still surface.
func TestCommitChannel_SendNeverBlocks(t *testing.T) {
	c := newCommitChannel()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			c.send(CommitNotification{Version: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("send blocked despite nobody draining Out()")
	}

	var got []CommitNotification
	for len(got) < 1000 {
		select {
		case n := <-c.Out():
			got = append(got, n)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out draining Out(), got %d/1000", len(got))
		}
	}
	for i, n := range got {
		require.Equal(t, uint64(i), n.Version, "out-of-order delivery at index %d", i)
	}
}

// Out() must return the same channel on every call; a second call must not
// spawn a competing consumer that steals items from the first caller.
func TestCommitChannel_OutIsStable(t *testing.T) {
	c := newCommitChannel()
	require.True(t, c.Out() == c.Out())
}

func TestErrorChannel_SendNeverBlocks(t *testing.T) {
	c := newErrorChannel()
	for i := 0; i < 500; i++ {
		c.send(ErrorNotification{ID: NotificationId(i)})
	}

	var got []ErrorNotification
	for len(got) < 500 {
		select {
		case n := <-c.Out():
			got = append(got, n)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out draining Out(), got %d/500", len(got))
		}
	}
	for i, n := range got {
		require.Equal(t, NotificationId(i), n.ID, "out-of-order delivery at index %d", i)
	}
}
