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

// A States chunk reaching the executor worker (C2) is an invariant
// violation (spec §4.2): the worker must log it, surface it as an
// ErrorNotification, and exit its loop rather than keep serving execChan.
func TestExecutorWorker_StatesChunkExitsLoop(t *testing.T) {
	exec := &fakeChunkExecutor{}
	s, _, _, _, _ := newTestSynchronizer(DefaultConfig(), exec)
	defer s.Close()

	s.pending.increment()
	s.execChan <- NewStatesChunk(99, &StateValueChunkWithProof{})

	select {
	case errNotif := <-s.ErrorNotifications():
		require.Equal(t, NotificationId(99), errNotif.ID)
		require.Equal(t, ErrInvalidChunkVariant, errNotif.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the invariant-violation ErrorNotification")
	}

	require.Eventually(t, func() bool { return !s.PendingStorageData() }, time.Second, 5*time.Millisecond)

	// The worker has exited its loop: a chunk submitted afterward is never
	// consumed, so it never reaches a commit notification.
	err := s.ApplyTransactionOutputs(100, nil, &TransactionOutputListWithProof{}, &LedgerInfo{LedgerVersion: 1}, nil)
	require.NoError(t, err)

	select {
	case c := <-s.CommitNotifications():
		t.Fatalf("unexpected commit notification %+v after the executor worker should have exited", c)
	case <-time.After(200 * time.Millisecond):
		// Expected: no further chunk is processed once C2 has exited.
	}
}
