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

	"github.com/glowchain/glow/storage/database"
)

// TestNewLedgerStore_DriveSnapshotBootstrap builds a real LedgerStore over
// an in-process MemDatabase and drives a full snapshot bootstrap through it,
// passing the store to NewSynchronizer as both DbReaderWriter and
// MetadataStorageInterface in place of the test fakes.
func TestNewLedgerStore_DriveSnapshotBootstrap(t *testing.T) {
	db := database.NewMemDatabase()
	store, err := NewLedgerStore(db, 32)
	require.NoError(t, err)

	exec := &fakeChunkExecutor{}
	s := NewSynchronizer(DefaultConfig(), exec, store, store, &fakeMempool{}, &fakeEventSub{}, nil)
	defer s.Close()

	target, outputs, proofs := newBootstrapTarget()
	handle, err := s.InitializeStateSynchronizer(proofs, target, outputs)
	require.NoError(t, err)

	chunks := []struct {
		lastIndex uint64
		isLast    bool
	}{
		{lastIndex: 5, isLast: false},
		{lastIndex: 12, isLast: true},
	}
	for i, c := range chunks {
		err := s.SaveStateValues(NotificationId(i+1), &StateValueChunkWithProof{
			RawValues: []StateKeyValue{
				{Key: []byte("account-1"), Value: []byte("balance-1")},
				{Key: []byte("account-2"), Value: []byte("balance-2")},
			},
			LastIndex:   c.lastIndex,
			IsLastChunk: c.isLast,
		})
		require.NoError(t, err)
	}

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot worker did not terminate")
	}

	select {
	case commit := <-s.CommitNotifications():
		require.True(t, commit.IsStateSnapshot)
		require.Equal(t, uint64(12), commit.LastCommittedIndex)
		require.Equal(t, target.Version(), commit.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive StateSnapshotCommit")
	}

	require.Eventually(t, func() bool { return !s.PendingStorageData() }, time.Second, 5*time.Millisecond)

	lastIndex, isLast, found, err := store.LastPersistedStateValueIndex(target.Version())
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, isLast)
	require.Equal(t, uint64(12), lastIndex)
}

// TestNewSynchronizerWithLedgerStore_DefaultsToMemory exercises the
// production constructor end to end, confirming it opens a usable
// LedgerStore without the caller injecting a DbReaderWriter, and that the
// returned store reflects progress the synchronizer persisted.
func TestNewSynchronizerWithLedgerStore_DefaultsToMemory(t *testing.T) {
	cfg := DefaultConfig()
	exec := &fakeChunkExecutor{}
	s, store, err := NewSynchronizerWithLedgerStore(cfg, exec, &fakeMempool{}, &fakeEventSub{}, nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer s.Close()

	target, outputs, proofs := newBootstrapTarget()
	handle, err := s.InitializeStateSynchronizer(proofs, target, outputs)
	require.NoError(t, err)

	err = s.SaveStateValues(1, &StateValueChunkWithProof{
		RawValues:   []StateKeyValue{{Key: []byte("k"), Value: []byte("v")}},
		LastIndex:   7,
		IsLastChunk: true,
	})
	require.NoError(t, err)

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot worker did not terminate")
	}

	lastIndex, isLast, found, err := store.LastPersistedStateValueIndex(target.Version())
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, isLast)
	require.Equal(t, uint64(7), lastIndex)
}
