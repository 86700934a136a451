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

func newBootstrapTarget() (*LedgerInfo, *TransactionOutputListWithProof, *EpochChangeProof) {
	hash := Hash{0xAB}
	target := &LedgerInfo{LedgerVersion: 100}
	outputs := &TransactionOutputListWithProof{
		TransactionInfos: []TransactionInfo{{StateCheckpointHash: &hash}},
	}
	proofs := &EpochChangeProof{Raw: []byte("proof")}
	return target, outputs, proofs
}

func waitDone(t *testing.T, handle *BootstrapHandle) {
	t.Helper()
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot worker did not terminate")
	}
}

// S4: three States chunks (last_index 10, 20, 30; is_last false, false,
// true). Expect metadata updates in order, the full finalize sequence, and
// one StateSnapshotCommit carrying the terminal index and version.
func TestSnapshotWorker_HappyPath(t *testing.T) {
	exec := &fakeChunkExecutor{}
	dbrw := &fakeDbReaderWriter{}
	meta := &fakeMetadataStorage{}
	s := NewSynchronizer(DefaultConfig(), exec, dbrw, meta, &fakeMempool{}, &fakeEventSub{}, nil)
	defer s.Close()

	target, outputs, proofs := newBootstrapTarget()
	handle, err := s.InitializeStateSynchronizer(proofs, target, outputs)
	require.NoError(t, err)

	indices := []uint64{10, 20, 30}
	isLast := []bool{false, false, true}
	for i := range indices {
		err := s.SaveStateValues(NotificationId(i+1), &StateValueChunkWithProof{
			RawValues:   []StateKeyValue{{Key: []byte("k"), Value: []byte("v")}},
			LastIndex:   indices[i],
			IsLastChunk: isLast[i],
		})
		require.NoError(t, err)
	}

	waitDone(t, handle)

	require.Len(t, meta.updates, 3)
	require.Equal(t, uint64(10), meta.updates[0].lastIndex)
	require.False(t, meta.updates[0].isLast)
	require.Equal(t, uint64(20), meta.updates[1].lastIndex)
	require.False(t, meta.updates[1].isLast)
	require.Equal(t, uint64(30), meta.updates[2].lastIndex)
	require.True(t, meta.updates[2].isLast)

	require.Equal(t, 1, dbrw.finalizeCalls)
	require.Equal(t, 1, exec.resetCount)
	require.True(t, dbrw.lastReceiver.finished)

	select {
	case commit := <-s.CommitNotifications():
		require.True(t, commit.IsStateSnapshot)
		require.Equal(t, uint64(30), commit.LastCommittedIndex)
		require.Equal(t, uint64(100), commit.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive StateSnapshotCommit")
	}

	require.Eventually(t, func() bool { return !s.PendingStorageData() }, time.Second, 5*time.Millisecond)
}

// S5: the second chunk's AddChunk fails. Expect an ErrorNotification
// tagged with that chunk's id, and the worker still attempts the third
// chunk afterward.
func TestSnapshotWorker_AppendFailureContinues(t *testing.T) {
	exec := &fakeChunkExecutor{}
	dbrw := &fakeDbReaderWriter{receiver: &fakeStateSnapshotReceiver{addErrOnCall: 2}}
	meta := &fakeMetadataStorage{}
	s := NewSynchronizer(DefaultConfig(), exec, dbrw, meta, &fakeMempool{}, &fakeEventSub{}, nil)
	defer s.Close()

	target, outputs, proofs := newBootstrapTarget()
	handle, err := s.InitializeStateSynchronizer(proofs, target, outputs)
	require.NoError(t, err)

	for i, last := range []bool{false, false, true} {
		err := s.SaveStateValues(NotificationId(i+1), &StateValueChunkWithProof{
			RawValues:   []StateKeyValue{{Key: []byte("k"), Value: []byte("v")}},
			LastIndex:   uint64((i + 1) * 10),
			IsLastChunk: last,
		})
		require.NoError(t, err)
	}

	var errNotif ErrorNotification
	select {
	case errNotif = <-s.ErrorNotifications():
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive ErrorNotification for the failed chunk")
	}
	require.Equal(t, NotificationId(2), errNotif.ID)

	waitDone(t, handle)
	require.Equal(t, 3, dbrw.lastReceiver.calls)
	require.Equal(t, 1, dbrw.finalizeCalls)
}

// InitializeStateSynchronizer panics when target_outputs has no
// state-checkpoint transaction info: a malformed target is a caller
// precondition violation, not a recoverable runtime error.
func TestSnapshotWorker_InitializePanicsWithoutStateCheckpoint(t *testing.T) {
	exec := &fakeChunkExecutor{}
	s, _, _, _, _ := newTestSynchronizer(DefaultConfig(), exec)
	defer s.Close()

	require.Panics(t, func() {
		s.InitializeStateSynchronizer(&EpochChangeProof{}, &LedgerInfo{LedgerVersion: 1}, &TransactionOutputListWithProof{})
	})
}

// A second InitializeStateSynchronizer call is rejected rather than
// orphaning the first bootstrap's worker.
func TestSnapshotWorker_SecondInitializeRejected(t *testing.T) {
	exec := &fakeChunkExecutor{}
	s, _, _, _, _ := newTestSynchronizer(DefaultConfig(), exec)
	defer s.Close()

	target, outputs, proofs := newBootstrapTarget()
	_, err := s.InitializeStateSynchronizer(proofs, target, outputs)
	require.NoError(t, err)

	_, err = s.InitializeStateSynchronizer(proofs, target, outputs)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}
