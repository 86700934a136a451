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
	"errors"
	"sync"
)

var errAddChunkFailed = errors.New("fake: AddChunk failed")
var errApplyChunkFailed = errors.New("fake: EnqueueChunkByTransactionOutputs failed")

// fakeChunkExecutor is a hand-rolled in-memory ChunkExecutor. A method whose
// *Err field is set fails on every call; applyErrOnCall instead fails one
// chosen EnqueueChunkByTransactionOutputs call.
type fakeChunkExecutor struct {
	mu sync.Mutex

	enqueueExecErr error

	// applyErrOnCall fails the N-th (1-indexed) EnqueueChunkByTransactionOutputs
	// call; 0 means never fail.
	applyErrOnCall int
	applyCalls     int

	updateLedgerErr error
	commitErr       error
	resetErr        error

	commits []ChunkCommitNotification

	committedCount int
	resetCount     int
	finishCount    int
}

func (f *fakeChunkExecutor) EnqueueChunkByExecution(txns *TransactionListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error {
	return f.enqueueExecErr
}

func (f *fakeChunkExecutor) EnqueueChunkByTransactionOutputs(outputs *TransactionOutputListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.applyErrOnCall != 0 && f.applyCalls == f.applyErrOnCall {
		return errApplyChunkFailed
	}
	return nil
}

func (f *fakeChunkExecutor) UpdateLedger() error {
	return f.updateLedgerErr
}

// CommitChunk marks each commit's transaction with its 1-indexed commit
// sequence number, so a test can read CommitNotifications back off the
// driver channel and confirm they arrive in the same order CommitChunk was
// actually called (spec §8.2's ordering invariant).
func (f *fakeChunkExecutor) CommitChunk() (ChunkCommitNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return ChunkCommitNotification{}, f.commitErr
	}
	f.committedCount++
	notification := ChunkCommitNotification{
		CommittedTransactions: []Transaction{{Raw: []byte{byte(f.committedCount)}}},
	}
	f.commits = append(f.commits, notification)
	return notification, nil
}

func (f *fakeChunkExecutor) Reset() error {
	f.resetCount++
	return f.resetErr
}

func (f *fakeChunkExecutor) Finish() {
	f.finishCount++
}

// fakeDbReaderWriter hands out fakeStateSnapshotReceivers and records
// finalize calls instead of touching a real store.
type fakeDbReaderWriter struct {
	mu sync.Mutex

	receiverErr  error
	finalizeErr  error
	finalizeCalls int

	// receiver, when set, is handed back by GetStateSnapshotReceiver
	// instead of a freshly allocated one, so a test can pre-arm fault
	// injection before the worker goroutine starts consuming chunks.
	receiver *fakeStateSnapshotReceiver

	lastReceiver *fakeStateSnapshotReceiver
}

func (d *fakeDbReaderWriter) GetStateSnapshotReceiver(version uint64, expectedRootHash Hash) (StateSnapshotReceiver, error) {
	if d.receiverErr != nil {
		return nil, d.receiverErr
	}
	r := d.receiver
	if r == nil {
		r = &fakeStateSnapshotReceiver{}
	}
	d.mu.Lock()
	d.lastReceiver = r
	d.mu.Unlock()
	return r, nil
}

func (d *fakeDbReaderWriter) FinalizeStateSnapshot(version uint64, targetOutputs *TransactionOutputListWithProof, epochChangeProofs *EpochChangeProof) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finalizeCalls++
	return d.finalizeErr
}

// fakeStateSnapshotReceiver records every chunk it is handed.
type fakeStateSnapshotReceiver struct {
	mu sync.Mutex

	addErrOnCall int // 1-indexed call number to fail, 0 = never
	calls        int
	finished     bool

	received [][]StateKeyValue
}

func (r *fakeStateSnapshotReceiver) AddChunk(rawValues []StateKeyValue, proof []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.addErrOnCall != 0 && r.calls == r.addErrOnCall {
		return errAddChunkFailed
	}
	r.received = append(r.received, rawValues)
	return nil
}

func (r *fakeStateSnapshotReceiver) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
	return nil
}

// fakeMetadataStorage records every progress update.
type fakeMetadataStorage struct {
	mu      sync.Mutex
	updates []fakeMetadataUpdate
	err     error
}

type fakeMetadataUpdate struct {
	version   uint64
	lastIndex uint64
	isLast    bool
}

func (m *fakeMetadataStorage) UpdateLastPersistedStateValueIndex(targetLedger *LedgerInfo, lastIndex uint64, isLast bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, fakeMetadataUpdate{version: targetLedger.Version(), lastIndex: lastIndex, isLast: isLast})
	return m.err
}

// fakeMempool and fakeEventSub record the transactions/events they are
// handed so a test can assert fan-out happened exactly once per chunk.
type fakeMempool struct {
	mu    sync.Mutex
	calls [][]Transaction
	err   error
}

func (f *fakeMempool) NotifyCommit(transactions []Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transactions)
	return f.err
}

type fakeEventSub struct {
	mu    sync.Mutex
	calls [][]Event
	err   error
}

func (f *fakeEventSub) NotifyCommit(events []Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, events)
	return f.err
}

type fakeStorageService struct {
	mu    sync.Mutex
	calls []ChunkCommitNotification
	err   error
}

func (f *fakeStorageService) NotifyCommit(n ChunkCommitNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, n)
	return f.err
}
