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

// ChunkExecutor is the single shared handle C2, C3, C4 and C6 drive through
// four distinct methods. Implementations may assume single-threaded
// invocation per method; the pipeline guarantees the happens-before order
// EnqueueChunkBy*(chunk_i) -> UpdateLedger() -> CommitChunk() for the same
// chunk via channel ordering, never by locking inside this package.
type ChunkExecutor interface {
	EnqueueChunkByExecution(txns *TransactionListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error
	EnqueueChunkByTransactionOutputs(outputs *TransactionOutputListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error
	UpdateLedger() error
	CommitChunk() (ChunkCommitNotification, error)
	Reset() error
	Finish()
}

// DbReaderWriter is the ledger key/value store handle. It exposes only the
// two writer operations the snapshot receiver worker (C6) uses during
// bootstrap; it has no read methods, and no gauge or post-commit path
// consults it.
type DbReaderWriter interface {
	GetStateSnapshotReceiver(version uint64, expectedRootHash Hash) (StateSnapshotReceiver, error)
	FinalizeStateSnapshot(version uint64, targetOutputs *TransactionOutputListWithProof, epochChangeProofs *EpochChangeProof) error
}

// MetadataStorageInterface persists bootstrap progress so it can resume
// after a restart. Implementations must be idempotent under retry: calling
// Update twice with the same arguments must not corrupt state.
type MetadataStorageInterface interface {
	UpdateLastPersistedStateValueIndex(targetLedger *LedgerInfo, lastIndex uint64, isLast bool) error
}

// StateSnapshotReceiver incrementally ingests a state snapshot keyed by a
// (version, expected root hash) pair obtained from
// DbReaderWriter.GetStateSnapshotReceiver. A receiver is single-use: once
// Finish is called (or an append fails fatally) it must not be reused
// across a second bootstrap.
type StateSnapshotReceiver interface {
	AddChunk(rawValues []StateKeyValue, proof []byte) error
	Finish() error
}

// MempoolNotifier is invoked exactly once per committed transaction chunk,
// in arrival order, by the post-commit worker (C5).
type MempoolNotifier interface {
	NotifyCommit(transactions []Transaction) error
}

// EventSubscriptionNotifier is invoked exactly once per committed
// transaction chunk, in arrival order, alongside MempoolNotifier.
type EventSubscriptionNotifier interface {
	NotifyCommit(events []Event) error
}

// StorageServiceNotifier is told about every committed chunk so external
// storage-service consumers (e.g. indexers) can react to new data landing
// in the ledger store.
type StorageServiceNotifier interface {
	NotifyCommit(notification ChunkCommitNotification) error
}
