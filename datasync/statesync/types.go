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

import "time"

// NotificationId is an opaque correlation tag supplied by the caller and
// echoed back on every ErrorNotification derived from the chunk it tagged.
type NotificationId uint64

// Hash is a 32-byte state/ledger commitment. The pipeline never inspects
// its bytes; it only compares it for equality against a previously
// committed root.
type Hash [32]byte

// LedgerInfo is a signed commitment to a ledger version. The synchronizer
// treats it as an opaque value it threads through the executor and the
// commit notifications; it never inspects the signature itself.
type LedgerInfo struct {
	LedgerVersion uint64
	Raw           []byte // opaque signed payload, untouched by this package
}

// Version returns the ledger version this LedgerInfo commits to.
func (li *LedgerInfo) Version() uint64 {
	return li.LedgerVersion
}

// EpochChangeProof is an opaque bundle of epoch-change ledger infos passed
// through to the writer on snapshot finalization.
type EpochChangeProof struct {
	Raw []byte
}

// Transaction is an opaque, already-proof-verified transaction.
type Transaction struct {
	Raw []byte
}

// Event is an opaque event emitted by a committed transaction.
type Event struct {
	Raw []byte
}

// TransactionOutput carries the events and write-set produced by executing
// a Transaction. The pipeline never interprets the write-set; only the
// executor and ledger store do.
type TransactionOutput struct {
	Events []Event
	Raw    []byte
}

// TransactionInfo is the per-transaction commitment the executor reports
// back after commit. StateCheckpointHash is set only for transactions that
// close a state checkpoint (the first such entry in a bootstrap's target
// outputs anchors the snapshot receiver).
type TransactionInfo struct {
	StateCheckpointHash *Hash
}

// TransactionListWithProof is a contiguous, already-verified run of
// transactions plus the proof the streaming layer used to verify them
// against a target LedgerInfo. The proof bytes are opaque to this package.
type TransactionListWithProof struct {
	Transactions []Transaction
	Proof        []byte
}

// TransactionOutputListWithProof is the execute-side counterpart of
// TransactionListWithProof: transactions paired with outputs the streaming
// layer has already validated against a target LedgerInfo.
type TransactionOutputListWithProof struct {
	TransactionsAndOutputs []TransactionOutputPair
	TransactionInfos       []TransactionInfo
	Proof                  []byte
}

// TransactionOutputPair is one (transaction, output) entry of a
// TransactionOutputListWithProof.
type TransactionOutputPair struct {
	Transaction Transaction
	Output      TransactionOutput
}

// StateKeyValue is a single raw state key/value pair within a state
// snapshot chunk.
type StateKeyValue struct {
	Key   []byte
	Value []byte
}

// StateValueChunkWithProof is one segment of a state-snapshot stream: a run
// of raw key/value pairs, the proof linking them to the target root hash,
// the index of the last entry in this chunk, and whether this is the final
// chunk of the snapshot.
type StateValueChunkWithProof struct {
	RawValues   []StateKeyValue
	Proof       []byte
	LastIndex   uint64
	IsLastChunk bool
}

// chunkKind tags which variant a Chunk carries.
type chunkKind int

const (
	chunkTransactions chunkKind = iota
	chunkTransactionOutputs
	chunkStates
)

// Chunk is the tagged union the ingress façade (C1) hands to the executor
// worker (C2) or the snapshot receiver worker (C6). Exactly one of the
// payload fields is meaningful, selected by kind.
type Chunk struct {
	kind           chunkKind
	id             NotificationId
	submittedAt    *time.Time
	txns           *TransactionListWithProof
	outputs        *TransactionOutputListWithProof
	states         *StateValueChunkWithProof
	targetLedger   *LedgerInfo
	endOfEpochInfo *LedgerInfo
}

// NewTransactionsChunk builds a Chunk carrying a transaction list destined
// for execution (ChunkExecutor.EnqueueChunkByExecution).
func NewTransactionsChunk(id NotificationId, submittedAt *time.Time, txns *TransactionListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) Chunk {
	return Chunk{kind: chunkTransactions, id: id, submittedAt: submittedAt, txns: txns, targetLedger: targetLedger, endOfEpochInfo: endOfEpochInfo}
}

// NewTransactionOutputsChunk builds a Chunk carrying pre-executed
// transaction outputs destined for application
// (ChunkExecutor.EnqueueChunkByTransactionOutputs).
func NewTransactionOutputsChunk(id NotificationId, submittedAt *time.Time, outputs *TransactionOutputListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) Chunk {
	return Chunk{kind: chunkTransactionOutputs, id: id, submittedAt: submittedAt, outputs: outputs, targetLedger: targetLedger, endOfEpochInfo: endOfEpochInfo}
}

// NewStatesChunk builds a Chunk carrying a segment of a state snapshot,
// destined for the snapshot receiver worker (C6). It must never be routed
// to the executor worker (C2).
func NewStatesChunk(id NotificationId, states *StateValueChunkWithProof) Chunk {
	return Chunk{kind: chunkStates, id: id, states: states}
}

func (c *Chunk) ID() NotificationId { return c.id }

// ChunkCommitNotification is what the executor returns from CommitChunk:
// the transactions and events it just made durable, and whether the
// commit crossed an epoch boundary.
type ChunkCommitNotification struct {
	CommittedTransactions   []Transaction
	CommittedEvents         []Event
	ReconfigurationOccurred bool
}

// CommitNotification is delivered to the driver's commit channel exactly
// once per successfully committed transaction chunk, or once per
// successful snapshot bootstrap.
type CommitNotification struct {
	// Events and Transactions are always populated.
	Events       []Event
	Transactions []Transaction

	// IsStateSnapshot distinguishes a StateSnapshotCommit from a plain
	// ChunkCommit; LastCommittedIndex and Version are only meaningful
	// when it is set.
	IsStateSnapshot    bool
	LastCommittedIndex uint64
	Version            uint64
}

// ErrorNotification is always delivered to the driver, tagged with the
// NotificationId of the chunk that failed, even if the chunk was
// discarded before reaching a terminal stage.
type ErrorNotification struct {
	ID  NotificationId
	Err error
}

// Stage labels a pipeline stage for metrics and latency histograms,
// mirroring the typed operation label the original implementation attaches
// to its per-stage timing measurements.
type Stage string

const (
	StageExecuteChunk      Stage = "execute_chunk"
	StageApplyChunk        Stage = "apply_chunk"
	StageUpdateLedger      Stage = "update_ledger"
	StageCommitChunk       Stage = "commit_chunk"
	StageCommitPostProcess Stage = "commit_post_process"
	StageStateSyncChunk    Stage = "state_sync_chunk"
)

// stageMessage is the inter-stage payload passed C2->C3->C4: a chunk's
// identity plus the timestamp it was originally submitted with, carried
// through so "notification creation -> stage N" latency can be measured at
// any point in the pipeline.
type stageMessage struct {
	id          NotificationId
	submittedAt *time.Time
}

// commitMessage is the payload passed C4->C5.
type commitMessage struct {
	id           NotificationId
	notification ChunkCommitNotification
	submittedAt  *time.Time
}
