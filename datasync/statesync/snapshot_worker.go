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
	"time"

	"github.com/glowchain/glow/log"
)

// snapshotWorker is C6: a one-shot state machine (Init -> Receiving ->
// Finalizing -> Done) that ingests a state-snapshot stream and seals it at
// a target version. It is never reused across bootstraps: is_last_chunk is
// an irreversible transition and Finalize is not idempotent (spec §9).
type snapshotWorker struct {
	synchronizer *Synchronizer
	in           chan Chunk
	done         chan struct{}

	version           uint64
	expectedRootHash  Hash
	targetLedger      *LedgerInfo
	targetOutputs     *TransactionOutputListWithProof
	epochChangeProofs *EpochChangeProof

	receiver StateSnapshotReceiver
	logger   log.Logger
}

func (w *snapshotWorker) run() {
	defer w.synchronizer.wg.Done()
	defer close(w.done)

	receiver, err := w.synchronizer.dbrw.GetStateSnapshotReceiver(w.version, w.expectedRootHash)
	if err != nil {
		w.logger.Error("Failed to obtain state snapshot receiver", "version", w.version, "err", err)
		return
	}
	w.receiver = receiver

	for chunk := range w.in {
		if w.processChunk(chunk) {
			return
		}
	}
}

// processChunk handles one States chunk and reports whether the worker
// should terminate (true once the terminal chunk has been processed,
// successfully or not).
func (w *snapshotWorker) processChunk(chunk Chunk) bool {
	states := chunk.states
	start := time.Now()
	err := w.receiver.AddChunk(states.RawValues, states.Proof)
	stageLatencyTimer(StageStateSyncChunk).UpdateSince(start)
	observeNotificationLatency(StageStateSyncChunk, chunk.submittedAt)

	if err != nil {
		// The receiver may accept retries; the driver decides whether to
		// resend. This chunk's admission is still retired here: it has
		// reached a terminal (failed) outcome for this attempt, matching
		// the quantified invariant in spec §8.1 that every increment gets
		// exactly one matching decrement.
		stageErrorCounter(StageStateSyncChunk).Inc(1)
		w.logger.Error("Failed to append state values chunk", "id", chunk.id, "err", err)
		w.synchronizer.errs.send(ErrorNotification{ID: chunk.id, Err: wrapExecErr(StageStateSyncChunk, err)})
		w.synchronizer.pending.decrement()
		return false
	}

	chunkSizeMeter.Mark(int64(len(states.RawValues)))
	lastPersistedIndexGauge.Update(int64(states.LastIndex))
	syncedStatesGauge.Update(syncedStatesGauge.Value() + int64(len(states.RawValues)))

	if !states.IsLastChunk {
		if err := w.synchronizer.metadata.UpdateLastPersistedStateValueIndex(w.targetLedger, states.LastIndex, false); err != nil {
			w.logger.Error("Failed to persist last-persisted-state-value index", "id", chunk.id, "err", err)
			w.synchronizer.errs.send(ErrorNotification{ID: chunk.id, Err: err})
		}
		w.synchronizer.pending.decrement()
		return false
	}

	w.finalize(chunk.id, states.LastIndex)
	w.synchronizer.pending.decrement()
	return true
}

// finalize seals the snapshot: the receiver is finished, the write is
// durably recorded by the ledger store, the bootstrap progress record is
// marked complete, the executor's in-memory state is cleared, and a
// StateSnapshotCommit is emitted. Any step's failure aborts the remaining
// steps and is reported as an ErrorNotification tagged with the terminal
// chunk's id; the worker still terminates either way (spec §4.6, §9).
func (w *snapshotWorker) finalize(id NotificationId, lastIndex uint64) {
	if err := w.receiver.Finish(); err != nil {
		w.abortFinalize(id, err)
		return
	}
	if err := w.synchronizer.dbrw.FinalizeStateSnapshot(w.version, w.targetOutputs, w.epochChangeProofs); err != nil {
		w.abortFinalize(id, err)
		return
	}
	if err := w.synchronizer.metadata.UpdateLastPersistedStateValueIndex(w.targetLedger, lastIndex, true); err != nil {
		w.abortFinalize(id, err)
		return
	}
	if err := w.synchronizer.executor.Reset(); err != nil {
		w.abortFinalize(id, err)
		return
	}

	events, transactions := flattenTargetOutputs(w.targetOutputs)
	w.synchronizer.commit.send(CommitNotification{
		Events:             events,
		Transactions:       transactions,
		IsStateSnapshot:    true,
		LastCommittedIndex: lastIndex,
		Version:            w.version,
	})
	resetSyncGauges()
	w.logger.Info("State snapshot bootstrap finalized", "version", w.version, "lastCommittedIndex", lastIndex)
}

func (w *snapshotWorker) abortFinalize(id NotificationId, err error) {
	stageErrorCounter(StageStateSyncChunk).Inc(1)
	w.logger.Error("State snapshot finalize failed, bootstrap abandoned", "id", id, "err", err)
	w.synchronizer.errs.send(ErrorNotification{ID: id, Err: wrapExecErr(StageStateSyncChunk, err)})
}

// flattenTargetOutputs derives the StateSnapshotCommit payload from the
// bootstrap's target outputs: events are flat-mapped across every output,
// transactions and outputs are unzipped from the same pairs (spec §4.6
// step 5).
func flattenTargetOutputs(targetOutputs *TransactionOutputListWithProof) ([]Event, []Transaction) {
	var events []Event
	var transactions []Transaction
	for _, pair := range targetOutputs.TransactionsAndOutputs {
		events = append(events, pair.Output.Events...)
		transactions = append(transactions, pair.Transaction)
	}
	return events, transactions
}
