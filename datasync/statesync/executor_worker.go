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

// runExecutorWorker is C2: it receives one chunk at a time, dispatches it
// to the executor by variant, and forwards to the ledger-updater worker
// (C3) on success. Go goroutines are already individually schedulable by
// the runtime, so unlike an async-task runtime this loop does not need a
// separate blocking-worker pool to avoid monopolizing a reactor; each
// worker goroutine blocking on its own executor call never stalls the
// others (spec §5's "offload to a blocking pool" concern is satisfied by
// Go's M:N goroutine scheduling itself).
func (s *Synchronizer) runExecutorWorker() {
	defer s.wg.Done()
	defer close(s.ledgerChan)

	for chunk := range s.execChan {
		if !s.processChunkForExecution(chunk) {
			return
		}
	}
}

// processChunkForExecution dispatches one chunk and reports whether the
// worker should keep reading s.execChan. It returns false only for the
// invariant-violation case: a States chunk reaching C2 is a design bug
// (spec §4.2), so the worker logs it and exits the loop rather than
// continuing, leaving pending_storage_data() to surface the stall to the
// driver (spec §7).
func (s *Synchronizer) processChunkForExecution(chunk Chunk) bool {
	switch chunk.kind {
	case chunkTransactions:
		s.executeTransactionsChunk(chunk)
	case chunkTransactionOutputs:
		s.applyTransactionOutputsChunk(chunk)
	case chunkStates:
		logger.Error("Invariant violation: States chunk reached the executor worker", "id", chunk.id)
		s.failChunk(StageExecuteChunk, chunk.id, chunk.submittedAt, ErrInvalidChunkVariant)
		return false
	}
	return true
}

func (s *Synchronizer) executeTransactionsChunk(chunk Chunk) {
	start := time.Now()
	err := s.executor.EnqueueChunkByExecution(chunk.txns, chunk.targetLedger, chunk.endOfEpochInfo)
	stageLatencyTimer(StageExecuteChunk).UpdateSince(start)

	if err != nil {
		s.failChunk(StageExecuteChunk, chunk.id, chunk.submittedAt, wrapExecErr(StageExecuteChunk, err))
		return
	}
	chunksExecutedCounter.Inc(1)
	syncedTransactionsGauge.Update(syncedTransactionsGauge.Value() + int64(len(chunk.txns.Transactions)))
	s.forwardToLedgerUpdater(chunk.id, chunk.submittedAt, StageExecuteChunk)
}

func (s *Synchronizer) applyTransactionOutputsChunk(chunk Chunk) {
	start := time.Now()
	err := s.executor.EnqueueChunkByTransactionOutputs(chunk.outputs, chunk.targetLedger, chunk.endOfEpochInfo)
	stageLatencyTimer(StageApplyChunk).UpdateSince(start)

	if err != nil {
		s.failChunk(StageApplyChunk, chunk.id, chunk.submittedAt, wrapExecErr(StageApplyChunk, err))
		return
	}
	chunksExecutedCounter.Inc(1)
	syncedOutputsGauge.Update(syncedOutputsGauge.Value() + int64(len(chunk.outputs.TransactionsAndOutputs)))
	s.forwardToLedgerUpdater(chunk.id, chunk.submittedAt, StageApplyChunk)
}

func (s *Synchronizer) forwardToLedgerUpdater(id NotificationId, submittedAt *time.Time, stage Stage) {
	defer func() {
		if r := recover(); r != nil {
			// ledgerChan is only closed by this worker itself on exit, so
			// a panic here means a programming error, not a races with
			// another closer; surface it as a stage error rather than
			// crash the process.
			s.failChunk(stage, id, submittedAt, ErrExecutorChannelClosed)
		}
	}()
	s.ledgerChan <- stageMessage{id: id, submittedAt: submittedAt}
}

// failChunk surfaces a fatal stage error on the error channel and retires
// the chunk's pending-count entry; every code path that can prevent a
// chunk from reaching a terminal success must call this exactly once.
func (s *Synchronizer) failChunk(stage Stage, id NotificationId, submittedAt *time.Time, err error) {
	stageErrorCounter(stage).Inc(1)
	logger.Error("Chunk failed", "stage", stage, "id", id, "err", err)
	s.errs.send(ErrorNotification{ID: id, Err: err})
	s.pending.decrement()
}
