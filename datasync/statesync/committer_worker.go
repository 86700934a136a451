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

// runCommitterWorker is C4: flushes a prepared chunk to persistent
// storage via the executor and forwards the commit notification to the
// post-commit worker (C5).
func (s *Synchronizer) runCommitterWorker() {
	defer s.wg.Done()
	defer close(s.postCommitChan)

	for msg := range s.commitStageChan {
		s.commitChunk(msg)
	}
}

func (s *Synchronizer) commitChunk(msg stageMessage) {
	start := time.Now()
	notification, err := s.executor.CommitChunk()
	stageLatencyTimer(StageCommitChunk).UpdateSince(start)
	observeNotificationLatency(StageCommitChunk, msg.submittedAt)

	if err != nil {
		s.failChunk(StageCommitChunk, msg.id, msg.submittedAt, wrapExecErr(StageCommitChunk, err))
		return
	}

	syncedTransactionsGauge.Update(syncedTransactionsGauge.Value() + int64(len(notification.CommittedTransactions)))
	if notification.ReconfigurationOccurred {
		newEpochCounter.Inc(1)
		logger.Info("Committed chunk crossed an epoch boundary", "id", msg.id)
	}

	defer func() {
		if r := recover(); r != nil {
			s.failChunk(StageCommitChunk, msg.id, msg.submittedAt, ErrExecutorChannelClosed)
		}
	}()
	s.postCommitChan <- commitMessage{id: msg.id, notification: notification, submittedAt: msg.submittedAt}
}
