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

// runPostCommitWorker is C5: fans a commit notification out to the
// mempool, the event-subscription service, and the optional
// storage-service sink, then emits the notification on the driver's
// commit channel and retires the chunk's pending-count entry.
func (s *Synchronizer) runPostCommitWorker() {
	defer s.wg.Done()

	for msg := range s.postCommitChan {
		s.postProcessCommit(msg)
	}
}

func (s *Synchronizer) postProcessCommit(msg commitMessage) {
	start := time.Now()
	n := msg.notification

	// Both sinks are invoked exactly once per chunk, in arrival order
	// (spec §4.5). Failures are logged, not surfaced as ErrorNotifications:
	// the chunk is already durable by the time C5 runs.
	if err := s.mempool.NotifyCommit(n.CommittedTransactions); err != nil {
		logger.Error("Mempool notification failed", "id", msg.id, "err", err)
	}
	if err := s.eventSub.NotifyCommit(n.CommittedEvents); err != nil {
		logger.Error("Event-subscription notification failed", "id", msg.id, "err", err)
	}
	if s.storageService != nil {
		if err := s.storageService.NotifyCommit(n); err != nil {
			logger.Error("Storage-service notification failed", "id", msg.id, "err", err)
		}
	}
	if s.kafka != nil {
		if err := s.kafka.NotifyCommit(n); err != nil {
			logger.Error("Kafka notification failed", "id", msg.id, "err", err)
		}
	}

	s.commit.send(CommitNotification{
		Events:       n.CommittedEvents,
		Transactions: n.CommittedTransactions,
	})

	stageLatencyTimer(StageCommitPostProcess).UpdateSince(start)
	observeNotificationLatency(StageCommitPostProcess, msg.submittedAt)

	// Decrement C7 after fan-out completes, regardless of whether any
	// downstream notification succeeded (spec §4.5 step 3).
	s.pending.decrement()
}
