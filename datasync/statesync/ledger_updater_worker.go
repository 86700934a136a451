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

// runLedgerUpdaterWorker is C3: advances the ledger data structure after
// each executed chunk and forwards to the committer worker (C4).
func (s *Synchronizer) runLedgerUpdaterWorker() {
	defer s.wg.Done()
	defer close(s.commitStageChan)

	for msg := range s.ledgerChan {
		s.updateLedger(msg)
	}
}

func (s *Synchronizer) updateLedger(msg stageMessage) {
	start := time.Now()
	err := s.executor.UpdateLedger()
	stageLatencyTimer(StageUpdateLedger).UpdateSince(start)

	if err != nil {
		s.failChunk(StageUpdateLedger, msg.id, msg.submittedAt, wrapExecErr(StageUpdateLedger, err))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.failChunk(StageUpdateLedger, msg.id, msg.submittedAt, ErrExecutorChannelClosed)
		}
	}()
	s.commitStageChan <- msg
}
