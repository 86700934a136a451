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
	"sync"
	"time"

	"github.com/glowchain/glow/log"
)

var logger = log.NewModuleLogger(log.StateSynchronizer)

// BootstrapHandle is returned by InitializeStateSynchronizer; Done()
// closes once the snapshot worker (C6) has finished or aborted, so a
// caller can wait on bootstrap completion without polling
// PendingStorageData.
type BootstrapHandle struct {
	done chan struct{}
}

// Done returns a channel that closes when the bootstrap finishes,
// successfully or not.
func (h *BootstrapHandle) Done() <-chan struct{} { return h.done }

// Synchronizer is the ingress façade (C1): the only type external callers
// touch. It owns every Sender half of the pipeline's channels; each worker
// owns only its Receiver, per spec §3's ownership rule.
type Synchronizer struct {
	cfg *Config

	executor       ChunkExecutor
	dbrw           DbReaderWriter
	metadata       MetadataStorageInterface
	mempool        MempoolNotifier
	eventSub       EventSubscriptionNotifier
	storageService StorageServiceNotifier
	kafka          *kafkaNotifier // nil unless cfg.Notifier == NotifierKafka

	pending *pendingChunks
	commit  *commitChannel
	errs    *errorChannel

	execChan        chan Chunk
	ledgerChan      chan stageMessage
	commitStageChan chan stageMessage
	postCommitChan  chan commitMessage

	bootstrapMu   sync.RWMutex
	statesChan    chan Chunk
	bootstrapDone chan struct{}

	closeMu sync.RWMutex
	closed  bool

	wg sync.WaitGroup
}

// NewSynchronizer wires C2-C5 and returns a ready-to-use façade. C6 is not
// started until InitializeStateSynchronizer is called.
func NewSynchronizer(cfg *Config, executor ChunkExecutor, dbrw DbReaderWriter, metadata MetadataStorageInterface, mempool MempoolNotifier, eventSub EventSubscriptionNotifier, storageService StorageServiceNotifier) *Synchronizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Synchronizer{
		cfg:             cfg,
		executor:        executor,
		dbrw:            dbrw,
		metadata:        metadata,
		mempool:         mempool,
		eventSub:        eventSub,
		storageService:  storageService,
		pending:         &pendingChunks{},
		commit:          newCommitChannel(),
		errs:            newErrorChannel(),
		execChan:        make(chan Chunk, cfg.MaxPendingDataChunks),
		ledgerChan:      make(chan stageMessage, cfg.MaxPendingDataChunks),
		commitStageChan: make(chan stageMessage, cfg.MaxPendingDataChunks),
		postCommitChan:  make(chan commitMessage, cfg.MaxPendingDataChunks),
	}
	if cfg.Notifier == NotifierKafka {
		k, err := newKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Error("Failed to start Kafka notifier, falling back to in-process sinks only", "err", err)
		} else {
			s.kafka = k
		}
	}

	s.wg.Add(4)
	go s.runExecutorWorker()
	go s.runLedgerUpdaterWorker()
	go s.runCommitterWorker()
	go s.runPostCommitWorker()

	return s
}

// NewSynchronizerWithLedgerStore is the production entry point: it opens
// the default LedgerStore cfg.DBType describes and wires it in as both the
// DbReaderWriter and MetadataStorageInterface, instead of requiring the
// caller to inject its own (as NewSynchronizer's test-facing fakes do). The
// returned *LedgerStore is handed back so a caller can read back persisted
// progress directly (e.g. on restart, before deciding whether to bootstrap
// at all).
func NewSynchronizerWithLedgerStore(cfg *Config, executor ChunkExecutor, mempool MempoolNotifier, eventSub EventSubscriptionNotifier, storageService StorageServiceNotifier) (*Synchronizer, *LedgerStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	store, err := openLedgerStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	s := NewSynchronizer(cfg, executor, store, store, mempool, eventSub, storageService)
	return s, store, nil
}

// CommitNotifications returns the channel the driver reads ChunkCommit and
// StateSnapshotCommit notifications from.
func (s *Synchronizer) CommitNotifications() <-chan CommitNotification { return s.commit.Out() }

// ErrorNotifications returns the channel the driver reads per-chunk fatal
// errors from.
func (s *Synchronizer) ErrorNotifications() <-chan ErrorNotification { return s.errs.Out() }

// ExecuteTransactions enqueues a Transactions chunk to the executor worker
// (C2) with an awaiting send: the caller suspends if the executor queue is
// full (spec §4.1 backpressure).
func (s *Synchronizer) ExecuteTransactions(id NotificationId, submittedAt *time.Time, txns *TransactionListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error {
	return s.enqueueExec(NewTransactionsChunk(id, submittedAt, txns, targetLedger, endOfEpochInfo))
}

// ApplyTransactionOutputs enqueues a TransactionOutputs chunk to the
// executor worker (C2) with an awaiting send.
func (s *Synchronizer) ApplyTransactionOutputs(id NotificationId, submittedAt *time.Time, outputs *TransactionOutputListWithProof, targetLedger, endOfEpochInfo *LedgerInfo) error {
	return s.enqueueExec(NewTransactionOutputsChunk(id, submittedAt, outputs, targetLedger, endOfEpochInfo))
}

func (s *Synchronizer) enqueueExec(c Chunk) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrExecutorChannelClosed
	}
	chunksEnqueuedCounter.Inc(1)
	s.execChan <- c
	s.pending.increment()
	return nil
}

// InitializeStateSynchronizer creates the bootstrap channel and spawns the
// snapshot receiver worker (C6). It must be called at most once per
// Synchronizer instance; a second call returns ErrAlreadyInitialized and
// leaves the first bootstrap untouched (spec §9: re-initialization is
// rejected, never silently replaces the sender).
func (s *Synchronizer) InitializeStateSynchronizer(epochChangeProofs *EpochChangeProof, targetLedger *LedgerInfo, targetOutputs *TransactionOutputListWithProof) (*BootstrapHandle, error) {
	// Precondition, not a runtime error (spec §4.6/§9 item 5): a malformed
	// target missing its state-checkpoint transaction info is a caller bug.
	// Checked before bootstrapMu is taken so the panic never leaves it held.
	rootHash := firstStateCheckpointHash(targetOutputs)

	s.bootstrapMu.Lock()
	if s.statesChan != nil {
		s.bootstrapMu.Unlock()
		return nil, ErrAlreadyInitialized
	}

	s.statesChan = make(chan Chunk, s.cfg.MaxPendingDataChunks)
	s.bootstrapDone = make(chan struct{})
	statesChan := s.statesChan
	done := s.bootstrapDone
	s.bootstrapMu.Unlock()

	worker := &snapshotWorker{
		synchronizer:      s,
		in:                statesChan,
		done:              done,
		version:           targetLedger.Version(),
		expectedRootHash:  *rootHash,
		targetLedger:      targetLedger,
		targetOutputs:     targetOutputs,
		epochChangeProofs: epochChangeProofs,
		logger:            logger.New("worker", "snapshot"),
	}
	s.wg.Add(1)
	go worker.run()

	return &BootstrapHandle{done: done}, nil
}

// firstStateCheckpointHash extracts the root hash a bootstrap anchors on:
// the first transaction-info in targetOutputs that closes a state
// checkpoint. Panics if absent — the caller handed a malformed target,
// which is a precondition violation the original implementation also
// panics on (spec §4.6, SPEC_FULL.md supplemented feature 5).
func firstStateCheckpointHash(targetOutputs *TransactionOutputListWithProof) *Hash {
	for _, info := range targetOutputs.TransactionInfos {
		if info.StateCheckpointHash != nil {
			return info.StateCheckpointHash
		}
	}
	panic("statesync: InitializeStateSynchronizer: target_outputs has no state-checkpoint transaction info")
}

// SaveStateValues enqueues a States chunk to the snapshot worker (C6) with
// a non-blocking try-send: the driver gets an immediate failure rather
// than wedging, so it can retry the chunk (spec §4.1).
func (s *Synchronizer) SaveStateValues(id NotificationId, chunk *StateValueChunkWithProof) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrBootstrapNotInitialized
	}
	s.bootstrapMu.RLock()
	ch := s.statesChan
	s.bootstrapMu.RUnlock()
	if ch == nil {
		return ErrBootstrapNotInitialized
	}
	select {
	case ch <- NewStatesChunk(id, chunk):
		s.pending.increment()
		return nil
	default:
		return ErrBootstrapChannelFull
	}
}

// PendingStorageData reports whether any admitted chunk has yet to reach
// a terminal stage.
func (s *Synchronizer) PendingStorageData() bool {
	return s.pending.hasPending()
}

// ResetChunkExecutor synchronously resets the shared executor, used
// between consensus and sync hand-offs.
func (s *Synchronizer) ResetChunkExecutor() error {
	return s.executor.Reset()
}

// FinishChunkExecutor synchronously releases the executor's in-memory
// resources without stopping the pipeline's workers.
func (s *Synchronizer) FinishChunkExecutor() {
	s.executor.Finish()
}

// Close drops every Sender half C1 owns and waits for every worker to
// observe its input channel closing and exit, the Go analogue of "drop
// the synchronizer and join the worker handles" (spec §5).
func (s *Synchronizer) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.execChan)
	s.closeMu.Unlock()

	s.bootstrapMu.RLock()
	statesChan := s.statesChan
	s.bootstrapMu.RUnlock()
	if statesChan != nil {
		close(statesChan)
	}
	if s.kafka != nil {
		s.kafka.close()
	}
	s.wg.Wait()
}
