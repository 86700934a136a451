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
	"encoding/binary"
	"fmt"

	"github.com/glowchain/glow/common"
	"github.com/glowchain/glow/storage/database"
)

const defaultSnapshotCacheBytes = 64 * 1024 * 1024

var (
	metadataKeyPrefix = []byte("statesync-metadata-")
	epochProofKey     = []byte("statesync-epoch-proof")
)

// LedgerStore is the default DbReaderWriter and MetadataStorageInterface:
// a single database.Database holding both the bootstrap progress record and
// every snapshot receiver's absorbed key/value pairs, the same one-engine,
// many-logical-stores layout storage/database.NewTable scopes for the
// node's chain accessors.
type LedgerStore struct {
	db         database.Database
	metaCache  common.Cache
	cacheBytes int
}

// NewLedgerStore opens a ledger store over db. metaCacheSize is the number
// of metadata entries kept hot in an LRU front of the backing store.
func NewLedgerStore(db database.Database, metaCacheSize int) (*LedgerStore, error) {
	cache, err := common.NewCache(common.LRUConfig{CacheSize: metaCacheSize})
	if err != nil {
		return nil, err
	}
	return &LedgerStore{db: db, metaCache: cache, cacheBytes: defaultSnapshotCacheBytes}, nil
}

// openLedgerStore opens the default LedgerStore described by cfg: the
// engine cfg.DBType selects, wrapped in an LRU read cache for on-disk
// engines the same way the node's chain accessors fronted their own
// DBManager with NewCachingDatabase (MemoryDB skips the wrapper; it is
// already an in-process map).
func openLedgerStore(cfg *Config) (*LedgerStore, error) {
	db, err := database.NewDatabase(cfg.DBType, cfg.DataDir, cfg.LevelDBCacheSize, cfg.LevelDBHandles)
	if err != nil {
		return nil, err
	}
	if cfg.DBType != database.MemoryDB {
		db = database.NewCachingDatabase(db, cfg.MetaCacheSize)
	}
	return NewLedgerStore(db, cfg.MetaCacheSize)
}

// GetStateSnapshotReceiver opens a fresh incremental receiver for a
// bootstrap at (version, expectedRootHash). Two concurrent bootstraps
// against the same store are not supported; callers serialize through
// InitializeStateSynchronizer's single-call guard instead.
func (s *LedgerStore) GetStateSnapshotReceiver(version uint64, expectedRootHash Hash) (StateSnapshotReceiver, error) {
	return newFastcacheReceiver(s.db, version, expectedRootHash, s.cacheBytes), nil
}

// FinalizeStateSnapshot durably records that version is the ledger store's
// new base snapshot, along with the epoch-change proof that justified
// skipping straight to it.
func (s *LedgerStore) FinalizeStateSnapshot(version uint64, targetOutputs *TransactionOutputListWithProof, epochChangeProofs *EpochChangeProof) error {
	batch := s.db.NewBatch()
	if err := batch.Put(epochProofKey, epochChangeProofs.Raw); err != nil {
		return err
	}
	if err := batch.Put(metadataVersionKey(), encodeUint64(version)); err != nil {
		return err
	}
	return batch.Write()
}

// UpdateLastPersistedStateValueIndex persists bootstrap progress so a
// restarted node can resume an in-flight snapshot instead of restarting it.
// Writes are plain Put calls: the same (targetLedger.Version(), lastIndex)
// pair written twice is a no-op observable difference, satisfying the
// idempotent-under-retry contract MetadataStorageInterface documents.
func (s *LedgerStore) UpdateLastPersistedStateValueIndex(targetLedger *LedgerInfo, lastIndex uint64, isLast bool) error {
	key := metadataProgressKey(targetLedger.Version())
	value := encodeProgress(lastIndex, isLast)
	if err := s.db.Put(key, value); err != nil {
		return err
	}
	s.metaCache.Add(common.BytesKey(key), value)
	return nil
}

// LastPersistedStateValueIndex reads back progress written by
// UpdateLastPersistedStateValueIndex, preferring the LRU front.
func (s *LedgerStore) LastPersistedStateValueIndex(version uint64) (lastIndex uint64, isLast bool, found bool, err error) {
	key := metadataProgressKey(version)
	if v, ok := s.metaCache.Get(common.BytesKey(key)); ok {
		idx, last := decodeProgress(v.([]byte))
		return idx, last, true, nil
	}
	raw, err := s.db.Get(key)
	if err == database.ErrKeyNotFound {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	idx, last := decodeProgress(raw)
	s.metaCache.Add(common.BytesKey(key), raw)
	return idx, last, true, nil
}

func metadataProgressKey(version uint64) []byte {
	return append(append([]byte{}, metadataKeyPrefix...), []byte(fmt.Sprintf("progress-%d", version))...)
}

func metadataVersionKey() []byte {
	return append([]byte{}, metadataKeyPrefix...)
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func encodeProgress(lastIndex uint64, isLast bool) []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint64(buf, lastIndex)
	if isLast {
		buf[8] = 1
	}
	return buf
}

func decodeProgress(buf []byte) (lastIndex uint64, isLast bool) {
	if len(buf) < 9 {
		return 0, false
	}
	return binary.BigEndian.Uint64(buf[:8]), buf[8] == 1
}
