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
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/glowchain/glow/storage/database"
)

// fastcacheReceiver is the default StateSnapshotReceiver: an incremental,
// write-through ingester that mirrors the account-snapshot generator's own
// shape (an in-memory fastcache absorbing bursts of incoming entries, spilled
// to a batch once it grows past database.IdealBatchSize). Unlike the
// generator it replaces, it never iterates a trie; it only appends whatever
// key/value pairs the stream hands it.
type fastcacheReceiver struct {
	db     database.Database
	cache  *fastcache.Cache
	batch  database.Batch
	prefix string

	version    uint64
	root       Hash
	count      int
	started    time.Time
	lastReport time.Time
}

// newFastcacheReceiver builds a receiver scoped to one (version, root)
// bootstrap attempt. cacheBytes sizes the absorbing fastcache the same way
// the account-snapshot generator sized its own cache field.
func newFastcacheReceiver(db database.Database, version uint64, root Hash, cacheBytes int) *fastcacheReceiver {
	now := time.Now()
	return &fastcacheReceiver{
		db:         db,
		cache:      fastcache.New(cacheBytes),
		batch:      db.NewBatch(),
		prefix:     fmt.Sprintf("snap-%d-", version),
		version:    version,
		root:       root,
		started:    now,
		lastReport: now,
	}
}

// AddChunk ingests one segment of raw key/value pairs. Entries are set in the
// fastcache immediately (the receiver itself never reads them back) and added
// to the pending batch, which is flushed once it exceeds
// database.IdealBatchSize, the same threshold the original generator's batch
// loop checked on every trie leaf.
func (r *fastcacheReceiver) AddChunk(rawValues []StateKeyValue, proof []byte) error {
	for _, kv := range rawValues {
		key := r.scopedKey(kv.Key)
		r.cache.Set(key, kv.Value)
		if err := r.batch.Put(key, kv.Value); err != nil {
			return err
		}
	}
	r.count += len(rawValues)

	if r.batch.ValueSize() > database.IdealBatchSize {
		if err := r.batch.Write(); err != nil {
			return err
		}
		r.batch.Reset()
	}

	if time.Since(r.lastReport) > 8*time.Second {
		logger.Info("State snapshot generation in progress", "version", r.version, "entries", r.count, "elapsed", time.Since(r.started))
		r.lastReport = time.Now()
	}
	return nil
}

// Finish flushes any buffered entries and logs completion. It records no
// finished state, so later AddChunk or Finish calls are not rejected.
func (r *fastcacheReceiver) Finish() error {
	if r.batch.ValueSize() > 0 {
		if err := r.batch.Write(); err != nil {
			return err
		}
		r.batch.Reset()
	}
	logger.Info("State snapshot generation complete", "version", r.version, "entries", r.count, "elapsed", time.Since(r.started))
	return nil
}

func (r *fastcacheReceiver) scopedKey(key []byte) []byte {
	return append([]byte(r.prefix), key...)
}
