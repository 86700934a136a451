// Copyright 2018 The klaytn Authors
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

package database

import "github.com/glowchain/glow/common"

// cachingDatabase fronts a Database with an LRU read cache, the same role
// the node's chain accessors used common.Cache for in front of their own
// disk reads: Get consults the cache first, Put/Delete invalidate it so a
// stale entry never outlives the write that superseded it.
type cachingDatabase struct {
	Database
	cache common.Cache
}

// NewCachingDatabase wraps db with an LRU of the given entry count. Passing
// cacheSize <= 0 returns db unwrapped.
func NewCachingDatabase(db Database, cacheSize int) Database {
	if cacheSize <= 0 {
		return db
	}
	cache, err := common.NewCache(common.LRUConfig{CacheSize: cacheSize})
	if err != nil {
		logger.Error("Failed to build database cache, continuing uncached", "err", err)
		return db
	}
	return &cachingDatabase{Database: db, cache: cache}
}

func (c *cachingDatabase) Get(key []byte) ([]byte, error) {
	if v, ok := c.cache.Get(common.BytesKey(key)); ok {
		// A tombstone (recorded by Delete) has no []byte dynamic type, so
		// the assertion fails and falls through to the backing store,
		// which by then reflects the deletion too.
		if value, ok := v.([]byte); ok {
			return value, nil
		}
	}
	value, err := c.Database.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(common.BytesKey(key), value)
	return value, nil
}

func (c *cachingDatabase) Put(key, value []byte) error {
	if err := c.Database.Put(key, value); err != nil {
		return err
	}
	c.cache.Add(common.BytesKey(key), value)
	return nil
}

func (c *cachingDatabase) Delete(key []byte) error {
	if err := c.Database.Delete(key); err != nil {
		return err
	}
	c.cache.Add(common.BytesKey(key), nil)
	return nil
}

func (c *cachingDatabase) NewBatch() Batch {
	return &cachingBatch{Batch: c.Database.NewBatch(), cache: c.cache}
}

// cachingBatch keeps the front cache loosely coherent with batched writes:
// entries are recorded as the batch is built and only take effect once
// Write succeeds, matching the backing store's own durability point.
type cachingBatch struct {
	Batch
	cache   common.Cache
	pending []common.BytesKey
	values  [][]byte
}

func (b *cachingBatch) Put(key, value []byte) error {
	if err := b.Batch.Put(key, value); err != nil {
		return err
	}
	b.pending = append(b.pending, common.BytesKey(key))
	b.values = append(b.values, value)
	return nil
}

func (b *cachingBatch) Delete(key []byte) error {
	if err := b.Batch.Delete(key); err != nil {
		return err
	}
	b.pending = append(b.pending, common.BytesKey(key))
	b.values = append(b.values, nil)
	return nil
}

func (b *cachingBatch) Write() error {
	if err := b.Batch.Write(); err != nil {
		return err
	}
	for i, key := range b.pending {
		b.cache.Add(key, b.values[i])
	}
	return nil
}

func (b *cachingBatch) Reset() {
	b.Batch.Reset()
	b.pending = nil
	b.values = nil
}
