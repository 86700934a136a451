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

// Package database is the key/value storage layer the ledger store is built
// on. It is the same Putter/Batch/Iteratee split the node's original
// DBManager used against its chain data, scoped down to what a ledger store
// needs: a flat key/value space per logical store (ledger info, jellyfish
// tree nodes, transaction accumulator, event accumulator, snapshot chunks),
// each backed by one physical engine.
package database

import (
	"errors"
	"sync"

	"github.com/glowchain/glow/log"
)

var logger = log.NewModuleLogger(log.StorageDatabase)

// ErrKeyNotFound is returned by Get when the requested key is absent, so
// callers can distinguish a missing key from a storage engine failure.
var ErrKeyNotFound = errors.New("database: key not found")

// IdealBatchSize is the recommended amount of data to batch before writing
// it to a backing store, balancing memory consumption against write
// amplification. Used by the snapshot receiver to decide when to flush.
const IdealBatchSize = 100 * 1024

// DBType identifies the storage engine backing a Database, the same
// distinction the node's DBManager made when choosing NewLevelDBManager vs
// a Badger- or memory-backed one.
type DBType int

const (
	LevelDB DBType = iota
	BadgerDBType
	MemoryDB
)

func (t DBType) String() string {
	switch t {
	case LevelDB:
		return "LevelDB"
	case BadgerDBType:
		return "BadgerDB"
	case MemoryDB:
		return "MemoryDB"
	default:
		return "Unknown"
	}
}

// Putter wraps the database write operation supported by both Database and
// Batch.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Deleter wraps the database delete operation supported by both Database
// and Batch.
type Deleter interface {
	Delete(key []byte) error
}

// Batch is a write-only database that commits changes to its host database
// when Write is called. A Batch cannot be used concurrently.
type Batch interface {
	Putter
	Deleter
	ValueSize() int // amount of data in the batch
	Write() error
	// Reset resets the batch for reuse.
	Reset()
}

// Database wraps all the methods a backing key/value store must provide.
type Database interface {
	Type() DBType
	Putter
	Deleter
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Close()
	NewBatch() Batch
	Meter(prefix string)
}

// NewDatabase opens (creating if absent) a Database of the requested type
// at dir, mirroring the switch the node's DBManager made in NewDBManager.
// MemoryDB ignores dir.
func NewDatabase(dbType DBType, dir string, cacheSizeMB, numHandles int) (Database, error) {
	switch dbType {
	case LevelDB:
		return NewLDBDatabase(dir, cacheSizeMB, numHandles)
	case BadgerDBType:
		return NewBadgerDB(dir)
	case MemoryDB:
		return NewMemDatabase(), nil
	default:
		return nil, errors.New("database: unknown DBType")
	}
}

// MemDatabase is an ephemeral, in-process Database, used by tests and by
// the synchronizer's own unit tests for the ledger store's metadata and
// tree-node stand-ins, the same role klaytn's MemDatabase played against
// its chain accessors.
type MemDatabase struct {
	lock sync.RWMutex
	db   map[string][]byte
}

func NewMemDatabase() *MemDatabase {
	return &MemDatabase{db: make(map[string][]byte)}
}

func (db *MemDatabase) Type() DBType { return MemoryDB }

func (db *MemDatabase) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	db.db[string(key)] = cp
	return nil
}

func (db *MemDatabase) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	_, ok := db.db[string(key)]
	return ok, nil
}

func (db *MemDatabase) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if entry, ok := db.db[string(key)]; ok {
		cp := make([]byte, len(entry))
		copy(cp, entry)
		return cp, nil
	}
	return nil, ErrKeyNotFound
}

func (db *MemDatabase) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.db, string(key))
	return nil
}

func (db *MemDatabase) Close() {}

func (db *MemDatabase) Meter(prefix string) {
	logger.Warn("MemDatabase does not support metrics", "prefix", prefix)
}

func (db *MemDatabase) NewBatch() Batch {
	return &memBatch{db: db}
}

func (db *MemDatabase) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.db)
}

type memBatchEntry struct {
	key, value []byte
	deleted    bool
}

type memBatch struct {
	db     *MemDatabase
	writes []memBatchEntry
	size   int
}

func (b *memBatch) Put(key, value []byte) error {
	b.writes = append(b.writes, memBatchEntry{key: key, value: value})
	b.size += len(value)
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.writes = append(b.writes, memBatchEntry{key: key, deleted: true})
	return nil
}

func (b *memBatch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()
	for _, entry := range b.writes {
		if entry.deleted {
			delete(b.db.db, string(entry.key))
			continue
		}
		cp := make([]byte, len(entry.value))
		copy(cp, entry.value)
		b.db.db[string(entry.key)] = cp
	}
	return nil
}

func (b *memBatch) ValueSize() int { return b.size }

func (b *memBatch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}

// Table returns a Database view scoped to keys under prefix, so a single
// physical engine can host several logical stores (ledger info, tree nodes,
// accumulators) without their key spaces colliding.
func NewTable(db Database, prefix string) Database {
	return &table{db: db, prefix: prefix}
}
