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

package database

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewDatabase_AllEngines drives NewDatabase's selector switch across
// every DBType with a basic Put/Get/Delete/Close round trip, the same
// smoke test the node's DBManager construction tests ran per backend.
func TestNewDatabase_AllEngines(t *testing.T) {
	cases := []struct {
		name   string
		dbType DBType
		onDisk bool
	}{
		{name: "LevelDB", dbType: LevelDB, onDisk: true},
		{name: "BadgerDB", dbType: BadgerDBType, onDisk: true},
		{name: "MemoryDB", dbType: MemoryDB, onDisk: false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			dir := ""
			if c.onDisk {
				d, err := ioutil.TempDir("", "klaytn-test-database-"+c.name)
				assert.NoError(t, err)
				defer os.RemoveAll(d)
				dir = d
			}

			db, err := NewDatabase(c.dbType, dir, 16, 16)
			assert.NoError(t, err)
			defer db.Close()

			key, value := []byte("k"), []byte("v")
			assert.NoError(t, db.Put(key, value))

			got, err := db.Get(key)
			assert.NoError(t, err)
			assert.Equal(t, value, got)

			assert.NoError(t, db.Delete(key))

			// Only assert that the deleted key no longer reads back the
			// value.
			got, _ = db.Get(key)
			assert.NotEqual(t, value, got)
		})
	}
}

// TestNewTable_ScopesKeysByPrefix mirrors the node's per-logical-store
// scoping of a single physical engine: two tables over the same backing
// MemDatabase never see each other's keys.
func TestNewTable_ScopesKeysByPrefix(t *testing.T) {
	db := NewMemDatabase()
	defer db.Close()

	ledgerTable := NewTable(db, "ledger-")
	eventTable := NewTable(db, "event-")

	assert.NoError(t, ledgerTable.Put([]byte("k"), []byte("ledger-value")))
	assert.NoError(t, eventTable.Put([]byte("k"), []byte("event-value")))

	got, err := ledgerTable.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("ledger-value"), got)

	got, err = eventTable.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("event-value"), got)

	raw, err := db.Get([]byte("ledger-k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("ledger-value"), raw)
}

// TestNewCachingDatabase_ServesFromFrontCache exercises the golang-lru
// wrapper: a Put through the wrapper is read back, a second Put replaces the
// cached value, and a Delete through the wrapper makes Get report
// ErrKeyNotFound rather than the stale cached entry.
func TestNewCachingDatabase_ServesFromFrontCache(t *testing.T) {
	inner := NewMemDatabase()
	defer inner.Close()
	cached := NewCachingDatabase(inner, 16)

	assert.NoError(t, cached.Put([]byte("k"), []byte("v1")))
	got, err := cached.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	assert.NoError(t, cached.Put([]byte("k"), []byte("v2")))
	got, err = cached.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	assert.NoError(t, cached.Delete([]byte("k")))
	_, err = cached.Get([]byte("k"))
	assert.Equal(t, ErrKeyNotFound, err)
}
