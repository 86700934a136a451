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

	"github.com/glowchain/glow/storage/database"
)

// NotifierMode selects the optional external sink the post-commit worker
// (C5) fans commit notifications out to, in addition to the always-invoked
// mempool and event-subscription handlers. Mirrors
// ChainDataFetcherConfig.Mode's ModeKAS/ModeKafka split.
type NotifierMode int

const (
	// NotifierNone disables the Kafka sink; the mempool and
	// event-subscription notifiers, and a storage-service notifier when one
	// is passed to NewSynchronizer, still run.
	NotifierNone NotifierMode = iota
	// NotifierKafka fans commit notifications out to a Kafka topic via
	// kafka_notifier.go, in addition to the in-process sinks.
	NotifierKafka
)

func (m NotifierMode) String() string {
	switch m {
	case NotifierNone:
		return "none"
	case NotifierKafka:
		return "kafka"
	default:
		return "unknown"
	}
}

func notifierModeFromString(s string) (NotifierMode, error) {
	switch s {
	case "", "none":
		return NotifierNone, nil
	case "kafka":
		return NotifierKafka, nil
	default:
		return NotifierNone, fmt.Errorf("statesync: unknown notifier mode %q", s)
	}
}

// dbTypeFromString maps the TOML-friendly spelling of a backend onto
// database.DBType, mirroring notifierModeFromString's strict-reject-unknown
// shape so a typo in a node's config file fails fast instead of silently
// falling back to a default engine.
func dbTypeFromString(s string) (database.DBType, error) {
	switch s {
	case "", "memory":
		return database.MemoryDB, nil
	case "leveldb":
		return database.LevelDB, nil
	case "badger":
		return database.BadgerDBType, nil
	default:
		return database.MemoryDB, fmt.Errorf("statesync: unknown db type %q", s)
	}
}

func dbTypeToString(t database.DBType) string {
	switch t {
	case database.LevelDB:
		return "leveldb"
	case database.BadgerDBType:
		return "badger"
	default:
		return "memory"
	}
}

// DefaultMaxPendingDataChunks is the bounded-channel capacity used when a
// Config is constructed without an explicit override.
const DefaultMaxPendingDataChunks = 64

// Config holds the synchronizer's node-embeddable settings. There is
// deliberately no executor or storage timeout field: spec §5 forbids
// internal timeouts, so this config carries none to "fix" that via
// configuration either.
type Config struct {
	// MaxPendingDataChunks is both the pipeline depth and the admission
	// limit: every bounded inter-stage channel (C1->C2, C2->C3, C3->C4,
	// C4->C5) shares this one capacity (spec §4.1).
	MaxPendingDataChunks int

	// Notifier selects whether the post-commit worker also publishes each
	// commit to Kafka. It does not affect the StorageServiceNotifier passed
	// to NewSynchronizer, which is invoked separately whenever non-nil.
	Notifier NotifierMode

	// KafkaBrokers and KafkaTopic configure the Kafka notifier when
	// Notifier == NotifierKafka; otherwise unused.
	KafkaBrokers []string
	KafkaTopic   string

	// DBType selects the engine backing the default LedgerStore (see
	// openLedgerStore), the same selector role DBConfig.DBType plays for
	// the node's chain DBManager. MemoryDB needs no DataDir.
	DBType database.DBType
	// DataDir is the on-disk directory LevelDB/Badger open against;
	// unused for MemoryDB.
	DataDir string
	// LevelDBCacheSize and LevelDBHandles size the LevelDB engine the
	// same way DBConfig.LevelDBCacheSize/LevelDBHandles do; both are
	// ignored by the other two engines.
	LevelDBCacheSize int
	LevelDBHandles   int
	// MetaCacheSize is the LRU entry count fronting the ledger store's
	// bootstrap-progress metadata (LedgerStore.metaCache).
	MetaCacheSize int
}

// DefaultConfig returns the Config a node uses when its TOML file omits the
// [StateSync] section entirely.
func DefaultConfig() *Config {
	return &Config{
		MaxPendingDataChunks: DefaultMaxPendingDataChunks,
		Notifier:             NotifierNone,
		DBType:               database.MemoryDB,
		LevelDBCacheSize:     16,
		LevelDBHandles:       16,
		MetaCacheSize:        1024,
	}
}

// configMarshaling is the gencodec-style shadow of Config used for TOML
// encoding, matching the pattern datasync/dbsyncer's gen_config.go follows
// for DBConfig: an exported mirror struct whose fields are safe for
// naoina/toml to serialize directly (here, NotifierMode's int encoding is
// swapped for its string form so the on-disk file is readable/editable).
type configMarshaling struct {
	MaxPendingDataChunks int
	Notifier             string
	KafkaBrokers         []string
	KafkaTopic           string
	DBType               string
	DataDir              string
	LevelDBCacheSize     int
	LevelDBHandles       int
	MetaCacheSize        int
}

// MarshalTOML implements the naoina/toml Marshaler contract so a node's
// config writer can serialize Config directly into its TOML file.
func (c Config) MarshalTOML() (interface{}, error) {
	enc := configMarshaling{
		MaxPendingDataChunks: c.MaxPendingDataChunks,
		Notifier:             c.Notifier.String(),
		KafkaBrokers:         c.KafkaBrokers,
		KafkaTopic:           c.KafkaTopic,
		DBType:               dbTypeToString(c.DBType),
		DataDir:              c.DataDir,
		LevelDBCacheSize:     c.LevelDBCacheSize,
		LevelDBHandles:       c.LevelDBHandles,
		MetaCacheSize:        c.MetaCacheSize,
	}
	return &enc, nil
}

// UnmarshalTOML implements the naoina/toml Unmarshaler contract. Fields
// absent from the TOML file are left at whatever value Config already
// held (partial overrides over DefaultConfig), the same pointer-based
// partial-unmarshal idiom gen_config.go uses for DBConfig.
func (c *Config) UnmarshalTOML(unmarshal func(interface{}) error) error {
	type tomlConfig struct {
		MaxPendingDataChunks *int
		Notifier             *string
		KafkaBrokers         []string
		KafkaTopic           *string
		DBType               *string
		DataDir              *string
		LevelDBCacheSize     *int
		LevelDBHandles       *int
		MetaCacheSize        *int
	}
	var dec tomlConfig
	if err := unmarshal(&dec); err != nil {
		return err
	}
	if dec.MaxPendingDataChunks != nil {
		c.MaxPendingDataChunks = *dec.MaxPendingDataChunks
	}
	if dec.Notifier != nil {
		mode, err := notifierModeFromString(*dec.Notifier)
		if err != nil {
			return err
		}
		c.Notifier = mode
	}
	if dec.KafkaBrokers != nil {
		c.KafkaBrokers = dec.KafkaBrokers
	}
	if dec.KafkaTopic != nil {
		c.KafkaTopic = *dec.KafkaTopic
	}
	if dec.DBType != nil {
		dbType, err := dbTypeFromString(*dec.DBType)
		if err != nil {
			return err
		}
		c.DBType = dbType
	}
	if dec.DataDir != nil {
		c.DataDir = *dec.DataDir
	}
	if dec.LevelDBCacheSize != nil {
		c.LevelDBCacheSize = *dec.LevelDBCacheSize
	}
	if dec.LevelDBHandles != nil {
		c.LevelDBHandles = *dec.LevelDBHandles
	}
	if dec.MetaCacheSize != nil {
		c.MetaCacheSize = *dec.MetaCacheSize
	}
	return nil
}
