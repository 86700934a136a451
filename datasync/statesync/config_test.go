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
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// setField writes a named field on the pointer UnmarshalTOML hands its
// unmarshal callback. The concrete shadow type is unexported and local to
// config.go, so reflection stands in for a naoina/toml decoder here.
func setField(t *testing.T, v interface{}, name string, value interface{}) {
	t.Helper()
	field := reflect.ValueOf(v).Elem().FieldByName(name)
	require.True(t, field.IsValid(), "no field named %q on decoded shadow", name)
	field.Set(reflect.ValueOf(value))
}

func TestConfig_MarshalTOMLUsesStringNotifier(t *testing.T) {
	cfg := Config{
		MaxPendingDataChunks: 128,
		Notifier:             NotifierKafka,
		KafkaBrokers:         []string{"broker-a:9092", "broker-b:9092"},
		KafkaTopic:           "statesync-commits",
	}

	encoded, err := cfg.MarshalTOML()
	require.NoError(t, err)
	shadow, ok := encoded.(*configMarshaling)
	require.True(t, ok)
	require.Equal(t, "kafka", shadow.Notifier)
	require.Equal(t, cfg.KafkaBrokers, shadow.KafkaBrokers)
}

func TestConfig_UnmarshalTOMLPartialOverride(t *testing.T) {
	cfg := DefaultConfig()
	topic := "override-topic"

	err := cfg.UnmarshalTOML(func(v interface{}) error {
		setField(t, v, "KafkaTopic", &topic)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, topic, cfg.KafkaTopic)
	// Fields absent from the TOML payload keep DefaultConfig's values.
	require.Equal(t, DefaultMaxPendingDataChunks, cfg.MaxPendingDataChunks)
	require.Equal(t, NotifierNone, cfg.Notifier)
}

func TestConfig_UnmarshalTOMLOverridesMaxPendingAndNotifier(t *testing.T) {
	cfg := DefaultConfig()
	max := 256
	mode := "kafka"

	err := cfg.UnmarshalTOML(func(v interface{}) error {
		setField(t, v, "MaxPendingDataChunks", &max)
		setField(t, v, "Notifier", &mode)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 256, cfg.MaxPendingDataChunks)
	require.Equal(t, NotifierKafka, cfg.Notifier)
}

func TestConfig_UnmarshalTOMLUnknownNotifierIsRejected(t *testing.T) {
	cfg := DefaultConfig()
	bad := "not-a-real-notifier"

	err := cfg.UnmarshalTOML(func(v interface{}) error {
		setField(t, v, "Notifier", &bad)
		return nil
	})
	require.Error(t, err)
}
