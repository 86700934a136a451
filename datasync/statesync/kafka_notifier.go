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
	"encoding/json"

	"github.com/Shopify/sarama"
	kafkaconfig "github.com/glowchain/glow/datasync/chaindatafetcher/kafka"
)

// kafkaNotifier is the concrete StorageServiceNotifier-shaped sink behind
// NotifierKafka: every committed chunk is published as one message to a
// single topic, the same one-message-per-event shape chaindatafetcher's
// Kafka repository uses for its own produced records.
type kafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// kafkaCommitMessage is the wire payload published for each commit. Events
// and transactions are carried as their already-opaque raw bytes; this
// notifier does not attempt to interpret them.
type kafkaCommitMessage struct {
	Transactions            [][]byte `json:"transactions"`
	Events                  [][]byte `json:"events"`
	ReconfigurationOccurred bool     `json:"reconfigurationOccurred,omitempty"`
}

// newKafkaNotifier dials a synchronous producer against brokers and
// prepares to publish to topic. It reuses GetDefaultKafkaConfig the same
// way chaindatafetcher's repository does, rather than hand-assembling a
// sarama.Config from scratch.
func newKafkaNotifier(brokers []string, topic string) (*kafkaNotifier, error) {
	cfg := kafkaconfig.GetDefaultKafkaConfig()
	cfg.Brokers = brokers
	cfg.SaramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	cfg.SaramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, cfg.SaramaConfig)
	if err != nil {
		return nil, err
	}
	return &kafkaNotifier{producer: producer, topic: topic}, nil
}

// NotifyCommit publishes one message per committed chunk. It satisfies the
// same NotifyCommit(ChunkCommitNotification) shape as StorageServiceNotifier
// so the post-commit worker (C5) can invoke it uniformly with the in-process
// sinks.
func (k *kafkaNotifier) NotifyCommit(n ChunkCommitNotification) error {
	payload := kafkaCommitMessage{
		Transactions:            make([][]byte, len(n.CommittedTransactions)),
		Events:                  make([][]byte, len(n.CommittedEvents)),
		ReconfigurationOccurred: n.ReconfigurationOccurred,
	}
	for i, tx := range n.CommittedTransactions {
		payload.Transactions[i] = tx.Raw
	}
	for i, ev := range n.CommittedEvents {
		payload.Events[i] = ev.Raw
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(body),
	})
	return err
}

func (k *kafkaNotifier) close() {
	if err := k.producer.Close(); err != nil {
		logger.Error("Failed to close Kafka producer", "err", err)
	}
}
