// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Kafka metric Producer
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/omec-project/pgwc/factory"
	"github.com/omec-project/pgwc/logger"
)

type SessionOp string

const (
	SessionOpCreate SessionOp = "create"
	SessionOpDelete SessionOp = "delete"
)

// SessionEvent is the record streamed for every PDN session created or released.
type SessionEvent struct {
	Operation  SessionOp `json:"operation"`
	SourceNfId string    `json:"sourceNfId"`
	Ref        string    `json:"ref"`
	Imsi       string    `json:"imsi"`
	Apn        string    `json:"apn"`
	LocalTeid  uint32    `json:"localS5cTeid"`
	PeerTeid   uint32    `json:"peerS5cTeid"`
	Bearers    int       `json:"bearers"`
	Timestamp  time.Time `json:"timestamp"`
}

type Writer struct {
	kafkaWriter *kafka.Writer
}

var StatWriter Writer

func InitialiseKafkaStream(config *factory.Configuration) error {
	if !config.KafkaInfo.KafkaEnabled() {
		logger.KafkaLog.Info("Kafka disabled")
		return nil
	}

	brokerUrl := "sd-core-kafka-headless:9092"
	topicName := factory.PGWC_DEFAULT_KAFKA_TOPIC

	if config.KafkaInfo.BrokerUri != "" && config.KafkaInfo.BrokerPort != 0 {
		brokerUrl = fmt.Sprintf("%s:%d", config.KafkaInfo.BrokerUri, config.KafkaInfo.BrokerPort)
	}

	logger.KafkaLog.Debugf("initialise kafka broker url [%v]", brokerUrl)

	if config.KafkaInfo.Topic != "" {
		topicName = config.KafkaInfo.Topic
	}

	logger.KafkaLog.Debugf("initialise kafka Topic [%v]", topicName)

	producer := kafka.Writer{
		Addr:         kafka.TCP(brokerUrl),
		Topic:        topicName,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	StatWriter = Writer{
		kafkaWriter: &producer,
	}
	return nil
}

func GetWriter() Writer {
	return StatWriter
}

func kafkaEnabled() bool {
	cfg := factory.PgwcConfig.Configuration
	return cfg != nil && cfg.KafkaInfo.KafkaEnabled()
}

func (writer Writer) SendMessage(message []byte) error {
	if !kafkaEnabled() || writer.kafkaWriter == nil {
		return nil
	}
	msg := kafka.Message{Value: message}
	if err := writer.kafkaWriter.WriteMessages(context.Background(), msg); err != nil {
		logger.KafkaLog.Errorf("kafka send message write error: [%v] ", err.Error())
		return err
	}
	return nil
}

var nfInstanceId string

// initialised by context package
func SetNfInstanceId(s string) {
	nfInstanceId = s
}

func PublishSessionEvent(evt SessionEvent) error {
	if !kafkaEnabled() {
		return nil
	}
	evt.SourceNfId = nfInstanceId
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if msg, err := json.Marshal(evt); err != nil {
		logger.KafkaLog.Errorf("publishing session event marshal error [%v] ", err.Error())
		return err
	} else {
		logger.KafkaLog.Debugf("publishing session event[%s] ", msg)
		err := StatWriter.SendMessage(msg)
		if err != nil {
			logger.KafkaLog.Errorf("publishing session event error [%v] ", err.Error())
		}
	}
	return nil
}

// CloseKafkaStream flushes and closes the session event writer.
func CloseKafkaStream() error {
	if StatWriter.kafkaWriter == nil {
		return nil
	}
	err := StatWriter.kafkaWriter.Close()
	StatWriter.kafkaWriter = nil
	return err
}
