package statistics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/charmbracelet/log"
)

// KafkaSink publishes finished games as JSON messages keyed by game id,
// so downstream consumers see each game's result exactly once per
// partition ordering.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	log      *log.Logger
}

// NewKafkaSink connects a synchronous producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *log.Logger) (*KafkaSink, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting kafka producer: %w", err)
	}
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		log:      logger.WithPrefix("statistics"),
	}, nil
}

func (s *KafkaSink) RecordGameResult(_ context.Context, result GameResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding game result: %w", err)
	}
	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(result.GameID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publishing game result: %w", err)
	}
	s.log.Debug("game result published",
		"game", result.GameID, "partition", partition, "offset", offset)
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
