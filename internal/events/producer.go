// Package events publishes asset lifecycle events to Kafka so downstream
// consumers (thumbnailers, indexers) can react to uploads without polling.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// AssetUploaded is the payload published after each successful upload.
type AssetUploaded struct {
	Key         string    `json:"key"`
	PublicURL   string    `json:"public_url"`
	Category    string    `json:"category"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Name        string    `json:"name"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Publisher is the event sink the upload service depends on.
type Publisher interface {
	PublishAssetUploaded(event AssetUploaded) error
	Close()
}

// Producer wraps a Kafka producer with delivery report handling.
type Producer struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
}

// NewProducer creates an idempotent Kafka producer for asset events.
func NewProducer(cfg *Config, logger *slog.Logger) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Brokers,
		"enable.idempotence":                    cfg.EnableIdempotence,
		"acks":                                  cfg.Acks,
		"max.in.flight.requests.per.connection": 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	producer := &Producer{
		producer: p,
		topic:    cfg.AssetEventsTopic,
		logger:   logger,
	}

	go producer.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.AssetEventsTopic)

	return producer, nil
}

// PublishAssetUploaded publishes an asset-uploaded event. Delivery is
// asynchronous; failures surface through the delivery report handler.
func (p *Producer) PublishAssetUploaded(event AssetUploaded) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Key),
		Value: jsonData,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.Debug("Asset event published",
		"topic", p.topic,
		"key", event.Key,
		"size", len(jsonData))

	return nil
}

// handleDeliveryReports drains the producer's event channel and logs
// delivery failures.
func (p *Producer) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Asset event delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"error", ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.Error("Kafka producer error", "error", ev)
		}
	}
}

// Close flushes pending messages and shuts down the producer.
func (p *Producer) Close() {
	// Give in-flight messages a chance to be delivered
	p.producer.Flush(5000)
	p.producer.Close()
}
