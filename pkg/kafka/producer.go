// Package kafka publishes storefront events to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer writes events to a single topic, keyed by routing key.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for topic on the given brokers.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("no kafka topic configured")
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           10 * time.Second,
		},
	}, nil
}

// Publish writes body with routingKey as the message key and header.
func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	msg := kafka.Message{
		Key:   []byte(routingKey),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "routing_key", Value: []byte(routingKey)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to kafka: %w", routingKey, err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
