package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/opshub/console/internal/logx"
)

// messageWriter is the subset of *kafka.Writer used by Kafka.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notices as JSON messages keyed by notice ID. Notify
// queues the notice for a background publisher.
type Kafka struct {
	topic  string
	writer messageWriter
	logger zerolog.Logger
	queue  *queue
}

// NewKafka creates a Kafka sink writing to topic on the given brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker address is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return newKafka(topic, w), nil
}

func newKafka(topic string, w messageWriter) *Kafka {
	k := &Kafka{topic: topic, writer: w, logger: logx.Component("notify.kafka")}
	k.queue = newQueue(defaultQueueSize, defaultDeliveryTimeout, k.logger, k.Publish)
	return k
}

// Notify queues n and returns at once.
func (k *Kafka) Notify(_ context.Context, n Notice) {
	k.queue.enqueue(n)
}

// Publish writes a notice to the topic.
func (k *Kafka) Publish(ctx context.Context, n Notice) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.ID),
		Value: value,
		Time:  n.Timestamp,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to kafka: %w", err)
	}
	return nil
}

// Close publishes the queued notices, then closes the writer.
func (k *Kafka) Close() error {
	k.queue.close()
	return k.writer.Close()
}
